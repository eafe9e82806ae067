package rg

import (
	"context"
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/radieske/responsible-gambling/internal/shared/logger"
)

const (
	// DefaultKeyPrefix é o namespace das chaves de estado.
	DefaultKeyPrefix = "rg:session:"
	// DefaultUserID é usado em deployments de usuário único.
	DefaultUserID = "default"
)

// Registry é o dono, dentro do processo, dos stores por usuário.
// Em qualquer instante existe no máximo um store vivo por usuário: um store
// despejado do LRU é aposentado e repassa chamadas ao sucessor, que só é
// carregado depois da última escrita do anterior chegar ao backend.
type Registry struct {
	mu      sync.Mutex
	stores  *lru.Cache[string, *Store]
	retired map[string]*Store // despejados com escrita possivelmente em andamento
	loads   singleflight.Group
	storage Storage
	prefix  string
	log     *zap.Logger
	opts    []Option

	// OnChange recebe userID e o novo snapshot após cada mutação.
	OnChange func(userID string, v View)
}

// NewRegistry cria um registry com no máximo size stores em memória.
// Stores despejados são recarregados do backend na próxima chamada.
func NewRegistry(storage Storage, prefix string, size int, log *zap.Logger, opts ...Option) (*Registry, error) {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if log == nil {
		log = zap.NewNop()
	}
	r := &Registry{
		retired: make(map[string]*Store),
		storage: storage,
		prefix:  prefix,
		log:     log,
		opts:    opts,
	}
	cache, err := lru.NewWithEvict[string, *Store](size, r.retire)
	if err != nil {
		return nil, fmt.Errorf("session registry: %w", err)
	}
	r.stores = cache
	return r, nil
}

// Key monta a chave de persistência do usuário.
func (r *Registry) Key(userID string) string { return r.prefix + userID }

// Store devolve (carregando se necessário) o store do usuário.
// A leitura do backend acontece fora do lock global; cargas concorrentes
// do mesmo usuário são unificadas.
func (r *Registry) Store(ctx context.Context, userID string) *Store {
	if s, ok := r.cached(userID); ok {
		return s
	}
	v, _, _ := r.loads.Do(userID, func() (interface{}, error) {
		r.mu.Lock()
		if s, ok := r.stores.Get(userID); ok {
			r.mu.Unlock()
			return s, nil
		}
		prev := r.retired[userID]
		r.mu.Unlock()

		if prev != nil {
			prev.drain()
		}
		s := r.load(ctx, userID)

		r.mu.Lock()
		r.stores.Add(userID, s)
		r.mu.Unlock()
		return s, nil
	})
	return v.(*Store)
}

func (r *Registry) cached(userID string) (*Store, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stores.Get(userID)
}

func (r *Registry) load(ctx context.Context, userID string) *Store {
	opts := append([]Option{WithLogger(logger.ForUser(r.log, userID))}, r.opts...)
	opts = append(opts, WithOnChange(func(v View) {
		if r.OnChange != nil {
			r.OnChange(userID, v)
		}
	}))
	s := NewStore(ctx, r.storage, r.Key(userID), opts...)
	s.successor = func(ctx context.Context) *Store { return r.Store(ctx, userID) }
	return s
}

// retire é o callback de despejo do LRU; roda dentro de stores.Add, com r.mu travado.
func (r *Registry) retire(userID string, s *Store) {
	s.retired.Store(true)
	r.retired[userID] = s
	go func() {
		s.drain()
		r.mu.Lock()
		if r.retired[userID] == s {
			delete(r.retired, userID)
		}
		r.mu.Unlock()
	}()
}

// RecordBet é o atalho usado pela ingestão de apostas liquidadas.
func (r *Registry) RecordBet(ctx context.Context, userID string, bet BetRecord) View {
	return r.Store(ctx, userID).RecordBet(ctx, bet)
}

// Len retorna quantos stores estão em memória.
func (r *Registry) Len() int { return r.stores.Len() }
