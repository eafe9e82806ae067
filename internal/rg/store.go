package rg

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// ErrNoState é retornado pelo Storage quando a chave não existe.
var ErrNoState = errors.New("rg: no persisted state")

// Storage é o backend chave-valor onde o agregado é gravado como JSON.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// Option configura o Store.
type Option func(*Store)

// WithClock injeta o relógio usado em TakeBreak e nas flags derivadas.
func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

// WithLogger define o logger estruturado.
func WithLogger(l *zap.Logger) Option { return func(s *Store) { s.log = l } }

// WithOnChange registra um callback chamado após cada mutação persistida (ou não).
func WithOnChange(fn func(View)) Option { return func(s *Store) { s.onChange = fn } }

// WithOnPersistError registra o callback de métrica para falhas de escrita.
func WithOnPersistError(fn func()) Option { return func(s *Store) { s.onPersistErr = fn } }

// WithOnLoadError registra o callback de métrica para leituras com erro ou JSON corrompido.
func WithOnLoadError(fn func()) Option { return func(s *Store) { s.onLoadErr = fn } }

// Store é o único escritor do SessionState de uma chave.
// Toda mutação grava o agregado inteiro antes de retornar; falhas do backend
// nunca chegam ao chamador, o estado em memória continua valendo.
type Store struct {
	mu      sync.Mutex
	storage Storage
	key     string
	state   SessionState

	now          func() time.Time
	log          *zap.Logger
	onChange     func(View)
	onPersistErr func()
	onLoadErr    func()

	// retired é marcado quando o Registry despeja o store; a partir daí
	// leituras e escritas seguem para o store vivo via successor.
	retired   atomic.Bool
	successor func(ctx context.Context) *Store
}

// NewStore cria o store e já carrega o estado persistido.
func NewStore(ctx context.Context, storage Storage, key string, opts ...Option) *Store {
	s := &Store{
		storage: storage,
		key:     key,
		state:   DefaultState(),
		now:     time.Now,
		log:     zap.NewNop(),
	}
	for _, o := range opts {
		o(s)
	}
	s.Load(ctx)
	return s
}

// Key retorna a chave de persistência.
func (s *Store) Key() string { return s.key }

// Load relê o backend. Chave ausente, erro de leitura ou JSON inválido resultam no estado default.
func (s *Store) Load(ctx context.Context) SessionState {
	s.mu.Lock()
	if next := s.handoff(); next != nil {
		s.mu.Unlock()
		return next(ctx).Load(ctx)
	}
	defer s.mu.Unlock()
	s.state = s.read(ctx)
	return s.state.Clone()
}

func (s *Store) read(ctx context.Context) SessionState {
	if s.storage == nil {
		return DefaultState()
	}
	raw, err := s.storage.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNoState) {
			s.log.Warn("session state read failed, using defaults", zap.String("key", s.key), zap.Error(err))
			s.loadFailed()
		}
		return DefaultState()
	}
	st, err := DecodeState(raw)
	if err != nil {
		s.log.Warn("corrupt session state, using defaults", zap.String("key", s.key), zap.Error(err))
		s.loadFailed()
		return DefaultState()
	}
	return st
}

func (s *Store) loadFailed() {
	if s.onLoadErr != nil {
		s.onLoadErr()
	}
}

// State retorna uma cópia do agregado atual.
func (s *Store) State() SessionState {
	s.mu.Lock()
	if next := s.handoff(); next != nil {
		s.mu.Unlock()
		return next(context.Background()).State()
	}
	defer s.mu.Unlock()
	return s.state.Clone()
}

// View retorna o snapshot com as flags derivadas no instante atual do relógio.
func (s *Store) View() View {
	s.mu.Lock()
	if next := s.handoff(); next != nil {
		s.mu.Unlock()
		return next(context.Background()).View()
	}
	defer s.mu.Unlock()
	return ViewAt(s.state.Clone(), s.nowMs())
}

// TakeBreak inicia (ou sobrescreve) uma pausa de hours horas a partir de agora.
func (s *Store) TakeBreak(ctx context.Context, hours float64) View {
	return s.mutate(ctx, "take_break", func(st *SessionState, nowMs int64) {
		st.BreakEndsAt = nowMs + int64(hours*float64(msPerHour))
	})
}

// EndBreakEarly encerra a pausa imediatamente, ativa ou não.
func (s *Store) EndBreakEarly(ctx context.Context) View {
	return s.mutate(ctx, "end_break", func(st *SessionState, _ int64) {
		st.BreakEndsAt = 0
	})
}

// SetLossLimit define o teto de perdas da sessão; não zera as perdas acumuladas.
func (s *Store) SetLossLimit(ctx context.Context, dollars float64) View {
	return s.mutate(ctx, "set_loss_limit", func(st *SessionState, _ int64) {
		st.LossLimit = dollars
	})
}

// RemoveLossLimit remove o limite e zera as perdas da sessão.
func (s *Store) RemoveLossLimit(ctx context.Context) View {
	return s.mutate(ctx, "remove_loss_limit", func(st *SessionState, _ int64) {
		st.LossLimit = NoLossLimit
		st.SessionLosses = 0
	})
}

// RecordBet adiciona a aposta ao histórico (máx. MaxHistory) e soma perdas.
func (s *Store) RecordBet(ctx context.Context, bet BetRecord) View {
	return s.mutate(ctx, "record_bet", func(st *SessionState, _ int64) {
		st.BetHistory = trimHistory(append(st.BetHistory, bet))
		if bet.Result == ResultLoss {
			st.SessionLosses = addMoney(st.SessionLosses, bet.Amount)
		}
	})
}

// ResetSession zera perdas e histórico; pausa e limite permanecem.
func (s *Store) ResetSession(ctx context.Context) View {
	return s.mutate(ctx, "reset_session", func(st *SessionState, _ int64) {
		st.SessionLosses = 0
		st.BetHistory = []BetRecord{}
	})
}

// mutate aplica fn sobre uma cópia, persiste e só então publica o novo estado.
func (s *Store) mutate(ctx context.Context, op string, fn func(*SessionState, int64)) View {
	s.mu.Lock()
	if next := s.handoff(); next != nil {
		s.mu.Unlock()
		return next(ctx).mutate(ctx, op, fn)
	}
	nowMs := s.nowMs()
	next := s.state.Clone()
	fn(&next, nowMs)
	s.state = next
	s.persist(ctx, op)
	v := ViewAt(s.state.Clone(), nowMs)
	s.mu.Unlock()

	if s.onChange != nil {
		s.onChange(v)
	}
	return v
}

func (s *Store) persist(ctx context.Context, op string) {
	if s.storage == nil {
		return
	}
	raw, err := EncodeState(s.state)
	if err == nil {
		err = s.storage.Set(ctx, s.key, raw)
	}
	if err != nil {
		s.log.Warn("session state persist failed, keeping in-memory state",
			zap.String("key", s.key), zap.String("op", op), zap.Error(err))
		if s.onPersistErr != nil {
			s.onPersistErr()
		}
		return
	}
	s.log.Debug("session state persisted", zap.String("key", s.key), zap.String("op", op))
}

// handoff devolve o resolvedor do store vivo quando este foi despejado.
// Deve ser chamado com s.mu travado e o lock solto antes de seguir.
func (s *Store) handoff() func(context.Context) *Store {
	if s.successor != nil && s.retired.Load() {
		return s.successor
	}
	return nil
}

// drain espera a mutação em andamento (se houver) terminar de persistir.
func (s *Store) drain() {
	s.mu.Lock()
	s.mu.Unlock()
}

func (s *Store) nowMs() int64 { return s.now().UnixMilli() }
