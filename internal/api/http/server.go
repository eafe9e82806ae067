package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/responsible-gambling/internal/rg"
)

// MaxBreakHours limita pausas a um ano
const MaxBreakHours = 24 * 365

// Sessions devolve o store do usuário (rg.Registry em produção)
type Sessions interface {
	Store(ctx context.Context, userID string) *rg.Store
}

// Server expõe a API REST de jogo responsável e o endpoint WS
type Server struct {
	log      *zap.Logger
	sessions Sessions
	origins  []string
	ws       http.HandlerFunc
	now      func() time.Time
}

// NewServer instancia o servidor. ws pode ser nil (rota /ws não registrada).
func NewServer(log *zap.Logger, sessions Sessions, allowedOrigins []string, ws http.HandlerFunc) *Server {
	return &Server{log: log, sessions: sessions, origins: allowedOrigins, ws: ws, now: time.Now}
}

// Router retorna o roteador chi com CORS e as rotas /v1
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/v1/badges", s.catalog)
	r.Route("/v1/sessions/{userID}", func(rr chi.Router) {
		rr.Get("/", s.getSession)
		rr.Post("/break", s.takeBreak)
		rr.Delete("/break", s.endBreak)
		rr.Put("/loss-limit", s.setLossLimit)
		rr.Delete("/loss-limit", s.removeLossLimit)
		rr.Post("/bets", s.recordBet)
		rr.Post("/reset", s.reset)
		rr.Get("/badges", s.badges)
		rr.Get("/summary", s.summary)
	})
	if s.ws != nil {
		r.Get("/ws", s.ws)
	}
	return r
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) store(r *http.Request) *rg.Store {
	return s.sessions.Store(r.Context(), chi.URLParam(r, "userID"))
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func positive(v float64) bool { return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v) }

func (s *Server) catalog(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, rg.Catalog())
}

func (s *Server) getSession(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store(r).View())
}

func (s *Server) takeBreak(w http.ResponseWriter, r *http.Request) {
	var req BreakRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if !positive(req.Hours) || req.Hours > MaxBreakHours {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("hours must be in (0, %d]", MaxBreakHours))
		return
	}
	writeJSON(w, http.StatusOK, s.store(r).TakeBreak(r.Context(), req.Hours))
}

func (s *Server) endBreak(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store(r).EndBreakEarly(r.Context()))
}

func (s *Server) setLossLimit(w http.ResponseWriter, r *http.Request) {
	var req LossLimitRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if !positive(req.Dollars) {
		writeError(w, http.StatusBadRequest, "dollars must be > 0")
		return
	}
	writeJSON(w, http.StatusOK, s.store(r).SetLossLimit(r.Context(), req.Dollars))
}

func (s *Server) removeLossLimit(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store(r).RemoveLossLimit(r.Context()))
}

func (s *Server) recordBet(w http.ResponseWriter, r *http.Request) {
	var req BetRequest
	if err := decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	res := rg.Result(strings.ToLower(req.Result))
	if !res.Valid() {
		writeError(w, http.StatusBadRequest, "result must be win, loss or pending")
		return
	}
	if !positive(req.Amount) {
		writeError(w, http.StatusBadRequest, "amount must be > 0")
		return
	}
	if req.Timestamp < 0 {
		writeError(w, http.StatusBadRequest, "timestamp must be epoch ms")
		return
	}

	bet := rg.BetRecord{ID: req.ID, Amount: req.Amount, Result: res, Sport: req.Sport, Timestamp: req.Timestamp}
	if bet.ID == "" {
		bet.ID = uuid.NewString()
	}
	if bet.Timestamp == 0 {
		bet.Timestamp = s.now().UnixMilli()
	}

	v := s.store(r).RecordBet(r.Context(), bet)
	s.log.Debug("bet recorded via api",
		zap.String("userId", chi.URLParam(r, "userID")),
		zap.String("betId", bet.ID),
		zap.Bool("chasing", v.IsChasingLosses))
	writeJSON(w, http.StatusCreated, v)
}

func (s *Server) reset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store(r).ResetSession(r.Context()))
}

func (s *Server) badges(w http.ResponseWriter, r *http.Request) {
	st := s.store(r).State()
	earned := rg.EvaluateBadges(st.BetHistory).Sorted()
	resp := BadgesResponse{
		UserID: chi.URLParam(r, "userID"),
		Earned: earned,
		Badges: make([]rg.BadgeInfo, 0, len(earned)),
	}
	for _, id := range earned {
		if info, ok := rg.LookupBadge(id); ok {
			resp.Badges = append(resp.Badges, info)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) summary(w http.ResponseWriter, r *http.Request) {
	st := s.store(r).State()
	writeJSON(w, http.StatusOK, SummaryResponse{UserID: chi.URLParam(r, "userID"), Summary: rg.Summarize(st.BetHistory)})
}
