// Package httpapi serves health, metrics and read-only views of the engine
// state.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/keshon/luci/internal/mind"
	"github.com/keshon/luci/internal/observability"
	"github.com/keshon/luci/pkg/util"
)

const timeTpl = "YYYY-MM-DD hh:mm:ss"

type Server struct {
	engine  *mind.Engine
	metrics *observability.Metrics
	log     zerolog.Logger
	started time.Time
}

func New(engine *mind.Engine, metrics *observability.Metrics, log zerolog.Logger) *Server {
	return &Server{
		engine:  engine,
		metrics: metrics,
		log:     log,
		started: time.Now(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		s.metrics.Handler().ServeHTTP(w, r)
	})
	r.Get("/v1/guilds", s.handleListGuilds)
	r.Get("/v1/guilds/{guildID}/emotions", s.handleEmotions)
	r.Get("/v1/guilds/{guildID}/memory", s.handleMemory)
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"tracked_guilds": len(s.engine.Tracked()),
		"memory_keys":    s.engine.Memory().Len(),
		"uptime":         time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleListGuilds(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{"guilds": s.engine.Tracked()})
}

type axisReading struct {
	Axis   string  `json:"axis"`
	Value  float64 `json:"value"`
	Status string  `json:"status"`
}

type emotionsResponse struct {
	GuildID  string        `json:"guild_id"`
	Emotions mind.Emotions `json:"emotions"`
	Readings []axisReading `json:"readings"`
	Stale    bool          `json:"stale,omitempty"`
}

func (s *Server) handleEmotions(w http.ResponseWriter, r *http.Request) {
	guildID := strings.TrimSpace(chi.URLParam(r, "guildID"))
	if guildID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "guild id is required")
		return
	}
	state, err := s.engine.Status(r.Context(), guildID)
	resp := emotionsResponse{GuildID: guildID, Emotions: state, Stale: err != nil}
	if err != nil {
		s.log.Warn().Err(err).Str("guild", guildID).Msg("serving local emotions")
	}
	for _, rd := range mind.Read(state) {
		resp.Readings = append(resp.Readings, axisReading{Axis: rd.Axis.String(), Value: rd.Value, Status: rd.Status})
	}
	respondJSON(w, http.StatusOK, resp)
}

type memoryResponse struct {
	GuildID       string   `json:"guild_id"`
	Key           string   `json:"key"`
	LastMessageAt string   `json:"last_message_at,omitempty"`
	IdleFor       string   `json:"idle_for,omitempty"`
	RecentQuotes  []string `json:"recent_quotes"`
}

func (s *Server) handleMemory(w http.ResponseWriter, r *http.Request) {
	guildID := strings.TrimSpace(chi.URLParam(r, "guildID"))
	if guildID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "guild id is required")
		return
	}
	mem := s.engine.Memory()
	key := mind.GuildKey(guildID)
	rec := mem.Get(key)
	quotes := mem.Get(mind.QuotesKey(guildID)).Recent
	if rec.LastMessageAt.IsZero() && len(quotes) == 0 {
		respondError(w, http.StatusNotFound, "not_found", "no memory for guild")
		return
	}

	resp := memoryResponse{GuildID: guildID, Key: key, RecentQuotes: quotes}
	if resp.RecentQuotes == nil {
		resp.RecentQuotes = []string{}
	}
	if !rec.LastMessageAt.IsZero() {
		resp.LastMessageAt = util.FormatTimeTpl(rec.LastMessageAt.UTC(), timeTpl)
		resp.IdleFor = time.Since(rec.LastMessageAt).Round(time.Second).String()
	}
	respondJSON(w, http.StatusOK, resp)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// Serve listens on addr until ctx ends, then drains in-flight requests.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", addr).Msg("http api listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	<-errCh
	return ctx.Err()
}
