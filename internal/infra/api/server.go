package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"forum-telegram-relay/internal/config"
	"forum-telegram-relay/internal/domain/ports/adapter"
	"forum-telegram-relay/internal/infra/logging"
)

// BotStatus is the read-only view of the connection the status
// endpoint reports.
type BotStatus interface {
	Status() (state string, identity string)
}

// Server is the admin API: relay status, settings management and the
// bot identity lookup the settings UI uses.
type Server struct {
	store  *config.Store
	status BotStatus
	bus    adapter.EventBus
	auth   *AuthManager
	apiKey string
	log    *zerolog.Logger
}

func NewServer(store *config.Store, status BotStatus, bus adapter.EventBus, auth *AuthManager, apiKey string, logger *zerolog.Logger) *Server {
	return &Server{
		store:  store,
		status: status,
		bus:    bus,
		auth:   auth,
		apiKey: apiKey,
		log:    logging.Component(logger, "AdminAPI"),
	}
}

// Register attaches all routes to the router.
func (s *Server) Register(r chi.Router) {
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Post("/api/v1/session", s.handleSession)

	r.Group(func(r chi.Router) {
		r.Use(s.auth.Middleware)
		r.Get("/api/v1/status", s.handleStatus)
		r.Get("/api/v1/settings", s.handleGetSettings)
		r.Put("/api/v1/settings", s.handlePutSettings)
		r.Get("/api/v1/bot", s.handleBotIdentity)
	})
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	var body struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if s.apiKey == "" || subtle.ConstantTimeCompare([]byte(body.APIKey), []byte(s.apiKey)) != 1 {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	token, err := s.auth.Mint()
	if err != nil {
		s.log.Error().Err(err).Msg("session mint failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state, identity := s.status.Status()
	cfg := s.store.Snapshot()
	categories := make([]string, 0, len(cfg.PostCategories))
	for cid := range cfg.PostCategories {
		categories = append(categories, cid)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"initialized": identity != "",
		"connected":   state == "polling",
		"state":       state,
		"config": map[string]interface{}{
			"credential":     logging.Redact(cfg.BotToken),
			"roomId":         cfg.RoomID,
			"maxLength":      cfg.MaxLength,
			"postCategories": categories,
			"topicsOnly":     cfg.TopicsOnly,
			"messageContent": cfg.MessageContent,
		},
	})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg := s.store.Snapshot()
	topicsOnly := "off"
	if cfg.TopicsOnly {
		topicsOnly = "on"
	}
	writeJSON(w, http.StatusOK, map[string]string{
		config.KeyCredential:     logging.Redact(cfg.BotToken),
		config.KeyRoomID:         strconv.FormatInt(cfg.RoomID, 10),
		config.KeyMaxLength:      strconv.Itoa(cfg.MaxLength),
		config.KeyTopicsOnly:     topicsOnly,
		config.KeyMessageContent: cfg.MessageContent,
	})
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	var values map[string]string
	if err := json.NewDecoder(r.Body).Decode(&values); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := s.store.Save(r.Context(), values); err != nil {
		s.log.Warn().Err(err).Msg("settings save rejected")
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.log.Info().Msg("relay settings updated")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleBotIdentity resolves the bot username over the event bus, the
// same round trip the forum settings page uses.
func (s *Server) handleBotIdentity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	name, err := s.bus.RequestIdentity(ctx)
	if err != nil {
		http.Error(w, "bot identity unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"username": name})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
