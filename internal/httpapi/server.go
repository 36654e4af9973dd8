package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/noventrax/tutor/internal/completion"
	"github.com/noventrax/tutor/internal/config"
	"github.com/noventrax/tutor/internal/feedback"
	"github.com/noventrax/tutor/internal/observability"
	"github.com/noventrax/tutor/internal/transcript"
	"github.com/noventrax/tutor/internal/tutor"
)

type Server struct {
	cfg      config.Config
	engine   *tutor.Engine
	metrics  *observability.Metrics
	log      logrus.FieldLogger
	upgrader websocket.Upgrader
}

func New(cfg config.Config, engine *tutor.Engine, metrics *observability.Metrics, log logrus.FieldLogger) *Server {
	if log == nil {
		l := logrus.New()
		l.SetLevel(logrus.WarnLevel)
		log = l
	}
	return &Server{
		cfg:     cfg,
		engine:  engine,
		metrics: metrics,
		log:     log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return originAllowed(cfg.AllowedOrigins, r)
			},
		},
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", s.handleHealth)
	r.Get("/debug-env", s.handleDebugEnv)
	r.Post("/feedback", s.handleFeedback)
	r.Post("/chat", s.handleChat)
	r.Post("/reset", s.handleReset)

	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler())
	}
	r.Get("/v1/perf/latency", s.handlePerfLatency)
	r.Get("/v1/feedback", s.handleListFeedback)
	r.Get("/v1/transcript", s.handleTranscript)
	r.Get("/v1/chat/ws", s.handleChatWS)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, statusResponse{Status: "ok"})
}

func (s *Server) handleDebugEnv(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.cfg.ProviderStatus())
}

type statusResponse struct {
	Status string `json:"status"`
}

// feedbackRequest uses a pointer for comment so that a missing or null
// comment can be told apart from an empty one.
type feedbackRequest struct {
	Rating  feedback.Rating `json:"rating"`
	Comment *string         `json:"comment"`
	PageURL string          `json:"page_url"`
}

var (
	errMissingComment = errors.New("comment is required")
	errMissingMessage = errors.New("message is required")
)

func (s *Server) handleFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedbackRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Comment == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", errMissingComment.Error())
		return
	}
	s.engine.RecordFeedback(req.Rating, *req.Comment, req.PageURL)
	respondJSON(w, http.StatusOK, statusResponse{Status: "received"})
}

type chatRequest struct {
	Message *string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Message == nil {
		respondError(w, http.StatusBadRequest, "invalid_request", errMissingMessage.Error())
		return
	}

	reply := s.engine.Handle(r.Context(), *req.Message)
	if reply.Err != nil {
		respondJSON(w, http.StatusOK, map[string]string{"error": errorText(reply.Err)})
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"reply": reply.Text})
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	s.engine.Reset()
	respondJSON(w, http.StatusOK, statusResponse{Status: "conversation reset"})
}

func (s *Server) handleListFeedback(w http.ResponseWriter, _ *http.Request) {
	records := s.engine.Feedback()
	if records == nil {
		records = []feedback.Record{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"count":   len(records),
		"records": records,
	})
}

func (s *Server) handleTranscript(w http.ResponseWriter, _ *http.Request) {
	turns := s.engine.Transcript()
	if turns == nil {
		turns = []transcript.Turn{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"limit": s.cfg.MemoryLimit,
		"turns": turns,
	})
}

// errorText is the user-facing text of a failed chat: the configuration
// message as-is, or the provider's error description.
func errorText(err error) string {
	if cerr, ok := asCompletionError(err); ok {
		return cerr.Message
	}
	return err.Error()
}

func asCompletionError(err error) (*completion.Error, bool) {
	var cerr *completion.Error
	ok := errors.As(err, &cerr)
	return cerr, ok
}

func originAllowed(allowed []string, r *http.Request) bool {
	origin := strings.TrimSpace(r.Header.Get("Origin"))
	if origin == "" {
		// Non-browser clients often omit Origin.
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return false
	}
	for _, a := range allowed {
		if a == "*" || strings.EqualFold(strings.TrimRight(a, "/"), origin) {
			return true
		}
	}
	return strings.EqualFold(u.Host, r.Host)
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var errEmptyBody = errors.New("empty body")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}
