// Package web serves the chat API: a JSON POST endpoint for one-shot
// turns, a websocket for interactive chat, and a health probe.
package web

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"fleetmind/internal/authz"
	"fleetmind/internal/logging"
	"fleetmind/internal/pipeline"
	"fleetmind/internal/session"
)

// Server is the web chat transport.
type Server struct {
	pipe     *pipeline.Pipeline
	sessions *session.Store
	log      *zap.Logger
	upgrader websocket.Upgrader
	httpSrv  *http.Server
}

// New creates a web server bound to addr.
func New(addr string, pipe *pipeline.Pipeline, sessions *session.Store, log *zap.Logger) *Server {
	s := &Server{
		pipe:     pipe,
		sessions: sessions,
		log:      log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/chat", s.handleChat)
	mux.HandleFunc("/ws", s.handleWS)
	mux.HandleFunc("/healthz", s.handleHealth)

	s.httpSrv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// Run serves until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("web server listening", zap.String("addr", s.httpSrv.Addr))
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.httpSrv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

type chatRequest struct {
	Message   string `json:"message"`
	Role      string `json:"role"`
	SessionID string `json:"session_id"`
}

type chatResponse struct {
	Response  string `json:"response"`
	Intent    string `json:"intent"`
	SessionID string `json:"session_id"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid JSON body", http.StatusBadRequest)
		return
	}
	if req.Message == "" {
		http.Error(w, "message is required", http.StatusBadRequest)
		return
	}
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	reply, intent := s.processTurn(r.Context(), req.SessionID, req.Message, req.Role)
	writeJSON(w, http.StatusOK, chatResponse{
		Response:  reply,
		Intent:    intent,
		SessionID: req.SessionID,
	})
}

func (s *Server) processTurn(ctx context.Context, sessionID, message, role string) (reply, intent string) {
	unlock := s.sessions.Lock(sessionID)
	defer unlock()

	st := pipeline.NewTurnState(message, authz.Normalize(role))
	s.sessions.Load(sessionID, st)

	start := time.Now()
	reply = s.pipe.ProcessTurn(ctx, st)
	s.sessions.Save(sessionID, st)

	s.log.Info("chat turn",
		zap.String("session", sessionID),
		zap.String("role", string(st.ActorRole)),
		zap.String("intent", string(st.Intent)),
		zap.Duration("elapsed", time.Since(start)),
	)
	logging.Transport("web turn session=%s intent=%s", sessionID, st.Intent)
	return reply, string(st.Intent)
}

type wsMessage struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Role    string `json:"role,omitempty"`
	Intent  string `json:"intent,omitempty"`
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	role := r.URL.Query().Get("role")
	s.log.Info("websocket connected", zap.String("session", sessionID))

	for {
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		if msg.Content == "" {
			continue
		}
		if msg.Role != "" {
			role = msg.Role
		}

		reply, intent := s.processTurn(r.Context(), sessionID, msg.Content, role)
		out := wsMessage{Type: "message", Content: reply, Intent: intent}
		if err := conn.WriteJSON(out); err != nil {
			s.log.Warn("websocket write error", zap.Error(err))
			return
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"sessions": s.sessions.Len(),
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
