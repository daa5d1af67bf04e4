// Package whatsapp serves the inbound WhatsApp webhook. Replies go
// back as TwiML in the webhook response, which is sufficient for
// inbound messages and avoids account-level outbound send limits.
package whatsapp

import (
	"context"
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"fleetmind/internal/authz"
	"fleetmind/internal/logging"
	"fleetmind/internal/pipeline"
	"fleetmind/internal/session"
)

// Server is the WhatsApp webhook transport. Each sender's phone number
// keys a conversation; the channel runs privileged since there is no
// role selector in the chat UI.
type Server struct {
	pipe          *pipeline.Pipeline
	sessions      *session.Store
	log           *zap.Logger
	maxIterations int
	httpSrv       *http.Server
}

// New creates a webhook server bound to addr. maxIterations caps the
// auto-loop per turn for this channel.
func New(addr string, pipe *pipeline.Pipeline, sessions *session.Store, maxIterations int, log *zap.Logger) *Server {
	s := &Server{
		pipe:          pipe,
		sessions:      sessions,
		log:           log,
		maxIterations: maxIterations,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/health", s.handleHealth)

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
		s.log.Info("whatsapp webhook listening", zap.String("addr", s.httpSrv.Addr))
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

// twimlResponse is the minimal TwiML messaging reply.
type twimlResponse struct {
	XMLName xml.Name `xml:"Response"`
	Message string   `xml:"Message"`
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form body", http.StatusBadRequest)
		return
	}

	from := strings.TrimPrefix(r.PostFormValue("From"), "whatsapp:")
	body := r.PostFormValue("Body")
	profile := r.PostFormValue("ProfileName")
	if from == "" {
		from = "unknown"
	}
	s.log.Info("whatsapp message",
		zap.String("from", from),
		zap.String("profile", profile),
		zap.Int("len", len(body)),
	)

	reply := s.processTurn(r.Context(), from, body)
	logging.Transport("whatsapp turn from=%s reply_len=%d", from, len(reply))

	writeTwiML(w, reply)
}

func (s *Server) processTurn(ctx context.Context, sender, message string) string {
	unlock := s.sessions.Lock(sender)
	defer unlock()

	st := pipeline.NewTurnState(message, authz.RoleWhatsApp)
	s.sessions.Load(sender, st)
	// First contact: remember the sender's number as an entity hint.
	if !st.Entities.Has("phone_number") {
		st.Entities["phone_number"] = sender
	}
	st.MaxIterations = s.maxIterations

	reply := s.pipe.ProcessTurn(ctx, st)
	s.sessions.Save(sender, st)

	if reply == "" {
		reply = "No response."
	}
	return reply
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func writeTwiML(w http.ResponseWriter, message string) {
	resp := twimlResponse{Message: message}
	data, err := xml.Marshal(resp)
	if err != nil {
		http.Error(w, "failed to render reply", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/xml")
	w.Write([]byte(xml.Header))
	w.Write(data)
}
