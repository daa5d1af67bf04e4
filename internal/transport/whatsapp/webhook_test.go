package whatsapp

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fleetmind/internal/pipeline"
	"fleetmind/internal/session"
	"fleetmind/internal/store"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	pipe := pipeline.New(s, nil, pipeline.Options{})
	return New(":0", pipe, session.NewStore(), 2, zap.NewNop())
}

func postWebhook(t *testing.T, srv *Server, form url.Values) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	srv.handleWebhook(rec, req)
	return rec
}

func TestWebhookRepliesWithTwiML(t *testing.T) {
	srv := newTestServer(t)

	rec := postWebhook(t, srv, url.Values{
		"From":        {"whatsapp:+919876543210"},
		"Body":        {"hello"},
		"ProfileName": {"Ravi"},
	})

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/xml", rec.Header().Get("Content-Type"))
	body := rec.Body.String()
	assert.Contains(t, body, "<Response><Message>")
	assert.Contains(t, body, "Hi!")
}

func TestWebhookKeysSessionByPhoneNumber(t *testing.T) {
	srv := newTestServer(t)

	postWebhook(t, srv, url.Values{"From": {"whatsapp:+911111111111"}, "Body": {"hello"}})
	postWebhook(t, srv, url.Values{"From": {"whatsapp:+922222222222"}, "Body": {"hello"}})
	assert.Equal(t, 2, srv.sessions.Len())
}

func TestWebhookRejectsNonPost(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/webhook", nil)
	rec := httptest.NewRecorder()
	srv.handleWebhook(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebhookEmptyReplyFallback(t *testing.T) {
	srv := newTestServer(t)

	// An empty body routes through the planner, which has no model here,
	// so the chat fallback answers; the reply is never empty TwiML.
	rec := postWebhook(t, srv, url.Values{"From": {"whatsapp:+933333333333"}, "Body": {""}})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "<Message></Message>")
}

func TestWebhookEscapesXML(t *testing.T) {
	_ = newTestServer(t)

	// Replies containing angle brackets or ampersands must be escaped.
	resp := twimlResponse{Message: "5 < 10 & true"}
	rec := httptest.NewRecorder()
	writeTwiML(rec, resp.Message)
	assert.Contains(t, rec.Body.String(), "5 &lt; 10 &amp; true")
}
