package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMiddleware(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/v1/messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.Write([]byte("short and stout"))
	})

	for _, id := range []string{"a", "b"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/v1/messages/"+id, nil))
		assert.Equal(t, http.StatusTeapot, rec.Code)
		assert.Equal(t, "short and stout", rec.Body.String())
	}

	body := scrape(t)
	assert.Contains(t, body, `http_requests_total{method="GET",path="/v1/messages/{id}",status="418"} 2`)
	assert.NotContains(t, body, `path="/v1/messages/a"`)
}

func TestHandler(t *testing.T) {
	MessagesCreated.Inc()
	AttachmentsRejected.WithLabelValues("not_permitted").Inc()

	body := scrape(t)
	assert.Contains(t, body, "msgboard_messages_created_total")
	assert.Contains(t, body, `msgboard_attachments_rejected_total{reason="not_permitted"}`)
	assert.Contains(t, body, "http_requests_in_flight")
}
