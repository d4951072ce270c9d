package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dom/socialpedia/internal/events"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandler_UsesRoutePattern(t *testing.T) {
	m := New()

	r := chi.NewRouter()
	r.Use(m.InstrumentHandler)
	r.Get("/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	for i := 0; i < 3; i++ {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/users/"+uuid.NewString(), nil))
	}

	got := testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/users/{id}", "418"))
	assert.Equal(t, float64(3), got)
}

func TestPublish_CountsEvents(t *testing.T) {
	m := New()
	ctx := context.Background()

	require.NoError(t, m.Publish(ctx, events.New(events.PostLiked, uuid.New(), uuid.New())))
	require.NoError(t, m.Publish(ctx, events.New(events.PostLiked, uuid.New(), uuid.New())))
	require.NoError(t, m.Publish(ctx, events.New(events.FriendAdded, uuid.New(), uuid.New())))

	assert.Equal(t, float64(2), testutil.ToFloat64(m.events.WithLabelValues("post.liked")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.events.WithLabelValues("friend.added")))
}

func TestHandler_Exposes(t *testing.T) {
	m := New()
	m.RecordAuth("login", "success")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `socialpedia_auth_attempts_total{action="login",outcome="success"} 1`)
}
