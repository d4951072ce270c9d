package handlers_test

import (
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/dom/socialpedia/internal/events"
	"github.com/dom/socialpedia/internal/testutil"
	"github.com/dom/socialpedia/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wsTimeout = 2 * time.Second

func TestWebSocketHandler_RejectsBadTokens(t *testing.T) {
	ts := testutil.NewTestServer(t)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
	}{
		{name: "missing token", query: "", expectedStatus: http.StatusForbidden},
		{name: "invalid token", query: "?token=forged", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := http.Get(ts.URL("/ws" + tt.query))
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
		})
	}
}

func TestWebSocketHandler_Stream(t *testing.T) {
	ts := testutil.NewTestServer(t)
	alice, aliceToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	bob, _ := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)
	_, carolToken := testutil.NewUserBuilder().BuildAndAuthenticate(t, ts)

	aliceWS := testutil.NewWSClient(t, ts.WebSocketURL(aliceToken))
	carolWS := testutil.NewWSClient(t, ts.WebSocketURL(carolToken))

	var hello websocket.HelloPayload
	aliceWS.ExpectPayload(websocket.MessageTypeHello, &hello, wsTimeout)
	assert.Equal(t, alice.ID.String(), hello.UserID)
	carolWS.ExpectMessage(websocket.MessageTypeHello, wsTimeout)

	t.Run("ping", func(t *testing.T) {
		aliceWS.Send(websocket.MessageTypePing)
		aliceWS.ExpectMessage(websocket.MessageTypePong, wsTimeout)
	})

	t.Run("post events reach everyone", func(t *testing.T) {
		req := testutil.CreateAuthenticatedRequest(t, http.MethodPost, ts.URL("/posts"), map[string]string{"description": "live"}, aliceToken)
		resp := testutil.Do(t, req)
		resp.Body.Close()
		require.Equal(t, http.StatusCreated, resp.StatusCode)

		var ev events.Event
		carolWS.ExpectPayload(websocket.MessageTypePostCreated, &ev, wsTimeout)
		assert.Equal(t, alice.ID, ev.ActorID)
		require.NotNil(t, ev.Post)
		assert.Equal(t, "live", ev.Post.Description)

		aliceWS.ExpectMessage(websocket.MessageTypePostCreated, wsTimeout)
	})

	t.Run("friend events reach only the pair", func(t *testing.T) {
		path := "/users/" + alice.ID.String() + "/" + bob.ID.String()
		req := testutil.CreateAuthenticatedRequest(t, http.MethodPatch, ts.URL(path), nil, aliceToken)
		resp := testutil.Do(t, req)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var ev events.Event
		aliceWS.ExpectPayload(websocket.MessageTypeFriendAdded, &ev, wsTimeout)
		assert.Equal(t, bob.ID, ev.SubjectID)

		carolWS.ExpectNoMessage(200 * time.Millisecond)
	})

	t.Run("unsupported client message", func(t *testing.T) {
		aliceWS.Send(websocket.MessageType("SUBSCRIBE"))

		var payload websocket.ErrorPayload
		aliceWS.ExpectPayload(websocket.MessageTypeError, &payload, wsTimeout)
		assert.True(t, strings.HasPrefix(payload.Code, "UNKNOWN"))
	})
}
