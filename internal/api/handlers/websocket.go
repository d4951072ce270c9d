package handlers

import (
	"net/http"
	"net/url"

	"github.com/dom/socialpedia/internal/service"
	"github.com/dom/socialpedia/internal/websocket"
	ws "github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type WebSocketHandler struct {
	hub         *websocket.Hub
	authService *service.AuthService
	upgrader    ws.Upgrader
	log         logrus.FieldLogger
}

func NewWebSocketHandler(hub *websocket.Hub, authService *service.AuthService, origins []string, log logrus.FieldLogger) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		authService: authService,
		upgrader: ws.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(origins),
		},
		log: log,
	}
}

// Handle upgrades GET /ws?token=... and greets the client with HELLO.
func (h *WebSocketHandler) Handle(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeError(w, http.StatusForbidden, "Access denied")
		return
	}

	userID, err := h.authService.VerifyToken(token)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("ERROR [handlers.WebSocket] upgrade failed")
		return
	}

	client := websocket.NewClient(h.hub, conn, userID)
	h.hub.Register(client)

	if hello, err := websocket.NewMessage(websocket.MessageTypeHello, websocket.HelloPayload{UserID: userID.String()}); err == nil {
		client.Send(hello)
	}

	go client.WritePump()
	go client.ReadPump()
}

// originChecker allows requests without an Origin header, any origin when
// "*" is configured, and otherwise only the listed origins.
func originChecker(origins []string) func(*http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		return allowed[u.Scheme+"://"+u.Host]
	}
}
