package websocket

import (
	"encoding/json"
	"time"

	"github.com/dom/socialpedia/internal/events"
)

type MessageType string

const (
	// Client to Server
	MessageTypePing MessageType = "PING"

	// Server to Client
	MessageTypeHello         MessageType = "HELLO"
	MessageTypePong          MessageType = "PONG"
	MessageTypePostCreated   MessageType = "POST_CREATED"
	MessageTypePostLiked     MessageType = "POST_LIKED"
	MessageTypePostUnliked   MessageType = "POST_UNLIKED"
	MessageTypeFriendAdded   MessageType = "FRIEND_ADDED"
	MessageTypeFriendRemoved MessageType = "FRIEND_REMOVED"
	MessageTypeError         MessageType = "ERROR"
)

var eventMessageTypes = map[events.Type]MessageType{
	events.PostCreated:   MessageTypePostCreated,
	events.PostLiked:     MessageTypePostLiked,
	events.PostUnliked:   MessageTypePostUnliked,
	events.FriendAdded:   MessageTypeFriendAdded,
	events.FriendRemoved: MessageTypeFriendRemoved,
}

type Message struct {
	Type      MessageType     `json:"type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp int64           `json:"timestamp"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	msg := &Message{
		Type:      msgType,
		Timestamp: time.Now().UnixMilli(),
	}
	if payload != nil {
		payloadBytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Payload = payloadBytes
	}
	return msg, nil
}

type HelloPayload struct {
	UserID string `json:"userId"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
