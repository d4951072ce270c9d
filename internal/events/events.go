// Package events carries feed and friendship changes to interested
// subscribers: live websocket clients, RabbitMQ and metrics.
package events

import (
	"context"
	"errors"
	"time"

	"github.com/dom/socialpedia/internal/domain"
	"github.com/google/uuid"
)

type Type string

const (
	PostCreated   Type = "post.created"
	PostLiked     Type = "post.liked"
	PostUnliked   Type = "post.unliked"
	FriendAdded   Type = "friend.added"
	FriendRemoved Type = "friend.removed"
)

// Event describes a completed write. SubjectID is the post for post events
// and the other user for friend events.
type Event struct {
	Type       Type         `json:"type"`
	ActorID    uuid.UUID    `json:"actorId"`
	SubjectID  uuid.UUID    `json:"subjectId"`
	Post       *domain.Post `json:"post,omitempty"`
	OccurredAt time.Time    `json:"occurredAt"`
}

func New(t Type, actor, subject uuid.UUID) Event {
	return Event{
		Type:       t,
		ActorID:    actor,
		SubjectID:  subject,
		OccurredAt: time.Now().UTC(),
	}
}

func (e Event) WithPost(p *domain.Post) Event {
	e.Post = p
	return e
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Nop drops every event.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }

// Multi delivers to every publisher, even after one fails, and joins the
// errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, event Event) error

func (f PublisherFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}
