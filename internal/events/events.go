// Package events publishes cart and order notifications after they commit.
package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Subjects
const (
	SubjectCartUpdated  = "cart.updated"
	SubjectCartMerged   = "cart.merged"
	SubjectOrderCreated = "order.created"
)

// Publisher sends a payload on a subject.
// Implementations: NATSPublisher, Noop, Recorder
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close() error
}

// CartUpdated is sent after any committed cart mutation.
type CartUpdated struct {
	Identity  string    `json:"identity"`
	CartID    uuid.UUID `json:"cart_id"`
	ItemCount int       `json:"item_count"`
	At        time.Time `json:"at"`
}

// CartMerged is sent after a guest cart was folded into a user cart.
type CartMerged struct {
	UserID         uuid.UUID `json:"user_id"`
	GuestSessionID uuid.UUID `json:"guest_session_id"`
	CartID         uuid.UUID `json:"cart_id"`
	LinesMerged    int       `json:"lines_merged"`
	At             time.Time `json:"at"`
}

// OrderCreated is sent after checkout commits.
type OrderCreated struct {
	OrderID    uuid.UUID  `json:"order_id"`
	UserID     *uuid.UUID `json:"user_id,omitempty"`
	GuestEmail string     `json:"guest_email,omitempty"`
	TotalCents int64      `json:"total_cents"`
	ItemCount  int        `json:"item_count"`
	At         time.Time  `json:"at"`
}

// Noop drops every event. Used when NATS_URL is not configured.
type Noop struct{}

func (Noop) Publish(ctx context.Context, subject string, payload any) error { return nil }
func (Noop) Close() error                                                   { return nil }

// Message is one recorded publish.
type Message struct {
	Subject string
	Payload any
}

// Recorder keeps every published event in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
}

// NewRecorder returns an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(ctx context.Context, subject string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, Message{Subject: subject, Payload: payload})
	return nil
}

func (r *Recorder) Close() error { return nil }

// Messages returns a copy of everything published so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Subjects returns the subject of each recorded message in order.
func (r *Recorder) Subjects() []string {
	msgs := r.Messages()
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Subject
	}
	return out
}
