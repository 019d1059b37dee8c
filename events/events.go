package events

import (
	"context"
	"sync"
	"time"
)

// Session change kinds, named as the hosted auth platform names them.
const (
	SignedIn         = "SIGNED_IN"
	SignedOut        = "SIGNED_OUT"
	PasswordRecovery = "PASSWORD_RECOVERY"
	TokenRefreshed   = "TOKEN_REFRESHED"
	UserUpdated      = "USER_UPDATED"
)

type Event interface {
	Owner() string
}

type SessionChanged struct {
	UserID string `json:"userID"`
	Kind   string `json:"kind"`
	View   string `json:"view,omitempty"`
}

type ActivityRecorded struct {
	UserID string    `json:"userID"`
	At     time.Time `json:"at"`
}

type StreakUpdated struct {
	UserID string `json:"userID"`
	Streak int    `json:"streak"`
	Max    int    `json:"max"`
	Level  string `json:"level"`
}

func (e SessionChanged) Owner() string   { return e.UserID }
func (e ActivityRecorded) Owner() string { return e.UserID }
func (e StreakUpdated) Owner() string    { return e.UserID }

type Handler func(ctx context.Context, e Event)

// Bus delivers events synchronously, in subscription order.
type Bus struct {
	mu       sync.RWMutex
	next     int
	handlers []subscription
}

type subscription struct {
	id int
	fn Handler
}

func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers fn and returns the func that removes it.
func (b *Bus) Subscribe(fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	id := b.next
	b.handlers = append(b.handlers, subscription{id: id, fn: fn})

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, s := range b.handlers {
			if s.id == id {
				b.handlers = append(b.handlers[:i:i], b.handlers[i+1:]...)
				return
			}
		}
	}
}

// Publish runs every handler before returning. Handlers may publish.
func (b *Bus) Publish(ctx context.Context, e Event) {
	b.mu.RLock()
	handlers := make([]Handler, len(b.handlers))
	for i, s := range b.handlers {
		handlers[i] = s.fn
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(ctx, e)
	}
}
