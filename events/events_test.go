package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBus_PublishInOrder(t *testing.T) {
	bus := NewBus()
	var got []string
	bus.Subscribe(func(ctx context.Context, e Event) { got = append(got, "first:"+e.Owner()) })
	bus.Subscribe(func(ctx context.Context, e Event) { got = append(got, "second:"+e.Owner()) })

	bus.Publish(context.Background(), SessionChanged{UserID: "u1", Kind: SignedIn})
	assert.Equal(t, []string{"first:u1", "second:u1"}, got)
}

func TestBus_Unsubscribe(t *testing.T) {
	bus := NewBus()
	calls := 0
	unsubscribe := bus.Subscribe(func(ctx context.Context, e Event) { calls++ })
	bus.Publish(context.Background(), ActivityRecorded{UserID: "u1"})
	unsubscribe()
	unsubscribe()
	bus.Publish(context.Background(), ActivityRecorded{UserID: "u1"})
	assert.Equal(t, 1, calls)
}

func TestBus_NestedPublish(t *testing.T) {
	bus := NewBus()
	var streaks []int
	bus.Subscribe(func(ctx context.Context, e Event) {
		switch ev := e.(type) {
		case ActivityRecorded:
			bus.Publish(ctx, StreakUpdated{UserID: ev.UserID, Streak: 1})
		case StreakUpdated:
			streaks = append(streaks, ev.Streak)
		}
	})
	bus.Publish(context.Background(), ActivityRecorded{UserID: "u1"})
	assert.Equal(t, []int{1}, streaks)
}
