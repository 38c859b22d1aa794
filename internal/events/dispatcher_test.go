package events

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestSyncDispatcherRunsHandlersInline(t *testing.T) {
	d := NewSyncDispatcher(zap.NewNop())

	var got []string
	d.Subscribe(EventStaffRegistered, func(ctx context.Context, event Event) error {
		got = append(got, "first")
		return nil
	})
	d.Subscribe(EventStaffRegistered, func(ctx context.Context, event Event) error {
		got = append(got, "second")
		return nil
	})
	d.Subscribe(EventStaffApproved, func(ctx context.Context, event Event) error {
		got = append(got, "other-type")
		return nil
	})

	d.Publish(context.Background(), Event{Type: EventStaffRegistered})
	assert.Equal(t, []string{"first", "second"}, got)
}

func TestPublishSurvivesFailingAndPanickingHandlers(t *testing.T) {
	d := NewSyncDispatcher(zap.NewNop())

	var reached bool
	d.Subscribe(EventStaffApproved, func(ctx context.Context, event Event) error {
		return errors.New("handler failure")
	})
	d.Subscribe(EventStaffApproved, func(ctx context.Context, event Event) error {
		panic("handler panic")
	})
	d.Subscribe(EventStaffApproved, func(ctx context.Context, event Event) error {
		reached = true
		return nil
	})

	assert.NotPanics(t, func() {
		d.Publish(context.Background(), Event{Type: EventStaffApproved})
	})
	assert.True(t, reached)
}

func TestAsyncDispatcherDetachesFromCaller(t *testing.T) {
	d := NewDispatcher(zap.NewNop())

	var mu sync.Mutex
	done := make(chan struct{})
	d.Subscribe(EventStaffRejected, func(ctx context.Context, event Event) error {
		mu.Lock()
		defer mu.Unlock()
		// The publishing request context must not govern handler execution.
		assert.NoError(t, ctx.Err())
		close(done)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d.Publish(ctx, Event{Type: EventStaffRejected})

	<-done
}
