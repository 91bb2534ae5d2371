package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroadcast_NonBlockingOnFullChannel(t *testing.T) {
	s := &Shell{}
	ch := make(chan DiagnosticEvent) // unbuffered: any send blocks without a receiver
	s.watchers = append(s.watchers, ch)

	done := make(chan struct{})
	go func() {
		s.broadcast(DiagnosticEvent{Message: "dropped"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast should not require a receiver to make progress")
	}
}

func TestBroadcast_DeliversToBufferedWatcher(t *testing.T) {
	s := &Shell{}
	ch := make(chan DiagnosticEvent, 1)
	s.watchers = append(s.watchers, ch)

	s.broadcast(DiagnosticEvent{Message: "hello"})
	select {
	case ev := <-ch:
		assert.Equal(t, "hello", ev.Message)
	default:
		t.Fatal("expected buffered watcher to receive the event")
	}
}

func TestRemoveWatcher_ClosesChannel(t *testing.T) {
	s := &Shell{}
	ch := make(chan DiagnosticEvent, 1)
	s.watchers = append(s.watchers, ch)
	s.removeWatcher(ch)
	require.Len(t, s.watchers, 0)
	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after removal")
}
