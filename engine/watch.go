package engine

import (
	"net/http"

	"github.com/gorilla/websocket"
)

// Watch upgrades r to a websocket connection and streams every subsequent
// DiagnosticEvent as JSON until the connection closes. This is the engine
// shell's optional live-diagnostics surface; callers that never want it can
// simply never call it, and Navigate/Retry work identically either way.
func (s *Shell) Watch(upgrader *websocket.Upgrader, w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch := make(chan DiagnosticEvent, 64)
	s.watchMu.Lock()
	s.watchers = append(s.watchers, ch)
	s.watchMu.Unlock()
	defer s.removeWatcher(ch)

	for ev := range ch {
		if err := conn.WriteJSON(ev); err != nil {
			return err
		}
	}
	return nil
}

func (s *Shell) removeWatcher(ch chan DiagnosticEvent) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for i, w := range s.watchers {
		if w == ch {
			s.watchers = append(s.watchers[:i], s.watchers[i+1:]...)
			close(ch)
			return
		}
	}
}

// broadcast pushes ev to every active Watch subscriber without blocking;
// a slow or closed subscriber simply misses events rather than stalling
// the pipeline, which must never gain a suspension point through this
// ambient stream.
func (s *Shell) broadcast(ev DiagnosticEvent) {
	s.watchMu.Lock()
	defer s.watchMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- ev:
		default:
		}
	}
}
