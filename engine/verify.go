package engine

import "fmt"

// Verify checks a finished session's basic invariants: the stage is
// terminal, the trace is non-empty and monotonic, and diagnostic timestamps
// never decrease. It is a read-only post-hoc assertion, not a pipeline
// stage; callers that don't want it can simply not call it.
func Verify(sess *Session) error {
	if sess == nil {
		return fmt.Errorf("verify: nil session")
	}
	if !isTerminal(sess.Stage) {
		return fmt.Errorf("verify: session stage %s is not terminal", sess.Stage)
	}
	if len(sess.Trace) == 0 {
		return fmt.Errorf("verify: session has no trace entries")
	}
	for i := 1; i < len(sess.Trace); i++ {
		if sess.Trace[i].EnteredAt.Before(sess.Trace[i-1].EnteredAt) {
			return fmt.Errorf("verify: trace entry %d entered before entry %d", i, i-1)
		}
	}
	for i := 1; i < len(sess.Diagnostics); i++ {
		if sess.Diagnostics[i].Timestamp.Before(sess.Diagnostics[i-1].Timestamp) {
			return fmt.Errorf("verify: diagnostic %d timestamp precedes diagnostic %d", i, i-1)
		}
	}
	return nil
}

func isTerminal(stage Stage) bool {
	return stage == Complete || stage == StageError || stage == Cancelled
}
