package engine

import (
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/dpotapov/staticweb/dom"
	"github.com/dpotapov/staticweb/layout"
	"github.com/dpotapov/staticweb/orchestrate"
	"github.com/dpotapov/staticweb/paint"
	"github.com/dpotapov/staticweb/resource"
	"github.com/dpotapov/staticweb/urlref"
)

// NavigationInput is what Navigate takes: the raw document reference and
// the viewport dimensions.
type NavigationInput struct {
	URL    string
	Width  int
	Height int
}

// NavigationOptions configures one navigation. OutputPath is where the
// painter's PPM artifact is written; a zero value skips the render step
// (useful for tests that only want the session/diagnostics).
type NavigationOptions struct {
	OutputPath string
	ShellMode  bool
}

// NavigateResult is what Navigate returns: a successful navigation has
// OK=true with a message; failure has OK=false with the error message.
// Session is always attached.
type NavigateResult struct {
	OK      bool
	Message string
	Session *Session
	// ShellText is populated instead of an on-disk PPM when
	// NavigationOptions.ShellMode is set.
	ShellText string
	// Retryable is set on a load failure: whether Retry() stands a
	// reasonable chance of succeeding.
	Retryable bool
}

// Shell drives one navigation end to end. It is safe for
// concurrent use only insofar as Cancel may be called from another
// goroutine while Navigate runs; Navigate/Retry themselves are not meant to
// be called concurrently with each other.
type Shell struct {
	Fetcher resource.Fetcher
	Logger  *slog.Logger

	initOnce sync.Once
	cancel   cancelFlag

	navCounter int
	corrID     string

	lastInput   *NavigationInput
	lastOptions *NavigationOptions

	// mu guards session and all mutation of its Diagnostics/Trace/Stage,
	// since Cancel may record a transition from another goroutine while the
	// pipeline is emitting.
	mu      sync.Mutex
	session *Session

	watchers []chan DiagnosticEvent
	watchMu  sync.Mutex
}

func (s *Shell) init() {
	s.initOnce.Do(func() {
		if s.Logger == nil {
			s.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
		}
	})
}

// Cancel sets the shared cancel flag, transitions the current session to
// Cancelled and emits "Cancel requested". The pipeline observes the flag
// only at stage boundaries.
func (s *Shell) Cancel() {
	s.init()
	s.cancel.set(true)
	s.mu.Lock()
	sess := s.session
	corrID := s.corrID
	s.mu.Unlock()
	if sess == nil {
		return
	}
	s.transition(sess, Cancelled, "", corrID)
	s.emit(sess, Info, "engine", Cancelled.String(), "Cancel requested", corrID)
}

// Navigate drives one full navigation: normalize the input, run the
// pipeline with stage transitions and diagnostics, and settle in Complete,
// Error or Cancelled.
func (s *Shell) Navigate(input NavigationInput, opts NavigationOptions) NavigateResult {
	s.init()
	s.cancel.set(false)
	s.lastInput = &input
	s.lastOptions = &opts

	s.navCounter++
	corrID := fmt.Sprintf("nav-%d", s.navCounter)

	sess := &Session{NavigationInput: input.URL, Stage: Idle}
	s.mu.Lock()
	s.session = sess
	s.corrID = corrID
	s.mu.Unlock()

	canonicalURL, err := normalizeInput(input)
	if err != nil {
		s.transition(sess, StageError, err.Error(), corrID)
		return NavigateResult{OK: false, Message: fmt.Sprintf("Input error: %s", err), Session: sess}
	}

	s.emit(sess, Info, "engine", "Idle", fmt.Sprintf("Navigating to %s (type=%s)", canonicalURL, urlref.Classify(input.URL)), corrID)

	result, failMsg, shellText, retryable := s.runPipeline(sess, canonicalURL, opts, corrID)

	if s.cancel.get() {
		msg := failMsg
		if msg == "" {
			msg = "Navigation cancelled"
		}
		s.transition(sess, Cancelled, msg, corrID)
		return NavigateResult{OK: false, Message: fmt.Sprintf("Cancellation: %s", msg), Session: sess}
	}
	if failMsg != "" {
		s.transition(sess, StageError, failMsg, corrID)
		return NavigateResult{OK: false, Message: failMsg, Session: sess, Retryable: retryable}
	}

	s.transition(sess, Complete, "", corrID)
	return NavigateResult{OK: true, Message: result, Session: sess, ShellText: shellText}
}

// Retry re-navigates with the last input and options, preserving prior
// diagnostics ahead of the new session's so context is retained.
func (s *Shell) Retry() NavigateResult {
	s.init()
	s.mu.Lock()
	prev := s.session
	s.mu.Unlock()
	if s.lastInput == nil {
		return NavigateResult{OK: false, Message: "No previous navigation to retry", Session: prev}
	}
	var preserved []DiagnosticEvent
	fromStage := Idle
	if prev != nil {
		preserved = append(preserved, prev.Diagnostics...)
		fromStage = prev.Stage
	}
	preserved = append(preserved, DiagnosticEvent{
		Timestamp: time.Now(),
		Severity:  Info,
		Module:    "engine",
		Stage:     fromStage.String(),
		Message:   fmt.Sprintf("Retry requested from stage %s", fromStage),
	})

	result := s.Navigate(*s.lastInput, *s.lastOptions)
	result.Session.Diagnostics = append(preserved, result.Session.Diagnostics...)
	return result
}

func normalizeInput(input NavigationInput) (string, error) {
	if input.URL == "" {
		return "", fmt.Errorf("empty URL")
	}
	if input.Width < 0 || input.Height < 0 {
		return "", fmt.Errorf("invalid viewport %dx%d", input.Width, input.Height)
	}
	canonical, err := urlref.Canonicalize(input.URL)
	if err != nil {
		return "", err
	}
	return canonical, nil
}

// runPipeline wires load, parse, orchestration, layout and paint together,
// emitting stage-transition diagnostics at each boundary and checking the
// cancel flag between stages. It returns the success message, a non-empty
// failMsg on failure, (when NavigationOptions.ShellMode is set) the
// shell-mode text transcript in place of a written PPM, and whether a load
// failure looks retryable.
func (s *Shell) runPipeline(sess *Session, canonicalURL string, opts NavigationOptions, corrID string) (string, string, string, bool) {
	loader := resource.NewLoader(s.Fetcher)

	s.transition(sess, Fetching, canonicalURL, corrID)
	if s.cancel.get() {
		return "", "Navigation cancelled before Fetching", "", false
	}
	lr := loader.LoadText(canonicalURL)
	if lr.FetchDiagnostic != "" {
		s.emit(sess, Warning, "resource", "Fetching", lr.FetchDiagnostic, corrID)
	}
	if !lr.OK {
		msg := fmt.Sprintf("Load failure: %s", lr.Error)
		if lr.FetchDiagnostic != "" {
			msg += fmt.Sprintf(" [%s]", lr.FetchDiagnostic)
		}
		return "", msg, "", lr.Retryable
	}

	s.transition(sess, Parsing, "", corrID)
	if s.cancel.get() {
		return "", "Navigation cancelled before Parsing", "", false
	}
	parseResult := dom.ParseHTMLWithDiagnostics(lr.Text)
	var warnings []string
	for _, w := range parseResult.Warnings {
		s.emit(sess, Warning, "dom", "Parsing", w, corrID)
		warnings = append(warnings, w)
	}

	s.transition(sess, Styling, "", corrID)
	if s.cancel.get() {
		return "", "Navigation cancelled before Styling", "", false
	}
	orch := orchestrate.Orchestrate(parseResult.Document, lr.FinalURL, loader, s.Logger)
	for _, w := range orch.Warnings {
		s.emit(sess, Warning, "orchestrate", "Styling", w, corrID)
		warnings = append(warnings, w)
	}

	s.transition(sess, Layout, "", corrID)
	if s.cancel.get() {
		return "", "Navigation cancelled before Layout", "", false
	}
	viewportWidth := 1280
	viewportHeight := 720
	if input := s.lastInput; input != nil {
		if input.Width > 0 {
			viewportWidth = input.Width
		}
		if input.Height > 0 {
			viewportHeight = input.Height
		}
	}
	layoutTree := layout.Build(parseResult.Document, orch.Stylesheet)
	if layoutTree == nil {
		layoutTree = &layout.Box{Tag: "html"}
	}
	layout.Layout(layoutTree, viewportWidth)

	s.transition(sess, Rendering, "", corrID)
	if s.cancel.get() {
		return "", "Navigation cancelled before Rendering", "", false
	}
	var shellText string
	if opts.ShellMode {
		shellText = paint.RenderShellText(layoutTree)
	} else if opts.OutputPath != "" {
		c := paint.Paint(layoutTree, viewportWidth, viewportHeight)
		if !c.WritePPM(opts.OutputPath) {
			return "", fmt.Sprintf("Render failure: unable to write %s", opts.OutputPath), "", false
		}
	}

	msg := fmt.Sprintf("Rendered %s to %s", lr.FinalURL, opts.OutputPath)
	if len(warnings) > 0 {
		msg += fmt.Sprintf("\nWarning summary: %d warning(s); first: %s", len(warnings), snippet(warnings[0], 96))
		msg += "\nWarnings: "
		for i, w := range warnings {
			if i > 0 {
				msg += " | "
			}
			msg += w
		}
	}
	return msg, "", shellText, false
}

func snippet(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

// transition records a trace entry, updates sess.Stage and emits the
// stage-transition Info diagnostic.
func (s *Shell) transition(sess *Session, stage Stage, detail string, corrID string) {
	s.mu.Lock()
	now := time.Now()
	elapsed := int64(0)
	if len(sess.Trace) > 0 {
		elapsed = now.Sub(sess.Trace[len(sess.Trace)-1].EnteredAt).Milliseconds()
	}
	sess.Trace = append(sess.Trace, TraceEntry{Stage: stage, EnteredAt: now, ElapsedSincePrevMS: elapsed})
	sess.Stage = stage
	s.mu.Unlock()
	s.emit(sess, Info, "engine", stage.String(), formatDiagnosticMessage(stage.String(), detail), corrID)
}

func (s *Shell) emit(sess *Session, sev Severity, module, stage, message, corrID string) {
	s.mu.Lock()
	ev := DiagnosticEvent{
		Timestamp:     time.Now(),
		Severity:      sev,
		Module:        module,
		Stage:         stage,
		Message:       message,
		CorrelationID: corrID,
	}
	sess.Diagnostics = append(sess.Diagnostics, ev)
	s.mu.Unlock()
	switch sev {
	case Warning:
		s.Logger.Warn(message, "module", module, "stage", stage, "correlation_id", corrID)
	case Error:
		s.Logger.Error(message, "module", module, "stage", stage, "correlation_id", corrID)
	default:
		s.Logger.Info(message, "module", module, "stage", stage, "correlation_id", corrID)
	}
	s.broadcast(ev)
}
