package frankentui

import (
	"bytes"
	"errors"
	"testing"
)

// newTestSession builds a Session bypassing Start (no real terminal
// required), matching the teacher's newTestScreen helper in
// screen_test.go: construct the struct directly with a buffer writer.
func newTestSession(w, h int, mode ScreenMode) (*Session, *bytes.Buffer) {
	var out bytes.Buffer
	pool := NewPool()
	s := &Session{
		out:        &out,
		pool:       pool,
		caps:       Capabilities{IsTerminal: true, Profile: ProfileTrueColor},
		front:      NewBuffer(pool, w, h),
		pres:       NewPresenter(),
		mode:       mode,
		width:      w,
		height:     h,
		anchorRows: h,
		resizeChan: make(chan struct{ W, H int }, 1),
	}
	if mode == ScreenInline {
		s.state = RawInline
	} else {
		s.state = RawAlt
	}
	return s, &out
}

func TestSessionCommitWritesChanges(t *testing.T) {
	s, out := newTestSession(10, 5, ScreenAlt)
	frame := s.NewFrame()
	frame.Set(2, 1, NewCell('x', DefaultStyle()))

	if err := s.Commit(frame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() == 0 {
		t.Fatal("expected bytes written for a genuine change")
	}
}

func TestSessionCommitNoChangesWritesNothing(t *testing.T) {
	s, out := newTestSession(10, 5, ScreenAlt)
	frame := s.NewFrame()
	if err := s.Commit(frame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Len() != 0 {
		t.Fatalf("expected zero bytes for an unchanged frame, got %d", out.Len())
	}
}

func TestSessionCommitPromotesFrontBuffer(t *testing.T) {
	s, _ := newTestSession(10, 5, ScreenAlt)
	frame := s.NewFrame()
	frame.Set(0, 0, NewCell('q', DefaultStyle()))
	if err := s.Commit(frame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.front.Get(0, 0).Rune() != 'q' {
		t.Fatal("expected front buffer to be promoted to the committed frame's contents")
	}

	// Committing an identical frame a second time should now produce no
	// output, since the front buffer already matches.
	frame2 := s.NewFrame()
	frame2.Set(0, 0, NewCell('q', DefaultStyle()))
	var out2 bytes.Buffer
	s.out = &out2
	if err := s.Commit(frame2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out2.Len() != 0 {
		t.Fatalf("expected no output once front buffer already matches, got %d bytes", out2.Len())
	}
}

func TestSessionResizeResetsCursorTracking(t *testing.T) {
	s, _ := newTestSession(10, 5, ScreenAlt)
	frame := s.NewFrame()
	frame.Set(0, 0, NewCell('a', DefaultStyle()))
	if err := s.Commit(frame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s.Resize(20, 10)
	if w, h := s.Size(); w != 20 || h != 10 {
		t.Fatalf("expected resized dimensions 20x10, got %dx%d", w, h)
	}
	if s.pres.cursorX != unknownCursor || s.pres.cursorY != unknownCursor {
		t.Fatal("expected Resize to reset presenter cursor tracking")
	}
}

func TestSessionResizeInlineNoFullScreenClear(t *testing.T) {
	s, out := newTestSession(10, 5, ScreenInline)
	out.Reset()
	s.Resize(10, 8)
	if bytes.Contains(out.Bytes(), []byte("\x1b[2J")) {
		t.Fatal("inline mode resize must never emit a full-screen clear (CSI 2J)")
	}
}

func TestSessionResizeInlineRespectsConfiguredUIHeight(t *testing.T) {
	s, _ := newTestSession(10, 5, ScreenInline)
	s.uiHeight = 2
	s.anchorRows = 2

	s.Resize(10, 8)
	if s.anchorRows != 2 {
		t.Fatalf("expected configured ui_height 2 to survive resize, got anchorRows=%d", s.anchorRows)
	}
}

func TestSessionResizeInlineFallsBackToFullHeight(t *testing.T) {
	s, _ := newTestSession(10, 5, ScreenInline)
	// uiHeight left at zero means "track full height", matching the
	// unconfigured NewSession default.

	s.Resize(10, 8)
	if s.anchorRows != 8 {
		t.Fatalf("expected unconfigured ui_height to track full height 8, got anchorRows=%d", s.anchorRows)
	}
}

func TestSessionLastCommitStatsReflectsMostRecentCommit(t *testing.T) {
	s, _ := newTestSession(10, 5, ScreenAlt)

	frame := s.NewFrame()
	frame.Set(2, 1, NewCell('x', DefaultStyle()))
	if err := s.Commit(frame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stats := s.LastCommitStats()
	if stats.DirtyRows != 5 {
		t.Fatalf("expected DirtyRows to equal buffer height 5, got %d", stats.DirtyRows)
	}
	if stats.ChangedRows != 1 {
		t.Fatalf("expected ChangedRows 1 for a single-row change, got %d", stats.ChangedRows)
	}
	if stats.Bytes == 0 {
		t.Fatal("expected a nonzero byte count for a genuine change")
	}

	noopFrame := s.NewFrame()
	if err := s.Commit(noopFrame); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats := s.LastCommitStats(); stats.ChangedRows != 0 || stats.Bytes != 0 {
		t.Fatalf("expected an unchanged commit to report zero ChangedRows/Bytes, got %+v", stats)
	}
}

func TestSessionShutdownIdempotent(t *testing.T) {
	s, _ := newTestSession(10, 5, ScreenAlt)
	s.Shutdown()
	s.Shutdown() // must not panic or double-restore
}

func TestSessionCommitAfterShutdownFails(t *testing.T) {
	s, _ := newTestSession(10, 5, ScreenAlt)
	s.Shutdown()

	frame := s.NewFrame()
	frame.Set(0, 0, NewCell('z', DefaultStyle()))
	if err := s.Commit(frame); !errors.Is(err, ErrNotStarted) {
		t.Fatalf("expected ErrNotStarted after Shutdown, got %v", err)
	}
}

func TestSessionRecoverRestoresThenRepanics(t *testing.T) {
	s, out := newTestSession(10, 5, ScreenAlt)

	func() {
		defer func() {
			if recover() == nil {
				t.Fatal("expected Recover to re-panic the original value")
			}
		}()
		defer s.Recover()
		panic("boom")
	}()

	if out.Len() == 0 {
		t.Fatal("expected Recover to run cleanup and write restore sequences")
	}
}
