package frankentui

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/charmbracelet/x/ansi"
	isatty "github.com/mattn/go-isatty"
	"golang.org/x/sys/unix"
	xterm "golang.org/x/term"
)

// started guards against two overlapping raw-mode sessions on the same
// process: a second Start while one is already active would stomp the
// first session's saved termios on Shutdown, leaving the terminal in
// whichever of the two raw states lost the race.
var started atomic.Bool

// ScreenMode selects the session's entry mode.
type ScreenMode uint8

const (
	ScreenInline ScreenMode = iota
	ScreenAlt
)

// SessionState is the screen-mode state machine of spec.md §4.5.
type SessionState uint8

const (
	PreSession SessionState = iota
	RawInline
	RawAlt
	ShuttingDown
)

// MousePolicy controls whether mouse reporting is requested.
type MousePolicy uint8

const (
	MouseAuto MousePolicy = iota // on in RawAlt, off in RawInline
	MouseAlwaysOn
	MouseAlwaysOff
)

// Option configures optional Session parameters for NewSession, following
// the functional-options pattern spec.md's ambient-configuration note calls
// for ("Runtime configuration is via functional options on Session
// construction"). Generalized from the teacher's single-argument
// NewScreen(w io.Writer) constructor since this kernel has more independent
// optional knobs (mode, mouse policy, inline UI height) than the teacher's
// one writer argument.
type Option func(*sessionConfig)

type sessionConfig struct {
	mode        ScreenMode
	mousePolicy MousePolicy
	uiHeight    int // RawInline: lines reserved for the anchored UI region; 0 defers to the full terminal height
}

// WithScreenMode selects inline or alt-screen entry. Defaults to ScreenAlt.
func WithScreenMode(mode ScreenMode) Option {
	return func(c *sessionConfig) { c.mode = mode }
}

// WithMousePolicy overrides the default MouseAuto policy.
func WithMousePolicy(p MousePolicy) Option {
	return func(c *sessionConfig) { c.mousePolicy = p }
}

// WithUIHeight sets the number of lines reserved for the inline UI region
// when entering in ScreenInline mode (spec.md §4.5 inline anchoring). Without
// it, the anchor defaults to the full terminal height (the same value a
// resize would compute); WithUIHeight lets a caller reserve fewer lines up
// front so the very first inline Commit already clears the right region
// instead of only narrowing it once a SIGWINCH happens to arrive.
func WithUIHeight(n int) Option {
	return func(c *sessionConfig) { c.uiHeight = n }
}

// CommitStats reports size/cost figures from the most recent Commit,
// adapted from the teacher's FlushStats in screen.go: DirtyRows and
// ChangedRows keep the teacher's names and meaning (candidate rows scanned
// vs. rows that actually differed), and Bytes is added since this kernel's
// single-writer gate makes per-commit byte counts cheap to capture.
type CommitStats struct {
	DirtyRows   int // rows scanned as redraw candidates this commit (every row, since each frame is a fresh buffer)
	ChangedRows int // distinct rows that produced at least one change run
	Bytes       int // bytes written to the terminal for this commit
}

// Session is the process-scoped value owning the terminal: output handle,
// raw-mode state, saved termios, capability set, front buffer, and the
// mutex-protected single writer (spec.md §3/§4.5). Adapted from the
// teacher's Screen in screen.go: EnterRawMode/ExitRawMode and
// EnterInlineMode/ExitInlineMode become the state machine below.
type Session struct {
	mu    sync.Mutex // guards the writer and both buffers together
	wmu   sync.Mutex // guards raw writes to out (shared by LogSink/RawSink)
	out   io.Writer
	fd    uintptr
	pool  *Pool
	caps  Capabilities
	front *Buffer
	pres  *Presenter

	state       SessionState
	mode        ScreenMode
	mousePolicy MousePolicy
	origTermios *unix.Termios

	width, height int
	anchorRows    int // inline mode: lines reserved for the UI region
	uiHeight      int // configured via WithUIHeight; 0 means "track full height"

	resizeChan chan struct{ W, H int }
	sigChan    chan os.Signal

	shutdownOnce sync.Once
	lastStats    CommitStats
}

// Start acquires capabilities, snapshots termios, and enters the requested
// screen mode, writing to os.Stdout. Only one session may be active per
// process at a time; calling Start while a prior session hasn't Shutdown yet
// returns ErrAlreadyStarted. Per spec.md §7, ErrCapabilityAcquisitionFailed
// and ErrRawModeEntryFailed leave the terminal untouched: capability
// detection and termios snapshotting both happen before any ioctl or escape
// sequence is issued, mirroring the teacher's EnterRawMode, which already
// fails before mutating any state.
//
// Start is the two-argument convenience entry point; NewSession is the
// functional-options entry point for callers that also need to configure
// the inline UI-region height or substitute the output writer.
//
// Callers should immediately follow a successful Start with
// `defer sess.Shutdown()` and `defer sess.Recover()` so the terminal is
// restored on both normal return and on panic.
func Start(mode ScreenMode, mousePolicy MousePolicy) (*Session, error) {
	return NewSession(nil, WithScreenMode(mode), WithMousePolicy(mousePolicy))
}

// NewSession acquires capabilities, snapshots termios, and enters the
// configured screen mode, mirroring the teacher's NewScreen(w io.Writer)
// constructor shape (nil writer defaults to os.Stdout) generalized with
// functional options (spec.md §2's "runtime configuration is via functional
// options" note). Terminal size and raw-mode ioctls always target
// os.Stdout's file descriptor, exactly as the teacher's NewScreen does,
// regardless of which writer output is redirected to.
func NewSession(w io.Writer, opts ...Option) (*Session, error) {
	if w == nil {
		w = os.Stdout
	}
	cfg := sessionConfig{mode: ScreenAlt, mousePolicy: MouseAuto}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !started.CompareAndSwap(false, true) {
		return nil, ErrAlreadyStarted
	}

	fd := os.Stdout.Fd()
	if !isatty.IsTerminal(fd) {
		started.Store(false)
		return nil, fmt.Errorf("%w: stdout is not a terminal", ErrCapabilityAcquisitionFailed)
	}
	caps := DetectCapabilities(fd)

	width, height, err := getTerminalSize(fd)
	if err != nil {
		width, height = 80, 24
	}

	termios, err := unix.IoctlGetTermios(int(fd), ioctlGetTermios)
	if err != nil {
		started.Store(false)
		return nil, fmt.Errorf("%w: %v", ErrCapabilityAcquisitionFailed, err)
	}

	pool := NewPool()
	// anchorRows must be usable before the first SIGWINCH ever fires: an
	// unset or oversized ui_height falls back to the full terminal height,
	// the same value Resize would compute, rather than leaving inline
	// Commits clearing zero lines until a resize happens to occur.
	anchorRows := cfg.uiHeight
	if anchorRows <= 0 || anchorRows > height {
		anchorRows = height
	}
	s := &Session{
		out:         w,
		fd:          fd,
		pool:        pool,
		caps:        caps,
		front:       NewBuffer(pool, width, height),
		pres:        NewPresenter(),
		mode:        cfg.mode,
		mousePolicy: cfg.mousePolicy,
		origTermios: termios,
		width:       width,
		height:      height,
		anchorRows:  anchorRows,
		uiHeight:    cfg.uiHeight,
		resizeChan:  make(chan struct{ W, H int }, 1),
		sigChan:     make(chan os.Signal, 1),
	}

	if err := s.enterRaw(); err != nil {
		started.Store(false)
		return nil, fmt.Errorf("%w: %v", ErrRawModeEntryFailed, err)
	}

	switch cfg.mode {
	case ScreenAlt:
		s.state = RawAlt
		s.rawWrite(ansi.SetAltScreenSaveCursorMode)
		s.rawWrite(ansi.HideCursor)
	case ScreenInline:
		s.state = RawInline
	}
	if s.wantMouse() {
		s.rawWrite(ansi.SetButtonEventMouseMode)
	}
	if caps.BracketedPaste {
		s.rawWrite(ansi.SetBracketedPasteMode)
	}

	signal.Notify(s.sigChan, syscall.SIGWINCH)
	go s.handleSignals()

	return s, nil
}

func (s *Session) wantMouse() bool {
	switch s.mousePolicy {
	case MouseAlwaysOn:
		return true
	case MouseAlwaysOff:
		return false
	default:
		return s.mode == ScreenAlt
	}
}

func (s *Session) enterRaw() error {
	raw := *s.origTermios
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(int(s.fd), ioctlSetTermios, &raw)
}

// getTerminalSize delegates to golang.org/x/term rather than issuing the
// TIOCGWINSZ ioctl directly, so size queries share one cross-platform
// implementation with the rest of the ecosystem instead of duplicating
// what x/term already wraps.
func getTerminalSize(fd uintptr) (int, int, error) {
	return xterm.GetSize(int(fd))
}

// rawWrite writes directly to the session's output under the write lock,
// bypassing sanitization - used only for the kernel's own trusted escape
// sequences, never for caller-supplied bytes.
func (s *Session) rawWrite(str string) {
	s.wmu.Lock()
	io.WriteString(s.out, str)
	s.wmu.Unlock()
}

// NewFrame returns a frame for one draw pass, backed by a fresh buffer of
// the session's current dimensions. Committing the returned frame diffs it
// against the front buffer and presents the result.
func (s *Session) NewFrame() *Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	return NewFrame(NewBuffer(s.pool, s.width, s.height))
}

// Commit diffs frame's buffer against the front buffer, presents the
// result, and promotes the frame's buffer to be the new front buffer on
// success. Surfaces ErrWriteFailed without retrying; retry policy is the
// caller's (spec.md §7).
func (s *Session) Commit(frame *Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == ShuttingDown {
		return ErrNotStarted
	}

	back := frame.Buffer()
	runs, err := Compute(s.front, back)
	dimensionsChanged := err != nil
	if dimensionsChanged {
		// Dimension mismatch means a resize raced the draw; caller should
		// have rebuilt against the new size, but we degrade to a full
		// redraw of every cell rather than erroring.
		runs = fullRedrawRuns(back)
	}

	cw := &countingWriter{w: s.writerFor(back)}
	if s.state == RawInline {
		err = s.presentInline(cw, back, runs, frame.Links())
	} else {
		err = s.pres.Present(cw, back, runs, frame.Links(), s.caps)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}

	if dimensionsChanged {
		s.front = back
	} else {
		s.front.CopyFrom(back)
	}

	s.lastStats = CommitStats{
		DirtyRows:   back.Height(),
		ChangedRows: countDistinctRows(runs),
		Bytes:       cw.n,
	}
	return nil
}

// LastCommitStats returns size/cost figures from the most recent successful
// Commit, adapted from the teacher's GetFlushStats in screen.go.
func (s *Session) LastCommitStats() CommitStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStats
}

// countDistinctRows counts the distinct rows touched by runs, which Compute
// always returns in ascending Y order (diff.go scans row-by-row).
func countDistinctRows(runs []ChangeRun) int {
	count := 0
	last := -1
	for _, r := range runs {
		if r.Y != last {
			count++
			last = r.Y
		}
	}
	return count
}

func (s *Session) writerFor(back *Buffer) io.Writer {
	return &lockedWriter{mu: &s.wmu, w: s.out}
}

type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}

// countingWriter tallies bytes written for CommitStats.Bytes without
// altering what reaches the underlying writer.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}

func fullRedrawRuns(b *Buffer) []ChangeRun {
	runs := make([]ChangeRun, 0, b.height)
	for y := 0; y < b.height; y++ {
		if b.width > 0 {
			runs = append(runs, ChangeRun{Y: y, X0: 0, X1: b.width})
		}
	}
	return runs
}

// presentInline renders runs using the per-line CSI 2K anchoring scheme
// (spec.md §4.5 "RawInline" row): save cursor, move to the anchor row,
// clear each UI line in place with CSI 2K (never CSI 2J, which would wipe
// scrollback), hand off to the shared SGR/cursor presenter, then restore
// the cursor. Adapted from the teacher's FlushInline in screen.go,
// generalized from a single fixed anchor to a recomputed one on resize.
func (s *Session) presentInline(w io.Writer, back *Buffer, runs []ChangeRun, links HyperlinkRegistry) error {
	var pre, post string
	pre = ansi.SaveCursor
	for i := 0; i < s.anchorRows; i++ {
		pre += "\r\x1b[2K"
		if i < s.anchorRows-1 {
			pre += "\n"
		}
	}
	post = ansi.RestoreCursor
	if _, err := io.WriteString(w, pre); err != nil {
		return err
	}
	if err := s.pres.Present(w, back, runs, links, s.caps); err != nil {
		return err
	}
	_, err := io.WriteString(w, post)
	return err
}

// Resize atomically replaces the front buffer's storage and clears the
// presenter's cursor-tracking state, per spec.md §9's "resize(w,h)...
// atomically replaces both buffers and clears cursor-tracking". Adapted
// from the teacher's handleSignals SIGWINCH handler in screen.go: outside
// RawInline it still erases the whole screen with \x1b[2J; in RawInline it
// writes nothing and only recomputes the anchor region, whose lines the
// next Commit clears one by one.
func (s *Session) Resize(w, h int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.width, s.height = w, h
	s.front.Resize(w, h)
	s.pres.ResetCursor()
	if s.state == RawInline {
		anchorRows := s.uiHeight
		if anchorRows <= 0 || anchorRows > h {
			anchorRows = h
		}
		s.anchorRows = anchorRows
	} else {
		s.rawWrite(ansi.EraseEntireScreen)
	}
}

func (s *Session) handleSignals() {
	for range s.sigChan {
		w, h, err := getTerminalSize(s.fd)
		if err != nil {
			continue
		}
		if w != s.width || h != s.height {
			s.Resize(w, h)
			select {
			case s.resizeChan <- struct{ W, H int }{w, h}:
			default:
			}
		}
	}
}

// ResizeEvents returns a channel that receives dimension updates whenever
// the terminal is resized (external schedulers decide when to act on
// them, per spec.md §9's "cooperation with a resize scheduler").
func (s *Session) ResizeEvents() <-chan struct{ W, H int } { return s.resizeChan }

// Capabilities returns the session's frozen capability set.
func (s *Session) Capabilities() Capabilities { return s.caps }

// Size returns the session's current dimensions.
func (s *Session) Size() (w, h int) { return s.width, s.height }

// LogSink returns a writer that strips control sequences from untrusted
// byte streams before they reach the terminal (spec.md §4.5/§6).
func (s *Session) LogSink() io.Writer { return newSanitizer(s.out, &s.wmu) }

// RawSink returns a writer for explicitly trusted sources that bypasses
// sanitization.
func (s *Session) RawSink() io.Writer { return newRawWriter(s.out, &s.wmu) }

// SetCursorShape changes the terminal cursor's shape via DECSCUSR.
func (s *Session) SetCursorShape(shape CursorShape) {
	s.rawWrite(fmt.Sprintf("\x1b[%d q", int(shape)))
}

// SetCursorColor sets the cursor color via OSC 12.
func (s *Session) SetCursorColor(c Color) {
	if c.IsDefault() {
		return
	}
	_, r, g, b := c.RGBA()
	s.rawWrite(fmt.Sprintf("\x1b]12;#%02x%02x%02x\x07", r, g, b))
}

// Shutdown idempotently restores the terminal to its pre-session state
// (spec.md §8 invariant 8), adapted from ExitRawMode/ExitInlineMode. Safe
// to call multiple times and from the panic hook.
func (s *Session) Shutdown() {
	s.shutdownOnce.Do(s.shutdown)
}

func (s *Session) shutdown() {
	s.state = ShuttingDown
	signal.Stop(s.sigChan)

	if s.caps.BracketedPaste {
		s.rawWrite(ansi.ResetBracketedPasteMode)
	}
	if s.wantMouse() {
		s.rawWrite(ansi.ResetButtonEventMouseMode)
	}
	switch s.mode {
	case ScreenAlt:
		s.rawWrite(ansi.ShowCursor)
		s.rawWrite(ansi.ResetAltScreenSaveCursorMode)
	case ScreenInline:
		s.rawWrite("\r\n")
	}

	if s.origTermios != nil {
		unix.IoctlSetTermios(int(s.fd), ioctlSetTermios, s.origTermios)
	}

	started.Store(false)
}

// Recover is the session's panic hook (spec.md §3/§9): the caller must
// invoke it directly via `defer sess.Recover()` in the same goroutine that
// calls Start, immediately alongside (or instead of) a plain `defer
// sess.Shutdown()`. recover() only sees a panic unwinding its own
// goroutine's stack, so this cannot be installed automatically from
// inside Start - the caller's defer is what makes it "registered". Runs
// the same idempotent cleanup as Shutdown, then re-panics so the original
// failure still terminates the program.
func (s *Session) Recover() {
	if r := recover(); r != nil {
		s.Shutdown()
		panic(r)
	}
}
