package frankentui

import "sync"

// OutputPump is Mode B (spec.md §5): a dedicated goroutine owns the
// session's writer, and the caller's thread only ever submits a completed
// frame and returns. Grounded on the teacher's BufferPool in
// bufferpool.go: the same cond-variable handoff ("background goroutine
// waits on a cond, pulls one pending item, processes it outside the
// lock") repurposed from async-clearing a spare buffer to diffing and
// presenting a submitted frame.
type OutputPump struct {
	sess *Session

	mu      sync.Mutex
	cond    *sync.Cond
	pending *Frame
	active  bool
	closed  bool
	err     error
	errMu   sync.Mutex
}

// NewOutputPump starts the dedicated output goroutine for sess. Submit is
// the only suspension point on the caller's thread; the goroutine runs
// until Close.
func NewOutputPump(sess *Session) *OutputPump {
	p := &OutputPump{sess: sess}
	p.cond = sync.NewCond(&p.mu)
	go p.run()
	return p
}

// Submit hands frame off to the output goroutine and returns immediately.
// A frame submitted while a previous one is still being presented replaces
// it in the handoff slot - the pump always presents the most recent
// submission, never a backlog, matching the teacher's pendingClear
// single-slot semantics in bufferpool.go.
func (p *OutputPump) Submit(frame *Frame) {
	p.mu.Lock()
	p.pending = frame
	p.mu.Unlock()
	p.cond.Signal()
}

func (p *OutputPump) run() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for {
		for p.pending == nil && !p.closed {
			p.cond.Wait()
		}
		if p.closed && p.pending == nil {
			return
		}
		frame := p.pending
		p.pending = nil
		p.active = true

		p.mu.Unlock()
		err := p.sess.Commit(frame)
		p.mu.Lock()

		p.active = false
		if err != nil {
			p.errMu.Lock()
			p.err = err
			p.errMu.Unlock()
		}
	}
}

// Err returns the most recent error Commit returned on the output
// goroutine, or nil. Cleared on read.
func (p *OutputPump) Err() error {
	p.errMu.Lock()
	defer p.errMu.Unlock()
	err := p.err
	p.err = nil
	return err
}

// Close stops the output goroutine once any in-flight submission has been
// presented. Safe to call once.
func (p *OutputPump) Close() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	p.cond.Signal()
}
