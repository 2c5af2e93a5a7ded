package frankentui

import (
	"io"
	"os/exec"

	"github.com/creack/pty"
)

// AttachPTY starts cmd under a pseudoterminal and forwards its output
// through the session's single writer, sanitized unless passthroughSGR is
// true (the caller is vouching that the subprocess's own escape sequences
// are safe to render directly). Returns the PTY's input side so the caller
// can forward keystrokes to the subprocess. Adopted wholesale from
// Tonksthebear-trybotster's use of creack/pty to embed subprocess
// terminals - the teacher has no PTY code at all (spec.md §4.5).
func (s *Session) AttachPTY(cmd *exec.Cmd, passthroughSGR bool) (io.WriteCloser, error) {
	f, err := pty.Start(cmd)
	if err != nil {
		return nil, err
	}

	var dst io.Writer
	if passthroughSGR {
		dst = s.RawSink()
	} else {
		dst = s.LogSink()
	}

	go func() {
		defer f.Close()
		io.Copy(dst, f)
	}()

	return f, nil
}
