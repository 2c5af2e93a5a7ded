// Command kerneldemo exercises the frankentui rendering kernel end to end:
// inline-mode session start, a few committed frames, a resize, a
// hyperlink, and a sanitized log sink fed from an embedded subprocess's
// pty. It is not a UI - everything above the kernel (widgets, layout,
// input routing) is out of scope for this repository.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/dicklesworthstone/frankentui"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "kerneldemo:", err)
		os.Exit(1)
	}
}

func run() error {
	sess, err := frankentui.NewSession(nil,
		frankentui.WithScreenMode(frankentui.ScreenInline),
		frankentui.WithMousePolicy(frankentui.MouseAuto),
		frankentui.WithUIHeight(4),
	)
	if err != nil {
		return err
	}
	defer sess.Shutdown()
	defer sess.Recover()

	if err := drawGreeting(sess); err != nil {
		return err
	}
	time.Sleep(500 * time.Millisecond)

	if err := drawHyperlink(sess); err != nil {
		return err
	}
	time.Sleep(500 * time.Millisecond)

	if err := streamSubprocessLog(sess); err != nil {
		return err
	}

	w, h := sess.Size()
	sess.Resize(w, h)

	stats := sess.LastCommitStats()
	fmt.Fprintf(sess.RawSink(), "commit: %d/%d rows changed, %d bytes\r\n",
		stats.ChangedRows, stats.DirtyRows, stats.Bytes)

	return nil
}

func drawGreeting(sess *frankentui.Session) error {
	frame := sess.NewFrame()
	style := frankentui.DefaultStyle().Foreground(frankentui.RGB(120, 220, 120)).Bold()
	putString(frame, 0, 0, "frankentui kernel demo", style)
	return sess.Commit(frame)
}

func drawHyperlink(sess *frankentui.Session) error {
	frame := sess.NewFrame()
	id := frame.RegisterLink("https://example.com/frankentui")
	style := frankentui.DefaultStyle().Foreground(frankentui.RGB(90, 160, 250)).Underline()
	linkText := "project page"
	for i, r := range linkText {
		cell := frankentui.NewCell(r, style).WithLinkID(id)
		frame.Set(i, 1, cell)
	}
	return sess.Commit(frame)
}

// streamSubprocessLog embeds `echo`'s output via a pty, forwarding it
// through the session's sanitized log sink so any stray escape sequences
// the subprocess emits never reach the real terminal unfiltered.
func streamSubprocessLog(sess *frankentui.Session) error {
	cmd := exec.Command("echo", "hello from a subprocess pty")
	pty, err := sess.AttachPTY(cmd, false)
	if err != nil {
		return err
	}
	defer pty.Close()
	return cmd.Wait()
}

func putString(frame *frankentui.Frame, x, y int, s string, style frankentui.Style) {
	col := x
	for _, r := range s {
		frame.Set(col, y, frankentui.NewCell(r, style))
		col++
	}
}
