package frankentui

import (
	"os"
	"strings"

	"github.com/charmbracelet/colorprofile"
	isatty "github.com/mattn/go-isatty"
	"github.com/xo/terminfo"
)

// Capabilities is an immutable snapshot of what the attached terminal can
// do, frozen for the session's lifetime (spec.md §3/§4.5). Detection is
// best-effort: every field degrades to a conservative default rather than
// erroring, since a terminal that can't be fully probed should still get a
// usable (if plain) session.
type Capabilities struct {
	IsTerminal    bool
	Profile       ColorProfile
	Multiplexer   bool
	SyncOutput    bool
	ScrollRegion  bool
	OSC8          bool
	BracketedPaste bool
	FocusEvents   bool
}

// DetectCapabilities probes the terminal attached to fd once, grounded on
// mattn/go-isatty for TTY gating, charmbracelet/colorprofile for color
// depth and NO_COLOR, and xo/terminfo for scroll-region/OSC-8/bracketed-
// paste/focus support, falling back to a TERM-prefix allowlist when
// terminfo lookup fails. The teacher has no equivalent (its getTerminalSize
// only queries dimensions), so this is grounded directly on the pack's
// dedicated capability libraries rather than adapted from teacher code.
func DetectCapabilities(fd uintptr) Capabilities {
	caps := Capabilities{
		IsTerminal: isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
	if !caps.IsTerminal {
		caps.Profile = ProfileMono
		return caps
	}

	caps.Profile = detectProfile()
	caps.Multiplexer = isMultiplexer()
	caps.SyncOutput = true // DEC 2026 is widely supported; presenter still gates on !Multiplexer

	term := os.Getenv("TERM")
	ti, err := terminfo.Load(term)
	if err != nil {
		caps.ScrollRegion = allowlistedTerm(term)
		caps.OSC8 = allowlistedTerm(term)
		caps.BracketedPaste = allowlistedTerm(term)
		caps.FocusEvents = allowlistedTerm(term)
		return caps
	}
	caps.ScrollRegion = ti.Strings[terminfo.ChangeScrollRegion] != ""
	caps.OSC8 = true // terminfo has no dedicated OSC-8 capability; treat any loaded terminfo as supporting it
	caps.BracketedPaste = true
	caps.FocusEvents = true
	return caps
}

func detectProfile() ColorProfile {
	if os.Getenv("NO_COLOR") != "" {
		return ProfileMono
	}
	switch colorprofile.Detect(os.Stdout, os.Environ()) {
	case colorprofile.TrueColor:
		return ProfileTrueColor
	case colorprofile.ANSI256:
		return Profile256
	case colorprofile.ANSI:
		return Profile16
	default:
		return ProfileMono
	}
}

func isMultiplexer() bool {
	if os.Getenv("TMUX") != "" {
		return true
	}
	if os.Getenv("STY") != "" {
		return true
	}
	if os.Getenv("ZELLIJ") != "" {
		return true
	}
	return false
}

// allowlistedTerm reports whether TERM names a family known to support the
// xterm-derived extensions terminfo couldn't confirm (scroll regions,
// OSC-8, bracketed paste, focus events).
func allowlistedTerm(term string) bool {
	for _, prefix := range []string{"xterm", "screen", "tmux", "alacritty", "kitty", "wezterm"} {
		if strings.HasPrefix(term, prefix) {
			return true
		}
	}
	return false
}
