// Package commands provides channel-agnostic slash command handling.
package commands

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/shlex"
	"github.com/neoclaw-ai/toolloop/internal/costs"
	"github.com/neoclaw-ai/toolloop/internal/export"
	"github.com/neoclaw-ai/toolloop/internal/provider"
	"github.com/neoclaw-ai/toolloop/internal/runtime"
)

const helpText = "Commands: /help, /commands, /new, /reset, /test, /profile [name], /export [path], /usage, /tools, /stop, /quit"

// Session is the conversation the commands operate on.
type Session interface {
	Reset() bool
	Snapshot() []provider.Message
	TestConnection(ctx context.Context) (*provider.Response, error)
	ToolNames() []string
}

// ProfileSwitcher moves the conversation to another configured provider profile.
type ProfileSwitcher interface {
	ActiveProfile() string
	Profiles() []string
	SwitchProfile(name string) error
}

// Handler dispatches supported slash commands.
type Handler struct {
	session    Session
	profiles   ProfileSwitcher
	usage      *costs.Tracker
	exportsDir string
	now        func() time.Time
}

// New creates a slash command handler. usage may be nil when metering is off.
func New(session Session, usage *costs.Tracker, exportsDir string) *Handler {
	return &Handler{session: session, usage: usage, exportsDir: exportsDir, now: time.Now}
}

// WithProfiles enables /profile.
func (h *Handler) WithProfiles(p ProfileSwitcher) *Handler {
	h.profiles = p
	return h
}

// Handle executes one command and reports whether it was handled.
func (h *Handler) Handle(ctx context.Context, cmd string, w runtime.ResponseWriter) (handled bool, err error) {
	if w == nil {
		return false, errors.New("response writer is required")
	}

	fields, err := shlex.Split(strings.TrimSpace(cmd))
	if err != nil {
		return true, fmt.Errorf("parse command: %w", err)
	}
	if len(fields) == 0 {
		return false, nil
	}
	name, args := strings.ToLower(fields[0]), fields[1:]

	switch name {
	case "/help", "/commands":
		return true, w.WriteMessage(ctx, helpText)
	case "/new", "/reset":
		return true, h.handleReset(ctx, w)
	case "/test":
		return true, h.handleTest(ctx, w)
	case "/profile":
		return true, h.handleProfile(ctx, w, args)
	case "/export":
		return true, h.handleExport(ctx, w, args)
	case "/usage":
		return true, h.handleUsage(ctx, w)
	case "/tools":
		return true, h.handleTools(ctx, w)
	default:
		return false, nil
	}
}

func (h *Handler) handleReset(ctx context.Context, w runtime.ResponseWriter) error {
	if h.session == nil {
		return errors.New("reset command is unavailable")
	}
	if !h.session.Reset() {
		return w.WriteMessage(ctx, "A request is running; try again when it finishes.")
	}
	return w.WriteMessage(ctx, "Session cleared.")
}

func (h *Handler) handleTest(ctx context.Context, w runtime.ResponseWriter) error {
	if h.session == nil {
		return errors.New("test command is unavailable")
	}
	resp, err := h.session.TestConnection(ctx)
	if err != nil {
		return w.WriteMessage(ctx, fmt.Sprintf("Connection failed: %v", err))
	}
	reply := strings.TrimSpace(resp.Content)
	if reply == "" {
		reply = "(empty reply)"
	}
	return w.WriteMessage(ctx, "Connection OK: "+reply)
}

func (h *Handler) handleProfile(ctx context.Context, w runtime.ResponseWriter, args []string) error {
	if h.profiles == nil {
		return errors.New("profile command is unavailable")
	}
	switch len(args) {
	case 0:
		active := h.profiles.ActiveProfile()
		names := h.profiles.Profiles()
		for i, name := range names {
			if name == active {
				names[i] = name + " (active)"
			}
		}
		return w.WriteMessage(ctx, "Profiles: "+strings.Join(names, ", "))
	case 1:
		if err := h.profiles.SwitchProfile(args[0]); err != nil {
			return err
		}
		return w.WriteMessage(ctx, "Switched to profile "+args[0]+". History is kept.")
	default:
		return errors.New("usage: /profile [name]")
	}
}

func (h *Handler) handleExport(ctx context.Context, w runtime.ResponseWriter, args []string) error {
	if h.session == nil {
		return errors.New("export command is unavailable")
	}
	if len(args) > 1 {
		return errors.New("usage: /export [path]")
	}
	path := filepath.Join(h.exportsDir, "conversation-"+h.now().Format("20060102-150405")+".md")
	if len(args) == 1 {
		path = args[0]
	}
	if err := export.WriteFile(path, h.session.Snapshot()); err != nil {
		return err
	}
	return w.WriteMessage(ctx, "Exported conversation to "+path)
}

func (h *Handler) handleUsage(ctx context.Context, w runtime.ResponseWriter) error {
	if h.usage == nil {
		return errors.New("usage command is unavailable")
	}
	s := h.usage.Summary()
	var b strings.Builder
	_, _ = fmt.Fprintf(&b, "Requests: %d\n", s.Requests)
	_, _ = fmt.Fprintf(&b, "Tokens: %d in, %d out, %d total\n", s.InputTokens, s.OutputTokens, s.TotalTokens)
	_, _ = fmt.Fprintf(&b, "Estimated cost: $%.4f", s.CostUSD)
	if s.Unpriced > 0 {
		_, _ = fmt.Fprintf(&b, " (%d requests unpriced)", s.Unpriced)
	}
	return w.WriteMessage(ctx, b.String())
}

func (h *Handler) handleTools(ctx context.Context, w runtime.ResponseWriter) error {
	if h.session == nil {
		return errors.New("tools command is unavailable")
	}
	names := h.session.ToolNames()
	if len(names) == 0 {
		return w.WriteMessage(ctx, "No tools registered.")
	}
	return w.WriteMessage(ctx, "Tools: "+strings.Join(names, ", "))
}

// Router dispatches slash commands before delegating to the next runtime.Handler.
type Router struct {
	Commands *Handler
	Next     runtime.Handler
}

// HandleMessage runs command dispatch first, then forwards non-command input.
func (r Router) HandleMessage(ctx context.Context, w runtime.ResponseWriter, msg *runtime.Message) error {
	if msg == nil {
		return errors.New("message is required")
	}
	if r.Next == nil {
		return errors.New("next handler is required")
	}
	if r.Commands != nil && strings.HasPrefix(strings.TrimSpace(msg.Text), "/") {
		handled, err := r.Commands.Handle(ctx, msg.Text, w)
		if handled || err != nil {
			return err
		}
	}
	return r.Next.HandleMessage(ctx, w, msg)
}
