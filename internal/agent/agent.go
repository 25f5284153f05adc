// Package agent drives one conversation: it asks the model, runs requested tools, and records everything in a Transcript.
package agent

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/neoclaw-ai/toolloop/internal/logging"
	"github.com/neoclaw-ai/toolloop/internal/provider"
	"github.com/neoclaw-ai/toolloop/internal/tools"
)

// ErrNoChatter is returned when the agent has no provider client to talk to.
var ErrNoChatter = errors.New("agent: no provider client configured")

// State is the loop phase of an Agent.
type State int32

const (
	// Idle means no loop is running.
	Idle State = iota
	// Requesting means a model request is in flight.
	Requesting
	// ToolDispatch means tool calls from the last reply are running.
	ToolDispatch
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Requesting:
		return "requesting"
	case ToolDispatch:
		return "tool_dispatch"
	default:
		return "unknown"
	}
}

// Observer receives every message the agent appends and every loop failure.
// Calls arrive from the goroutine running the loop.
type Observer interface {
	OnMessage(msg provider.Message)
	OnError(err error)
}

type nopObserver struct{}

func (nopObserver) OnMessage(provider.Message) {}
func (nopObserver) OnError(error)              {}

// Agent owns one conversation. At most one loop runs per Agent at a time.
type Agent struct {
	chatterMu sync.RWMutex
	chatter   provider.Chatter

	registry     *tools.Registry
	transcript   *Transcript
	systemPrompt string
	observer     Observer

	busy  atomic.Bool
	state atomic.Int32
}

// New creates an Agent. A non-blank systemPrompt becomes the first transcript message.
func New(chatter provider.Chatter, registry *tools.Registry, systemPrompt string) *Agent {
	if registry == nil {
		registry = tools.NewRegistry()
	}
	a := &Agent{
		chatter:      chatter,
		registry:     registry,
		systemPrompt: strings.TrimSpace(systemPrompt),
		observer:     nopObserver{},
		transcript:   &Transcript{issued: make(map[string]bool)},
	}
	_ = a.transcript.Append(a.seed()...)
	return a
}

// SetObserver replaces the observer. Pass nil to discard notifications.
func (a *Agent) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	a.observer = o
}

// SetChatter swaps the provider client. The transcript carries over unchanged.
func (a *Agent) SetChatter(c provider.Chatter) {
	a.chatterMu.Lock()
	defer a.chatterMu.Unlock()
	a.chatter = c
}

func (a *Agent) currentChatter() provider.Chatter {
	a.chatterMu.RLock()
	defer a.chatterMu.RUnlock()
	return a.chatter
}

// State reports the current loop phase.
func (a *Agent) State() State {
	return State(a.state.Load())
}

// Busy reports whether a loop is running.
func (a *Agent) Busy() bool {
	return a.busy.Load()
}

// Snapshot returns a copy of the transcript.
func (a *Agent) Snapshot() []provider.Message {
	return a.transcript.Messages()
}

// Len reports the transcript length.
func (a *Agent) Len() int {
	return a.transcript.Len()
}

// Reset clears the conversation, keeping only the system prompt if one is configured. It is a no-op while a loop is running.
func (a *Agent) Reset() bool {
	if !a.busy.CompareAndSwap(false, true) {
		return false
	}
	defer a.busy.Store(false)
	_ = a.transcript.Reset(a.seed()...)
	return true
}

// SendMessage appends text as a user message and runs the loop until the model stops calling tools.
// Blank text, or a call while another loop is running, does nothing and returns nil.
func (a *Agent) SendMessage(ctx context.Context, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if !a.busy.CompareAndSwap(false, true) {
		logging.Logger().Debug("send ignored: agent busy")
		return nil
	}
	defer a.finish()

	msg := provider.Message{Role: provider.RoleUser, Content: text}
	if err := a.transcript.Append(msg); err != nil {
		return a.fail(err)
	}
	a.observer.OnMessage(msg)
	return a.loop(ctx)
}

// TestConnection sends one canned message through the active client without touching the transcript.
func (a *Agent) TestConnection(ctx context.Context) (*provider.Response, error) {
	chatter := a.currentChatter()
	if chatter == nil {
		return nil, ErrNoChatter
	}
	return chatter.Chat(ctx, []provider.Message{{Role: provider.RoleUser, Content: connectionTestPrompt}}, nil)
}

func (a *Agent) seed() []provider.Message {
	if a.systemPrompt == "" {
		return nil
	}
	return []provider.Message{{Role: provider.RoleSystem, Content: a.systemPrompt}}
}

func (a *Agent) finish() {
	a.state.Store(int32(Idle))
	a.busy.Store(false)
}

func (a *Agent) fail(err error) error {
	a.observer.OnError(err)
	return err
}
