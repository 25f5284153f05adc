package agent

import (
	"fmt"
	"sync"

	"github.com/neoclaw-ai/toolloop/internal/provider"
)

// PairingError rejects a tool result that does not answer an outstanding tool call.
type PairingError struct {
	ToolCallID string
	Reason     string
}

func (e *PairingError) Error() string {
	return fmt.Sprintf("tool result %q %s", e.ToolCallID, e.Reason)
}

// Transcript is the append-only message log of one conversation.
// Every tool-role message answers exactly one earlier assistant tool call.
type Transcript struct {
	mu       sync.Mutex
	messages []provider.Message
	issued   map[string]bool // tool call id -> answered
}

// NewTranscript returns a transcript seeded with msgs.
func NewTranscript(msgs ...provider.Message) (*Transcript, error) {
	t := &Transcript{issued: make(map[string]bool)}
	if err := t.Append(msgs...); err != nil {
		return nil, err
	}
	return t, nil
}

// Append validates msgs as a batch and appends them in order. Nothing is appended if any message breaks pairing.
func (t *Transcript) Append(msgs ...provider.Message) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.issued == nil {
		t.issued = make(map[string]bool)
	}

	pending := make(map[string]bool)
	answered := make(map[string]bool)
	for _, msg := range msgs {
		switch {
		case msg.Role == provider.RoleAssistant:
			for _, call := range msg.ToolCalls {
				// Some servers reuse ids across turns; only an unanswered id is ambiguous.
				if done, seen := t.issued[call.ID]; (seen && !done) || pending[call.ID] {
					return fmt.Errorf("duplicate tool call id %q", call.ID)
				}
				pending[call.ID] = true
			}
		case msg.Role == provider.RoleTool:
			id := msg.ToolCallID
			if answered[id] {
				return &PairingError{ToolCallID: id, Reason: "was already answered"}
			}
			if !pending[id] {
				done, known := t.issued[id]
				if !known {
					return &PairingError{ToolCallID: id, Reason: "has no matching tool call"}
				}
				if done {
					return &PairingError{ToolCallID: id, Reason: "was already answered"}
				}
			}
			answered[id] = true
		}
	}

	for id := range pending {
		t.issued[id] = false
	}
	for id := range answered {
		t.issued[id] = true
	}
	for _, msg := range msgs {
		t.messages = append(t.messages, msg.Clone())
	}
	return nil
}

// Messages returns a copy of the log.
func (t *Transcript) Messages() []provider.Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	return provider.CloneMessages(t.messages)
}

// Len reports how many messages have been appended.
func (t *Transcript) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.messages)
}

// Reset drops all messages and reseeds the log with msgs.
func (t *Transcript) Reset(msgs ...provider.Message) error {
	t.mu.Lock()
	t.messages = nil
	t.issued = make(map[string]bool)
	t.mu.Unlock()
	return t.Append(msgs...)
}
