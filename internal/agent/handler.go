package agent

import (
	"context"
	"errors"

	"github.com/neoclaw-ai/toolloop/internal/provider"
	"github.com/neoclaw-ai/toolloop/internal/runtime"
)

var _ runtime.Handler = (*Agent)(nil)

// HandleMessage sends msg through the loop and writes the model's final reply to w.
func (a *Agent) HandleMessage(ctx context.Context, w runtime.ResponseWriter, msg *runtime.Message) error {
	if msg == nil {
		return errors.New("message is required")
	}
	if w == nil {
		return errors.New("response writer is required")
	}

	before := a.Len()
	if err := a.SendMessage(ctx, msg.Text); err != nil {
		return err
	}

	msgs := a.Snapshot()
	if len(msgs) <= before {
		return nil
	}
	last := msgs[len(msgs)-1]
	if last.Role != provider.RoleAssistant || len(last.ToolCalls) > 0 || last.Content == "" {
		return nil
	}
	return w.WriteMessage(ctx, last.Content)
}
