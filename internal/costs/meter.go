package costs

import (
	"context"

	"github.com/neoclaw-ai/toolloop/internal/provider"
)

// Meter wraps a Chatter and records the usage of every successful reply.
type Meter struct {
	next    provider.Chatter
	tracker *Tracker
	format  string
	model   string
}

// NewMeter returns a Chatter that reports to tracker under format and model.
func NewMeter(next provider.Chatter, tracker *Tracker, format, model string) *Meter {
	return &Meter{next: next, tracker: tracker, format: format, model: model}
}

// Chat forwards to the wrapped client.
func (m *Meter) Chat(ctx context.Context, transcript []provider.Message, tools []provider.ToolDefinition) (*provider.Response, error) {
	resp, err := m.next.Chat(ctx, transcript, tools)
	if err != nil {
		return nil, err
	}
	m.tracker.Append(Record{
		Format:       m.format,
		Model:        m.model,
		InputTokens:  resp.Usage.InputTokens,
		OutputTokens: resp.Usage.OutputTokens,
		TotalTokens:  resp.Usage.TotalTokens,
	})
	return resp, nil
}
