package channels

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/neoclaw-ai/toolloop/internal/agent"
	"github.com/neoclaw-ai/toolloop/internal/provider"
)

const maxPreviewRunes = 200

var _ agent.Observer = (*Printer)(nil)

// Printer shows tool activity as the agent records it. Final replies are left to the
// response writer so they print once.
type Printer struct {
	out     io.Writer
	call    *color.Color
	result  *color.Color
	failure *color.Color
	thought *color.Color
}

// NewPrinter creates a Printer writing to out. noColor disables ANSI styling.
func NewPrinter(out io.Writer, noColor bool) *Printer {
	p := &Printer{
		out:     out,
		call:    color.New(color.FgCyan),
		result:  color.New(color.FgGreen),
		failure: color.New(color.FgRed),
		thought: color.New(color.Faint),
	}
	for _, c := range []*color.Color{p.call, p.result, p.failure, p.thought} {
		if noColor {
			c.DisableColor()
		} else {
			c.EnableColor()
		}
	}
	return p
}

// OnMessage prints tool calls, tool results, and any text that accompanied a tool call.
func (p *Printer) OnMessage(msg provider.Message) {
	switch msg.Role {
	case provider.RoleAssistant:
		if len(msg.ToolCalls) == 0 {
			return
		}
		if text := strings.TrimSpace(msg.Content); text != "" {
			_, _ = p.thought.Fprintf(p.out, "assistant> %s\n", text)
		}
		for _, call := range msg.ToolCalls {
			_, _ = p.call.Fprintf(p.out, "-> %s %s\n", call.Name, formatArgs(call.Arguments))
		}
	case provider.RoleTool:
		if msg.IsError {
			_, _ = p.failure.Fprintf(p.out, "<- %s error: %s\n", msg.Name, preview(msg.Content))
			return
		}
		_, _ = p.result.Fprintf(p.out, "<- %s: %s\n", msg.Name, preview(msg.Content))
	}
}

// OnError is a no-op; loop failures reach the user through the dispatcher.
func (p *Printer) OnError(error) {}

func formatArgs(args map[string]any) string {
	if len(args) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(args)
	if err != nil {
		return fmt.Sprintf("%v", args)
	}
	return preview(string(raw))
}

func preview(text string) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= maxPreviewRunes {
		return text
	}
	return string(runes[:maxPreviewRunes]) + "..."
}
