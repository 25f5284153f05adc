// Package export writes a transcript snapshot to a file as Markdown, HTML, or JSON.
package export

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/neoclaw-ai/toolloop/internal/provider"
	"github.com/neoclaw-ai/toolloop/internal/store"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Format is an export file format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
	FormatJSON     Format = "json"
)

// FormatForPath picks the format from the file extension.
func FormatForPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return FormatMarkdown, nil
	case ".html", ".htm":
		return FormatHTML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported export extension %q (use .md, .html, or .json)", filepath.Ext(path))
	}
}

// WriteFile renders msgs in the format implied by path, creating parent directories as needed.
func WriteFile(path string, msgs []provider.Message) error {
	format, err := FormatForPath(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Write(&buf, format, msgs); err != nil {
		return err
	}
	if err := store.WriteFile(path, buf.Bytes()); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	return nil
}

// Write renders msgs to w.
func Write(w io.Writer, format Format, msgs []provider.Message) error {
	switch format {
	case FormatMarkdown:
		_, err := io.WriteString(w, Markdown(msgs))
		return err
	case FormatHTML:
		return HTML(w, msgs)
	case FormatJSON:
		return JSON(w, msgs)
	default:
		return fmt.Errorf("unsupported export format %q", format)
	}
}

// Markdown renders one section per message. Tool arguments and results go in fenced blocks.
func Markdown(msgs []provider.Message) string {
	var b strings.Builder
	b.WriteString("# Conversation\n")
	for _, msg := range msgs {
		b.WriteString("\n")
		switch msg.Role {
		case provider.RoleSystem:
			b.WriteString("## System\n\n")
			writeText(&b, msg.Content)
		case provider.RoleUser:
			b.WriteString("## User\n\n")
			writeText(&b, msg.Content)
		case provider.RoleAssistant:
			b.WriteString("## Assistant\n\n")
			writeText(&b, msg.Content)
			for _, call := range msg.ToolCalls {
				args, err := json.MarshalIndent(call.Arguments, "", "  ")
				if err != nil {
					args = []byte(fmt.Sprintf("%v", call.Arguments))
				}
				fmt.Fprintf(&b, "Tool call `%s` (%s):\n\n", call.Name, call.ID)
				writeFenced(&b, "json", string(args))
			}
		case provider.RoleTool:
			status := "result"
			if msg.IsError {
				status = "error"
			}
			fmt.Fprintf(&b, "## Tool %s: `%s` (%s)\n\n", status, msg.Name, msg.ToolCallID)
			writeFenced(&b, "", msg.Content)
		}
	}
	return b.String()
}

// HTML converts the Markdown rendering into a standalone page. Raw HTML in messages is escaped.
func HTML(w io.Writer, msgs []provider.Message) error {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(msgs)), &body); err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	_, err := fmt.Fprintf(w, "<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n<title>Conversation</title>\n</head>\n<body>\n%s</body>\n</html>\n", body.String())
	return err
}

type record struct {
	Role       provider.Role `json:"role"`
	Content    string        `json:"content,omitempty"`
	ToolCalls  []callRecord  `json:"tool_calls,omitempty"`
	ToolCallID string        `json:"tool_call_id,omitempty"`
	Name       string        `json:"name,omitempty"`
	IsError    bool          `json:"is_error,omitempty"`
}

type callRecord struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// JSON writes the transcript as an indented array of messages.
func JSON(w io.Writer, msgs []provider.Message) error {
	out := make([]record, 0, len(msgs))
	for _, msg := range msgs {
		r := record{
			Role:       msg.Role,
			Content:    msg.Content,
			ToolCallID: msg.ToolCallID,
			Name:       msg.Name,
			IsError:    msg.IsError,
		}
		for _, call := range msg.ToolCalls {
			r.ToolCalls = append(r.ToolCalls, callRecord{ID: call.ID, Name: call.Name, Arguments: call.Arguments})
		}
		out = append(out, r)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode transcript: %w", err)
	}
	return nil
}

func writeText(b *strings.Builder, text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.WriteString(text)
	b.WriteString("\n\n")
}

// writeFenced picks a fence longer than any backtick run inside content.
func writeFenced(b *strings.Builder, lang, content string) {
	fence := "```"
	for strings.Contains(content, fence) {
		fence += "`"
	}
	b.WriteString(fence)
	b.WriteString(lang)
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(content, "\n"))
	b.WriteString("\n")
	b.WriteString(fence)
	b.WriteString("\n\n")
}
