// Package channels provides runtime.Listener implementations for interactive input channels.
package channels

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/chzyer/readline"
	"github.com/neoclaw-ai/toolloop/internal/runtime"
	"golang.org/x/term"
)

const (
	defaultReplPrompt = "you> "
	// Allow a running request to finish when stdin closes before shutting down.
	dispatchDrainTimeout = 5 * time.Minute
	busyNotice           = "Still working on the previous request. Type /stop to cancel it."
)

var _ runtime.Listener = (*CLIListener)(nil)

// CLIWriter writes assistant responses to terminal output.
type CLIWriter struct {
	out io.Writer
}

// WriteMessage writes one assistant message line.
func (w *CLIWriter) WriteMessage(_ context.Context, text string) error {
	_, err := fmt.Fprintf(w.out, "assistant> %s\n\n", text)
	return err
}

// CLIListener listens for interactive terminal input and dispatches messages.
type CLIListener struct {
	in          io.Reader
	out         *syncWriter
	historyPath string

	rl       *readline.Instance
	fallback *bufio.Reader
}

// NewCLI creates a CLI listener over stdin/stdout style streams. Output is serialized so
// replies, tool activity, and prompts never interleave mid-line. historyPath may be empty.
func NewCLI(in io.Reader, out io.Writer, historyPath string) *CLIListener {
	return &CLIListener{in: in, out: &syncWriter{w: out}, historyPath: historyPath}
}

// Output returns the serialized writer other components should print through.
func (c *CLIListener) Output() io.Writer {
	return c.out
}

// Listen runs the interactive loop until EOF, /quit, /exit, or ctx cancellation.
func (c *CLIListener) Listen(ctx context.Context, handler runtime.Handler) error {
	if handler == nil {
		return fmt.Errorf("handler is required")
	}
	if err := c.ensureInputReady(); err != nil {
		return err
	}
	if c.rl != nil {
		defer c.rl.Close()
	}

	if _, err := fmt.Fprintln(c.out, "Interactive mode. Type /quit or /exit to stop."); err != nil {
		return err
	}

	writer := &CLIWriter{out: c.out}
	dispatchCtx, cancelDispatch := context.WithCancel(ctx)

	dispatcher := runtime.NewDispatcher(handler)
	if err := dispatcher.Start(dispatchCtx); err != nil {
		cancelDispatch()
		return err
	}
	defer func() {
		cancelDispatch()
		dispatcher.Wait()
	}()

	inputCtx, cancelInput := context.WithCancel(ctx)
	defer cancelInput()
	inputCh := make(chan inputEvent)
	go c.readInputLoop(inputCtx, inputCh)

	for {
		select {
		case <-ctx.Done():
			dispatcher.Stop()
			return nil
		case event, ok := <-inputCh:
			if !ok {
				c.drainDispatcher(dispatcher)
				return nil
			}
			if event.err != nil {
				if errors.Is(event.err, io.EOF) {
					c.drainDispatcher(dispatcher)
					return nil
				}
				if errors.Is(event.err, context.Canceled) {
					dispatcher.Stop()
					return nil
				}
				return event.err
			}

			line := strings.TrimSpace(event.line)
			if line == "" {
				continue
			}

			switch strings.ToLower(line) {
			case "/stop", "stop":
				if dispatcher.Stop() {
					_ = writer.WriteMessage(ctx, "Stopped.")
				} else {
					_ = writer.WriteMessage(ctx, "Nothing to stop.")
				}
				continue
			case "/quit", "quit", "/exit", "exit":
				dispatcher.Stop()
				_ = writer.WriteMessage(ctx, "Stopped.")
				return nil
			}

			err := dispatcher.Submit(&runtime.Message{Text: line}, writer)
			switch {
			case err == nil:
			case errors.Is(err, runtime.ErrBusy):
				_ = writer.WriteMessage(ctx, busyNotice)
			case errors.Is(err, context.Canceled):
				return nil
			default:
				return err
			}
		}
	}
}

func (c *CLIListener) drainDispatcher(dispatcher *runtime.Dispatcher) {
	drainCtx, cancel := context.WithTimeout(context.Background(), dispatchDrainTimeout)
	defer cancel()
	if err := dispatcher.WaitUntilIdle(drainCtx); err != nil {
		dispatcher.Stop()
	}
}

func (c *CLIListener) ensureInputReady() error {
	if c.rl != nil || c.fallback != nil {
		return nil
	}

	rl, err := newReadline(c.in, c.out.target(), c.historyPath)
	if err == nil {
		c.rl = rl
		// Readline redraws the prompt around anything written through its stdout.
		c.out.set(rl.Stdout())
		return nil
	}

	c.fallback = bufio.NewReader(c.in)
	return nil
}

func (c *CLIListener) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if c.rl != nil {
		line, err := c.rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				return "", io.EOF
			}
			return "", err
		}
		return line, nil
	}

	if _, err := fmt.Fprint(c.out, defaultReplPrompt); err != nil {
		return "", err
	}
	line, err := c.fallback.ReadString('\n')
	if err != nil {
		if len(line) > 0 {
			return line, nil
		}
		return "", err
	}
	return line, nil
}

func (c *CLIListener) readInputLoop(ctx context.Context, out chan<- inputEvent) {
	defer close(out)
	for {
		line, err := c.readLine(ctx)
		select {
		case out <- inputEvent{line: line, err: err}:
		case <-ctx.Done():
			return
		}
		if err != nil {
			return
		}
	}
}

type inputEvent struct {
	line string
	err  error
}

type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func (s *syncWriter) set(w io.Writer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w = w
}

func (s *syncWriter) target() io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w
}

func newReadline(in io.Reader, out io.Writer, historyPath string) (*readline.Instance, error) {
	stdin, ok := in.(io.ReadCloser)
	if !ok {
		return nil, fmt.Errorf("stdin is not read-closer")
	}
	inFile, ok := in.(*os.File)
	if !ok || !term.IsTerminal(int(inFile.Fd())) {
		return nil, fmt.Errorf("stdin is not terminal")
	}
	outFile, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(outFile.Fd())) {
		return nil, fmt.Errorf("stdout is not terminal")
	}

	return readline.NewEx(&readline.Config{
		Prompt:          defaultReplPrompt,
		HistoryFile:     historyPath,
		HistoryLimit:    200,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           stdin,
		Stdout:          out,
		Stderr:          out,
	})
}
