// Package console is the interactive stdin/stdout channel, mainly for local
// development: one line in, one reply out.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/openclaw/openclaw/internal/channel"
)

// Adapter reads lines from stdin and prints replies to stdout.
type Adapter struct {
	dispatcher *channel.Dispatcher
	in         io.Reader
	out        io.Writer
	userID     string
}

func New(dispatcher *channel.Dispatcher) *Adapter {
	return &Adapter{
		dispatcher: dispatcher,
		in:         os.Stdin,
		out:        os.Stdout,
		userID:     "console-user",
	}
}

func (a *Adapter) Type() channel.Type { return channel.TypeConsole }

// Start reads lines until EOF or ctx cancellation. "exit" and "quit" end
// the loop.
func (a *Adapter) Start(ctx context.Context) error {
	fmt.Fprintln(a.out, "openclaw console. Type a message, or 'exit' to quit.")
	scanner := bufio.NewScanner(a.in)
	for {
		fmt.Fprint(a.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		msg, err := channel.NewInbound("console", "", a.userID, line, channel.TypeConsole, time.Now(), nil)
		if err != nil {
			fmt.Fprintf(a.out, "error: %v\n", err)
			continue
		}
		a.dispatcher.Enqueue(msg)
	}
}

// Send prints the reply. Replies arrive from dispatcher workers, so output
// may interleave with the prompt; acceptable for a dev channel.
func (a *Adapter) Send(out channel.Outbound) error {
	_, err := fmt.Fprintf(a.out, "\n%s\n", out.Content)
	return err
}
