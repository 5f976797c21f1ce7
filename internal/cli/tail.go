package cli

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tOgg1/gdl-dash/internal/livelog"
	"github.com/tOgg1/gdl-dash/internal/logbuffer"
	"github.com/tOgg1/gdl-dash/internal/stream"
)

const clearLine = "\r\x1b[K"

func newTailCmd(opts *globalOptions) *cobra.Command {
	var once bool
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Print the server log and follow new lines",
		Long: "Print the current server log, then follow the live stream. On a terminal\n" +
			"transfer-rate lines are rewritten in place; otherwise only new lines are printed.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			printer := newTailPrinter(out, isTerminal(out))
			defer printer.Finish()

			if once {
				text, err := rt.client.FetchLogs(ctx)
				if err != nil {
					return err
				}
				printer.Snapshot(logbuffer.SplitLines(text))
				return nil
			}

			session, err := livelog.New(livelog.Config{
				Client:         rt.client,
				ReconnectDelay: rt.cfg.Stream.ReconnectDelay,
				OnSnapshot:     printer.Snapshot,
				OnChunk:        printer.Chunk,
				OnState: func(s stream.State) {
					rt.log.Debug().Str("state", s.String()).Msg("stream state")
				},
			})
			if err != nil {
				return err
			}
			defer session.Close()

			if err := session.Bootstrap(ctx); err != nil {
				return err
			}
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "print the current log and exit")
	return cmd
}

// tailPrinter turns buffer operations into terminal output.
type tailPrinter struct {
	mu  sync.Mutex
	w   io.Writer
	tty bool
	// open is set while a progress line is on screen without its newline.
	open bool
}

func newTailPrinter(w io.Writer, tty bool) *tailPrinter {
	return &tailPrinter{w: w, tty: tty}
}

func (p *tailPrinter) Snapshot(lines []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, line := range lines {
		p.appendLocked(line)
	}
}

func (p *tailPrinter) Chunk(res logbuffer.MergeResult) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, op := range res.Ops {
		switch op.Kind {
		case logbuffer.OpReplace:
			if !p.tty {
				continue
			}
			fmt.Fprint(p.w, clearLine+op.Line)
			p.open = true
		case logbuffer.OpAppend:
			p.appendLocked(op.Line)
		}
	}
}

// Finish terminates a dangling progress line.
func (p *tailPrinter) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.open {
		fmt.Fprint(p.w, "\n")
		p.open = false
	}
}

func (p *tailPrinter) appendLocked(line string) {
	if !p.tty {
		fmt.Fprintln(p.w, line)
		return
	}
	if p.open {
		fmt.Fprint(p.w, "\n")
		p.open = false
	}
	if logbuffer.IsProgress(line) {
		fmt.Fprint(p.w, line)
		p.open = true
		return
	}
	fmt.Fprintln(p.w, line)
}
