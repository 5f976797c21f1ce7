package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/tOgg1/gdl-dash/internal/logging"
	"github.com/tOgg1/gdl-dash/internal/mockserver"
)

const shutdownTimeout = 5 * time.Second

func newMockServerCmd(opts *globalOptions) *cobra.Command {
	var (
		addr     string
		simulate bool
		step     time.Duration
	)
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Run an in-process gallery-dl-server double for local demos",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger := logging.Component("mockserver")
			srv := mockserver.New(mockserver.Options{
				Simulate:  simulate,
				StepDelay: step,
				Logger:    &logger,
			})

			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return fmt.Errorf("listen %s: %w", addr, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "mock gallery-dl-server listening on http://%s\n", ln.Addr())
			return serveUntilDone(ctx, srv, ln)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "127.0.0.1:9080", "listen address")
	cmd.Flags().BoolVar(&simulate, "simulate", true, "emit fake transfer-rate lines after each submit")
	cmd.Flags().DurationVar(&step, "step", 500*time.Millisecond, "delay between simulated progress lines")
	return cmd
}

func serveUntilDone(ctx context.Context, srv *mockserver.Server, ln net.Listener) error {
	httpSrv := &http.Server{
		Handler:           srv,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpSrv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	srv.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
