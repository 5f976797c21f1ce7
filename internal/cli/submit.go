package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tOgg1/gdl-dash/internal/gallerydl"
	"github.com/tOgg1/gdl-dash/internal/logging"
	"github.com/tOgg1/gdl-dash/internal/state"
)

func newSubmitCmd(opts *globalOptions) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "submit <url>",
		Short: "Add a URL to the download queue",
		Long: "Add a URL to the download queue. Without --format the format last\n" +
			"selected in the dashboard is used.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			defer rt.close()

			opt, err := gallerydl.ParseVideoOption(format)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("format") {
				prefs := state.New(rt.cfg.State.Path, rt.cfg.TUI.Theme)
				if err := prefs.Load(); err != nil {
					rt.log.Debug().Err(err).Msg("load preferences")
				}
				opt = prefs.Snapshot().SelectedOption
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), rt.cfg.Server.Timeout)
			defer cancel()
			resp, err := rt.client.Submit(ctx, args[0], opt)
			if err != nil {
				return err
			}
			rt.log.Info().Str("url", logging.RedactURL(resp.URL)).Str("option", string(opt)).Msg("queued download")
			fmt.Fprintf(cmd.OutOrStdout(), "Added %s to the download queue (%s)\n", resp.URL, opt.Label())
			return nil
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", string(gallerydl.OptionNone), "none-selected|download-video|extract-audio")
	return cmd
}

func newClearCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the server log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd, opts, false)
			if err != nil {
				return err
			}
			defer rt.close()

			ctx, cancel := context.WithTimeout(cmd.Context(), rt.cfg.Server.Timeout)
			defer cancel()
			resp, err := rt.client.ClearLogs(ctx)
			if err != nil {
				return fmt.Errorf("clear logs: %w", err)
			}
			msg := resp.Message
			if msg == "" {
				msg = "Cleared logs."
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}
