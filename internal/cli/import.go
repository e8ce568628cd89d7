package cli

import (
	"github.com/spf13/cobra"

	"ducktape/internal/config"
	"ducktape/internal/ics"
	appLog "ducktape/internal/log"
	"ducktape/internal/pipeline"
	"ducktape/internal/ui"
)

func newImportCommand(a *app) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "import <file|url>",
		Short: "Print each event of an iCalendar file as a command",
		Long: `Print each event of an iCalendar file as a calendar command.

The source is a local path or an http(s)/webcal URL. Remote calendars are
cached under ics_cache_dir and revalidated with ETag / Last-Modified.
Modified instances of recurring events are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, _, err := a.newPipeline(pipelineOptions{provider: config.ProviderNone})
			if err != nil {
				return err
			}

			payload, err := ics.NewFetcher(a.cfg.ICSCacheDir, nil).Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			events, err := ics.Parse(args[0], payload.Body)
			if err != nil {
				return err
			}

			out := ui.NewPrinter(cmd.OutOrStdout())
			errOut := ui.NewPrinter(cmd.ErrOrStderr())
			if payload.FromCache {
				errOut.Hint("served from cache")
			}

			results := make([]pipeline.Result, 0, len(events))
			skipped := 0
			for _, ev := range events {
				if ev.Override {
					appLog.Debug("skipping recurrence override", "uid", ev.UID)
					skipped++
					continue
				}
				record, err := ev.Command(p.Location())
				if err != nil {
					appLog.Warn("skipping event", "uid", ev.UID, "err", err)
					skipped++
					continue
				}
				res, err := p.Finish(record)
				if err != nil {
					appLog.Warn("skipping event", "uid", ev.UID, "err", err)
					skipped++
					continue
				}
				results = append(results, res)
			}

			if jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), results); err != nil {
					return err
				}
			} else {
				for _, res := range results {
					out.Command(res.Command)
				}
			}
			errOut.Secondary("%d imported, %d skipped", len(results), skipped)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print results as a JSON array")
	return cmd
}
