package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"ducktape/internal/ics"
	appLog "ducktape/internal/log"
	"ducktape/internal/model"
	"ducktape/internal/pipeline"
	"ducktape/internal/recurrence"
	"ducktape/internal/ui"
)

type parseFlags struct {
	provider string
	calendar string
	jsonOut  bool
	icsPath  string
	preview  int
}

func newParseCommand(a *app) *cobra.Command {
	var f parseFlags

	cmd := &cobra.Command{
		Use:   "parse [request...]",
		Short: "Turn one request into a command",
		Long: `Turn one request into a command. With no arguments the request is
read from standard input.

Examples:
  ducktape parse "create an event called Team Meeting tonight at 7pm"
  ducktape parse --preview 5 "standup every weekday at 9am"
  ducktape parse --ics out/ "lunch with ann@example.com friday at noon"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := readInput(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			p, _, err := a.newPipeline(pipelineOptions{provider: f.provider, calendar: f.calendar})
			if err != nil {
				return err
			}

			res, err := p.Parse(cmd.Context(), input)
			if err != nil {
				return err
			}

			out := ui.NewPrinter(cmd.OutOrStdout())
			errOut := ui.NewPrinter(cmd.ErrOrStderr())
			if f.jsonOut {
				if err := writeJSON(cmd.OutOrStdout(), res); err != nil {
					return err
				}
			} else {
				out.Command(res.Command)
			}
			for _, h := range res.Hints {
				errOut.Hint(h)
			}

			if f.preview > 0 {
				occ, err := recurrence.Preview(res.Record, p.Location(), p.Now(), f.preview)
				if err != nil {
					return err
				}
				printOccurrences(errOut, occ)
			}
			if f.icsPath != "" {
				path, err := exportICS(res.Record, f.icsPath, p)
				if err != nil {
					return err
				}
				errOut.Secondary("wrote %s", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&f.provider, "provider", "", "Draft provider: openai, grok, deepseek or none (overrides config)")
	cmd.Flags().StringVar(&f.calendar, "calendar", "", "Default calendar for this request")
	cmd.Flags().BoolVar(&f.jsonOut, "json", false, "Print the command, record and hints as JSON")
	cmd.Flags().StringVar(&f.icsPath, "ics", "", "Also write the event as an .ics file (a directory picks the file name)")
	cmd.Flags().IntVar(&f.preview, "preview", 0, "Print the next N occurrences")
	return cmd
}

func readInput(stdin io.Reader, args []string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	data, err := io.ReadAll(io.LimitReader(stdin, 64<<10))
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printOccurrences(p *ui.Printer, occ []model.Occurrence) {
	if len(occ) == 0 {
		p.Secondary("no upcoming occurrences")
		return
	}
	for _, o := range occ {
		p.Secondary("  %s %s-%s %s", o.Start.Format("Mon 2006-01-02"), o.Start.Format("15:04"), o.End.Format("15:04"), o.Title)
	}
}

// exportICS writes record to dest. A dest that is an existing directory
// or ends in a separator gets the default file name.
func exportICS(record model.DraftCommand, dest string, p *pipeline.Pipeline) (string, error) {
	body, err := ics.Export(record, ics.ExportOptions{Location: p.Location(), Now: p.Now()})
	if err != nil {
		return "", err
	}
	path := dest
	if info, err := os.Stat(dest); err == nil && info.IsDir() {
		path = filepath.Join(dest, ics.FileName(record))
	} else if strings.HasSuffix(dest, string(os.PathSeparator)) {
		if err := os.MkdirAll(dest, 0o755); err != nil {
			return "", err
		}
		path = filepath.Join(dest, ics.FileName(record))
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		return "", err
	}
	appLog.Info("ics written", "path", path)
	return path, nil
}
