// Copyright New Relic, Inc. All rights reserved.
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/newrelic/nrdot-perftracking-components/internal/report"
	"github.com/newrelic/nrdot-perftracking-components/internal/tracker"
)

const (
	formatText  = "text"
	formatJSON  = "json"
	formatYAML  = "yaml"
	formatTable = "table"
)

type reportFlags struct {
	steps      int
	format     string
	filter     string
	sortBy     string
	ascending  bool
	bugReport  string
	pins       []string
	filterText string
}

func newReportCommand(global *globalFlags) *cobra.Command {
	flags := &reportFlags{}
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Record the workload for a number of steps and print the tracker report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := global.load()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			opts, err := flags.apply(cmd.Flags(), cfg.Report)
			if err != nil {
				return err
			}

			reg := tracker.NewRegistry(tracker.WithCallstacks())
			w := newWorkload(cfg.Workload, reg, logger)
			// the snapshot before the last step gives the table its deltas
			snapshots := tracker.NewSnapshotter(reg)
			for i := range flags.steps {
				if i == flags.steps-1 {
					snapshots.Refresh(tracker.ColumnName, true, false)
				}
				w.step()
			}
			logger.Debug("Recorded workload", zap.Int("steps", flags.steps), zap.Int("trackers", len(reg.Available())))

			if flags.format == formatTable {
				view := newListView(flags.pins, flags.filterText)
				logger.Debug("Rendering tracker table",
					zap.Strings("pinned", view.Pinned()),
					zap.String("filter_text", view.Filter()))
				records := snapshots.Refresh(opts.SortBy, opts.SortAscending, opts.Sort)
				return writeTable(cmd.OutOrStdout(), records, view, reg.Elapsed())
			}
			return writeReport(cmd.OutOrStdout(), reg, opts, flags.format, flags.bugReport)
		},
	}
	cmd.Flags().IntVar(&flags.steps, "steps", 500, "number of workload steps recorded before reporting")
	cmd.Flags().StringVarP(&flags.format, "format", "o", formatText, "output format: text, json, yaml or table")
	cmd.Flags().StringVar(&flags.filter, "filter", "", "overrides report.filter, a case-insensitive regular expression")
	cmd.Flags().StringVar(&flags.sortBy, "sort-by", "", "overrides report.sort_by (name, sample_count, peak_time, avg_time, total_time)")
	cmd.Flags().BoolVar(&flags.ascending, "ascending", false, "overrides report.sort_ascending")
	cmd.Flags().StringVar(&flags.bugReport, "bug-report", "", "print a bug report description highlighting this tracker")
	cmd.Flags().StringSliceVar(&flags.pins, "pin", nil, "table format: trackers listed first and never filtered out")
	cmd.Flags().StringVar(&flags.filterText, "filter-text", "", "table format: comma separated substrings, any of which a tracker name must contain")
	return cmd
}

// apply overrides opts with the flags set on the command line.
func (f *reportFlags) apply(fs *pflag.FlagSet, opts report.Options) (report.Options, error) {
	if fs.Changed("filter") {
		opts.Filter = f.filter
	}
	if fs.Changed("sort-by") {
		col, err := tracker.ParseColumn(f.sortBy)
		if err != nil {
			return opts, err
		}
		opts.SortBy = col
		opts.Sort = true
	}
	if fs.Changed("ascending") {
		opts.SortAscending = f.ascending
	}
	if f.steps < 0 {
		return opts, fmt.Errorf("--steps must not be negative, got %d", f.steps)
	}
	return opts, nil
}

func writeReport(w io.Writer, src tracker.Source, opts report.Options, format, bugMarker string) error {
	switch format {
	case formatText:
		return writeTextReport(w, src, opts, bugMarker)
	case formatJSON, formatYAML:
		rep, err := report.GenerateFromSource(src, opts)
		if err != nil {
			return err
		}
		var out []byte
		if format == formatJSON {
			out, err = json.MarshalIndent(rep, "", "  ")
		} else {
			out, err = yaml.Marshal(rep)
		}
		if err != nil {
			return fmt.Errorf("encoding %s report: %w", format, err)
		}
		_, err = fmt.Fprintln(w, string(out))
		return err
	default:
		return fmt.Errorf("unknown report format %q", format)
	}
}

func writeTextReport(w io.Writer, src tracker.Source, opts report.Options, bugMarker string) error {
	if bugMarker != "" {
		desc, err := report.BugReportDescription(src, bugMarker)
		if err != nil {
			return err
		}
		attachment, err := report.AllFromSource(src, opts.ShowAll())
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n\n%s\n", desc, attachment)
		return err
	}

	text, err := report.FromSource(src, opts)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, text)
	return err
}
