package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"hnblacklist/pkg/filtering"
	"hnblacklist/pkg/page"
	"hnblacklist/pkg/report"
	"hnblacklist/pkg/rules"
	"hnblacklist/pkg/selftest"
	"hnblacklist/pkg/watch"
)

const stdinName = "-"

type filterOptions struct {
	output   string
	watch    bool
	multiple bool
}

func newFilterCmd(a *app) *cobra.Command {
	var opts filterOptions

	cmd := &cobra.Command{
		Use:   "filter [page.html...]",
		Short: "Filter saved listing pages",
		Long: `Filter removes the submissions matched by the saved filters or a rule file
from each page, renumbers the remaining ones and writes the result.
With no page, or "-", the page is read from stdin.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd,
				"rules", "filtering.rules",
				"report", "report.path",
				"filter-even-with-test-failures", "filtering.filter_even_with_test_failures",
			); err != nil {
				return err
			}
			if noRenumber, _ := cmd.Flags().GetBool("no-renumber"); noRenumber {
				a.cfg.Filtering.Renumber = false
			}
			if len(args) == 0 {
				args = []string{stdinName}
			}
			return a.runFilter(cmd, args, opts)
		},
	}

	flags := cmd.Flags()
	flags.String("rules", "", "rule file (default the saved filters)")
	flags.StringVarP(&opts.output, "output", "o", "", "output file for a single page (default stdout)")
	flags.String("report", "", "write a YAML report to this file")
	flags.BoolVar(&opts.watch, "watch", false, "filter again whenever the rules or settings change")
	flags.Bool("no-renumber", false, "keep the original ranks")
	flags.Bool("filter-even-with-test-failures", false, "filter even when self tests fail")
	return cmd
}

func (a *app) runFilter(cmd *cobra.Command, pages []string, opts filterOptions) error {
	opts.multiple = len(pages) > 1
	if opts.multiple && opts.output != "" {
		return errors.New("--output needs a single page")
	}
	for _, p := range pages {
		if p == stdinName && len(pages) > 1 {
			return errors.New("stdin cannot be combined with page files")
		}
	}

	engine := filtering.New(filtering.Options{
		Renumber:       a.cfg.Filtering.Renumber,
		RemovedLogPath: a.cfg.Filtering.RemovedLog,
		Log:            a.log,
	})
	defer engine.Close()

	pass := func(context.Context) error {
		return a.filterPages(cmd, engine, pages, opts)
	}
	if err := pass(cmd.Context()); err != nil {
		return err
	}
	if !opts.watch {
		return nil
	}

	if pages[0] == stdinName {
		return errors.New("--watch needs page files")
	}
	watched := []string{a.cfg.Settings.Path}
	if a.cfg.Filtering.Rules != "" {
		watched = []string{a.cfg.Filtering.Rules}
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a.log.Info("watching for changes", "files", strings.Join(watched, ","))
	return watch.Run(ctx, watched, watch.Options{Debounce: a.cfg.Watch.Debounce, Log: a.log}, pass)
}

// filterPages runs one pass over every page. Rules are reloaded each pass.
func (a *app) filterPages(cmd *cobra.Command, engine *filtering.Engine, pages []string, opts filterOptions) error {
	list, force, err := a.loadRules()
	if err != nil {
		return err
	}
	checks := selftest.Checks(a.cfg.SelfTest.ExpectedSubmissions)

	summaries := make([]report.Summary, 0, len(pages))
	for _, name := range pages {
		summary, err := a.filterPage(cmd, engine, name, list, checks, force, opts)
		if err != nil {
			return err
		}
		summaries = append(summaries, summary)
	}

	if path := a.cfg.Report.Path; path != "" {
		var buf bytes.Buffer
		if err := report.WriteYAML(&buf, summaries...); err != nil {
			a.log.Error("failed to build report", "error", err)
			return err
		}
		if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { // #nosec G306 -- report holds public page content.
			a.log.Error("failed to write report", "file", path, "error", err)
			return err
		}
		a.log.Debug("report written", "file", path)
	}
	return nil
}

func (a *app) filterPage(cmd *cobra.Command, engine *filtering.Engine, name string, list rules.List,
	checks []selftest.Check, force bool, opts filterOptions) (report.Summary, error) {
	start := time.Now()
	log := a.log.With("page", name)

	doc, err := a.readPage(cmd.InOrStdin(), name)
	if err != nil {
		log.Error("failed to read page", "error", err)
		return report.Summary{}, err
	}

	tests := selftest.Run(doc, checks)
	tests.Log(log)

	summary := report.Summary{Page: name, Rules: list, Tests: tests}
	if tests.AllowFilter(force) {
		summary.Outcome = engine.Filter(list, doc)
		summary.Filtered = true
	} else {
		log.Warn("self tests failed, not filtering")
	}
	summary.Elapsed = time.Since(start)
	summary.Log(a.log)

	if err := doc.AppendSummary(summary.Lines()); err != nil {
		log.Warn("could not add summary to page", "error", err)
	}

	if err := a.writePage(cmd.OutOrStdout(), doc, name, opts); err != nil {
		log.Error("failed to write page", "error", err)
		return report.Summary{}, err
	}
	return summary, nil
}

func (a *app) readPage(stdin io.Reader, name string) (*page.Document, error) {
	opts := page.Options{Log: a.log.With("page", name)}
	if name == stdinName {
		return page.Parse(stdin, opts)
	}
	return page.Load(name, opts)
}

func (a *app) writePage(stdout io.Writer, doc *page.Document, name string, opts filterOptions) error {
	switch {
	case opts.output != "" && opts.output != stdinName:
		return doc.Save(opts.output)
	case opts.multiple:
		out := filteredName(name)
		a.log.Debug("writing filtered page", "file", out)
		return doc.Save(out)
	default:
		return doc.Render(stdout)
	}
}

// filteredName places the output next to the input: news.html becomes
// news.filtered.html.
func filteredName(name string) string {
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s.filtered%s", strings.TrimSuffix(name, ext), ext)
}
