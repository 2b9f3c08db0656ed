package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/p-n-ai/playground/internal/animation"
	"github.com/p-n-ai/playground/internal/concept"
	"github.com/p-n-ai/playground/internal/lint"
	"github.com/p-n-ai/playground/internal/page"
	"github.com/p-n-ai/playground/internal/progress"
	"github.com/p-n-ai/playground/internal/ui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "playground",
		Short:         "Interactive science concept pages in the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newPlayCmd())
	root.AddCommand(newLintCmd())
	root.AddCommand(newTopicsCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newCheckCmd())
	return root
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func newPlayCmd() *cobra.Command {
	var reportPath string

	cmd := &cobra.Command{
		Use:   "play <topic>",
		Short: "Open a topic's concept page",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			// The terminal belongs to the page, so logs go to the log file or nowhere.
			a, err := loadApp(ctx, io.Discard)
			if err != nil {
				return err
			}
			defer a.Close()

			topic := args[0]
			if a.files == nil {
				if err := concept.ValidTopic(topic); err != nil {
					return err
				}
			}
			return runPage(ctx, a, topic, reportPath)
		},
	}
	cmd.Flags().StringVar(&reportPath, "report", "", "write an XLSX progress report to this path on exit")
	return cmd
}

func runPage(ctx context.Context, a *app, topic, reportPath string) error {
	bridge := &ui.Bridge{}
	ctrl, err := page.New(page.Config{
		Topic:      topic,
		Repository: a.repo,
		Animations: animation.NewHost(a.prober, nil),
		Notifier:   a.notifier,
		Score:      a.cfg.Progress.ScoreDelta,
		Sound:      &ui.Bell{W: os.Stdout},
		Announcer:  bridge,
		Events:     a.events,
		Renderer:   bridge,
	})
	if err != nil {
		return err
	}
	slog.Info("page opened", "topic", topic, "session_id", ctrl.SessionID())

	program := tea.NewProgram(ui.NewModel(ctx, ctrl, topic), tea.WithAltScreen(), tea.WithContext(ctx))
	bridge.Attach(program)
	_, runErr := program.Run()
	ctrl.Close()

	if runErr != nil && !errors.Is(runErr, tea.ErrProgramKilled) {
		return fmt.Errorf("running page: %w", runErr)
	}

	if reportPath != "" {
		if err := writeReport(reportPath, ctrl); err != nil {
			return err
		}
	}
	return nil
}

func writeReport(path string, ctrl *page.Controller) error {
	labels := make(map[string]string)
	for _, item := range ctrl.Snapshot().Items {
		labels[item.Key] = item.Label
	}
	label := func(key string) string {
		if l, ok := labels[key]; ok && l != "" {
			return l
		}
		return concept.DisplayName(key)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report: %w", err)
	}
	if err := progress.WriteReport(f, ctrl.Tracker().Snapshot(), label); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func newLintCmd() *cobra.Command {
	var concurrency int

	cmd := &cobra.Command{
		Use:   "lint [topics...]",
		Short: "Check topic content for broken quizzes and missing animations",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := loadApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			topics := args
			if len(topics) == 0 {
				topics = a.Topics()
			}

			report, err := lint.Check(ctx, a.repo, topics, lint.Options{Prober: a.prober, Concurrency: concurrency})
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), report)
		},
	}
	cmd.Flags().IntVar(&concurrency, "concurrency", 4, "topics checked at once")
	return cmd
}

func printReport(w io.Writer, report lint.Report) error {
	for _, t := range report.Topics {
		_, _ = fmt.Fprintf(w, "%s: %d concepts, %d issues\n", t.Topic, t.Concepts, len(t.Issues))
		for _, is := range t.Issues {
			where := is.Topic
			if is.Concept != "" {
				where += "/" + is.Concept
			}
			_, _ = fmt.Fprintf(w, "  %-7s %-18s %s %s\n", is.Severity, is.Kind, where, is.Detail)
		}
	}
	if report.HasErrors() {
		return fmt.Errorf("lint found %d errors", report.ErrorCount())
	}
	return nil
}

func newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List available topics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := loadApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			for _, t := range a.Topics() {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-12s %s\n", t, concept.DisplayName(t))
			}
			return nil
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <topic>",
		Short: "Show recorded learning events for a topic",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := loadApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			if a.summary == nil {
				return errors.New("stats needs PLAYGROUND_DATABASE_URL")
			}
			counts, err := a.summary.Summary(ctx, args[0])
			if err != nil {
				return err
			}
			if len(counts) == 0 {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "no events recorded for %s\n", args[0])
				return nil
			}
			for _, c := range counts {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%-20s %d\n", c.Type, c.Count)
			}
			return nil
		},
	}
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Ping the configured database and cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := loadApp(ctx, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer a.Close()

			return runChecks(ctx, cmd.OutOrStdout(), a.health)
		},
	}
}

func runChecks(ctx context.Context, w io.Writer, checks []healthCheck) error {
	if len(checks) == 0 {
		_, _ = fmt.Fprintln(w, "no backends configured")
		return nil
	}
	failed := 0
	for _, hc := range checks {
		if err := hc.check(ctx); err != nil {
			failed++
			_, _ = fmt.Fprintf(w, "%-9s FAIL %v\n", hc.name, err)
			continue
		}
		_, _ = fmt.Fprintf(w, "%-9s ok\n", hc.name)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d backends unhealthy", failed, len(checks))
	}
	return nil
}
