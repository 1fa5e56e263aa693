package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/go-faster/errors"
	"github.com/sirupsen/logrus"
	"github.com/smart715/jobsify/pkg/app"
	"github.com/smart715/jobsify/pkg/config"
	"github.com/smart715/jobsify/pkg/metrics"
	"github.com/smart715/jobsify/pkg/runtime"
	"github.com/smart715/jobsify/pkg/ui"
	"github.com/spf13/cobra"
)

type rootFlags struct {
	ConfigFile    string
	Debug         bool
	MetricsListen string
}

// NewRootCommand builds the jobsify command tree.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:           "jobsify",
		Short:         "Jobsify is a terminal client for the back office",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), flags)
		},
	}
	root.PersistentFlags().StringVarP(&flags.ConfigFile, "config", "c", config.DefaultPath, "configuration file")
	root.PersistentFlags().BoolVar(&flags.Debug, "debug", false, "log at debug level")
	root.Flags().StringVar(&flags.MetricsListen, "metrics-listen", "", "serve metrics and pprof on this address")

	root.AddCommand(
		newEntitiesCommand(flags),
		newListCommand(flags),
		newCreateCommand(flags),
		newUpdateCommand(flags),
		newDeleteCommand(flags),
		newMockServerCommand(flags),
	)
	return root
}

func runTUI(ctx context.Context, flags *rootFlags) error {
	cfg, err := config.Load(flags.ConfigFile)
	if err != nil {
		return err
	}
	if flags.MetricsListen != "" {
		cfg.Metrics.Listen = flags.MetricsListen
	}

	logger, err := runtime.NewLogger(cfg, runtime.TUI, flags.Debug)
	if err != nil {
		return err
	}
	defer logger.Close()
	log := logrus.NewEntry(logger.Logger)

	ui.DetectColor()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var m *metrics.Metrics
	if cfg.Metrics.Listen != "" {
		m = metrics.New()
		go func() {
			if err := m.Serve(ctx, cfg.Metrics.Listen, log); err != nil {
				log.WithError(err).Error("metrics listener stopped")
			}
		}()
	}

	// a missing config file is fine, there is just nothing to watch
	w, err := config.Watch(flags.ConfigFile)
	if err != nil {
		log.WithError(err).Warn("not watching config")
		w = nil
	} else {
		defer w.Close()
	}

	a := app.New(ctx, cfg, app.Options{
		ConfigPath: flags.ConfigFile,
		Watcher:    w,
		Metrics:    m,
		Log:        log,
	})
	_, err = tea.NewProgram(a, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCommand().ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
