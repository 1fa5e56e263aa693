package cmd

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smart715/jobsify/pkg/config"
	"github.com/smart715/jobsify/pkg/runtime"
	"github.com/smart715/jobsify/pkg/server"
	"github.com/spf13/cobra"
)

func newMockServerCommand(flags *rootFlags) *cobra.Command {
	var (
		listen string
		seed   int
		rnd    int64
	)
	cmd := &cobra.Command{
		Use:   "mock-server",
		Short: "Serve the configured entities from memory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(flags.ConfigFile)
			if err != nil {
				return err
			}
			logger, err := runtime.NewLogger(cfg, runtime.CLI, flags.Debug)
			if err != nil {
				return err
			}
			defer logger.Close()

			s, err := server.New(cfg, logrus.NewEntry(logger.Logger))
			if err != nil {
				return err
			}
			if seed > 0 {
				s.Seed(seed, rnd, time.Now())
			}
			return s.ListenAndServe(cmd.Context(), listen)
		},
	}
	cmd.Flags().StringVarP(&listen, "listen", "l", ":8080", "address to listen on")
	cmd.Flags().IntVar(&seed, "seed", 25, "generated records per entity")
	cmd.Flags().Int64Var(&rnd, "random-seed", 1, "seed of the generated data")
	return cmd
}
