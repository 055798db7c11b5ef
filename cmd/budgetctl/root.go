package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/penshort/budgetdesk/internal/app"
	"github.com/penshort/budgetdesk/internal/config"
	"github.com/penshort/budgetdesk/internal/repository"
	"github.com/penshort/budgetdesk/internal/service"
)

// env is the state shared by subcommands. It is built once per invocation
// in the root's PersistentPreRunE.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	repo   *repository.Repository
	awsCfg *app.AWS
}

// close releases the store. It is safe to call when the store was never
// opened.
func (e *env) close() error {
	if e.repo == nil {
		return nil
	}
	err := e.repo.Close()
	e.repo = nil
	return err
}

func newRootCmd() (*cobra.Command, *env) {
	var envFile string
	e := &env{}

	root := &cobra.Command{
		Use:   "budgetctl",
		Short: "Operate the budgetdesk allocation store",
		Long: `budgetctl manages verification links and allocations without the HTTP API.

Configuration is read from the environment, optionally seeded from --env-file
or a .env file in the working directory.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if envFile != "" {
				e.cfg, err = config.LoadFile(envFile)
			} else {
				e.cfg, err = config.Load()
			}
			if err != nil {
				return err
			}

			// Logs go to stderr so command output stays parseable.
			e.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
				Level: app.ParseLogLevel(e.cfg.LogLevel),
			}))
			e.awsCfg = app.NewAWS(e.cfg)

			e.repo, err = app.OpenStore(cmd.Context(), e.cfg, e.logger)
			return err
		},
	}

	root.PersistentFlags().StringVar(&envFile, "env-file", "", "path to an env file to load before reading the environment")

	root.AddCommand(
		newMigrateCmd(e),
		newIssueLinkCmd(e),
		newVerifyCmd(e),
		newAllowListCmd(e),
		newAllocationsCmd(e),
		newSetCmd(e),
		newCategoriesCmd(e),
		newExportCmd(e),
	)
	return root, e
}

// userError renders a service error with its user-facing message.
func userError(err error) error {
	return fmt.Errorf("%s (%w)", service.Message(err), err)
}
