package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/config"
	"github.com/Artfuldodger-clone415/AcademicIssueFrontend/internal/domain"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func Execute() error {
	return ExecuteContext(context.Background())
}

func ExecuteContext(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	v := config.New()
	loader := &appLoader{viper: v}

	rootCmd := &cobra.Command{
		Use:           "ait",
		Short:         "Academic issue tracker client (ait): issues, dashboards and reports",
		Long:          "ait signs in to the academic issue tracking service, manages issues and notifications, and renders dashboards and reports aggregated from the issue listing.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			loader.stderr = cmd.ErrOrStderr()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String("base-url", "", "Base URL of the issue tracking API (AIT_BASE_URL)")
	flags.String("env", "", "Runtime environment: dev or production (AIT_ENV)")
	flags.String("log-level", "", "Log level: debug, info, warn, error (AIT_LOG_LEVEL)")
	bindFlag(v, config.KeyBaseURL, rootCmd, "base-url")
	bindFlag(v, config.KeyEnv, rootCmd, "env")
	bindFlag(v, config.KeyLogLevel, rootCmd, "log-level")

	rootCmd.AddCommand(
		newVersionCmd(),
		newLoginCmd(loader),
		newLogoutCmd(loader),
		newWhoamiCmd(loader),
		newRegisterCmd(loader),
		newProfileCmd(loader),
		newSessionCmd(loader),
		newIssuesCmd(loader),
		newNotificationsCmd(loader),
		newDashboardCmd(loader),
		newReportCmd(loader),
		newStatsCmd(loader),
		newAlertsCmd(loader),
	)
	rootCmd.AddCommand(newDirectoryCmds(loader)...)

	wrapErrors(rootCmd)
	return rootCmd
}

func bindFlag(v *viper.Viper, key string, cmd *cobra.Command, name string) {
	_ = v.BindPFlag(key, cmd.PersistentFlags().Lookup(name))
}

// wrapErrors adds a next step to session failures of every command.
func wrapErrors(cmd *cobra.Command) {
	if cmd.RunE != nil {
		run := cmd.RunE
		cmd.RunE = func(cmd *cobra.Command, args []string) error {
			return withHint(run(cmd, args))
		}
	}
	for _, child := range cmd.Commands() {
		wrapErrors(child)
	}
}

func withHint(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, domain.ErrAuthExpired):
		return fmt.Errorf("%w; sign in again with `ait login`", err)
	case errors.Is(err, domain.ErrCredentialNotFound):
		return fmt.Errorf("not logged in (%w); sign in with `ait login`", err)
	case errors.Is(err, config.ErrMissingBaseURL):
		return fmt.Errorf("%w; or use --env dev for %s", err, config.DevBaseURL)
	default:
		return err
	}
}
