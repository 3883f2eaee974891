package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"dompet/internal/cli"
	"dompet/internal/config"
	applog "dompet/internal/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func main() {
	cli.LoadEnvFile()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(viper.New()).ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newRootCmd builds the command tree around v so tests can run it in isolation.
// Every flag can also be set through DOMPET_<FLAG>, e.g. DOMPET_DB or DOMPET_INVITE_TTL.
func newRootCmd(v *viper.Viper) *cobra.Command {
	root := &cobra.Command{
		Use:           "dompetctl",
		Short:         "Administer a dompet ledger database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return setupLogging(v)
		},
	}

	root.PersistentFlags().String("db", "./data/dompet.db", "path to the SQLite database")
	root.PersistentFlags().String("log-level", "warn", "log level (debug, info, warn, error)")
	root.PersistentFlags().String("log-format", "text", "log format (text, json)")
	_ = v.BindPFlag("db", root.PersistentFlags().Lookup("db"))
	_ = v.BindPFlag("log_level", root.PersistentFlags().Lookup("log-level"))
	_ = v.BindPFlag("log_format", root.PersistentFlags().Lookup("log-format"))

	v.SetEnvPrefix("DOMPET")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	root.AddCommand(migrateCmd(v))
	root.AddCommand(rangeCmd())
	root.AddCommand(inviteCmd(v))
	return root
}

func setupLogging(v *viper.Viper) error {
	level, err := config.ParseLevel(v.GetString("log_level"))
	if err != nil {
		return err
	}
	lc := applog.DefaultConfig()
	lc.Level = level
	lc.Format = v.GetString("log_format")
	lc.Component = applog.ComponentCLI
	lc.Output = os.Stderr
	applog.SetDefault(applog.New(lc))
	return nil
}
