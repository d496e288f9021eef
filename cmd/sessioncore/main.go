// Command sessioncore manages experiment session metadata workspaces:
// validating, exporting, and importing the YAML files consumed by the
// downstream conversion pipeline.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:           "sessioncore",
		Short:         "Manage experiment session metadata",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			v.SetEnvPrefix("SESSIONCORE")
			v.AutomaticEnv()
			return v.BindPFlags(cmd.Flags())
		},
	}
	root.PersistentFlags().String("store", "memory", "workspace store driver: memory|sqlite|postgres")
	root.PersistentFlags().String("sqlite-path", "", "sqlite database path (store=sqlite)")
	root.PersistentFlags().String("postgres-dsn", "", "postgres connection string (store=postgres)")
	root.PersistentFlags().Bool("debug", false, "enable debug logging")

	root.AddCommand(newValidateCommand(v))
	root.AddCommand(newExportCommand(v))
	root.AddCommand(newImportCommand(v))
	root.AddCommand(newDevicesCommand())
	root.AddCommand(newSampleCommand())
	return root
}

func newLogger(v *viper.Viper) (*zap.Logger, error) {
	if v.GetBool("debug") {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
