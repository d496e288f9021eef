package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"sessioncore/docs/schema"
	"sessioncore/internal/adapters/export"
	"sessioncore/internal/blob"
	"sessioncore/internal/core"
	"sessioncore/internal/wire"
	"sessioncore/pkg/device"
	"sessioncore/pkg/domain"
)

func openService(v *viper.Viper, logger *zap.Logger) (*core.Service, error) {
	var store domain.PersistentStore
	switch driver := v.GetString("store"); driver {
	case "memory", "":
		store = core.NewMemoryStore()
	case "sqlite":
		s, err := core.NewSQLiteStore(v.GetString("sqlite-path"))
		if err != nil {
			return nil, err
		}
		store = s
	case "postgres":
		s, err := core.NewPostgresStore(v.GetString("postgres-dsn"))
		if err != nil {
			return nil, err
		}
		store = s
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
	return core.NewService(store, core.WithLogger(logger)), nil
}

func newValidateCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.yml>",
		Short: "Validate an exported metadata file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			doc, err := wire.Decode(payload)
			if err != nil {
				return err
			}
			logger, err := newLogger(v)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			service, err := openService(v, logger)
			if err != nil {
				return err
			}
			result := service.ValidateDocument(doc)
			for _, finding := range result.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s: %s\n", finding.Severity, finding.Kind, finding.Path, finding.Message)
			}
			if !result.IsValid() {
				return fmt.Errorf("%s is not valid", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is valid\n", args[0])
			return nil
		},
	}
}

func newExportCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export --day <id>",
		Short: "Publish a day's merged metadata file to the archive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			dayID := v.GetString("day")
			if dayID == "" {
				return fmt.Errorf("--day required")
			}
			logger, err := newLogger(v)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			service, err := openService(v, logger)
			if err != nil {
				return err
			}
			archive, err := blob.Open(cmd.Context())
			if err != nil {
				return err
			}
			worker := export.NewWorker(service, archive, nil)
			info, err := worker.ExportDay(cmd.Context(), dayID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s (%d bytes)\n", info.Key, info.Size)
			return nil
		},
	}
	cmd.Flags().String("day", "", "day ID to export")
	return cmd
}

func newImportCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file.yml>",
		Short: "Import a previously exported metadata file into the workspace",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			logger, err := newLogger(v)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			service, err := openService(v, logger)
			if err != nil {
				return err
			}
			outcome, err := export.NewImporter(service).Import(cmd.Context(), payload)
			if err != nil {
				return err
			}
			if outcome.CreatedAnimal {
				fmt.Fprintf(cmd.OutOrStdout(), "created animal %s\n", outcome.AnimalID)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created day %s\n", outcome.DayID)
			for _, finding := range outcome.Result.Errors {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s: %s\n", finding.Severity, finding.Kind, finding.Path, finding.Message)
			}
			return nil
		},
	}
}

func newSampleCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sample",
		Short: "Print the canonical session metadata example",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := cmd.OutOrStdout().Write(schema.SampleMetadata())
			return err
		},
	}
}

func newDevicesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List known probe device types",
		RunE: func(cmd *cobra.Command, _ []string) error {
			registry := device.Builtin()
			for _, name := range registry.Names() {
				geom, err := registry.Lookup(name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d shanks x %d channels\n", name, geom.ShankCount, geom.ChannelsPerShank)
			}
			return nil
		},
	}
}
