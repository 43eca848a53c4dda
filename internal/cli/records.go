package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"polcoord/internal/app"
	"polcoord/internal/infra/csvfile"
	"polcoord/internal/report"
)

// NewRecordsCmd groups the dataset maintenance commands.
func NewRecordsCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "records",
		Short: "Inspect and maintain the respondent file",
	}
	cmd.AddCommand(newRecordsInitCmd(configPath), newRecordsListCmd(configPath), newRecordsDeleteCmd(configPath))
	return cmd
}

func newRecordsInitCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create an empty respondent file with the header row",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			repo := csvfile.NewRecordRepository(cfg.DB.Path)
			created, err := repo.Init(cmd.Context())
			if err != nil {
				return err
			}
			if created {
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", repo.Path())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s already exists\n", repo.Path())
			}
			return nil
		},
	}
}

func newRecordsListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print all respondent records",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			store, err := app.NewRecordStore(cmd.Context(), csvfile.NewRecordRepository(cfg.DB.Path), log)
			if err != nil {
				return err
			}
			renderTable(cmd.OutOrStdout(), report.DatasetTable(store.Snapshot()))
			return nil
		},
	}
}

func newRecordsDeleteCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete the record with the given id and renumber the rest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("id must be an integer: %w", err)
			}
			cfg, log, err := setup(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			store, err := app.NewRecordStore(cmd.Context(), csvfile.NewRecordRepository(cfg.DB.Path), log)
			if err != nil {
				return err
			}
			// ids are dense, so id N sits at row N-1
			ds, err := store.Delete(cmd.Context(), id-1)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted record %d, %d remaining\n", id, len(ds))
			return nil
		},
	}
}
