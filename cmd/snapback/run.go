package main

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/snapback/pkg/backup"
	"github.com/arthur-debert/snapback/pkg/config"
	"github.com/arthur-debert/snapback/pkg/display"
)

func newRunCmd() *cobra.Command {
	var (
		olderDays int
		workers   int
		hashAlgo  string
		dryRun    bool
		sure      bool
	)

	cmd := &cobra.Command{
		Use:     "run SOURCE ROOT",
		Short:   MsgRunShort,
		Long:    MsgRunLong,
		Example: MsgRunExample,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !sure && !dryRun {
				pterm.Println("Nothing done. Add --sure to actually run a backup, or --dry-run to preview one.")
				return nil
			}

			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workers") {
				cfg.Workers = workers
			}
			if cmd.Flags().Changed("hash") {
				cfg.Hash = hashAlgo
			}
			if cmd.Flags().Changed("older") {
				cfg.KeepDays = olderDays
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			res, err := backup.Run(backup.Options{
				Source:   args[0],
				Root:     args[1],
				MaxAge:   time.Duration(cfg.KeepDays) * 24 * time.Hour,
				Workers:  cfg.Workers,
				Hash:     cfg.Hash,
				DryRun:   dryRun,
				Reporter: display.NewProgress(verbosity >= 1),
			})
			if err != nil {
				return err
			}

			if res.DryRun {
				pterm.Info.Printfln("dry run: would link %d, copy %d, create %d directories",
					res.Summary.Linked, res.Summary.Copied, res.Summary.DirsCreated)
				return nil
			}

			pterm.Success.Printfln("snapshot %s committed: %d linked, %d copied, %d directories",
				res.SnapshotPath, res.Summary.Linked, res.Summary.Copied, res.Summary.DirsCreated)
			if n := len(res.RemovedTemp); n > 0 {
				pterm.Info.Printfln("removed %d leftover temporary snapshot(s)", n)
			}
			if n := len(res.RemovedOld); n > 0 {
				pterm.Info.Printfln("removed %d expired snapshot(s)", n)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&olderDays, "older", "o", 0, "After a successful run, remove snapshots older than this many days")
	cmd.Flags().IntVar(&workers, "workers", config.DefaultWorkers, "Number of concurrent workers")
	cmd.Flags().StringVar(&hashAlgo, "hash", config.HashBytes, "Content comparison strategy (bytes|xxh3)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan the snapshot without writing anything")
	cmd.Flags().BoolVar(&sure, "sure", false, "Confirm that you really want to run the backup")

	return cmd
}
