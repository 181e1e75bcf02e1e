package main

import (
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/snapback/pkg/retention"
	"github.com/arthur-debert/snapback/pkg/store"
)

func newPruneCmd() *cobra.Command {
	var (
		olderDays int
		sure      bool
	)

	cmd := &cobra.Command{
		Use:     "prune ROOT",
		Short:   MsgPruneShort,
		Long:    MsgPruneLong,
		Example: MsgPruneExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !sure {
				pterm.Println("Nothing done. Add --sure to actually delete snapshots.")
				return nil
			}

			st, err := store.New(args[0])
			if err != nil {
				return err
			}

			removedTmp, err := retention.CleanTemporary(st)
			if err != nil {
				return err
			}

			var removedOld []store.Snapshot
			if olderDays > 0 {
				policy := retention.New(time.Duration(olderDays) * 24 * time.Hour)
				removedOld, err = policy.Apply(st, time.Now().UTC())
				if err != nil {
					return err
				}
			}

			pterm.Success.Printfln("removed %d temporary and %d expired snapshot(s)",
				len(removedTmp), len(removedOld))
			return nil
		},
	}

	cmd.Flags().IntVarP(&olderDays, "older", "o", 0, "Remove committed snapshots older than this many days")
	cmd.Flags().BoolVar(&sure, "sure", false, "Confirm that you really want to delete snapshots")

	return cmd
}
