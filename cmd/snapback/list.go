package main

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/arthur-debert/snapback/pkg/store"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list ROOT",
		Short:   MsgListShort,
		Long:    MsgListLong,
		Example: MsgListExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := store.New(args[0])
			if err != nil {
				return err
			}
			snaps, err := st.List()
			if err != nil {
				return err
			}
			if len(snaps) == 0 {
				pterm.Info.Println("no snapshots")
				return nil
			}

			now := time.Now().UTC()
			data := pterm.TableData{{"NAME", "CREATED", "AGE", "STATE"}}
			for _, sn := range snaps {
				state := "committed"
				if sn.Temporary {
					state = "temporary"
				}
				data = append(data, []string{
					sn.Name,
					sn.Stamp.Format(time.RFC3339),
					formatAge(sn.Age(now)),
					state,
				})
			}
			return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		},
	}
}

func formatAge(age time.Duration) string {
	if age < 0 {
		age = 0
	}
	days := int(age.Hours() / 24)
	if days > 0 {
		return fmt.Sprintf("%dd", days)
	}
	return age.Round(time.Minute).String()
}
