package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rodneyosodo/mosaic/pkg/sdk"
)

func NewParticipantsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "participants [list|heartbeat]",
		Short: "Participants manager",
		Long:  `List registered participants and send heartbeats.`,
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List participants",
		Long:  `Page through the participant registry.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			page, err := msdk.ListParticipants(defOffset, defLimit)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, page)
		},
	}

	heartbeatCmd := &cobra.Command{
		Use:   "heartbeat <id> [dataset-size]",
		Short: "Send heartbeat",
		Long:  `Register a participant or refresh its liveness window.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) < 1 || len(args) > 2 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			p := sdk.Participant{ID: args[0]}
			if len(args) == 2 {
				size, err := strconv.ParseUint(args[1], 10, 64)
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				p.DatasetSize = size
			}

			out, err := msdk.Heartbeat(p)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, out)
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(heartbeatCmd)

	cmd.PersistentFlags().Uint64VarP(
		&defOffset,
		"offset",
		"o",
		defOffset,
		"Offset",
	)

	cmd.PersistentFlags().Uint64VarP(
		&defLimit,
		"limit",
		"l",
		defLimit,
		"Limit",
	)

	return cmd
}
