package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/rodneyosodo/mosaic/pkg/sdk"
)

var (
	defOffset uint64 = 0
	defLimit  uint64 = 10
)

var msdk sdk.SDK

func SetSDK(s sdk.SDK) {
	msdk = s
}

func NewRoundsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rounds [start|view|current]",
		Short: "Rounds manager",
		Long:  `Start rounds and inspect open or archived rounds.`,
	}

	startCmd := &cobra.Command{
		Use:   "start",
		Short: "Start round",
		Long: `Open the next federated round: the coordinator selects a cohort
and begins collecting updates.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			r, err := msdk.StartRound()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, r)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <id>",
		Short: "View round",
		Long:  `View a round by id, open or archived.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			r, err := msdk.GetRound(id)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, r)
		},
	}

	currentCmd := &cobra.Command{
		Use:   "current [participant-id]",
		Short: "Current round",
		Long: `View the open round. With a participant id the response includes
admission status and the session token.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) > 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			participantID := ""
			if len(args) == 1 {
				participantID = args[0]
			}

			info, err := msdk.CurrentRound(participantID)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, info)
		},
	}

	cmd.AddCommand(startCmd)
	cmd.AddCommand(viewCmd)
	cmd.AddCommand(currentCmd)

	return cmd
}
