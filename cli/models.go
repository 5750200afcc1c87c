package cli

import (
	"strconv"

	"github.com/spf13/cobra"
)

func NewModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models [latest|view]",
		Short: "Models manager",
		Long:  `Inspect published global model versions.`,
	}

	latestCmd := &cobra.Command{
		Use:   "latest",
		Short: "Latest model",
		Long:  `View the most recently published global model.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			m, err := msdk.LatestModel()
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view <version>",
		Short: "View model",
		Long:  `View a published global model by version.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 1 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			version, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			m, err := msdk.GetModel(version)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logJSONCmd(*cmd, m)
		},
	}

	cmd.AddCommand(latestCmd)
	cmd.AddCommand(viewCmd)

	return cmd
}
