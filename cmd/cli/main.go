package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/rodneyosodo/mosaic/cli"
	"github.com/rodneyosodo/mosaic/pkg/sdk"
)

var (
	coordinatorURL  = "http://localhost:7070"
	tlsVerification = false
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "mosaic-cli",
		Short: "Mosaic CLI",
		Long:  `Mosaic CLI is a command line interface for interacting with the federated learning coordinator.`,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			sdkConf := sdk.Config{
				CoordinatorURL:  coordinatorURL,
				TLSVerification: tlsVerification,
			}
			s := sdk.NewSDK(sdkConf)
			cli.SetSDK(s)
		},
	}

	rootCmd.PersistentFlags().StringVarP(
		&coordinatorURL,
		"coordinator-url",
		"c",
		coordinatorURL,
		"Coordinator URL",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&tlsVerification,
		"tls-verification",
		"v",
		tlsVerification,
		"TLS Verification",
	)

	rootCmd.AddCommand(cli.NewRoundsCmd())
	rootCmd.AddCommand(cli.NewModelsCmd())
	rootCmd.AddCommand(cli.NewParticipantsCmd())
	rootCmd.AddCommand(cli.NewProvisionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
