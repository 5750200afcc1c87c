package cli

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/rodneyosodo/mosaic"
	"github.com/rodneyosodo/mosaic/pkg/sdk"
)

const defConfigPath = "mosaic.toml"

// NewProvisionCmd generates a participant identity: an ed25519 keypair,
// a registry record on the coordinator, and a TOML config the client
// signs its updates with.
func NewProvisionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "provision",
		Short: "Provision participant",
		Long:  `Generate a participant keypair, register it and write the client config.`,
		Run: func(cmd *cobra.Command, args []string) {
			if len(args) != 0 {
				logUsageCmd(*cmd, cmd.Use)

				return
			}

			var (
				name        string
				datasetSize string
				url         = "http://localhost:7070"
				path        = defConfigPath
			)

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Participant name").
						Value(&name),
					huh.NewInput().
						Title("Dataset size").
						Placeholder("0").
						Value(&datasetSize),
					huh.NewInput().
						Title("Coordinator URL").
						Value(&url),
					huh.NewInput().
						Title("Config file path").
						Value(&path),
				),
			)
			if err := form.Run(); err != nil {
				logErrorCmd(*cmd, err)

				return
			}

			size := uint64(0)
			if datasetSize != "" {
				parsed, err := strconv.ParseUint(datasetSize, 10, 64)
				if err != nil {
					logErrorCmd(*cmd, err)

					return
				}
				size = parsed
			}

			pub, priv, err := ed25519.GenerateKey(rand.Reader)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logSuccessCmd(*cmd, "Successfully generated keypair")

			p := sdk.Participant{
				ID:          uuid.NewString(),
				Name:        name,
				PublicKey:   pub,
				DatasetSize: size,
			}

			registered, err := msdk.Heartbeat(p)
			if err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logSuccessCmd(*cmd, "Successfully registered participant")

			cfg := mosaic.Config{
				Coordinator: mosaic.CoordinatorConfig{
					URL: url,
				},
				Participant: mosaic.ParticipantConfig{
					ID:          registered.ID,
					Name:        name,
					PublicKey:   hex.EncodeToString(pub),
					PrivateKey:  hex.EncodeToString(priv),
					DatasetSize: size,
				},
			}

			if err := mosaic.SaveConfig(path, cfg); err != nil {
				logErrorCmd(*cmd, err)

				return
			}
			logSuccessCmd(*cmd, "Successfully created "+path)

			logJSONCmd(*cmd, registered)
		},
	}
}
