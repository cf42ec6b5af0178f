package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/northgate/atrium/internal/app"
)

func uploadCmd(g *globals) *cobra.Command {
	var scope string
	cmd := &cobra.Command{
		Use:   "upload <file>",
		Short: "Upload an image and print its stored path",
		Example: `  atrium upload hero.webp --scope carousel
  atrium upload cover.png`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := loadEnv(cmd, g)
			if err != nil {
				return err
			}
			clients, err := app.Dial(e.cfg, e.log)
			if err != nil {
				return err
			}

			file, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open upload: %w", err)
			}
			defer file.Close()

			ctx, cancel := context.WithTimeout(cmd.Context(), e.cfg.RequestTimeout*3)
			defer cancel()
			stored, err := clients.API.UploadImage(ctx, scope, args[0], file)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), stored)
			return err
		},
	}
	cmd.Flags().StringVar(&scope, "scope", "", "upload scope, e.g. carousel (default image)")
	return cmd
}
