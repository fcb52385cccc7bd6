package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/muzzletov/mendxml/internal/conform"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check file...",
		Short: "Verify that files are well-formed XML",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := a.loader(cmd)
			out := cmd.OutOrStdout()
			failed := 0

			for _, location := range args {
				data, err := loader.Load(cmd.Context(), location)
				if err == nil {
					err = conform.Check(data)
				}

				if err != nil {
					failed++
					a.logger.Debug("check failed", zap.String("location", location), zap.Error(err))
					fmt.Fprintf(out, "%s %s: %s\n", errorStyle.Render("FAIL"), location, err)
					continue
				}

				fmt.Fprintf(out, "%s %s\n", successStyle.Render("ok"), location)
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d files are not well-formed", failed, len(args))
			}

			return nil
		},
	}
}
