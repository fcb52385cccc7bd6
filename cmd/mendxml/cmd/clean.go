package cmd

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muzzletov/mendxml"
	"github.com/muzzletov/mendxml/internal/conform"
)

func newCleanCmd(a *app) *cobra.Command {
	var (
		out    string
		check  bool
		indent string
	)

	cleanCmd := &cobra.Command{
		Use:   "clean [file|url|-]",
		Short: "Normalize one document into well-formed XML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, location, err := a.load(cmd.Context(), cmd, args)
			if err != nil {
				return err
			}

			mendxml.Normalize(root)

			opts := mendxml.RenderOptions{Indent: a.cfg.Render.Indent}
			if cmd.Flags().Changed("indent") {
				opts.Indent = indent
			}

			var buf bytes.Buffer
			if err := mendxml.RenderTo(&buf, root, opts); err != nil {
				return err
			}

			if check {
				if err := conform.Verify(root, buf.Bytes()); err != nil {
					return fmt.Errorf("%s: %w", location, err)
				}
			}

			return writeOutput(cmd, out, buf.Bytes())
		},
	}

	cleanCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	cleanCmd.Flags().BoolVar(&check, "check", false, "verify the output with a conformant parser")
	cleanCmd.Flags().StringVar(&indent, "indent", mendxml.DefaultIndent, "indentation unit")
	addParseFlags(cleanCmd)

	return cleanCmd
}
