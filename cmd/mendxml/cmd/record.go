package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/muzzletov/mendxml"
)

func newRecordCmd(a *app) *cobra.Command {
	var (
		out       string
		format    string
		normalize bool
	)

	recordCmd := &cobra.Command{
		Use:   "record [file|url|-]",
		Short: "Print the structural record of a document as JSON or YAML",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _, err := a.load(cmd.Context(), cmd, args)
			if err != nil {
				return err
			}

			if normalize {
				mendxml.Normalize(root)
			}

			record := mendxml.ToRecord(root)

			var data []byte
			switch format {
			case "json":
				data, err = record.JSON()
			case "yaml", "yml":
				data, err = record.YAML()
			default:
				return fmt.Errorf("unknown format %q, want json or yaml", format)
			}
			if err != nil {
				return err
			}

			return writeOutput(cmd, out, data)
		},
	}

	recordCmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	recordCmd.Flags().StringVarP(&format, "format", "f", "json", "output format: json or yaml")
	recordCmd.Flags().BoolVar(&normalize, "normalize", false, "escape text and attribute values first")
	addParseFlags(recordCmd)

	return recordCmd
}
