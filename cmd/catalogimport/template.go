package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/catalogimport/internal/core"
)

func newTemplateCmd() *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an import template with the expected columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			write := core.WriteTemplateCSV
			switch format {
			case "csv":
			case "xlsx":
				write = core.WriteTemplateXLSX
			default:
				return withCode(exitUsage, fmt.Errorf("unsupported --format %q (csv or xlsx)", format))
			}

			var w io.Writer = cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := write(w); err != nil {
				return fmt.Errorf("write template: %w", err)
			}
			if output != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "template written to %s\n", output)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "csv", "Template format: csv or xlsx")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}
