package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/catalogimport/internal/core"
)

func newPreviewCmd() *cobra.Command {
	var (
		sample int
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "preview FILE",
		Short: "Check a catalog CSV file without importing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := readFile(args[0])
			if err != nil {
				return withCode(exitUsage, err)
			}
			if err := core.ValidateFile(f, 0); err != nil {
				return withCode(exitFailure, errors.New(core.FormatUserError(err)))
			}
			text, err := core.DecodeText(f.Data)
			if err != nil {
				return err
			}

			p := core.BuildPreview(text, sample)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(p)
			}

			fmt.Fprintf(out, "Rows: %d (valid %d, invalid %d, empty %d)\n",
				p.TotalRows, p.Summary.ValidRows, p.Summary.InvalidRows, p.Summary.EmptyRows)
			fmt.Fprintf(out, "Categories: %s\n", strings.Join(p.Categories, ", "))
			for _, c := range p.Sample {
				fmt.Fprintf(out, "  line %d: %s [%s] stock %d\n", c.Line, c.Name, c.Category, c.StockQuantity)
			}
			for _, e := range p.Errors {
				fmt.Fprintln(out, "error:", e)
			}
			for _, w := range p.Warnings {
				fmt.Fprintln(out, "warning:", w)
			}
			if !p.Valid {
				return withCode(exitFailure, fmt.Errorf("%s is not importable", f.Name))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&sample, "sample", core.DefaultPreviewSample, "Rows to show")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the preview as JSON")
	return cmd
}
