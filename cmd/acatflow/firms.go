package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/quillon/acatflow/internal/cli"
	"github.com/quillon/acatflow/internal/validation"
)

func firmsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "firms",
		Short: "List the known contra firm participant numbers",
		RunE:  runFirms,
	}
}

func runFirms(_ *cobra.Command, _ []string) error {
	fmt.Println(cli.FormatTitle("Known contra firms"))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, cli.TableHeaderStyle.Render("CODE")+"\t"+cli.TableHeaderStyle.Render("INSTITUTION"))

	firms := validation.ContraFirms()
	for _, code := range validation.ContraFirmCodes() {
		name := firms[code]
		if code == validation.DefaultContraFirm {
			name += " " + cli.SubtleStyle.Render("(default suggestion)")
		}
		fmt.Fprintf(w, "%s\t%s\n", code, name)
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}
