package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/couchcryptid/osm-data-etl/internal/domain"
	"github.com/couchcryptid/osm-data-etl/internal/validate"
)

// maxListedProblems caps how many problems are printed per run.
const maxListedProblems = 20

func newValidateCmd() *cobra.Command {
	var clean bool
	cmd := &cobra.Command{
		Use:   "validate <output.json>",
		Short: "Check converted output against the document schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			report, err := validate.NewChecker(domain.DefaultRules(), clean).CheckFile(f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%d documents (%d nodes, %d ways)\n",
				report.Documents, report.Types[domain.KindNode], report.Types[domain.KindWay])
			if report.Passed() {
				fmt.Fprintln(out, "PASS")
				return nil
			}

			for i, p := range report.Problems {
				if i == maxListedProblems {
					fmt.Fprintf(out, "  ... and %d more\n", len(report.Problems)-i)
					break
				}
				fmt.Fprintf(out, "  FAIL: %s\n", p)
			}
			return fmt.Errorf("%d problems found", len(report.Problems))
		},
	}
	cmd.Flags().BoolVar(&clean, "clean", false, "also check rules applied by cleaning mode")
	return cmd
}
