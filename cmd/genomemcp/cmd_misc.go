package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/llm"
	"github.com/genomemcp/genomemcp/internal/tools"
)

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List models installed on the configured backend and check it is reachable",
	Args:  cobra.NoArgs,
	RunE: withApp(func(cmd *cobra.Command, a *app, _ []string) error {
		client, err := a.model()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if !client.IsAvailable(cmd.Context()) {
			return fmt.Errorf("%s is not reachable", client.Name())
		}
		lister, ok := client.(core.ModelLister)
		if !ok {
			fmt.Fprintf(out, "%s is reachable (backend cannot list models; available: %s)\n", client.Name(), strings.Join(llm.Backends(), ", "))
			return nil
		}
		names, err := lister.ListModels(cmd.Context())
		if err != nil {
			return err
		}
		for _, n := range names {
			fmt.Fprintln(out, n)
		}
		return nil
	}),
}

var researchCmd = &cobra.Command{
	Use:   "research",
	Short: "Research project helpers",
}

var researchDescribeFlags struct {
	json bool
}

var researchDescribeCmd = &cobra.Command{
	Use:   "describe <phenotype>",
	Short: "Gather ranked genes, ClinVar records and pathways into a markdown data description",
	Args:  cobra.MinimumNArgs(1),
	RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
		phenotype := strings.Join(args, " ")
		rd, err := a.evidence.GatherResearchData(cmd.Context(), phenotype)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if researchDescribeFlags.json {
			if err := writeJSON(out, rd); err != nil {
				return err
			}
		} else {
			fmt.Fprint(out, tools.FormatResearchDescription(*rd))
		}
		a.record(cmd.Context(), "research", rd, phenotype)
		return nil
	}),
}

func init() {
	researchDescribeCmd.Flags().BoolVar(&researchDescribeFlags.json, "json", false, "Print the gathered data as JSON")
	researchCmd.AddCommand(researchDescribeCmd)
}
