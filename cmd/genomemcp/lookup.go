package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/genomemcp/genomemcp/internal/tools"
)

// lookup maps a single-shot command onto one capability. Positional
// arguments fill params in order; the last param absorbs any extra words so
// that multi-word phenotypes need no quoting.
type lookup struct {
	use     string
	short   string
	tool    string
	params  []string
	intFlag string // optional integer param exposed as --max
	intDef  int
	history string
}

var lookups = []lookup{
	{use: "search <term>", short: "Search ClinVar for a gene, variant or disease", tool: tools.SearchClinVar, params: []string{"term"}, history: "search"},
	{use: "variant <variation-id>", short: "Clinical report for a ClinVar variation", tool: tools.GetVariantReport, params: []string{"variant_id"}, history: "variant"},
	{use: "gene <symbol>", short: "NCBI Gene summary", tool: tools.GetGeneInfo, params: []string{"gene_symbol"}, history: "gene"},
	{use: "literature <variation-id>", short: "PubMed articles linked to a ClinVar variation", tool: tools.GetSupportingLiterature, params: []string{"variant_id"}, intFlag: "max_results", intDef: 5, history: "literature"},
	{use: "population <chrom-pos-ref-alt>", short: "gnomAD allele frequencies", tool: tools.GetPopulationStats, params: []string{"variant_str"}, history: "population"},
	{use: "pathway <symbol>", short: "Reactome pathways for a gene", tool: tools.GetPathwayInfo, params: []string{"gene_symbol"}, history: "pathway"},
	{use: "visualize <symbol>", short: "Mermaid diagram of a gene's pathways", tool: tools.VisualizePathway, params: []string{"gene_symbol"}, history: "pathway"},
	{use: "related <phenotype>", short: "Genes associated with a disease or phenotype", tool: tools.FindRelatedGenes, params: []string{"phenotype_or_disease"}, history: "discovery"},
	{use: "context <symbol> <position>", short: "Exon or intron classification of a cDNA position", tool: tools.GetGenomicContext, params: []string{"gene_symbol", "position"}, history: "context"},
	{use: "discover <phenotype>", short: "Literature evidence for the top genes of a phenotype", tool: tools.GetDiscoveryEvidence, params: []string{"phenotype"}, intFlag: "max_genes", intDef: 3, history: "discovery"},
}

// arguments builds the capability arguments from positional args.
func (l lookup) arguments(args []string, n int) (map[string]any, error) {
	if len(args) < len(l.params) {
		return nil, fmt.Errorf("%s: expected %d argument(s), got %d", l.name(), len(l.params), len(args))
	}
	out := make(map[string]any, len(l.params)+1)
	last := len(l.params) - 1
	for i, p := range l.params[:last] {
		out[p] = args[i]
	}
	out[l.params[last]] = strings.Join(args[last:], " ")
	if l.intFlag != "" {
		out[l.intFlag] = n
	}
	return out, nil
}

func (l lookup) name() string {
	name, _, _ := strings.Cut(l.use, " ")
	return name
}

// invoker is the registry surface used by single-shot commands.
type invoker interface {
	Invoke(ctx context.Context, name string, arguments map[string]any) tools.Result
}

// run invokes the capability and prints its report to w.
func (l lookup) run(ctx context.Context, inv invoker, w io.Writer, args []string, n int) (tools.Result, error) {
	arguments, err := l.arguments(args, n)
	if err != nil {
		return tools.Result{}, err
	}
	res := inv.Invoke(ctx, l.tool, arguments)
	if res.IsError() {
		return res, errors.New(res.Err)
	}
	fmt.Fprintln(w, res.Content())
	return res, nil
}

func lookupCommands() []*cobra.Command {
	cmds := make([]*cobra.Command, 0, len(lookups))
	for _, l := range lookups {
		var n int
		cmd := &cobra.Command{
			Use:   l.use,
			Short: l.short,
			Args:  cobra.MinimumNArgs(len(l.params)),
			RunE: withApp(func(cmd *cobra.Command, a *app, args []string) error {
				res, err := l.run(cmd.Context(), a.registry, cmd.OutOrStdout(), args, n)
				if err != nil {
					return err
				}
				a.record(cmd.Context(), l.history, map[string]any{"tool": l.tool, "report": res.Content()}, strings.Join(args, " "))
				return nil
			}),
		}
		if l.intFlag != "" {
			cmd.Flags().IntVar(&n, "max", l.intDef, fmt.Sprintf("Value for %s", l.intFlag))
		}
		cmds = append(cmds, cmd)
	}
	return cmds
}
