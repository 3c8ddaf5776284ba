package tools

import (
	"fmt"
	"strings"

	"github.com/genomemcp/genomemcp/internal/evidence"
	"github.com/genomemcp/genomemcp/internal/record"
)

const pathwayListLimit = 10

func joinOr(items []string, fallback string) string {
	if len(items) == 0 {
		return fallback
	}
	return strings.Join(items, ", ")
}

// FormatVariantList renders search_clinvar results.
func FormatVariantList(term string, items []record.Variant) string {
	lines := []string{fmt.Sprintf("Found %d results for '%s':\n", len(items), term)}
	for _, it := range items {
		lines = append(lines, fmt.Sprintf(
			"- **%s** (ID: %s)\n  - Clinical Significance: %s\n  - Genes: %s\n  - Accession: %s\n  - Last Updated: %s\n",
			it.Title, it.ID, it.ClinicalSignificance, strings.Join(it.Genes, ", "), it.Accession, it.LastUpdated))
	}
	return strings.Join(lines, "\n")
}

// FormatVariantReport renders a single ClinVar record.
func FormatVariantReport(it record.Variant) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# ClinVar Variant Report: %s\n\n", it.Title)
	fmt.Fprintf(&b, "- **ClinVar ID**: %s\n", it.ID)
	fmt.Fprintf(&b, "- **Accession**: %s\n", it.Accession)
	fmt.Fprintf(&b, "- **Clinical Significance**: %s\n", it.ClinicalSignificance)
	fmt.Fprintf(&b, "- **Last Updated**: %s\n\n", it.LastUpdated)
	fmt.Fprintf(&b, "## Genes\n%s\n\n", joinOr(it.Genes, record.NotAvailable))
	b.WriteString("## Description\nThis variant is listed in the ClinVar database. The clinical significance indicates its relevance to health conditions.")
	return b.String()
}

// FormatLiterature renders linked PubMed summaries.
func FormatLiterature(requested, limit int, papers []record.Article) string {
	lines := []string{fmt.Sprintf("Found %d supporting papers (showing top %d):\n", requested, limit)}
	for _, p := range papers {
		authors := p.Authors
		suffix := ""
		if len(authors) > 3 {
			authors = authors[:3]
			suffix = " et al."
		}
		lines = append(lines, fmt.Sprintf("- **%s**\n  - %s (%s)\n  - Authors: %s%s\n  - PMID: %s\n",
			p.Title, p.Journal, p.PubDate, strings.Join(authors, ", "), suffix, p.ID))
	}
	return strings.Join(lines, "\n")
}

// FormatGeneReport renders an NCBI Gene summary.
func FormatGeneReport(symbol string, g record.Gene) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Gene Report: %s (%s)\n\n", g.Name, symbol)
	fmt.Fprintf(&b, "- **Gene ID**: %s\n", g.ID)
	fmt.Fprintf(&b, "- **Description**: %s\n", g.Description)
	fmt.Fprintf(&b, "- **Location**: %s\n\n", g.MapLocation)
	fmt.Fprintf(&b, "## Summary\n%s\n\n", g.Summary)
	fmt.Fprintf(&b, "## Aliases\n%s", g.OtherAliases)
	return strings.TrimSpace(b.String())
}

// FormatGenomicContext renders an exon/intron classification.
func FormatGenomicContext(gc evidence.GenomicContext) string {
	return fmt.Sprintf("# Genomic Context: %s\n- **Reference Sequence**: %s\n- **Query Position**: %d\n- **Identified Region**: **%s**\n\n*Note: Mapping is based on RefSeq %s feature table.*",
		gc.Gene, gc.Accession, gc.Position, gc.Region, gc.Accession)
}

// FormatRelatedGenes renders a gene ranking.
func FormatRelatedGenes(phenotype string, scores []record.GeneScore) string {
	lines := []string{
		fmt.Sprintf("# Genes associated with '%s'", phenotype),
		"(Ranked by variant frequency in top search results)",
	}
	for _, s := range scores {
		lines = append(lines, fmt.Sprintf("- **%s**: %d variants", s.Symbol, s.Frequency))
	}
	return strings.Join(lines, "\n")
}

// FormatDiscovery renders aggregated literature evidence.
func FormatDiscovery(d evidence.Discovery) string {
	lines := []string{
		"# Research Evidence: " + d.Phenotype,
		"Top Candidate Genes: " + strings.Join(d.Symbols(), ", "),
	}
	for _, g := range d.Genes {
		lines = append(lines, fmt.Sprintf("\n## Gene: %s (%d variants)", g.Symbol, g.Frequency))
		if !g.Resolved {
			continue
		}
		if len(g.Articles) == 0 {
			lines = append(lines, "- No direct PubMed links found in NCBI Gene.")
			continue
		}
		for _, p := range g.Articles {
			lines = append(lines,
				fmt.Sprintf("- **%s** (%s)", p.Title, p.PubDate),
				"  *Journal*: "+p.Journal,
				"  *PMID*: "+p.ID,
				"  *Abstract*: "+p.Abstract,
			)
		}
	}
	return strings.Join(lines, "\n")
}

// FormatFrequency renders a gnomAD frequency entry.
func FormatFrequency(variant string, f record.Frequency) string {
	return fmt.Sprintf("# Population Frequency (gnomAD)\n- **Variant**: %s\n- **Source**: %s\n- **Allele Frequency (AF)**: %.6f\n- **Allele Count (AC)**: %d\n- **Total Number (AN)**: %d",
		variant, f.Source, f.AF, f.AC, f.AN)
}

// FormatPathways renders up to ten pathways and a remainder count.
func FormatPathways(symbol string, ps []record.Pathway) string {
	lines := []string{"# Biological Pathways: " + symbol, ""}
	for i, p := range ps {
		if i == pathwayListLimit {
			break
		}
		lines = append(lines, fmt.Sprintf("- **%s** (ID: %s)", p.Name, p.ID))
	}
	if len(ps) > pathwayListLimit {
		lines = append(lines, fmt.Sprintf("\n... and %d more.", len(ps)-pathwayListLimit))
	}
	return strings.Join(lines, "\n")
}

// FormatResearchDescription renders the data description handed to an
// external research report generator.
func FormatResearchDescription(rd evidence.ResearchData) string {
	var genes strings.Builder
	for i, g := range rd.Genes {
		if i == 10 {
			break
		}
		fmt.Fprintf(&genes, "- %s: %d variants\n", g.Symbol, g.Frequency)
	}
	var paths strings.Builder
	for i, p := range rd.Pathways {
		if i == 5 {
			break
		}
		fmt.Fprintf(&paths, "- %s\n", p.Name)
	}
	geneList := genes.String()
	if geneList == "" {
		geneList = "No genes discovered yet."
	}
	pathList := paths.String()
	if pathList == "" {
		pathList = "No pathway data available."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "# Genomics Research Data: %s\n\n", rd.Phenotype)
	b.WriteString("## Data Sources\n")
	b.WriteString("- ClinVar: Clinical variant database\n")
	b.WriteString("- gnomAD: Population allele frequencies\n")
	b.WriteString("- Reactome: Biological pathways\n")
	b.WriteString("- PubMed: Scientific literature\n\n")
	b.WriteString("## Available Tools\n")
	b.WriteString("Use the following GenomeMCP functions for analysis:\n")
	b.WriteString("- `search_clinvar(term)` - Query clinical variants\n")
	b.WriteString("- `get_variant_report(id)` - Detailed variant info\n")
	b.WriteString("- `get_gene_info(symbol)` - Gene annotations\n")
	b.WriteString("- `get_population_stats(variant)` - gnomAD frequencies\n")
	b.WriteString("- `get_pathway_info(gene)` - Reactome pathways\n")
	b.WriteString("- `find_related_genes(phenotype)` - Gene discovery\n\n")
	fmt.Fprintf(&b, "## Discovered Genes\n%s\n", geneList)
	fmt.Fprintf(&b, "## ClinVar Variants\nFound %d variants associated with %s.\n\n", len(rd.Variants), rd.Phenotype)
	fmt.Fprintf(&b, "## Biological Pathways\n%s\n", pathList)
	fmt.Fprintf(&b, "## Research Focus\nAnalyze the gene-phenotype relationships and variant pathogenicity\nfor %s using the genomics data above.\n", rd.Phenotype)
	return b.String()
}
