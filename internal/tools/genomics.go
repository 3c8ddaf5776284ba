package tools

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/evidence"
	"github.com/genomemcp/genomemcp/internal/gnomad"
	"github.com/genomemcp/genomemcp/internal/record"
)

// Capability names.
const (
	SearchClinVar           = "search_clinvar"
	GetVariantReport        = "get_variant_report"
	GetGeneInfo             = "get_gene_info"
	GetSupportingLiterature = "get_supporting_literature"
	GetPopulationStats      = "get_population_stats"
	GetPathwayInfo          = "get_pathway_info"
	VisualizePathway        = "visualize_pathway"
	FindRelatedGenes        = "find_related_genes"
	GetGenomicContext       = "get_genomic_context"
	GetDiscoveryEvidence    = "get_discovery_evidence"
)

// ClinVarSource is the subset of the E-utilities client the handlers use.
type ClinVarSource interface {
	SearchClinVar(ctx context.Context, term string, maxResults int) ([]string, error)
	VariantSummaries(ctx context.Context, ids []string) ([]record.Variant, error)
	LinkedPMIDs(ctx context.Context, clinvarID string) ([]string, error)
	PubMedSummaries(ctx context.Context, pmids []string) ([]record.Article, error)
	SearchGene(ctx context.Context, symbol string) (string, error)
	GeneSummary(ctx context.Context, id string) (*record.Gene, error)
}

// PopulationSource looks up allele frequencies.
type PopulationSource interface {
	Frequency(ctx context.Context, v gnomad.Variant, build string) (*record.Frequency, error)
}

// EvidenceSource is the multi-hop aggregator.
type EvidenceSource interface {
	RankGenes(ctx context.Context, phenotype string, searchLimit int) ([]record.GeneScore, error)
	GatherDiscoveryEvidence(ctx context.Context, phenotype string, maxGenes int) (*evidence.Discovery, error)
	ClassifyPosition(ctx context.Context, symbol string, position int) (*evidence.GenomicContext, error)
	GenePathways(ctx context.Context, symbol string) ([]record.Pathway, error)
}

// Deps are the collaborators of the genomics capabilities.
type Deps struct {
	ClinVar    ClinVarSource
	Population PopulationSource
	Evidence   EvidenceSource
	// GenomeBuild selects the gnomAD dataset (default GRCh38).
	GenomeBuild string
	Logger      *zap.Logger
}

const clinvarSearchLimit = 5

func str(name, desc string) core.ParamSpec {
	return core.ParamSpec{Name: name, Type: core.TypeString, Description: desc, Required: true}
}

// Specs returns the genomics capability specs in their canonical order.
func Specs() []core.CapabilitySpec {
	return []core.CapabilitySpec{
		{
			Name:        SearchClinVar,
			Description: "Search ClinVar for genes, variants, or diseases. Returns clinical variant interpretations.",
			Params:      []core.ParamSpec{str("term", "Search term: gene symbol (BRCA1), variant, or disease name (Lynch Syndrome)")},
		},
		{
			Name:        GetVariantReport,
			Description: "Get detailed clinical report for a specific ClinVar variant ID.",
			Params:      []core.ParamSpec{str("variant_id", "ClinVar Variation ID (e.g., '12345')")},
		},
		{
			Name:        GetGeneInfo,
			Description: "Get gene information from NCBI Gene: function, location, and aliases.",
			Params:      []core.ParamSpec{str("gene_symbol", "Gene symbol (e.g., 'TP53', 'BRCA1')")},
		},
		{
			Name:        GetSupportingLiterature,
			Description: "Get PubMed articles linked to a ClinVar variant.",
			Params: []core.ParamSpec{
				str("variant_id", "ClinVar Variation ID"),
				{Name: "max_results", Type: core.TypeInteger, Description: "Maximum articles to return (default: 5)", Default: 5},
			},
		},
		{
			Name:        GetPopulationStats,
			Description: "Get gnomAD population allele frequencies for a variant.",
			Params:      []core.ParamSpec{str("variant_str", "Variant in CHROM-POS-REF-ALT format (e.g., '1-55516888-G-GA')")},
		},
		{
			Name:        GetPathwayInfo,
			Description: "Get Reactome biological pathways for a gene.",
			Params:      []core.ParamSpec{str("gene_symbol", "Gene symbol (e.g., 'TP53')")},
		},
		{
			Name:        VisualizePathway,
			Description: "Generate Mermaid.js diagram of gene pathways.",
			Params:      []core.ParamSpec{str("gene_symbol", "Gene symbol (e.g., 'TP53')")},
		},
		{
			Name:        FindRelatedGenes,
			Description: "Discover genes associated with a disease or phenotype.",
			Params:      []core.ParamSpec{str("phenotype_or_disease", "Disease name (e.g., 'Lynch Syndrome', 'Cardiomyopathy')")},
		},
		{
			Name:        GetGenomicContext,
			Description: "Identify if a position is in an Exon or Intron region.",
			Params: []core.ParamSpec{
				str("gene_symbol", "Gene symbol"),
				{Name: "position", Type: core.TypeInteger, Description: "Genomic position (cDNA)", Required: true},
			},
		},
		{
			Name:        GetDiscoveryEvidence,
			Description: "Aggregate PubMed abstracts for genes related to a phenotype. Useful for AI synthesis.",
			Params: []core.ParamSpec{
				str("phenotype", "Disease/phenotype name"),
				{Name: "max_genes", Type: core.TypeInteger, Description: "Number of top genes to analyze (default: 3)", Default: 3},
			},
		},
	}
}

// Genomics pairs every spec with its handler.
func Genomics(d Deps) []Capability {
	h := &handlers{Deps: d}
	if h.GenomeBuild == "" {
		h.GenomeBuild = gnomad.GRCh38
	}
	table := map[string]Handler{
		SearchClinVar:           h.searchClinVar,
		GetVariantReport:        h.variantReport,
		GetGeneInfo:             h.geneInfo,
		GetSupportingLiterature: h.supportingLiterature,
		GetPopulationStats:      h.populationStats,
		GetPathwayInfo:          h.pathwayInfo,
		VisualizePathway:        h.visualizePathway,
		FindRelatedGenes:        h.relatedGenes,
		GetGenomicContext:       h.genomicContext,
		GetDiscoveryEvidence:    h.discoveryEvidence,
	}
	specs := Specs()
	out := make([]Capability, 0, len(specs))
	for _, s := range specs {
		out = append(out, Capability{Spec: s, Handler: table[s.Name]})
	}
	return out
}

// NewGenomicsRegistry builds the registry of all genomics capabilities.
func NewGenomicsRegistry(d Deps) (*Registry, error) {
	return NewRegistry(d.Logger, Genomics(d)...)
}

type handlers struct {
	Deps
}

func (h *handlers) searchClinVar(ctx context.Context, a Args) (any, error) {
	term := a.String("term")
	ids, err := h.ClinVar.SearchClinVar(ctx, term, clinvarSearchLimit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return fmt.Sprintf("No results found in ClinVar for term: '%s'", term), nil
	}
	items, err := h.ClinVar.VariantSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return fmt.Sprintf("Found IDs %v, but failed to retrieve details.", ids), nil
	}
	return FormatVariantList(term, items), nil
}

func (h *handlers) variantReport(ctx context.Context, a Args) (any, error) {
	id := a.String("variant_id")
	items, err := h.ClinVar.VariantSummaries(ctx, []string{id})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return "No details found for Variant ID: " + id, nil
	}
	return FormatVariantReport(items[0]), nil
}

func (h *handlers) geneInfo(ctx context.Context, a Args) (any, error) {
	sym := a.String("gene_symbol")
	id, err := h.ClinVar.SearchGene(ctx, sym)
	if err != nil {
		return nil, err
	}
	if id == "" {
		return "Could not find Gene ID for symbol: " + sym, nil
	}
	g, err := h.ClinVar.GeneSummary(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return fmt.Sprintf("Found Gene ID %s for '%s' but failed to retrieve details.", id, sym), nil
	}
	return FormatGeneReport(sym, *g), nil
}

func (h *handlers) supportingLiterature(ctx context.Context, a Args) (any, error) {
	id := a.String("variant_id")
	limit := a.Int("max_results")
	if limit < 0 {
		limit = 0
	}
	pmids, err := h.ClinVar.LinkedPMIDs(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(pmids) == 0 {
		return "No directly linked PubMed articles found for ClinVar ID: " + id, nil
	}
	if len(pmids) > limit {
		pmids = pmids[:limit]
	}
	papers, err := h.ClinVar.PubMedSummaries(ctx, pmids)
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return fmt.Sprintf("Found PMIDs %v but failed to retrieve details.", pmids), nil
	}
	return FormatLiterature(len(pmids), limit, papers), nil
}

func (h *handlers) populationStats(ctx context.Context, a Args) (any, error) {
	raw := a.String("variant_str")
	v, err := gnomad.ParseVariant(raw)
	switch {
	case errors.Is(err, gnomad.ErrInvalidFormat):
		return "Invalid variant format. Expected: CHROM-POS-REF-ALT (e.g., '1-55516888-G-GA')", nil
	case errors.Is(err, gnomad.ErrInvalidPosition):
		return "Invalid Position (must be integer).", nil
	case err != nil:
		return nil, err
	}
	f, err := h.Population.Frequency(ctx, v, h.GenomeBuild)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return fmt.Sprintf("No gnomAD data found for variant: %s (or API error).", raw), nil
	}
	return FormatFrequency(raw, *f), nil
}

func (h *handlers) pathwayInfo(ctx context.Context, a Args) (any, error) {
	sym := a.String("gene_symbol")
	ps, err := h.Evidence.GenePathways(ctx, sym)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return fmt.Sprintf("No pathways found for gene '%s' (or API connection failed).", sym), nil
	}
	return FormatPathways(sym, ps), nil
}

func (h *handlers) visualizePathway(ctx context.Context, a Args) (any, error) {
	sym := a.String("gene_symbol")
	ps, err := h.Evidence.GenePathways(ctx, sym)
	if err != nil {
		return nil, err
	}
	if len(ps) == 0 {
		return fmt.Sprintf("No pathways found for %s.", sym), nil
	}
	return PathwayDiagram(sym, ps), nil
}

func (h *handlers) relatedGenes(ctx context.Context, a Args) (any, error) {
	ph := a.String("phenotype_or_disease")
	scores, err := h.Evidence.RankGenes(ctx, ph, evidence.RankSearchLimit)
	if err != nil {
		return nil, err
	}
	if len(scores) == 0 {
		return fmt.Sprintf("No genes found associated with phenotype '%s' in the top %d ClinVar hits.", ph, evidence.RankSearchLimit), nil
	}
	return FormatRelatedGenes(ph, scores), nil
}

func (h *handlers) genomicContext(ctx context.Context, a Args) (any, error) {
	gc, err := h.Evidence.ClassifyPosition(ctx, a.String("gene_symbol"), a.Int("position"))
	var rf *core.ResolutionFailure
	if errors.As(err, &rf) {
		return rf.Message, nil
	}
	if err != nil {
		return nil, err
	}
	return FormatGenomicContext(*gc), nil
}

func (h *handlers) discoveryEvidence(ctx context.Context, a Args) (any, error) {
	ph := a.String("phenotype")
	d, err := h.Evidence.GatherDiscoveryEvidence(ctx, ph, a.Int("max_genes"))
	if err != nil {
		return nil, err
	}
	if len(d.Genes) == 0 {
		return fmt.Sprintf("No genes found for %s.", ph), nil
	}
	return FormatDiscovery(*d), nil
}
