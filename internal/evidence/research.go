package evidence

import (
	"context"

	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/record"
)

// ResearchSearchLimit bounds the ClinVar search used for research data.
const ResearchSearchLimit = 5

// ResearchData is the genomics input gathered for a research project.
type ResearchData struct {
	Phenotype string             `json:"phenotype"`
	Genes     []record.GeneScore `json:"genes"`
	Variants  []record.Variant   `json:"variants"`
	TopGene   string             `json:"top_gene,omitempty"`
	Pathways  []record.Pathway   `json:"pathways"`
}

// GatherResearchData collects ranked genes, matching ClinVar records and the
// pathways of the top gene. Only the gene ranking is required; the variant
// and pathway hops degrade to empty lists.
func (a *Aggregator) GatherResearchData(ctx context.Context, phenotype string) (*ResearchData, error) {
	genes, err := a.RankGenes(ctx, phenotype, RankSearchLimit)
	if err != nil {
		return nil, err
	}
	rd := &ResearchData{Phenotype: phenotype, Genes: genes, Variants: []record.Variant{}, Pathways: []record.Pathway{}}

	ids, err := a.Variants.SearchClinVar(ctx, phenotype, ResearchSearchLimit)
	if err == nil && len(ids) > 0 {
		var vs []record.Variant
		vs, err = a.Variants.VariantSummaries(ctx, ids)
		if err == nil {
			rd.Variants = vs
		}
	}
	if err != nil {
		a.logger().Debug("research variants unavailable", zap.String("phenotype", phenotype), zap.Error(err))
	}

	if len(genes) > 0 && a.Pathways != nil {
		rd.TopGene = genes[0].Symbol
		ps, err := a.Pathways.GenePathways(ctx, rd.TopGene)
		if err != nil {
			a.logger().Debug("research pathways unavailable", zap.String("gene", rd.TopGene), zap.Error(err))
		} else {
			rd.Pathways = ps
		}
	}
	return rd, nil
}
