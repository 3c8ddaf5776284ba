package entrez

import (
	"context"

	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/genomics"
	"github.com/genomemcp/genomemcp/internal/record"
)

// RefSeqAccession resolves a human gene symbol to a reference mRNA
// accession.version (e.g. NM_007294.4). It returns "" when the gene or its
// transcript cannot be found.
func (c *Client) RefSeqAccession(ctx context.Context, symbol string) (string, error) {
	geneIDs, err := c.search(ctx, "gene", symbol+"[Sym] AND human[Organism]", 0)
	if err != nil {
		return "", err
	}
	if len(geneIDs) == 0 {
		return "", nil
	}

	strict := symbol + "[Gene Name] AND RefSeq[Filter] AND biomol_mrna[Prop] AND human[Organism]"
	ids, err := c.search(ctx, "nucleotide", strict, 1)
	if err != nil {
		c.logger.Debug("strict refseq search failed", zap.String("symbol", symbol), zap.Error(err))
	}
	if len(ids) == 0 {
		loose := symbol + "[Gene Name] AND biomol_mrna[Prop] AND human[Organism]"
		ids, err = c.search(ctx, "nucleotide", loose, 1)
		if err != nil {
			return "", err
		}
	}
	if len(ids) == 0 {
		return "", nil
	}
	return c.AccessionFor(ctx, ids[0])
}

type nucleotideDoc struct {
	AccessionVersion record.Text `json:"accessionversion"`
	Caption          record.Text `json:"caption"`
}

// AccessionFor converts a nucleotide UID (GI) into its accession.version,
// falling back to the caption.
func (c *Client) AccessionFor(ctx context.Context, uid string) (string, error) {
	docs, err := c.summaryDocs(ctx, "nucleotide", []string{uid}, "")
	if err != nil {
		return "", err
	}
	for _, d := range docs {
		if d.UID != uid {
			continue
		}
		var doc nucleotideDoc
		if !c.decode(d, &doc) {
			return "", nil
		}
		return doc.AccessionVersion.Or(doc.Caption.Or("")), nil
	}
	return "", nil
}

// ExonTable fetches the feature table for accession and returns its sorted
// exon ranges.
func (c *Client) ExonTable(ctx context.Context, accession string) ([]genomics.Range, error) {
	p := c.params("db", "nucleotide", "id", accession, "rettype", "ft", "retmode", "text")
	body, err := c.get(ctx, "efetch.fcgi", p)
	if err != nil {
		return nil, err
	}
	exons, err := genomics.ParseFeatureTable(string(body))
	if err != nil {
		return nil, &core.UpstreamDataError{Source: "nucleotide", Cause: err}
	}
	return exons, nil
}
