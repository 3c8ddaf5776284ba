package entrez

import (
	"context"

	"github.com/genomemcp/genomemcp/internal/record"
)

type geneDoc struct {
	Name         record.Text `json:"name"`
	Description  record.Text `json:"description"`
	Summary      record.Text `json:"summary"`
	MapLocation  record.Text `json:"maplocation"`
	OtherAliases record.Text `json:"otheraliases"`
}

// SearchGene resolves a gene symbol to its top NCBI Gene id. It returns ""
// when nothing matches.
func (c *Client) SearchGene(ctx context.Context, symbol string) (string, error) {
	ids, err := c.search(ctx, "gene", symbol+"[Sym]", 0)
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", nil
	}
	return ids[0], nil
}

// GeneSummary fetches the Gene esummary record for id; nil when absent.
func (c *Client) GeneSummary(ctx context.Context, id string) (*record.Gene, error) {
	docs, err := c.summaryDocs(ctx, "gene", []string{id}, "")
	if err != nil {
		return nil, err
	}
	for _, d := range docs {
		if d.UID != id {
			continue
		}
		var doc geneDoc
		if !c.decode(d, &doc) {
			return nil, nil
		}
		return &record.Gene{
			ID:           id,
			Name:         doc.Name.Or(record.NotAvailable),
			Description:  doc.Description.Or(record.NotAvailable),
			Summary:      doc.Summary.Or(record.NoSummary),
			MapLocation:  doc.MapLocation.Or(record.UnknownLocation),
			OtherAliases: doc.OtherAliases.Or(""),
		}, nil
	}
	return nil, nil
}

// GenePMIDs returns up to maxResults PubMed ids linked to a Gene id.
func (c *Client) GenePMIDs(ctx context.Context, geneID string, maxResults int) ([]string, error) {
	ids, err := c.link(ctx, "gene", "pubmed", geneID)
	if err != nil {
		return nil, err
	}
	if maxResults >= 0 && len(ids) > maxResults {
		ids = ids[:maxResults]
	}
	return ids, nil
}
