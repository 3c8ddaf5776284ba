package entrez

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"

	"github.com/genomemcp/genomemcp/internal/record"
)

type clinvarDoc struct {
	Title                record.Text     `json:"title"`
	Accession            record.Text     `json:"accession_version"`
	UpdateDate           record.Text     `json:"update_date"`
	Genes                json.RawMessage `json:"genes"`
	Germline             json.RawMessage `json:"germline_classification"`
	Oncogenicity         json.RawMessage `json:"oncogenicity_classification"`
	ClinicalImpact       json.RawMessage `json:"clinical_impact_classification"`
	ClinicalSignificance json.RawMessage `json:"clinical_significance"`
}

type geneRef struct {
	Symbol record.Text `json:"symbol"`
}

// SearchClinVar returns up to maxResults ClinVar UIDs matching term.
func (c *Client) SearchClinVar(ctx context.Context, term string, maxResults int) ([]string, error) {
	return c.search(ctx, "clinvar", term, maxResults)
}

// VariantSummaries fetches esummary v2.0 records for the given ClinVar UIDs.
// Records that cannot be decoded are dropped; the rest are returned.
func (c *Client) VariantSummaries(ctx context.Context, ids []string) ([]record.Variant, error) {
	if len(ids) == 0 {
		return []record.Variant{}, nil
	}
	docs, err := c.summaryDocs(ctx, "clinvar", ids, "2.0")
	if err != nil {
		return nil, err
	}
	out := make([]record.Variant, 0, len(docs))
	for _, d := range docs {
		var doc clinvarDoc
		if !c.decode(d, &doc) {
			continue
		}
		out = append(out, record.Variant{
			ID:                   d.UID,
			Title:                doc.Title.Or(record.NotAvailable),
			ClinicalSignificance: clinicalSignificance(doc),
			Genes:                geneSymbols(doc.Genes),
			Accession:            doc.Accession.Or(record.NotAvailable),
			LastUpdated:          doc.UpdateDate.Or(record.NotAvailable),
		})
	}
	return out, nil
}

// LinkedPMIDs returns the PubMed ids linked to a ClinVar UID, deduplicated in
// first-seen order.
func (c *Client) LinkedPMIDs(ctx context.Context, clinvarID string) ([]string, error) {
	ids, err := c.link(ctx, "clinvar", "pubmed", clinvarID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}

// geneSymbols accepts either a list of gene objects or a single object.
func geneSymbols(raw json.RawMessage) []string {
	out := []string{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return out
	}
	var list []json.RawMessage
	switch raw[0] {
	case '[':
		if json.Unmarshal(raw, &list) != nil {
			return out
		}
	case '{':
		list = []json.RawMessage{raw}
	default:
		return out
	}
	for _, item := range list {
		var g geneRef
		if !record.DecodeLenient(item, &g) {
			continue
		}
		if sym := strings.TrimSpace(g.Symbol.Value); sym != "" {
			out = append(out, sym)
		}
	}
	return out
}

// clinicalSignificance prefers the v2.0 classification objects, then the
// legacy clinical_significance field.
func clinicalSignificance(doc clinvarDoc) string {
	for _, raw := range []json.RawMessage{doc.Germline, doc.Oncogenicity, doc.ClinicalImpact} {
		var d record.Described
		if record.DecodeLenient(raw, &d) && d.Description.Value != "" {
			return d.Description.Value
		}
	}
	legacy := bytes.TrimSpace(doc.ClinicalSignificance)
	if len(legacy) == 0 || bytes.Equal(legacy, []byte("null")) {
		return record.UnknownSignificance
	}
	var t record.Text
	if json.Unmarshal(legacy, &t) == nil && t.Set {
		return t.Value
	}
	var d record.Described
	if record.DecodeLenient(legacy, &d) && d.Description.Value != "" {
		return d.Description.Value
	}
	return string(legacy)
}
