// Package reactome resolves gene symbols to Reactome reference entities and
// lists the pathways that contain them.
package reactome

import (
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/fetch"
	"github.com/genomemcp/genomemcp/internal/record"
)

// DefaultBaseURL is the Reactome ContentService root.
const DefaultBaseURL = "https://reactome.org/ContentService"

// UniProt is the reference database used for protein entities.
const UniProt = "UniProt"

const (
	highlightOpen  = `<span class="highlighting" >`
	highlightClose = `</span>`
)

// Client talks to the Reactome ContentService.
type Client struct {
	baseURL string
	fetcher *fetch.Fetcher
	logger  *zap.Logger
}

// New creates a client (DefaultBaseURL when baseURL is empty).
func New(f *fetch.Fetcher, baseURL string, logger *zap.Logger) *Client {
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{baseURL: baseURL, fetcher: f, logger: logger}
}

// Entity is a resolved reference entity.
type Entity struct {
	Identifier string
	Database   string
}

type searchEntry struct {
	Name                record.Text `json:"name"`
	ReferenceName       record.Text `json:"referenceName"`
	ReferenceIdentifier record.Text `json:"referenceIdentifier"`
	DatabaseName        record.Text `json:"databaseName"`
}

type searchResponse struct {
	Results []struct {
		Entries []searchEntry `json:"entries"`
	} `json:"results"`
}

func stripHighlight(s string) string {
	return strings.ReplaceAll(strings.ReplaceAll(s, highlightOpen, ""), highlightClose, "")
}

// ResolveEntity searches human proteins for symbol. An exact case-insensitive
// match on name or reference name wins; if none is found, or the match is not
// a UniProt entry, the first UniProt entry is used. The fallback can pick an
// unrelated protein for ambiguous symbols. It returns nil when nothing
// resolves or the search fails.
func (c *Client) ResolveEntity(ctx context.Context, symbol string) (*Entity, error) {
	params := url.Values{
		"query":   {symbol},
		"species": {"Homo sapiens"},
		"types":   {"Protein"},
		"cluster": {"true"},
	}
	out, err := c.fetcher.Get(ctx, c.baseURL+"/search/query", params)
	if err != nil {
		return nil, err
	}
	if !out.OK() {
		c.logger.Debug("reactome search non-success", zap.String("symbol", symbol), zap.Int("status", out.StatusCode))
		return nil, nil
	}
	var resp searchResponse
	if err := out.JSON(&resp); err != nil {
		return nil, &core.UpstreamDataError{Source: "reactome search", Cause: err}
	}
	if len(resp.Results) == 0 || len(resp.Results[0].Entries) == 0 {
		return nil, nil
	}
	return pickEntity(symbol, resp.Results[0].Entries), nil
}

func pickEntity(symbol string, entries []searchEntry) *Entity {
	var match *Entity
	for _, e := range entries {
		name := stripHighlight(e.Name.Value)
		ref := stripHighlight(e.ReferenceName.Value)
		if strings.EqualFold(symbol, name) || strings.EqualFold(symbol, ref) {
			match = &Entity{Identifier: e.ReferenceIdentifier.Value, Database: e.DatabaseName.Value}
			break
		}
	}
	if match == nil || match.Identifier == "" || match.Database != UniProt {
		for _, e := range entries {
			if e.DatabaseName.Value == UniProt {
				match = &Entity{Identifier: e.ReferenceIdentifier.Value, Database: UniProt}
				break
			}
		}
	}
	if match == nil || match.Identifier == "" {
		return nil
	}
	return match
}

type event struct {
	DisplayName record.Text `json:"displayName"`
	StID        record.Text `json:"stId"`
	SchemaClass record.Text `json:"schemaClass"`
	Type        record.Text `json:"type"`
}

// Pathways lists human pathways containing the entity, keeping only events
// whose schemaClass is exactly "Pathway".
func (c *Client) Pathways(ctx context.Context, e Entity) ([]record.Pathway, error) {
	endpoint := c.baseURL + "/data/mapping/" + url.PathEscape(e.Database) + "/" + url.PathEscape(e.Identifier) + "/pathways"
	out, err := c.fetcher.Get(ctx, endpoint, url.Values{"species": {"9606"}})
	if err != nil {
		return nil, err
	}
	if !out.OK() {
		return []record.Pathway{}, nil
	}
	var events []event
	if err := out.JSON(&events); err != nil {
		return nil, &core.UpstreamDataError{Source: "reactome mapping", Cause: err}
	}
	res := make([]record.Pathway, 0, len(events))
	for _, ev := range events {
		if ev.SchemaClass.Value != "Pathway" {
			continue
		}
		res = append(res, record.Pathway{
			Name: ev.DisplayName.Value,
			ID:   ev.StID.Value,
			Type: ev.Type.Or("Pathway"),
		})
	}
	return res, nil
}

// GenePathways resolves symbol and lists its pathways. Any failed hop yields
// an empty result.
func (c *Client) GenePathways(ctx context.Context, symbol string) ([]record.Pathway, error) {
	ent, err := c.ResolveEntity(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if ent == nil {
		return []record.Pathway{}, nil
	}
	return c.Pathways(ctx, *ent)
}
