// Package entrez is a narrow client for the NCBI E-utilities endpoints used by
// the assistant: ClinVar, Gene, PubMed and Nucleotide.
package entrez

import (
	"context"
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/fetch"
)

// DefaultBaseURL is the public E-utilities root.
const DefaultBaseURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// Options carries the NCBI etiquette parameters. All are optional; an API key
// raises the NCBI rate limit from 3 to 10 requests per second.
type Options struct {
	BaseURL string
	APIKey  string
	Tool    string
	Email   string
}

// Client talks to E-utilities through a rate-limit-aware fetcher.
type Client struct {
	baseURL string
	opts    Options
	fetcher *fetch.Fetcher
	logger  *zap.Logger
}

// New creates a client. A nil logger is replaced by a no-op logger.
func New(f *fetch.Fetcher, opts Options, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{baseURL: base, opts: opts, fetcher: f, logger: logger}
}

func (c *Client) params(kv ...string) url.Values {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Set(kv[i], kv[i+1])
	}
	if c.opts.APIKey != "" {
		v.Set("api_key", c.opts.APIKey)
	}
	if c.opts.Tool != "" {
		v.Set("tool", c.opts.Tool)
	}
	if c.opts.Email != "" {
		v.Set("email", c.opts.Email)
	}
	return v
}

// get fetches an endpoint and converts any non-2xx final outcome into a
// *core.TransportError.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	out, err := c.fetcher.Get(ctx, c.baseURL+"/"+endpoint, params)
	if err != nil {
		return nil, err
	}
	if err := out.Err(); err != nil {
		return nil, err
	}
	return out.Payload, nil
}

type esearchResponse struct {
	Result *struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// search runs esearch against db and returns the matching UIDs.
func (c *Client) search(ctx context.Context, db, term string, retmax int) ([]string, error) {
	p := c.params("db", db, "term", term, "retmode", "json")
	if retmax > 0 {
		p.Set("retmax", strconv.Itoa(retmax))
	}
	body, err := c.get(ctx, "esearch.fcgi", p)
	if err != nil {
		return nil, err
	}
	var resp esearchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &core.UpstreamDataError{Source: "esearch " + db, Cause: err}
	}
	if resp.Result == nil || resp.Result.IDList == nil {
		return []string{}, nil
	}
	return resp.Result.IDList, nil
}

// summaryDocs runs esummary and returns the per-UID documents in result order.
// The "uids" list fixes the order; when it is absent the requested order is used.
func (c *Client) summaryDocs(ctx context.Context, db string, ids []string, version string) ([]summaryDoc, error) {
	p := c.params("db", db, "id", strings.Join(ids, ","), "retmode", "json")
	if version != "" {
		p.Set("version", version)
	}
	body, err := c.get(ctx, "esummary.fcgi", p)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &core.UpstreamDataError{Source: "esummary " + db, Cause: err}
	}
	if resp.Result == nil {
		return []summaryDoc{}, nil
	}
	order := ids
	if raw, ok := resp.Result["uids"]; ok {
		var uids []string
		if json.Unmarshal(raw, &uids) == nil {
			order = uids
		}
	}
	docs := make([]summaryDoc, 0, len(order))
	for _, uid := range order {
		raw, ok := resp.Result[uid]
		if !ok {
			continue
		}
		docs = append(docs, summaryDoc{UID: uid, Raw: raw})
	}
	return docs, nil
}

type summaryDoc struct {
	UID string
	Raw json.RawMessage
}

// decode unmarshals the document into v; malformed documents are logged and skipped.
func (c *Client) decode(doc summaryDoc, v any) bool {
	if err := json.Unmarshal(doc.Raw, v); err != nil {
		c.logger.Debug("skipping malformed summary", zap.String("uid", doc.UID), zap.Error(err))
		return false
	}
	return true
}

type elinkResponse struct {
	LinkSets []struct {
		LinkSetDBs []struct {
			DBTo  string       `json:"dbto"`
			DB    string       `json:"db"`
			Name  string       `json:"linkname"`
			Links []linkTarget `json:"links"`
		} `json:"linksetdbs"`
	} `json:"linksets"`
}

// linkTarget accepts both string and numeric link ids.
type linkTarget string

func (l *linkTarget) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*l = linkTarget(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*l = linkTarget(n.String())
	return nil
}

// link runs elink from dbfrom to db for a single id and returns linked ids in
// document order.
func (c *Client) link(ctx context.Context, dbfrom, db, id string) ([]string, error) {
	p := c.params("dbfrom", dbfrom, "db", db, "id", id, "retmode", "json")
	body, err := c.get(ctx, "elink.fcgi", p)
	if err != nil {
		return nil, err
	}
	var resp elinkResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &core.UpstreamDataError{Source: "elink " + dbfrom, Cause: err}
	}
	out := []string{}
	for _, ls := range resp.LinkSets {
		for _, dbe := range ls.LinkSetDBs {
			if dbe.DBTo != db && dbe.DB != db {
				continue
			}
			for _, l := range dbe.Links {
				out = append(out, string(l))
			}
		}
	}
	return out, nil
}
