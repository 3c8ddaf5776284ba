// Package gnomad queries the gnomAD GraphQL API for population allele frequencies.
package gnomad

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/fetch"
	"github.com/genomemcp/genomemcp/internal/record"
)

// DefaultURL is the public gnomAD GraphQL endpoint.
const DefaultURL = "https://gnomad.broadinstitute.org/api"

// Genome builds.
const (
	GRCh38 = "GRCh38"
	GRCh37 = "GRCh37"
)

const variantQuery = `
query getVariant($variantId: String!, $datasetId: DatasetId!) {
  variant(variantId: $variantId, dataset: $datasetId) {
    exome { ac an af }
    genome { ac an af }
  }
}`

// Variant identifies an allele as CHROM-POS-REF-ALT.
type Variant struct {
	Chrom string
	Pos   int
	Ref   string
	Alt   string
}

// ID renders the gnomAD variant id with any "chr" prefix removed.
func (v Variant) ID() string {
	return fmt.Sprintf("%s-%d-%s-%s", strings.ReplaceAll(v.Chrom, "chr", ""), v.Pos, v.Ref, v.Alt)
}

// ErrInvalidFormat is returned by ParseVariant when the string does not have
// four dash-separated parts.
var ErrInvalidFormat = errors.New("invalid variant format, expected CHROM-POS-REF-ALT")

// ErrInvalidPosition is returned by ParseVariant when POS is not an integer.
var ErrInvalidPosition = errors.New("invalid position, must be integer")

// ParseVariant parses "1-55516888-G-GA".
func ParseVariant(s string) (Variant, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 4 {
		return Variant{}, ErrInvalidFormat
	}
	pos, err := strconv.Atoi(parts[1])
	if err != nil {
		return Variant{}, ErrInvalidPosition
	}
	return Variant{Chrom: parts[0], Pos: pos, Ref: parts[2], Alt: parts[3]}, nil
}

// DatasetFor maps a genome build to the gnomAD dataset id.
func DatasetFor(build string) string {
	if build == GRCh38 {
		return "gnomad_r3"
	}
	return "gnomad_r2_1"
}

// Client fetches allele frequencies.
type Client struct {
	URL     string
	fetcher *fetch.Fetcher
	logger  *zap.Logger
}

// New creates a client for the given endpoint (DefaultURL when empty).
func New(f *fetch.Fetcher, endpoint string, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{URL: endpoint, fetcher: f, logger: logger}
}

type counts struct {
	AC record.Int   `json:"ac"`
	AN record.Int   `json:"an"`
	AF record.Float `json:"af"`
}

// empty reports an object with none of the count fields present.
func (c *counts) empty() bool {
	return c == nil || (!c.AC.Set && !c.AN.Set && !c.AF.Set)
}

type graphQLResponse struct {
	Data *struct {
		Variant *struct {
			Exome  *counts `json:"exome"`
			Genome *counts `json:"genome"`
		} `json:"variant"`
	} `json:"data"`
	Errors []json.RawMessage `json:"errors"`
}

// Frequency returns the allele frequency for v in the given build, preferring
// genome data over exome data. It returns nil when gnomAD has no record or
// reports a GraphQL error.
func (c *Client) Frequency(ctx context.Context, v Variant, build string) (*record.Frequency, error) {
	body := map[string]any{
		"query": variantQuery,
		"variables": map[string]string{
			"variantId": v.ID(),
			"datasetId": DatasetFor(build),
		},
	}
	out, err := c.fetcher.PostJSON(ctx, c.URL, body)
	if err != nil {
		return nil, err
	}
	if err := out.Err(); err != nil {
		return nil, err
	}
	var resp graphQLResponse
	if err := out.JSON(&resp); err != nil {
		return nil, &core.UpstreamDataError{Source: "gnomad", Cause: err}
	}
	if len(resp.Errors) > 0 {
		c.logger.Debug("gnomad returned errors", zap.String("variant", v.ID()), zap.Int("errors", len(resp.Errors)))
		return nil, nil
	}
	if resp.Data == nil || resp.Data.Variant == nil {
		return nil, nil
	}
	src, cnt := "genome", resp.Data.Variant.Genome
	if cnt.empty() {
		src, cnt = "exome", resp.Data.Variant.Exome
	}
	if cnt.empty() {
		return nil, nil
	}
	return &record.Frequency{Source: src, AF: cnt.AF.Value, AC: cnt.AC.Value, AN: cnt.AN.Value}, nil
}
