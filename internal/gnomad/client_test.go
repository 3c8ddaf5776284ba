package gnomad

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genomemcp/genomemcp/internal/fetch"
	"github.com/genomemcp/genomemcp/internal/record"
)

func TestParseVariant(t *testing.T) {
	v, err := ParseVariant("chr1-55516888-G-GA")
	require.NoError(t, err)
	assert.Equal(t, Variant{Chrom: "chr1", Pos: 55516888, Ref: "G", Alt: "GA"}, v)
	assert.Equal(t, "1-55516888-G-GA", v.ID())

	_, err = ParseVariant("1-2-3")
	assert.ErrorIs(t, err, ErrInvalidFormat)
	_, err = ParseVariant("1-abc-G-A")
	assert.ErrorIs(t, err, ErrInvalidPosition)
}

func TestDatasetFor(t *testing.T) {
	assert.Equal(t, "gnomad_r3", DatasetFor(GRCh38))
	assert.Equal(t, "gnomad_r2_1", DatasetFor(GRCh37))
	assert.Equal(t, "gnomad_r2_1", DatasetFor(""))
}

func newServer(t *testing.T, body string, captured *map[string]any) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if captured != nil {
			raw, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(raw, captured)
		}
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return New(fetch.New(time.Second, nil), srv.URL, nil)
}

func TestFrequency_PrefersGenome(t *testing.T) {
	var req map[string]any
	c := newServer(t, `{"data":{"variant":{"exome":{"ac":1,"an":10,"af":0.1},"genome":{"ac":3,"an":1000,"af":0.003}}}}`, &req)
	v, _ := ParseVariant("chr1-100-A-T")
	got, err := c.Frequency(context.Background(), v, GRCh38)
	require.NoError(t, err)
	assert.Equal(t, &record.Frequency{Source: "genome", AF: 0.003, AC: 3, AN: 1000}, got)

	vars := req["variables"].(map[string]any)
	assert.Equal(t, "1-100-A-T", vars["variantId"])
	assert.Equal(t, "gnomad_r3", vars["datasetId"])
}

func TestFrequency_ExomeFallback(t *testing.T) {
	c := newServer(t, `{"data":{"variant":{"exome":{"ac":2,"an":20,"af":0.1},"genome":null}}}`, nil)
	got, err := c.Frequency(context.Background(), Variant{Chrom: "2", Pos: 5, Ref: "C", Alt: "G"}, GRCh37)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "exome", got.Source)
	assert.Equal(t, 2, got.AC)
}

func TestFrequency_EmptyGenomeFallsBackToExome(t *testing.T) {
	c := newServer(t, `{"data":{"variant":{"exome":{"ac":4,"an":40,"af":0.1},"genome":{}}}}`, nil)
	got, err := c.Frequency(context.Background(), Variant{Chrom: "2", Pos: 5, Ref: "C", Alt: "G"}, GRCh38)
	require.NoError(t, err)
	assert.Equal(t, &record.Frequency{Source: "exome", AF: 0.1, AC: 4, AN: 40}, got)
}

func TestFrequency_NotFound(t *testing.T) {
	cases := map[string]string{
		"graphql errors": `{"errors":[{"message":"Variant not found"}],"data":{"variant":null}}`,
		"null variant":   `{"data":{"variant":null}}`,
		"no data":        `{"data":{"variant":{"exome":null,"genome":null}}}`,
		"empty objects":  `{"data":{"variant":{"exome":{},"genome":{}}}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			c := newServer(t, body, nil)
			got, err := c.Frequency(context.Background(), Variant{Chrom: "1", Pos: 1, Ref: "A", Alt: "C"}, GRCh38)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}
