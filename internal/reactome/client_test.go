package reactome

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genomemcp/genomemcp/internal/fetch"
	"github.com/genomemcp/genomemcp/internal/record"
)

func TestPickEntity(t *testing.T) {
	entries := []searchEntry{
		{Name: text(`Tumor <span class="highlighting" >protein</span>`), ReferenceIdentifier: text("X1"), DatabaseName: text("ENSEMBL")},
		{Name: text("other"), ReferenceIdentifier: text("P99999"), DatabaseName: text(UniProt)},
		{Name: text(`<span class="highlighting" >tp53</span>`), ReferenceIdentifier: text("P04637"), DatabaseName: text(UniProt)},
	}
	got := pickEntity("TP53", entries)
	require.NotNil(t, got)
	assert.Equal(t, Entity{Identifier: "P04637", Database: UniProt}, *got)
}

func TestPickEntity_ReferenceName(t *testing.T) {
	entries := []searchEntry{
		{Name: text("Cellular tumor antigen p53"), ReferenceName: text("TP53"), ReferenceIdentifier: text("P04637"), DatabaseName: text(UniProt)},
	}
	got := pickEntity("tp53", entries)
	require.NotNil(t, got)
	assert.Equal(t, "P04637", got.Identifier)
}

func TestPickEntity_FallbackFirstUniProt(t *testing.T) {
	entries := []searchEntry{
		{Name: text("TP53"), ReferenceIdentifier: text("ENSG1"), DatabaseName: text("ENSEMBL")},
		{Name: text("unrelated"), ReferenceIdentifier: text("Q00001"), DatabaseName: text(UniProt)},
	}
	got := pickEntity("TP53", entries)
	require.NotNil(t, got)
	assert.Equal(t, Entity{Identifier: "Q00001", Database: UniProt}, *got)
}

func TestPickEntity_NonUniProtOnly(t *testing.T) {
	entries := []searchEntry{{Name: text("TP53"), ReferenceIdentifier: text("ENSG1"), DatabaseName: text("ENSEMBL")}}
	got := pickEntity("TP53", entries)
	require.NotNil(t, got)
	assert.Equal(t, "ENSEMBL", got.Database)

	assert.Nil(t, pickEntity("TP53", []searchEntry{{Name: text("x"), DatabaseName: text("ENSEMBL")}}))
}

func text(s string) record.Text { return record.Text{Value: s, Set: true} }

func TestGenePathways(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/search/query"):
			assert.Equal(t, "Homo sapiens", r.URL.Query().Get("species"))
			assert.Equal(t, "Protein", r.URL.Query().Get("types"))
			io.WriteString(w, `{"results":[{"entries":[{"name":"TP53","referenceIdentifier":"P04637","databaseName":"UniProt"}]}]}`)
		case r.URL.Path == "/data/mapping/UniProt/P04637/pathways":
			assert.Equal(t, "9606", r.URL.Query().Get("species"))
			io.WriteString(w, `[
			  {"displayName":"Apoptosis","stId":"R-HSA-109581","schemaClass":"Pathway"},
			  {"displayName":"Some reaction","stId":"R-HSA-1","schemaClass":"Reaction"},
			  {"displayName":"TP53 Regulates Transcription","stId":"R-HSA-3700989","schemaClass":"Pathway","type":"TopLevelPathway"}
			]`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	c := New(fetch.New(time.Second, nil), srv.URL, nil)
	got, err := c.GenePathways(context.Background(), "TP53")
	require.NoError(t, err)
	assert.Equal(t, []record.Pathway{
		{Name: "Apoptosis", ID: "R-HSA-109581", Type: "Pathway"},
		{Name: "TP53 Regulates Transcription", ID: "R-HSA-3700989", Type: "TopLevelPathway"},
	}, got)
}

func TestGenePathways_SearchNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := New(fetch.New(time.Second, nil), srv.URL, nil)
	got, err := c.GenePathways(context.Background(), "NOPE")
	require.NoError(t, err)
	assert.Empty(t, got)
}
