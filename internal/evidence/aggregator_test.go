package evidence

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/go-cmp/cmp"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/genomics"
	"github.com/genomemcp/genomemcp/internal/record"
)

type fakeVariants struct {
	ids       []string
	summaries []record.Variant
	err       error
	gotLimit  int
}

func (f *fakeVariants) SearchClinVar(_ context.Context, _ string, max int) ([]string, error) {
	f.gotLimit = max
	return f.ids, f.err
}

func (f *fakeVariants) VariantSummaries(context.Context, []string) ([]record.Variant, error) {
	return f.summaries, nil
}

type fakeLiterature struct {
	geneIDs  map[string]string
	pmids    map[string][]string
	failGene map[string]bool
	articles map[string]record.Article
}

func (f *fakeLiterature) SearchGene(_ context.Context, sym string) (string, error) {
	if f.failGene[sym] {
		return "", &core.TransportError{URL: "esearch", StatusCode: 500}
	}
	return f.geneIDs[sym], nil
}

func (f *fakeLiterature) GenePMIDs(_ context.Context, id string, max int) ([]string, error) {
	p := f.pmids[id]
	if len(p) > max {
		p = p[:max]
	}
	return p, nil
}

func (f *fakeLiterature) PubMedAbstracts(_ context.Context, pmids []string) ([]record.Article, error) {
	out := []record.Article{}
	for _, id := range pmids {
		out = append(out, f.articles[id])
	}
	return out, nil
}

func variants(genes ...[]string) []record.Variant {
	out := make([]record.Variant, len(genes))
	for i, g := range genes {
		out[i] = record.Variant{ID: string(rune('a' + i)), Genes: g}
	}
	return out
}

func TestCountGenes(t *testing.T) {
	got := CountGenes(variants(
		[]string{"brca1"},
		[]string{"TP53", "BRCA1"},
		[]string{"MLH1", ""},
		[]string{"tp53"},
		[]string{"MSH2"},
		nil,
	))
	want := []record.GeneScore{
		{Symbol: "BRCA1", Frequency: 2},
		{Symbol: "TP53", Frequency: 2},
		{Symbol: "MLH1", Frequency: 1},
		{Symbol: "MSH2", Frequency: 1},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CountGenes (-want +got):\n%s", diff)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Frequency > got[i-1].Frequency {
			t.Fatalf("not sorted: %v", got)
		}
	}
}

func TestRankGenes_NoHits(t *testing.T) {
	a := &Aggregator{Variants: &fakeVariants{}}
	got, err := a.RankGenes(context.Background(), "nothing", 50)
	if err != nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
}

func TestRankGenes_SearchError(t *testing.T) {
	a := &Aggregator{Variants: &fakeVariants{err: errors.New("boom")}}
	if _, err := a.RankGenes(context.Background(), "x", 50); err == nil {
		t.Fatal("expected error")
	}
}

func newDiscoveryAggregator() (*Aggregator, *fakeVariants) {
	long := strings.Repeat("é", 600)
	fv := &fakeVariants{
		ids: []string{"1", "2", "3", "4"},
		summaries: variants(
			[]string{"MLH1"}, []string{"MLH1", "MSH2"}, []string{"MSH2", "PMS2"}, []string{"MLH1"},
		),
	}
	fl := &fakeLiterature{
		geneIDs:  map[string]string{"MLH1": "4292", "PMS2": "5395"},
		failGene: map[string]bool{"MSH2": true},
		pmids:    map[string][]string{"4292": {"p1", "p2", "p3", "p4"}},
		articles: map[string]record.Article{
			"p1": {ID: "p1", Abstract: long},
			"p2": {ID: "p2", Abstract: "short"},
			"p3": {ID: "p3", Abstract: record.NoAbstract},
		},
	}
	return &Aggregator{Variants: fv, Literature: fl}, fv
}

func TestGatherDiscoveryEvidence(t *testing.T) {
	a, fv := newDiscoveryAggregator()
	d, err := a.GatherDiscoveryEvidence(context.Background(), "Lynch syndrome", 3)
	if err != nil {
		t.Fatalf("GatherDiscoveryEvidence: %v", err)
	}
	if fv.gotLimit != DiscoverySearchLimit {
		t.Errorf("search limit = %d", fv.gotLimit)
	}
	if diff := cmp.Diff([]string{"MLH1", "MSH2", "PMS2"}, d.Symbols()); diff != "" {
		t.Errorf("symbols (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"MSH2"}, d.Unresolved); diff != "" {
		t.Errorf("unresolved (-want +got):\n%s", diff)
	}
	mlh1 := d.Genes[0]
	if !mlh1.Resolved || mlh1.GeneID != "4292" || len(mlh1.Articles) != LiteraturePerGene {
		t.Fatalf("MLH1 = %+v", mlh1)
	}
	first := mlh1.Articles[0].Abstract
	if !strings.HasSuffix(first, Ellipsis) || utf8.RuneCountInString(first) != AbstractBudget+len(Ellipsis) {
		t.Errorf("abstract not truncated: %d runes", utf8.RuneCountInString(first))
	}
	if mlh1.Articles[1].Abstract != "short" {
		t.Errorf("short abstract changed: %q", mlh1.Articles[1].Abstract)
	}
	if d.Genes[1].Resolved || len(d.Genes[1].Articles) != 0 {
		t.Errorf("MSH2 = %+v", d.Genes[1])
	}
	if !d.Genes[2].Resolved || len(d.Genes[2].Articles) != 0 {
		t.Errorf("PMS2 = %+v", d.Genes[2])
	}
}

func TestGatherDiscoveryEvidence_Bounds(t *testing.T) {
	for _, max := range []int{-1, 0, 1, 2, 10} {
		a, _ := newDiscoveryAggregator()
		d, err := a.GatherDiscoveryEvidence(context.Background(), "x", max)
		if err != nil {
			t.Fatalf("max=%d: %v", max, err)
		}
		limit := max
		if limit < 0 {
			limit = 0
		}
		if len(d.Genes) > limit {
			t.Errorf("max=%d: got %d genes", max, len(d.Genes))
		}
		for _, g := range d.Genes {
			if len(g.Articles) > LiteraturePerGene {
				t.Errorf("max=%d: gene %s has %d articles", max, g.Symbol, len(g.Articles))
			}
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("abc", 3); got != "abc" {
		t.Errorf("got %q", got)
	}
	if got := Truncate("abcd", 3); got != "abc..." {
		t.Errorf("got %q", got)
	}
}

type fakeTranscripts struct {
	acc   string
	exons []genomics.Range
}

func (f fakeTranscripts) RefSeqAccession(context.Context, string) (string, error) { return f.acc, nil }
func (f fakeTranscripts) ExonTable(context.Context, string) ([]genomics.Range, error) {
	return f.exons, nil
}

func TestClassifyPosition(t *testing.T) {
	a := &Aggregator{Transcripts: fakeTranscripts{acc: "NM_1.1", exons: []genomics.Range{{Start: 10, End: 20}, {Start: 30, End: 40}}}}
	got, err := a.ClassifyPosition(context.Background(), "G", 25)
	if err != nil {
		t.Fatal(err)
	}
	want := &GenomicContext{Gene: "G", Accession: "NM_1.1", Position: 25, Region: "Intron 1"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestClassifyPosition_DistinctFailures(t *testing.T) {
	cases := []struct {
		name string
		src  fakeTranscripts
		hop  string
		msg  string
	}{
		{"no refseq", fakeTranscripts{}, HopRefSeq, "Could not find a Reference Sequence (mRNA) for gene: G"},
		{"no exons", fakeTranscripts{acc: "NM_2.1"}, HopFeatureTable, "Found RefSeq NM_2.1 but could not retrieve Exon table."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := &Aggregator{Transcripts: tc.src}
			_, err := a.ClassifyPosition(context.Background(), "G", 1)
			var rf *core.ResolutionFailure
			if !errors.As(err, &rf) {
				t.Fatalf("err = %v", err)
			}
			if rf.Hop != tc.hop || rf.Error() != tc.msg {
				t.Errorf("got %+v", rf)
			}
		})
	}
}

type fakePathways struct{ calls []string }

func (f *fakePathways) GenePathways(_ context.Context, sym string) ([]record.Pathway, error) {
	f.calls = append(f.calls, sym)
	return []record.Pathway{{Name: "DNA Repair", ID: "R-HSA-73894", Type: "Pathway"}}, nil
}

func TestGatherResearchData(t *testing.T) {
	fv := &fakeVariants{ids: []string{"1", "2"}, summaries: variants([]string{"MLH1"}, []string{"MLH1", "MSH2"})}
	fp := &fakePathways{}
	a := &Aggregator{Variants: fv, Pathways: fp}
	rd, err := a.GatherResearchData(context.Background(), "Lynch syndrome")
	if err != nil {
		t.Fatal(err)
	}
	if rd.TopGene != "MLH1" || len(rd.Pathways) != 1 || len(rd.Variants) != 2 {
		t.Errorf("research data = %+v", rd)
	}
	if diff := cmp.Diff([]string{"MLH1"}, fp.calls); diff != "" {
		t.Errorf("pathway calls (-want +got):\n%s", diff)
	}
}
