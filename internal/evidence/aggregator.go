// Package evidence composes the upstream clients into multi-hop lookups:
// phenotype to ranked genes, gene to literature, gene and position to
// transcript region, gene to pathways.
package evidence

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/genomics"
	"github.com/genomemcp/genomemcp/internal/record"
)

// Defaults for the aggregation policy.
const (
	RankSearchLimit      = 50
	DiscoverySearchLimit = 20
	LiteraturePerGene    = 3
	AbstractBudget       = 500
	Ellipsis             = "..."
)

// VariantSource searches the variant registry.
type VariantSource interface {
	SearchClinVar(ctx context.Context, term string, maxResults int) ([]string, error)
	VariantSummaries(ctx context.Context, ids []string) ([]record.Variant, error)
}

// LiteratureSource resolves genes and fetches linked abstracts.
type LiteratureSource interface {
	SearchGene(ctx context.Context, symbol string) (string, error)
	GenePMIDs(ctx context.Context, geneID string, maxResults int) ([]string, error)
	PubMedAbstracts(ctx context.Context, pmids []string) ([]record.Article, error)
}

// TranscriptSource resolves reference transcripts and their exon tables.
type TranscriptSource interface {
	RefSeqAccession(ctx context.Context, symbol string) (string, error)
	ExonTable(ctx context.Context, accession string) ([]genomics.Range, error)
}

// PathwaySource lists pathways for a gene symbol.
type PathwaySource interface {
	GenePathways(ctx context.Context, symbol string) ([]record.Pathway, error)
}

// Aggregator owns ranking and truncation policy across hops. Sources are
// injected by the caller; none are required until the matching method is used.
type Aggregator struct {
	Variants    VariantSource
	Literature  LiteratureSource
	Transcripts TranscriptSource
	Pathways    PathwaySource
	Logger      *zap.Logger

	// LiteraturePerGene caps linked PMIDs per gene (default 3).
	LiteraturePerGene int
	// AbstractBudget is the rune budget per abstract (default 500).
	AbstractBudget int
}

func (a *Aggregator) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// RankGenes searches the registry for phenotype, summarizes up to
// searchLimit hits and counts gene symbols (uppercased). The result is sorted
// by descending frequency with ties kept in first-seen order.
func (a *Aggregator) RankGenes(ctx context.Context, phenotype string, searchLimit int) ([]record.GeneScore, error) {
	ids, err := a.Variants.SearchClinVar(ctx, phenotype, searchLimit)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []record.GeneScore{}, nil
	}
	summaries, err := a.Variants.VariantSummaries(ctx, ids)
	if err != nil {
		return nil, err
	}
	return CountGenes(summaries), nil
}

// CountGenes tallies gene symbols across variant summaries.
func CountGenes(summaries []record.Variant) []record.GeneScore {
	index := map[string]int{}
	scores := []record.GeneScore{}
	for _, s := range summaries {
		for _, g := range s.Genes {
			sym := strings.ToUpper(strings.TrimSpace(g))
			if sym == "" {
				continue
			}
			if i, ok := index[sym]; ok {
				scores[i].Frequency++
				continue
			}
			index[sym] = len(scores)
			scores = append(scores, record.GeneScore{Symbol: sym, Frequency: 1})
		}
	}
	sort.SliceStable(scores, func(i, j int) bool {
		return scores[i].Frequency > scores[j].Frequency
	})
	return scores
}

// GeneEvidence is the literature gathered for one candidate gene.
type GeneEvidence struct {
	Symbol    string           `json:"gene_symbol"`
	Frequency int              `json:"frequency"`
	GeneID    string           `json:"gene_id,omitempty"`
	Resolved  bool             `json:"resolved"`
	Articles  []record.Article `json:"articles"`
}

// Discovery is the output of GatherDiscoveryEvidence.
type Discovery struct {
	Phenotype  string         `json:"phenotype"`
	Genes      []GeneEvidence `json:"genes"`
	Unresolved []string       `json:"unresolved,omitempty"`
}

// Symbols returns the candidate gene symbols in rank order.
func (d Discovery) Symbols() []string {
	out := make([]string, 0, len(d.Genes))
	for _, g := range d.Genes {
		out = append(out, g.Symbol)
	}
	return out
}

// GatherDiscoveryEvidence ranks genes for phenotype, keeps the top maxGenes
// and fetches truncated abstracts linked to each. Genes whose identifier
// cannot be resolved, or whose literature hop fails, are kept with no
// articles and listed in Unresolved; the aggregation itself only fails when
// ranking fails.
func (a *Aggregator) GatherDiscoveryEvidence(ctx context.Context, phenotype string, maxGenes int) (*Discovery, error) {
	if maxGenes < 0 {
		maxGenes = 0
	}
	ranked, err := a.RankGenes(ctx, phenotype, DiscoverySearchLimit)
	if err != nil {
		return nil, err
	}
	if len(ranked) > maxGenes {
		ranked = ranked[:maxGenes]
	}
	perGene := a.LiteraturePerGene
	if perGene <= 0 {
		perGene = LiteraturePerGene
	}
	budget := a.AbstractBudget
	if budget <= 0 {
		budget = AbstractBudget
	}

	d := &Discovery{Phenotype: phenotype, Genes: make([]GeneEvidence, 0, len(ranked))}
	for _, g := range ranked {
		ev := GeneEvidence{Symbol: g.Symbol, Frequency: g.Frequency, Articles: []record.Article{}}
		articles, geneID, err := a.geneLiterature(ctx, g.Symbol, perGene)
		if err != nil {
			a.logger().Debug("skipping gene", zap.String("gene", g.Symbol), zap.Error(err))
			d.Unresolved = append(d.Unresolved, g.Symbol)
			d.Genes = append(d.Genes, ev)
			continue
		}
		ev.GeneID = geneID
		ev.Resolved = true
		for _, art := range articles {
			art.Abstract = Truncate(art.Abstract, budget)
			ev.Articles = append(ev.Articles, art)
		}
		if len(ev.Articles) > perGene {
			ev.Articles = ev.Articles[:perGene]
		}
		d.Genes = append(d.Genes, ev)
	}
	return d, nil
}

var errNoGeneID = errors.New("no gene id")

func (a *Aggregator) geneLiterature(ctx context.Context, symbol string, limit int) ([]record.Article, string, error) {
	geneID, err := a.Literature.SearchGene(ctx, symbol)
	if err != nil {
		return nil, "", err
	}
	if geneID == "" {
		return nil, "", errNoGeneID
	}
	pmids, err := a.Literature.GenePMIDs(ctx, geneID, limit)
	if err != nil {
		return nil, "", err
	}
	if len(pmids) == 0 {
		return nil, geneID, nil
	}
	articles, err := a.Literature.PubMedAbstracts(ctx, pmids)
	if err != nil {
		return nil, "", err
	}
	return articles, geneID, nil
}

// Truncate cuts s to budget runes and appends Ellipsis when it was longer.
func Truncate(s string, budget int) string {
	if utf8.RuneCountInString(s) <= budget {
		return s
	}
	r := []rune(s)
	return string(r[:budget]) + Ellipsis
}

// Resolution failure hops.
const (
	HopRefSeq       = "refseq"
	HopFeatureTable = "feature_table"
)

// GenomicContext is the result of ClassifyPosition.
type GenomicContext struct {
	Gene      string `json:"gene_symbol"`
	Accession string `json:"accession"`
	Position  int    `json:"position"`
	Region    string `json:"region"`
}

// ClassifyPosition resolves the gene's reference transcript, fetches its exon
// table and classifies position. A missing transcript and a missing exon
// table are reported as distinct *core.ResolutionFailure hops.
func (a *Aggregator) ClassifyPosition(ctx context.Context, symbol string, position int) (*GenomicContext, error) {
	acc, err := a.Transcripts.RefSeqAccession(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if acc == "" {
		return nil, &core.ResolutionFailure{
			Hop:     HopRefSeq,
			Subject: symbol,
			Message: "Could not find a Reference Sequence (mRNA) for gene: " + symbol,
		}
	}
	exons, err := a.Transcripts.ExonTable(ctx, acc)
	if err != nil {
		return nil, err
	}
	if len(exons) == 0 {
		return nil, &core.ResolutionFailure{
			Hop:     HopFeatureTable,
			Subject: acc,
			Message: "Found RefSeq " + acc + " but could not retrieve Exon table.",
		}
	}
	return &GenomicContext{
		Gene:      symbol,
		Accession: acc,
		Position:  position,
		Region:    genomics.Classify(position, exons),
	}, nil
}

// GenePathways lists the pathways containing the gene's protein product.
func (a *Aggregator) GenePathways(ctx context.Context, symbol string) ([]record.Pathway, error) {
	return a.Pathways.GenePathways(ctx, symbol)
}
