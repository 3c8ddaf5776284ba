package entrez

import (
	"bytes"
	"context"
	"encoding/xml"
	"strings"

	"github.com/genomemcp/genomemcp/internal/core"
	"github.com/genomemcp/genomemcp/internal/record"
)

type pubmedDoc struct {
	Title   record.Text `json:"title"`
	Source  record.Text `json:"source"`
	PubDate record.Text `json:"pubdate"`
	Authors []struct {
		Name record.Text `json:"name"`
	} `json:"authors"`
}

// PubMedSummaries fetches esummary v2.0 records for the given PMIDs.
func (c *Client) PubMedSummaries(ctx context.Context, pmids []string) ([]record.Article, error) {
	if len(pmids) == 0 {
		return []record.Article{}, nil
	}
	docs, err := c.summaryDocs(ctx, "pubmed", pmids, "2.0")
	if err != nil {
		return nil, err
	}
	out := make([]record.Article, 0, len(docs))
	for _, d := range docs {
		var doc pubmedDoc
		if !c.decode(d, &doc) {
			continue
		}
		authors := make([]string, 0, len(doc.Authors))
		for _, a := range doc.Authors {
			authors = append(authors, a.Name.Value)
		}
		out = append(out, record.Article{
			ID:      d.UID,
			Title:   doc.Title.Or(record.NotAvailable),
			Journal: doc.Source.Or(record.NotAvailable),
			PubDate: doc.PubDate.Or(record.NotAvailable),
			Authors: authors,
		})
	}
	return out, nil
}

// PubMedAbstracts fetches full PubMed records as XML and extracts abstracts.
// Structured abstracts are joined in document order as "Label: text" lines.
func (c *Client) PubMedAbstracts(ctx context.Context, pmids []string) ([]record.Article, error) {
	if len(pmids) == 0 {
		return []record.Article{}, nil
	}
	p := c.params("db", "pubmed", "id", strings.Join(pmids, ","), "retmode", "xml")
	body, err := c.get(ctx, "efetch.fcgi", p)
	if err != nil {
		return nil, err
	}
	return ParseArticleSet(body)
}

type articleSet struct {
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	PMID    string `xml:"MedlineCitation>PMID"`
	Article struct {
		Title   mixedText `xml:"ArticleTitle"`
		Journal struct {
			Title   *string `xml:"Title"`
			PubDate struct {
				Year        string `xml:"Year"`
				Month       string `xml:"Month"`
				MedlineDate string `xml:"MedlineDate"`
			} `xml:"JournalIssue>PubDate"`
		} `xml:"Journal"`
		Abstract []abstractText `xml:"Abstract>AbstractText"`
	} `xml:"MedlineCitation>Article"`
}

// ParseArticleSet decodes a PubmedArticleSet document.
func ParseArticleSet(body []byte) ([]record.Article, error) {
	var set articleSet
	if err := xml.NewDecoder(bytes.NewReader(body)).Decode(&set); err != nil {
		return nil, &core.UpstreamDataError{Source: "efetch pubmed", Cause: err}
	}
	out := make([]record.Article, 0, len(set.Articles))
	for _, pa := range set.Articles {
		a := pa.Article
		title := strings.TrimSpace(string(a.Title))
		if title == "" {
			title = record.NotAvailable
		}
		journal := record.NotAvailable
		if a.Journal.Title != nil {
			journal = *a.Journal.Title
		}
		date := strings.TrimSpace(a.Journal.PubDate.Year + " " + a.Journal.PubDate.Month)
		if date == "" {
			date = a.Journal.PubDate.MedlineDate
		}
		out = append(out, record.Article{
			ID:       strings.TrimSpace(pa.PMID),
			Title:    title,
			Journal:  journal,
			PubDate:  date,
			Abstract: joinAbstract(a.Abstract),
		})
	}
	return out, nil
}

func joinAbstract(parts []abstractText) string {
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.Label != "" {
			lines = append(lines, p.Label+": "+p.Text)
		} else {
			lines = append(lines, p.Text)
		}
	}
	text := strings.Join(lines, "\n")
	if text == "" {
		return record.NoAbstract
	}
	return text
}

// mixedText collects all character data beneath an element, flattening inline
// markup such as <i> or <sup>.
type mixedText string

func (m *mixedText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	s, err := collectText(d)
	*m = mixedText(s)
	return err
}

type abstractText struct {
	Label string
	Text  string
}

func (a *abstractText) UnmarshalXML(d *xml.Decoder, start xml.StartElement) error {
	for _, attr := range start.Attr {
		if attr.Name.Local == "Label" {
			a.Label = attr.Value
		}
	}
	s, err := collectText(d)
	a.Text = s
	return err
}

func collectText(d *xml.Decoder) (string, error) {
	var b strings.Builder
	depth := 0
	for {
		tok, err := d.Token()
		if err != nil {
			return b.String(), err
		}
		switch t := tok.(type) {
		case xml.CharData:
			b.Write(t)
		case xml.StartElement:
			depth++
		case xml.EndElement:
			if depth == 0 {
				return b.String(), nil
			}
			depth--
		}
	}
}
