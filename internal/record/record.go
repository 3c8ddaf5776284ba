// Package record holds the normalized shapes produced by upstream clients and
// the single place where missing upstream fields are mapped to defaults.
package record

// Sentinels used when an upstream omits a field.
const (
	NotAvailable        = "N/A"
	NoSummary           = "No summary provided."
	UnknownLocation     = "Unknown"
	UnknownSignificance = "Unknown"
	NoAbstract          = "No abstract available."
)

// Variant is a ClinVar record summary.
type Variant struct {
	ID                   string   `json:"id"`
	Title                string   `json:"title"`
	ClinicalSignificance string   `json:"clinical_significance"`
	Genes                []string `json:"gene_names"`
	Accession            string   `json:"accession"`
	LastUpdated          string   `json:"last_updated"`
}

// Gene is an NCBI Gene summary.
type Gene struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Summary      string `json:"summary"`
	MapLocation  string `json:"map_location"`
	OtherAliases string `json:"other_aliases"`
}

// Article is a PubMed entry. Abstract is empty for esummary results and
// always populated (possibly with NoAbstract) for efetch results.
type Article struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Journal  string   `json:"journal"`
	PubDate  string   `json:"pubdate"`
	Authors  []string `json:"authors,omitempty"`
	Abstract string   `json:"abstract,omitempty"`
}

// Pathway is a Reactome pathway containing a queried entity.
type Pathway struct {
	Name string `json:"name"`
	ID   string `json:"id"`
	Type string `json:"type"`
}

// Frequency is a gnomAD allele frequency entry. Source is "genome" or "exome".
type Frequency struct {
	Source string  `json:"source"`
	AF     float64 `json:"af"`
	AC     int     `json:"ac"`
	AN     int     `json:"an"`
}

// GeneScore counts how often a gene symbol (uppercased) appears across a batch
// of variant records.
type GeneScore struct {
	Symbol    string `json:"gene_symbol"`
	Frequency int    `json:"frequency"`
}
