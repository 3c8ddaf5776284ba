// Package genomics classifies transcript positions against exon coordinate
// ranges taken from a RefSeq feature table.
package genomics

import (
	"bufio"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Unknown is returned for positions outside every exon and intron.
const Unknown = "Unknown/Intergenic"

// Range is an inclusive, 1-based coordinate interval.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Classify returns "Exon n" when pos lies inside the n-th range (inclusive),
// "Intron n" when it lies strictly between range n and range n+1, otherwise
// Unknown. exons must be sorted; an empty list always yields Unknown.
func Classify(pos int, exons []Range) string {
	for i, ex := range exons {
		if ex.Start <= pos && pos <= ex.End {
			return fmt.Sprintf("Exon %d", i+1)
		}
		if i > 0 && exons[i-1].End < pos && pos < ex.Start {
			return fmt.Sprintf("Intron %d", i)
		}
	}
	return Unknown
}

// ParseFeatureTable extracts exon ranges from an NCBI five-column feature
// table. Lines whose third field is "exon" contribute a range; unparsable
// coordinates (partial markers like "<1") are skipped. The result is sorted.
// A line too long to scan is an error rather than a truncated table.
func ParseFeatureTable(text string) ([]Range, error) {
	exons := []Range{}
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		f := strings.Fields(sc.Text())
		if len(f) < 3 || f[2] != "exon" {
			continue
		}
		start, err1 := strconv.Atoi(f[0])
		end, err2 := strconv.Atoi(f[1])
		if err1 != nil || err2 != nil {
			continue
		}
		exons = append(exons, Range{Start: start, End: end})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("parse feature table: %w", err)
	}
	sort.Slice(exons, func(i, j int) bool {
		if exons[i].Start != exons[j].Start {
			return exons[i].Start < exons[j].Start
		}
		return exons[i].End < exons[j].End
	})
	return exons, nil
}
