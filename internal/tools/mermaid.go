package tools

import (
	"fmt"
	"strings"

	"github.com/genomemcp/genomemcp/internal/record"
)

var geneNodeReplacer = strings.NewReplacer(" ", "_", "-", "_")
var pathwayNodeReplacer = strings.NewReplacer("-", "_", ".", "_")

// PathwayDiagram renders a Mermaid "graph TD" block linking the gene node to
// its first ten pathways. Node ids drop the R-HSA- prefix; labels have double
// quotes replaced by single quotes.
func PathwayDiagram(symbol string, ps []record.Pathway) string {
	geneNode := geneNodeReplacer.Replace(symbol)
	lines := []string{"graph TD", fmt.Sprintf("    %s((%s))", geneNode, symbol)}
	for i, p := range ps {
		if i == pathwayListLimit {
			break
		}
		pid := pathwayNodeReplacer.Replace(strings.ReplaceAll(p.ID, "R-HSA-", ""))
		label := strings.ReplaceAll(p.Name, `"`, "'")
		lines = append(lines, fmt.Sprintf(`    %s --> P_%s["%s"]`, geneNode, pid, label))
	}
	return "```mermaid\n" + strings.Join(lines, "\n") + "\n```"
}
