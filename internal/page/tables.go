package page

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// PlaceholderDescription is rendered in listing tables when an entity has no
// sidecar description yet.
const PlaceholderDescription = "*No description provided.*"

// row is one listing-table line: a link and an inline one-line description.
type row struct {
	name        string // display name, used for ordering
	link        string // relative link target
	description string
}

func newCollator() *collate.Collator {
	return collate.New(language.English)
}

// sortRows orders listing rows by display name using the collator, with the
// raw name as tie breaker so ordering stays total and deterministic.
func sortRows(c *collate.Collator, rows []row) {
	sort.SliceStable(rows, func(i, j int) bool {
		if cmp := c.CompareString(rows[i].name, rows[j].name); cmp != 0 {
			return cmp < 0
		}
		return rows[i].name < rows[j].name
	})
}

// writeTable renders a two-column listing table under a heading. Empty row
// sets render nothing.
func writeTable(b *strings.Builder, heading string, rows []row) {
	if len(rows) == 0 {
		return
	}
	b.WriteString("## ")
	b.WriteString(heading)
	b.WriteString("\n\n")
	b.WriteString("| Name | Description |\n")
	b.WriteString("| --- | --- |\n")
	for _, r := range rows {
		desc := r.description
		if desc == "" {
			desc = PlaceholderDescription
		}
		b.WriteString("| [")
		b.WriteString(anchorText(r.name))
		b.WriteString("](")
		b.WriteString(r.link)
		b.WriteString(") | ")
		b.WriteString(strings.ReplaceAll(desc, "|", `\|`))
		b.WriteString(" |\n")
	}
	b.WriteString("\n")
}
