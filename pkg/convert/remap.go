package convert

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/gardar/laydoc/pkg/coco"
	"github.com/gardar/laydoc/pkg/docsynth"
)

// Simplified category ids
const (
	Text   = 0
	Figure = 1
	Table  = 2
)

// SimplifiedCategories returns the three output categories
func SimplifiedCategories() []coco.Category {
	return []coco.Category{
		{ID: Text, Name: "text", Supercategory: ""},
		{ID: Figure, Name: "figure", Supercategory: ""},
		{ID: Table, Name: "table", Supercategory: ""},
	}
}

// Rule assigns Category to every detailed category whose lowercased name
// contains one of Keywords
type Rule struct {
	Keywords []string
	Category int
}

// DefaultRules returns the table rule followed by the figure rule.
// A name matching both, such as "table figure", resolves to table.
func DefaultRules() []Rule {
	return []Rule{
		{Keywords: []string{"table", "catalogue"}, Category: Table},
		{Keywords: []string{"image", "figure", "mugshot", "advertisement", "qr code", "barcode", "blank", "weather forecast", "flag"}, Category: Figure},
	}
}

// Remap maps detailed category ids to simplified ids
type Remap map[int]int

// Lookup returns the simplified id of a detailed id, Text when unknown
func (r Remap) Lookup(detailedID int) int {
	if id, ok := r[detailedID]; ok {
		return id
	}
	return Text
}

// BuildRemap evaluates rules once per detailed category.
// Categories matched by no rule map to Text.
func BuildRemap(categories []docsynth.Category, rules []Rule) Remap {
	lower := cases.Lower(language.Und)
	remap := make(Remap, len(categories))
	for _, c := range categories {
		remap[c.ID] = classify(lower.String(c.Name), rules)
	}
	return remap
}

func classify(name string, rules []Rule) int {
	for _, rule := range rules {
		for _, kw := range rule.Keywords {
			if strings.Contains(name, kw) {
				return rule.Category
			}
		}
	}
	return Text
}
