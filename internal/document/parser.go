package document

import (
	"sort"
	"strings"
)

// Rule maps a line prefix to a node kind. Counted rules draw the next
// screenshot index.
type Rule struct {
	Delimiter string
	Kind      Kind
	Counted   bool
}

// DefaultRules is the delimiter vocabulary the text generator is prompted with.
var DefaultRules = []Rule{
	{Delimiter: "[TITLE]", Kind: KindTitle},
	{Delimiter: "[SECTION]", Kind: KindSection},
	{Delimiter: "[SUBSECTION]", Kind: KindSubsection},
	{Delimiter: "[STEP]", Kind: KindStep},
	{Delimiter: "[BULLET]", Kind: KindBullet},
	{Delimiter: "[SCREENSHOT]", Kind: KindScreenshot, Counted: true},
}

// Parser turns delimiter-tagged text into nodes, one line at a time.
type Parser struct {
	rules []Rule
}

// NewParser builds a parser from DefaultRules plus extra. An extra rule with
// the same delimiter as a default one replaces it.
func NewParser(extra ...Rule) *Parser {
	byDelim := make(map[string]Rule)
	var order []string
	for _, r := range append(append([]Rule(nil), DefaultRules...), extra...) {
		if _, seen := byDelim[r.Delimiter]; !seen {
			order = append(order, r.Delimiter)
		}
		byDelim[r.Delimiter] = r
	}

	rules := make([]Rule, 0, len(order))
	for _, d := range order {
		rules = append(rules, byDelim[d])
	}
	// Longest delimiter first, so a delimiter that prefixes another never wins.
	sort.SliceStable(rules, func(i, j int) bool {
		return len(rules[i].Delimiter) > len(rules[j].Delimiter)
	})

	return &Parser{rules: rules}
}

// Parse reads text line by line. Blank lines are skipped and lines matching
// no rule become Text nodes verbatim.
func (p *Parser) Parse(text string) []Node {
	var nodes []Node
	counter := 0

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}

		node := Node{Kind: KindText, Text: line}
		for _, r := range p.rules {
			if !strings.HasPrefix(line, r.Delimiter) {
				continue
			}
			node = Node{Kind: r.Kind, Text: strings.TrimSpace(line[len(r.Delimiter):])}
			if r.Counted {
				node.Index = counter
				counter++
			}
			break
		}
		nodes = append(nodes, node)
	}

	return nodes
}

// Parse uses the default rules.
func Parse(text string) []Node {
	return NewParser().Parse(text)
}
