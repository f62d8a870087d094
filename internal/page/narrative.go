package page

import (
	_ "embed"
	"fmt"
	"html/template"

	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"gopkg.in/yaml.v3"
)

//go:embed narratives.yaml
var narrativesYAML []byte

// Narrative is the prose shown on a page. Text fields are Markdown.
type Narrative struct {
	Title          string `yaml:"title"`
	Intro          string `yaml:"intro"`
	Significant    string `yaml:"significant"`
	NotSignificant string `yaml:"not_significant"`
}

// Narratives is the page prose catalog keyed by page id.
type Narratives map[ID]Narrative

// LoadNarratives parses the embedded catalog and checks every page has a title.
func LoadNarratives() (Narratives, error) {
	return ParseNarratives(narrativesYAML)
}

// ParseNarratives parses a YAML catalog.
func ParseNarratives(data []byte) (Narratives, error) {
	var n Narratives
	if err := yaml.Unmarshal(data, &n); err != nil {
		return nil, fmt.Errorf("failed to parse narratives: %w", err)
	}
	for _, id := range IDs() {
		if n[id].Title == "" {
			return nil, fmt.Errorf("narrative for page %s has no title", id)
		}
	}
	return n, nil
}

// Verdict returns the conclusion text for a test outcome.
func (n Narrative) Verdict(significant bool) string {
	if significant {
		return n.Significant
	}
	return n.NotSignificant
}

// Markdown renders md to HTML. The catalog is trusted, so the output is
// marked safe for templates.
func Markdown(md string) template.HTML {
	if md == "" {
		return ""
	}
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.HardLineBreak)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags})
	return template.HTML(markdown.ToHTML([]byte(md), p, r))
}
