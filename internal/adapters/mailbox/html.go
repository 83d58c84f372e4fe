package mailbox

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLToText returns the text nodes of an HTML document, one per line,
// skipping scripts, styles and whitespace-only nodes
func HTMLToText(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return html
	}
	doc.Find("script, style, head").Remove()

	var lines []string
	collectText(doc.Selection, &lines)
	return strings.Join(lines, "\n")
}

func collectText(sel *goquery.Selection, lines *[]string) {
	sel.Contents().Each(func(_ int, node *goquery.Selection) {
		if goquery.NodeName(node) == "#text" {
			if text := strings.TrimSpace(node.Text()); text != "" {
				*lines = append(*lines, text)
			}
			return
		}
		collectText(node, lines)
	})
}
