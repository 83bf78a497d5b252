package mentions

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/russross/blackfriday/v2"
	"golang.org/x/net/html"
)

// Renderer turns markdown into HTML.
type Renderer interface {
	Render(markdown string) (string, error)
}

// MarkdownRenderer renders with blackfriday's common extensions.
type MarkdownRenderer struct{}

func (MarkdownRenderer) Render(markdown string) (string, error) {
	out := blackfriday.Run([]byte(markdown), blackfriday.WithExtensions(blackfriday.CommonExtensions))
	return string(out), nil
}

// scanHTML returns the marked tokens found in the text of an HTML document,
// skipping everything inside <code> elements.
func scanHTML(rendered string) ([]Token, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return nil, err
	}
	doc.Find("code").Empty()

	tokens := make([]Token, 0)
	for _, root := range doc.Nodes {
		walkText(root, func(text string) {
			tokens = append(tokens, markedTokens(text)...)
		})
	}
	return tokens, nil
}

func walkText(n *html.Node, visit func(string)) {
	if n.Type == html.TextNode {
		visit(n.Data)
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkText(c, visit)
	}
}
