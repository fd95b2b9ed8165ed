package fetch

import (
	"strings"

	"golang.org/x/net/html"
)

// PageText is the normalized, boilerplate-stripped content of a fetched page.
type PageText struct {
	Title     string
	Text      string
	HasAuthor bool
	HasDate   bool
}

// skippedContainers are elements whose text is navigation or chrome, not prose.
var skippedContainers = map[string]bool{
	"script":   true,
	"style":    true,
	"noscript": true,
	"iframe":   true,
	"nav":      true,
	"header":   true,
	"footer":   true,
	"aside":    true,
	"form":     true,
}

// ExtractText parses HTML and returns the visible prose plus the metadata
// signals the quality evaluator consumes.
func ExtractText(htmlContent string) (PageText, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return PageText{}, err
	}

	var page PageText
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if page.Title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					page.Title = strings.TrimSpace(n.FirstChild.Data)
				}
				return
			case "meta":
				inspectMeta(n, &page)
				return
			}
			if skippedContainers[n.Data] {
				return
			}
		}

		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				buf.WriteString(text)
				buf.WriteString(" ")
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	page.Text = strings.Join(strings.Fields(buf.String()), " ")
	return page, nil
}

func inspectMeta(n *html.Node, page *PageText) {
	var key, content string
	for _, attr := range n.Attr {
		switch attr.Key {
		case "name", "property", "itemprop":
			key = strings.ToLower(attr.Val)
		case "content":
			content = strings.TrimSpace(attr.Val)
		}
	}
	if content == "" {
		return
	}
	if strings.Contains(key, "author") || strings.Contains(key, "byline") {
		page.HasAuthor = true
	}
	if strings.Contains(key, "published_time") || strings.Contains(key, "publishdate") ||
		strings.Contains(key, "pubdate") || key == "date" || key == "article:modified_time" ||
		strings.Contains(key, "datepublished") {
		page.HasDate = true
	}
}
