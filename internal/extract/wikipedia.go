package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/wikilens/wikilens/internal/model"
)

// Reference is one entry of a page's citation list.
type Reference struct {
	Key  string // Footnote number, or a letter key for notes
	Text string // Reference description
	URL  string // First external URL, empty for bare notes
	Note bool   // True when the key is not a plain footnote number
}

// Page is a parsed Wikipedia article: prose paragraphs with inline [n]
// markers preserved, plus the reference list they point into.
type Page struct {
	Title      string
	URL        string
	Paragraphs []model.Paragraph
	References []Reference
}

// WikiClient fetches article HTML from the Wikipedia REST API.
type WikiClient struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
}

// NewWikiClient creates a client for the given wiki (default en.wikipedia.org).
func NewWikiClient(baseURL, userAgent string, timeout time.Duration) *WikiClient {
	if baseURL == "" {
		baseURL = "https://en.wikipedia.org"
	}
	return &WikiClient{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		userAgent:  userAgent,
	}
}

// Page fetches and parses one article by title.
func (c *WikiClient) Page(ctx context.Context, title string) (*Page, error) {
	pageURL := fmt.Sprintf("%s/api/rest_v1/page/html/%s", c.baseURL, url.PathEscape(title))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch page: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch page: status %d for %q", resp.StatusCode, title)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read page: %w", err)
	}

	page, err := ParsePage(string(body), strings.ReplaceAll(title, "_", " "))
	if err != nil {
		return nil, err
	}
	page.URL = pageURL
	return page, nil
}

// droppedSelectors match non-prose containers removed before extracting text.
var droppedClasses = map[string]bool{
	"hatnote": true, "navbox": true, "sidebar": true,
	"infobox": true, "metadata": true, "thumb": true,
}

// ParsePage parses Wikipedia REST HTML into paragraphs and references.
// Inline <sup class="reference"> markers are flattened to their [n] text so
// citation offsets survive into the paragraph string.
func ParsePage(htmlContent, topic string) (*Page, error) {
	doc, err := html.Parse(strings.NewReader(htmlContent))
	if err != nil {
		return nil, fmt.Errorf("parse page html: %w", err)
	}

	page := &Page{Title: topic}
	page.References = collectReferences(doc)

	refByKey := make(map[string]Reference, len(page.References))
	for _, ref := range page.References {
		refByKey[ref.Key] = ref
	}

	index := 0
	walkParagraphs(doc, func(text string) {
		p := model.Paragraph{
			Text:  text,
			Topic: topic,
			Index: index,
		}
		for _, loc := range markerPattern.FindAllStringIndex(text, -1) {
			key := text[loc[0]+1 : loc[1]-1]
			marker := model.CitationMarker{
				Key:   key,
				Start: loc[0],
				End:   loc[1],
			}
			if ref, ok := refByKey[key]; ok {
				marker.URL = ref.URL
				marker.Text = ref.Text
				marker.Note = ref.Note
			}
			p.Citations = append(p.Citations, marker)
		}
		page.Paragraphs = append(page.Paragraphs, p)
		index++
	})

	return page, nil
}

// walkParagraphs visits every prose <p> in document order, skipping dropped
// containers, and calls fn with the flattened text of each.
func walkParagraphs(doc *html.Node, fn func(string)) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "table", "figure", "aside", "style", "script":
				return
			case "div":
				if hasAnyClass(n, droppedClasses) {
					return
				}
			case "p":
				if text := flattenText(n); text != "" {
					fn(text)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

// flattenText renders the visible text of a node. Citation <sup> elements
// contribute their bracket text; runs of whitespace collapse to one space.
func flattenText(n *html.Node) string {
	var buf strings.Builder

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)

	return strings.Join(strings.Fields(buf.String()), " ")
}

var footnoteNumber = regexp.MustCompile(`^\d+$`)

// collectReferences extracts the page's citation list entries.
func collectReferences(doc *html.Node) []Reference {
	var refs []Reference

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "li" {
			if id := attr(n, "id"); strings.HasPrefix(id, "cite_note-") {
				if ref, ok := parseReference(n); ok {
					refs = append(refs, ref)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return refs
}

func parseReference(li *html.Node) (Reference, bool) {
	key := attr(li, "data-mw-footnote-number")
	if key == "" {
		return Reference{}, false
	}

	ref := Reference{
		Key:  key,
		Note: !footnoteNumber.MatchString(key),
	}

	if span := findNode(li, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "span" && hasClass(n, "reference-text")
	}); span != nil {
		ref.Text = flattenText(span)
	} else {
		ref.Text = flattenText(li)
	}

	// Prefer the anchor inside <cite>; fall back to any external anchor.
	scope := findNode(li, func(n *html.Node) bool {
		return n.Type == html.ElementNode && n.Data == "cite"
	})
	if scope == nil {
		scope = li
	}
	ref.URL = firstExternalHref(scope)
	if ref.URL == "" && scope != li {
		ref.URL = firstExternalHref(li)
	}

	return ref, true
}

func firstExternalHref(n *html.Node) string {
	var found string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if found != "" {
			return
		}
		if n.Type == html.ElementNode && n.Data == "a" {
			href := attr(n, "href")
			if strings.HasPrefix(href, "http") && !strings.Contains(href, "wikipedia.org") {
				found = href
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return found
}

func findNode(n *html.Node, predicate func(*html.Node) bool) *html.Node {
	if predicate(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findNode(c, predicate); found != nil {
			return found
		}
	}
	return nil
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

func hasAnyClass(n *html.Node, classes map[string]bool) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if classes[c] {
			return true
		}
	}
	return false
}
