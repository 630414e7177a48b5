package fetcher

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// document is what the link extractor pulls out of an HTML page.
type document struct {
	// title is the text of the first <title> element.
	title string

	// hrefs are the raw href attribute values of <a> elements in document
	// order. They are neither resolved nor deduplicated: classification and
	// resolution happen in the crawl engine.
	hrefs []string
}

// parseDocument extracts the title and anchor hrefs from HTML content.
// golang.org/x/net/html tolerates malformed markup, so an error here means
// the reader itself failed.
func parseDocument(content io.Reader) (*document, error) {
	root, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	doc := &document{hrefs: make([]string, 0)}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "title":
				if doc.title == "" && n.FirstChild != nil && n.FirstChild.Type == html.TextNode {
					doc.title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "a":
				if href, ok := getAttr(n, "href"); ok {
					doc.hrefs = append(doc.hrefs, href)
				}
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	return doc, nil
}

// getAttr retrieves an attribute value from an HTML node.
func getAttr(n *html.Node, key string) (string, bool) {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// isHTML reports whether a Content-Type header value denotes an HTML document.
// A missing header is treated as HTML, matching browser sniffing for pages.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	ct := strings.ToLower(contentType)
	return strings.Contains(ct, "text/html") || strings.Contains(ct, "application/xhtml")
}
