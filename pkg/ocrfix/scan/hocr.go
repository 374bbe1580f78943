package scan

import (
	"io"
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// ParseHOCR extracts word confidences from an hOCR document. Each
// span.ocrx_word carries "x_wconf N" in its title attribute.
func ParseHOCR(r io.Reader) ([]Record, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	var records []Record
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, "ocrx_word") {
			if conf, ok := wordConfidence(attr(n, "title")); ok {
				if token := strings.TrimSpace(textContent(n)); token != "" {
					records = append(records, Record{Token: token, Confidence: conf})
				}
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return records, nil
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

// wordConfidence reads x_wconf from a title like "bbox 1 2 3 4; x_wconf 87".
func wordConfidence(title string) (float64, bool) {
	for _, part := range strings.Split(title, ";") {
		fields := strings.Fields(part)
		if len(fields) == 2 && fields[0] == "x_wconf" {
			v, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return 0, false
			}
			return v, true
		}
	}
	return 0, false
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}
