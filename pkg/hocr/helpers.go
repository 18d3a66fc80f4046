package hocr

import (
	"strconv"
	"strings"

	"golang.org/x/net/html"
)

// Words returns every word of the page in document order
func (p Page) Words() []Word {
	var words []Word
	for _, line := range p.Lines {
		words = append(words, line.Words...)
	}
	return words
}

// Text returns the page text, one line per hOCR line
func (p Page) Text() string {
	var builder strings.Builder
	for _, line := range p.Lines {
		for i, word := range line.Words {
			if i > 0 {
				builder.WriteString(" ")
			}
			builder.WriteString(word.Text)
		}
		builder.WriteString("\n")
	}
	return builder.String()
}

// ParseTitle breaks down an hOCR title attribute into its components
// Example input: "bbox 100 200 300 400; x_wconf 95"
func ParseTitle(title string) map[string][]string {
	result := make(map[string][]string)
	for _, part := range strings.Split(title, ";") {
		items := strings.Fields(part)
		if len(items) > 0 {
			result[items[0]] = items[1:]
		}
	}
	return result
}

// ParseBoundingBoxFromTitle extracts a bounding box from a title string
// Returns nil if the title carries no complete bbox property
func ParseBoundingBoxFromTitle(title string) *BoundingBox {
	bbox, ok := ParseTitle(title)["bbox"]
	if !ok || len(bbox) < 4 {
		return nil
	}
	var coords [4]float64
	for i := range coords {
		v, err := strconv.ParseFloat(bbox[i], 64)
		if err != nil {
			return nil
		}
		coords[i] = v
	}
	result := NewBoundingBox(coords[0], coords[1], coords[2], coords[3])
	return &result
}

// hasClass reports whether the node's class attribute lists one of classes
func hasClass(n *html.Node, classes ...string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, c := range strings.Fields(getAttrVal(n, "class")) {
		for _, want := range classes {
			if c == want {
				return true
			}
		}
	}
	return false
}

// extractTextContent gets all text from a node and its children
func extractTextContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}

	var text string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		text += extractTextContent(c)
	}
	return strings.TrimSpace(text)
}

// Get the value of a specific attribute from a node
func getAttrVal(n *html.Node, attrName string) string {
	for _, attr := range n.Attr {
		if attr.Key == attrName {
			return attr.Val
		}
	}
	return ""
}
