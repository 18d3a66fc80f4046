package hocr

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// lineClasses are the hOCR classes Tesseract emits for a line of text
var lineClasses = []string{"ocr_line", "ocr_caption", "ocr_header", "ocr_textfloat"}

// singleByteCharsets maps the non UTF-8 charsets seen in hOCR heads to decoders
var singleByteCharsets = map[string]encoding.Encoding{
	"iso-8859-1":   charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
}

// ParseHOCR converts raw hOCR data into a structured HOCR object.
// A bare 'ocr_page' fragment, as returned by the Tesseract API, is accepted
// as well as a complete document.
func ParseHOCR(data []byte) (HOCR, error) {
	result := HOCR{Metadata: make(map[string]string)}

	decoded, err := decodeCharset(data)
	if err != nil {
		return result, err
	}

	doc, err := html.Parse(bytes.NewReader(decoded))
	if err != nil {
		return result, fmt.Errorf("failed to parse hOCR html: %w", err)
	}

	extractDocumentMeta(&result, doc)

	var findPages func(*html.Node)
	findPages = func(n *html.Node) {
		if hasClass(n, "ocr_page") {
			result.Pages = append(result.Pages, processPage(n))
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			findPages(c)
		}
	}
	findPages(doc)

	if len(result.Pages) == 0 {
		return result, fmt.Errorf("no ocr_page elements found in hOCR data")
	}
	return result, nil
}

// decodeCharset converts single byte encoded hOCR to UTF-8
func decodeCharset(data []byte) ([]byte, error) {
	idx := bytes.Index(bytes.ToLower(data), []byte("charset="))
	if idx < 0 {
		return data, nil
	}
	rest := string(data[idx+len("charset="):])
	fields := strings.FieldsFunc(rest, func(r rune) bool {
		return r == '"' || r == ';' || r == '\'' || r == '>' || r == ' ' || r == '/'
	})
	if len(fields) == 0 {
		return data, nil
	}
	enc, ok := singleByteCharsets[strings.ToLower(fields[0])]
	if !ok {
		return data, nil
	}
	decoded, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", fields[0], err)
	}
	return decoded, nil
}

// extractDocumentMeta reads the title, language and ocr-* meta tags
func extractDocumentMeta(result *HOCR, doc *html.Node) {
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "html":
				if lang := getAttrVal(n, "lang"); lang != "" {
					result.Language = lang
				} else if lang := getAttrVal(n, "xml:lang"); lang != "" {
					result.Language = lang
				}
			case "title":
				if n.FirstChild != nil {
					result.Title = strings.TrimSpace(n.FirstChild.Data)
				}
			case "meta":
				name, content := getAttrVal(n, "name"), getAttrVal(n, "content")
				if strings.HasPrefix(name, "ocr-") && content != "" {
					result.Metadata[name] = content
				}
			case "body":
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
}

// processPage extracts page properties and its lines in document order
func processPage(n *html.Node) Page {
	page := Page{ID: getAttrVal(n, "id")}

	title := getAttrVal(n, "title")
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		page.BBox = *bbox
	}
	props := ParseTitle(title)
	if image, ok := props["image"]; ok && len(image) > 0 {
		page.ImageName = strings.Trim(strings.Join(image, " "), `"`)
	}
	if ppageno, ok := props["ppageno"]; ok && len(ppageno) > 0 {
		page.PageNumber, _ = strconv.Atoi(ppageno[0])
	}

	var collect func(*html.Node)
	collect = func(node *html.Node) {
		switch {
		case hasClass(node, lineClasses...):
			page.Lines = append(page.Lines, processLine(node))
			return
		case hasClass(node, "ocrx_word"):
			page.Lines = append(page.Lines, Line{Words: []Word{processWord(node)}})
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collect(c)
	}

	return page
}

// processLine extracts line information and its words
func processLine(n *html.Node) Line {
	line := Line{ID: getAttrVal(n, "id")}

	title := getAttrVal(n, "title")
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		line.BBox = *bbox
	}
	if baseline, ok := ParseTitle(title)["baseline"]; ok && len(baseline) > 0 {
		line.Baseline = strings.Join(baseline, " ")
	}

	var extractWords func(*html.Node)
	extractWords = func(node *html.Node) {
		if hasClass(node, "ocrx_word") {
			line.Words = append(line.Words, processWord(node))
			return
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			extractWords(c)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractWords(c)
	}

	return line
}

// processWord extracts a word's text, box, confidence and language
func processWord(n *html.Node) Word {
	word := Word{
		ID:   getAttrVal(n, "id"),
		Lang: getAttrVal(n, "lang"),
		Text: extractTextContent(n),
	}

	title := getAttrVal(n, "title")
	if bbox := ParseBoundingBoxFromTitle(title); bbox != nil {
		word.BBox = *bbox
	}
	props := ParseTitle(title)
	if conf, ok := props["x_wconf"]; ok && len(conf) > 0 {
		word.Confidence, _ = strconv.ParseFloat(conf[0], 64)
	}

	return word
}
