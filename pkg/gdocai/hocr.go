package gdocai

import (
	"fmt"
	"strings"

	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/gardar/asmxl/pkg/hocr"
)

// CreateHOCRPage converts a single Document AI page to an hOCR page.
// Tokens are grouped under the line whose text anchor contains them; tokens
// outside every line are collected in a trailing line so none are lost.
func CreateHOCRPage(page *documentaipb.Document_Page, fullText string, pageNumber int) (hocr.Page, error) {
	if page == nil {
		return hocr.Page{}, fmt.Errorf("page %d: no page in response", pageNumber)
	}
	ocrPage := hocr.Page{
		ID:         fmt.Sprintf("page_%d", pageNumber),
		PageNumber: pageNumber,
	}
	if dim := page.GetDimension(); dim != nil {
		ocrPage.BBox = hocr.NewBoundingBox(0, 0, float64(dim.Width), float64(dim.Height))
	}

	assigned := make(map[int]bool)
	for lidx, line := range page.Lines {
		ocrLine := convertLineFromProto(line, page, fullText, pageNumber, lidx, assigned)
		ocrPage.Lines = append(ocrPage.Lines, ocrLine)
	}

	var stray hocr.Line
	for tidx, token := range page.Tokens {
		if assigned[tidx] {
			continue
		}
		stray.Words = append(stray.Words, convertToken(token, page, fullText, fmt.Sprintf("word_%d_x_%d", pageNumber, tidx)))
	}
	if len(stray.Words) > 0 {
		ocrPage.Lines = append(ocrPage.Lines, stray)
	}

	return ocrPage, nil
}

// getHocrBoundingBox converts Document AI coordinates to hOCR coordinates
// Takes normalized vertices (0-1) and scales them to actual pixel dimensions
func getHocrBoundingBox(layout *documentaipb.Document_Page_Layout, dimension *documentaipb.Document_Page_Dimension) (hocr.BoundingBox, bool) {
	if layout == nil || layout.BoundingPoly == nil || dimension == nil || len(layout.BoundingPoly.NormalizedVertices) < 4 {
		return hocr.BoundingBox{}, false
	}
	vertices := layout.BoundingPoly.NormalizedVertices
	minX := int(vertices[0].X*dimension.Width + 0.5)
	minY := int(vertices[0].Y*dimension.Height + 0.5)
	maxX := int(vertices[2].X*dimension.Width + 0.5)
	maxY := int(vertices[2].Y*dimension.Height + 0.5)
	return hocr.NewBoundingBox(float64(minX), float64(minY), float64(maxX), float64(maxY)), true
}

// isElementInParent reports whether the element's text lies within the parent's
func isElementInParent(elementLayout, parentLayout *documentaipb.Document_Page_Layout) bool {
	if elementLayout == nil || parentLayout == nil ||
		elementLayout.TextAnchor == nil || parentLayout.TextAnchor == nil ||
		len(elementLayout.TextAnchor.TextSegments) == 0 || len(parentLayout.TextAnchor.TextSegments) == 0 {
		return false
	}

	elementStart := elementLayout.TextAnchor.TextSegments[0].StartIndex
	elementEnd := elementLayout.TextAnchor.TextSegments[0].EndIndex
	parentStart := parentLayout.TextAnchor.TextSegments[0].StartIndex
	parentEnd := parentLayout.TextAnchor.TextSegments[0].EndIndex

	return elementStart >= parentStart && elementEnd <= parentEnd
}

// convertLineFromProto converts a proto line and the tokens it contains,
// marking those tokens in assigned
func convertLineFromProto(line *documentaipb.Document_Page_Line, page *documentaipb.Document_Page,
	fullText string, pageNum, lineIdx int, assigned map[int]bool) hocr.Line {

	ocrLine := hocr.Line{ID: fmt.Sprintf("line_%d_%d", pageNum, lineIdx)}
	if bbox, ok := getHocrBoundingBox(line.Layout, page.Dimension); ok {
		ocrLine.BBox = bbox
	}

	for tidx, token := range page.Tokens {
		if assigned[tidx] || !isElementInParent(token.Layout, line.Layout) {
			continue
		}
		assigned[tidx] = true
		id := fmt.Sprintf("word_%d_%d_%d", pageNum, lineIdx, tidx)
		ocrLine.Words = append(ocrLine.Words, convertToken(token, page, fullText, id))
	}
	return ocrLine
}

func convertToken(token *documentaipb.Document_Page_Token, page *documentaipb.Document_Page, fullText, id string) hocr.Word {
	// Clean token text; Document AI includes the trailing break character
	cleanText := strings.TrimSpace(textFromLayout(token.Layout, fullText))
	cleanText = strings.ReplaceAll(cleanText, "\n", " ")
	cleanText = strings.ReplaceAll(cleanText, "\r", "")

	word := hocr.Word{ID: id, Text: cleanText}
	if bbox, ok := getHocrBoundingBox(token.Layout, page.Dimension); ok {
		word.BBox = bbox
	}
	if token.Layout != nil {
		word.Confidence = float64(token.Layout.Confidence * 100)
	}
	if len(token.DetectedLanguages) > 0 {
		word.Lang = token.DetectedLanguages[0].LanguageCode
	}
	return word
}
