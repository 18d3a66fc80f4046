// Package hocr parses hOCR, the HTML-based format OCR engines such as
// Tesseract use to report recognized text together with its position.
//
// The model is deliberately flat: a document holds pages, a page holds
// lines, a line holds words. Content areas and paragraphs are walked but not
// kept, because callers only need the words in the order the engine emitted
// them and where each one sits on the page image.
//
// Key Types:
//
// - HOCR: a parsed document with its head metadata
// - Page: an element with class 'ocr_page'
// - Line: an 'ocr_line' (or caption/header/textfloat) element
// - Word: an 'ocrx_word' element with its bounding box and confidence
// - BoundingBox: the 'bbox' title property, in image pixels
//
// Main Functions:
//
// - ParseHOCR: parses hOCR HTML into the model
// - ParseTitle / ParseBoundingBoxFromTitle: decode hOCR title properties
package hocr
