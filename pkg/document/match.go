package document

import (
	"iter"
	"strings"
)

// MatchPages yields, in ascending order, the indices of pages whose text
// contains phrase. Matching is a case-sensitive substring test on the text
// as extracted, with no whitespace normalisation. Pages whose text cannot be
// extracted simply do not match. Pages are read lazily as the sequence is
// consumed.
func MatchPages(doc Document, phrase string) iter.Seq[int] {
	return func(yield func(int) bool) {
		for i := 0; i < doc.PageCount(); i++ {
			text, err := doc.PageText(i)
			if err != nil || !strings.Contains(text, phrase) {
				continue
			}
			if !yield(i) {
				return
			}
		}
	}
}
