package document

import (
	"errors"
	"image"
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type memDocument struct {
	texts []string
	fail  map[int]bool
	reads []int
}

func (d *memDocument) PageCount() int { return len(d.texts) }

func (d *memDocument) PageText(index int) (string, error) {
	d.reads = append(d.reads, index)
	if d.fail[index] {
		return "", errors.New("broken content stream")
	}
	return d.texts[index], nil
}

func (d *memDocument) RenderPage(index int) (*image.RGBA, error) {
	return image.NewRGBA(image.Rect(0, 0, 1, 1)), nil
}

func (d *memDocument) Close() error { return nil }

const phrase = "Assembly Drawing & Part List"

func TestMatchPages(t *testing.T) {
	tests := []struct {
		name  string
		texts []string
		fail  map[int]bool
		want  []int
	}{
		{"none", []string{"cover", "index"}, nil, nil},
		{"first and third", []string{"Assembly Drawing & Part List\nA-100", "notes", "x Assembly Drawing & Part List y"}, nil, []int{0, 2}},
		{"case sensitive", []string{"assembly drawing & part list", "ASSEMBLY DRAWING & PART LIST"}, nil, nil},
		{"no whitespace normalisation", []string{"Assembly  Drawing & Part List", "Assembly Drawing &\nPart List"}, nil, nil},
		{"unreadable page skipped", []string{phrase, phrase, phrase}, map[int]bool{1: true}, []int{0, 2}},
		{"empty document", nil, nil, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := &memDocument{texts: tt.texts, fail: tt.fail}
			got := slices.Collect(MatchPages(doc, phrase))
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MatchPages (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMatchPagesIsLazy(t *testing.T) {
	doc := &memDocument{texts: []string{"x", phrase, phrase, phrase}}
	for idx := range MatchPages(doc, phrase) {
		if idx != 1 {
			t.Fatalf("first match = %d, want 1", idx)
		}
		break
	}
	if diff := cmp.Diff([]int{0, 1}, doc.reads); diff != "" {
		t.Errorf("pages read (-want +got):\n%s", diff)
	}
}
