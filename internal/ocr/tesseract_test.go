package ocr

import (
	"context"
	"strings"
	"testing"

	"github.com/cardsnap/cardsnap/internal/entity"
)

const sampleTSV = `level	page_num	block_num	par_num	line_num	word_num	left	top	width	height	conf	text
5	1	1	1	1	1	10	20	60	14	96	John
5	1	1	1	1	2	80	20	50	14	88	Doe
5	1	1	1	2	1	10	48	90	14	91	Acme
5	1	1	1	2	2	110	48	60	16	-1
5	1	1	1	2	3	110	48	60	16	85	GmbH
`

func TestParseTSVLines(t *testing.T) {
	lines := parseTSVLines(sampleTSV)
	if len(lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(lines))
	}

	first := lines[0]
	if first.Text != "John Doe" {
		t.Fatalf("first line text = %q", first.Text)
	}
	if !approx(first.Confidence, 0.92) { // mean of 96 and 88, scaled
		t.Fatalf("first line confidence = %v, want 0.92", first.Confidence)
	}
	want := entity.BoundingBox{X: 10, Y: 20, Width: 120, Height: 14}
	if first.Box != want {
		t.Fatalf("first line box = %+v, want %+v", first.Box, want)
	}

	second := lines[1]
	if second.Text != "Acme GmbH" {
		t.Fatalf("second line text = %q", second.Text)
	}
	if !approx(second.Confidence, 0.88) { // mean of 91 and 85; -1 row skipped
		t.Fatalf("second line confidence = %v, want 0.88", second.Confidence)
	}
}

func TestParseTSVLinesMalformed(t *testing.T) {
	if lines := parseTSVLines(""); len(lines) != 0 {
		t.Fatalf("empty tsv produced %d lines", len(lines))
	}
	junk := "header\nnot\ttab\tseparated\n\n"
	if lines := parseTSVLines(junk); len(lines) != 0 {
		t.Fatalf("junk tsv produced %d lines", len(lines))
	}
}

type stubRunner struct {
	stdout []byte
	stderr []byte
	err    error
	name   string
	args   []string
}

func (s *stubRunner) Run(_ context.Context, name string, args ...string) ([]byte, []byte, error) {
	s.name = name
	s.args = args
	return s.stdout, s.stderr, s.err
}

func TestTesseractEngineRecognize(t *testing.T) {
	eng := NewTesseractEngine(TesseractConfig{Language: "deu", PSM: 6}, nil)
	stub := &stubRunner{stdout: []byte(sampleTSV)}
	eng.runner = stub

	out, err := eng.Recognize(context.Background(), validPNG, entity.ProcessingOptions{})
	if err != nil {
		t.Fatalf("Recognize: %v", err)
	}
	if len(out.Lines) != 2 {
		t.Fatalf("lines = %d, want 2", len(out.Lines))
	}
	if stub.name != "tesseract" {
		t.Fatalf("binary = %q", stub.name)
	}
	joined := strings.Join(stub.args, " ")
	if !strings.Contains(joined, "-l deu") || !strings.Contains(joined, "--psm 6") {
		t.Fatalf("args missing language/psm: %v", stub.args)
	}
	if stub.args[len(stub.args)-1] != "tsv" {
		t.Fatalf("output mode = %q, want tsv", stub.args[len(stub.args)-1])
	}
}
