package image_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/druxorey/project-lucario/internal/image"
)

const validImage = `_start 1
.NumeroPalabras 3
.NombreProg s1
04100007 // LOAD Immediate 7
00100005 // SUM Immediate 5
13000000 // SVC 0
`

func TestParseValidImage(t *testing.T) {
	prog, err := image.Parse(strings.NewReader(validImage))
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}

	if prog.Start != 1 {
		t.Errorf("Start = %d, want 1", prog.Start)
	}

	if prog.Name != "s1" {
		t.Errorf("Name = %q, want %q", prog.Name, "s1")
	}

	want := []int{4100007, 100005, 13000000}
	if len(prog.Words) != len(want) {
		t.Fatalf("len(Words) = %d, want %d", len(prog.Words), len(want))
	}

	for i, w := range want {
		if prog.Words[i] != w {
			t.Errorf("Words[%d] = %d, want %d", i, prog.Words[i], w)
		}
	}
}

func TestParseWordCountMismatch(t *testing.T) {
	text := `_start 1
.NumeroPalabras 2
.NombreProg s1
1
2
3
`
	_, err := image.Parse(strings.NewReader(text))

	var malformed *image.ErrMalformed
	if !errors.As(err, &malformed) {
		t.Fatalf("err = %v, want *ErrMalformed", err)
	}
}

func TestParseMissingHeader(t *testing.T) {
	text := `.NumeroPalabras 1
.NombreProg s1
1
`
	if _, err := image.Parse(strings.NewReader(text)); err == nil {
		t.Fatal("expected an error for a missing _start header")
	}
}

func TestParseStripsComments(t *testing.T) {
	text := `_start 1
.NumeroPalabras 1
.NombreProg s1
// a leading comment line, stripped to nothing and skipped
42 // trailing comment
`
	prog, err := image.Parse(strings.NewReader(text))
	if err != nil {
		t.Fatalf("Parse: %s", err)
	}

	if len(prog.Words) != 1 || prog.Words[0] != 42 {
		t.Errorf("Words = %v, want [42]", prog.Words)
	}
}
