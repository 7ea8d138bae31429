// Package image parses program-image text files: a three-line header
// followed by one decimal word per line.
package image

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Program is a parsed program image, ready to hand to a loader.
type Program struct {
	Start int
	Name  string
	Words []int
}

// ErrMalformed reports a structural problem with an image file: a missing
// or misnamed header line, a word count mismatch, or an unparsable word.
type ErrMalformed struct {
	Line int
	Msg  string
}

func (e *ErrMalformed) Error() string {
	return fmt.Sprintf("image: line %d: %s", e.Line, e.Msg)
}

// Parse reads a program image from r.
func Parse(r io.Reader) (Program, error) {
	scanner := bufio.NewScanner(r)

	start, err := parseHeaderInt(scanner, "_start")
	if err != nil {
		return Program{}, err
	}

	count, err := parseHeaderInt(scanner, ".NumeroPalabras")
	if err != nil {
		return Program{}, err
	}

	name, err := parseHeaderString(scanner, ".NombreProg")
	if err != nil {
		return Program{}, err
	}

	words := make([]int, 0, count)
	line := 3

	for scanner.Scan() {
		line++

		text := stripComment(scanner.Text())
		if text == "" {
			continue
		}

		w, err := strconv.Atoi(text)
		if err != nil {
			return Program{}, &ErrMalformed{Line: line, Msg: "word is not a decimal integer: " + text}
		}

		words = append(words, w)
	}

	if err := scanner.Err(); err != nil {
		return Program{}, err
	}

	if len(words) != count {
		return Program{}, &ErrMalformed{
			Line: line,
			Msg:  fmt.Sprintf("expected %d words, found %d", count, len(words)),
		}
	}

	return Program{Start: start, Name: name, Words: words}, nil
}

func parseHeaderInt(scanner *bufio.Scanner, keyword string) (int, error) {
	text, err := nextHeaderLine(scanner, keyword)
	if err != nil {
		return 0, err
	}

	n, err := strconv.Atoi(text)
	if err != nil {
		return 0, &ErrMalformed{Msg: fmt.Sprintf("%s: value %q is not a decimal integer", keyword, text)}
	}

	return n, nil
}

func parseHeaderString(scanner *bufio.Scanner, keyword string) (string, error) {
	return nextHeaderLine(scanner, keyword)
}

func nextHeaderLine(scanner *bufio.Scanner, keyword string) (string, error) {
	if !scanner.Scan() {
		return "", &ErrMalformed{Msg: fmt.Sprintf("missing %q header line", keyword)}
	}

	fields := strings.Fields(stripComment(scanner.Text()))
	if len(fields) != 2 || fields[0] != keyword {
		return "", &ErrMalformed{Msg: fmt.Sprintf("expected %q header, found %q", keyword, scanner.Text())}
	}

	return fields[1], nil
}

func stripComment(line string) string {
	if idx := strings.Index(line, "//"); idx >= 0 {
		line = line[:idx]
	}

	return strings.TrimSpace(line)
}
