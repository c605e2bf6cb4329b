package cif

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrParse is returned when the input is not syntactically valid.
var ErrParse = errors.New("cif: malformed input")

// maxLineLen bounds scanner buffers; CCD entries stay well under this.
const maxLineLen = 16 * 1024 * 1024

type token struct {
	text   string
	quoted bool
	line   int
}

// Parse reads every data block from r in source order.
//
// Parsing is strict about structure (items outside a data block, incomplete
// loop rows) but lenient about content: placeholder values such as "." and
// "?" are preserved verbatim.
func Parse(r io.Reader) ([]*Block, error) {
	toks, err := lex(r)
	if err != nil {
		return nil, err
	}

	var blocks []*Block
	var cur *Block
	i := 0
	for i < len(toks) {
		t := toks[i]
		switch {
		case !t.quoted && strings.HasPrefix(t.text, "data_"):
			cur = &Block{Name: strings.TrimPrefix(t.text, "data_")}
			blocks = append(blocks, cur)
			i++

		case !t.quoted && t.text == "loop_":
			if cur == nil {
				return nil, fmt.Errorf("%w: loop_ outside data block at line %d", ErrParse, t.line)
			}
			n, err := parseLoop(cur, toks[i+1:], t.line)
			if err != nil {
				return nil, err
			}
			i += 1 + n

		case !t.quoted && strings.HasPrefix(t.text, "_"):
			if cur == nil {
				return nil, fmt.Errorf("%w: item outside data block at line %d", ErrParse, t.line)
			}
			if i+1 >= len(toks) || !isValue(toks[i+1]) {
				return nil, fmt.Errorf("%w: item %s missing value at line %d", ErrParse, t.text, t.line)
			}
			catName, attr, err := splitItem(t.text, t.line)
			if err != nil {
				return nil, err
			}
			addItem(cur, catName, attr, toks[i+1].text)
			i += 2

		default:
			return nil, fmt.Errorf("%w: unexpected value %q at line %d", ErrParse, t.text, t.line)
		}
	}
	return blocks, nil
}

// parseLoop consumes the item names and value rows following a loop_ keyword.
// It returns the number of tokens consumed.
func parseLoop(b *Block, toks []token, loopLine int) (int, error) {
	var catName string
	var cols []string
	i := 0
	for i < len(toks) && !toks[i].quoted && strings.HasPrefix(toks[i].text, "_") {
		cat, attr, err := splitItem(toks[i].text, toks[i].line)
		if err != nil {
			return 0, err
		}
		if catName == "" {
			catName = cat
		} else if cat != catName {
			return 0, fmt.Errorf("%w: mixed categories %s and %s in loop at line %d", ErrParse, catName, cat, toks[i].line)
		}
		cols = append(cols, attr)
		i++
	}
	if len(cols) == 0 {
		return 0, fmt.Errorf("%w: loop_ with no item names at line %d", ErrParse, loopLine)
	}

	cat := Category{Name: catName, Columns: cols}
	for i < len(toks) && isValue(toks[i]) {
		row := make([]string, len(cols))
		for j := range cols {
			if i >= len(toks) || !isValue(toks[i]) {
				return 0, fmt.Errorf("%w: incomplete loop row for %s at line %d", ErrParse, catName, toks[i-1].line)
			}
			row[j] = toks[i].text
			i++
		}
		cat.Rows = append(cat.Rows, row)
	}
	b.Categories = append(b.Categories, cat)
	return i, nil
}

// addItem folds a key-value item into the block's single-row category of the
// same name, creating the category on first use.
func addItem(b *Block, catName, attr, value string) {
	for i := range b.Categories {
		c := &b.Categories[i]
		if c.Name != catName {
			continue
		}
		if len(c.Rows) == 0 {
			c.Rows = [][]string{nil}
		}
		c.Columns = append(c.Columns, attr)
		c.Rows[0] = append(c.Rows[0], value)
		return
	}
	b.Categories = append(b.Categories, Category{
		Name:    catName,
		Columns: []string{attr},
		Rows:    [][]string{{value}},
	})
}

func splitItem(name string, line int) (category, attribute string, err error) {
	trimmed := strings.TrimPrefix(name, "_")
	cat, attr, ok := strings.Cut(trimmed, ".")
	if !ok || cat == "" || attr == "" {
		return "", "", fmt.Errorf("%w: item name %q not in _category.attribute form at line %d", ErrParse, name, line)
	}
	return cat, attr, nil
}

func isValue(t token) bool {
	if t.quoted {
		return true
	}
	switch {
	case strings.HasPrefix(t.text, "_"),
		strings.HasPrefix(t.text, "data_"),
		strings.HasPrefix(t.text, "save_"),
		t.text == "loop_",
		t.text == "stop_",
		t.text == "global_":
		return false
	}
	return true
}

func lex(r io.Reader) ([]token, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineLen)

	var toks []token
	ln := 0
	for sc.Scan() {
		ln++
		line := sc.Text()
		if strings.HasPrefix(line, ";") {
			start := ln
			lines := []string{strings.TrimPrefix(line, ";")}
			closed := false
			for sc.Scan() {
				ln++
				next := sc.Text()
				if strings.HasPrefix(next, ";") {
					closed = true
					break
				}
				lines = append(lines, next)
			}
			if !closed {
				return nil, fmt.Errorf("%w: unterminated text field starting at line %d", ErrParse, start)
			}
			text := strings.Join(lines, "\n")
			if len(lines) > 1 && lines[0] == "" {
				text = text[1:]
			}
			toks = append(toks, token{text: text, quoted: true, line: start})
			continue
		}
		lexLine(line, ln, &toks)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return toks, nil
}

// lexLine splits one line into whitespace-separated tokens, honoring single
// and double quotes and end-of-line comments.
func lexLine(line string, ln int, toks *[]token) {
	i := 0
	for i < len(line) {
		switch c := line[i]; {
		case c == ' ' || c == '\t':
			i++
		case c == '#':
			return
		case c == '\'' || c == '"':
			// A quote only terminates when followed by whitespace or EOL.
			j := i + 1
			for j < len(line) {
				if line[j] == c && (j+1 == len(line) || line[j+1] == ' ' || line[j+1] == '\t') {
					break
				}
				j++
			}
			if j >= len(line) {
				*toks = append(*toks, token{text: line[i+1:], quoted: true, line: ln})
				return
			}
			*toks = append(*toks, token{text: line[i+1 : j], quoted: true, line: ln})
			i = j + 1
		default:
			j := i
			for j < len(line) && line[j] != ' ' && line[j] != '\t' {
				j++
			}
			*toks = append(*toks, token{text: line[i:j], quoted: false, line: ln})
			i = j
		}
	}
}
