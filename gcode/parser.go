package gcode

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
)

// Parser reads blocks from a program, one line at a time.
type Parser struct {
	br   *bufio.Reader
	line int
}

func NewParser(r io.Reader) *Parser {
	if br, ok := r.(*bufio.Reader); ok {
		return &Parser{br: br}
	}

	return &Parser{br: bufio.NewReader(r)}
}

var (
	rx        = regexp.MustCompile(`^([A-Z][0-9.\-]+)+$`)
	rxSplit   = regexp.MustCompile(`[A-Z][0-9.\-]+`)
	rxComment = regexp.MustCompile(`\([^)]*\)`)
)

// ParseLine parses a single line of gcode. Empty and comment-only lines
// return a nil Block and no error.
func ParseLine(s string) (Block, error) {
	s = strings.SplitN(s, ";", 2)[0]
	s = rxComment.ReplaceAllString(s, "")
	s = strings.Replace(s, " ", "", -1)
	s = strings.TrimSpace(s)
	s = strings.ToUpper(s)

	if s == "" {
		return nil, nil
	}

	if !rx.MatchString(s) {
		return nil, errors.New("invalid or unhandled line: " + s)
	}

	codes := rxSplit.FindAllString(s, -1)
	res := make(Block, len(codes))

	for i, c := range codes {
		_, err := fmt.Sscanf(c, "%c%f", &res[i].W, &res[i].Arg)
		if err != nil {
			return nil, err
		}
	}

	return res, nil
}

func (p *Parser) Read() (Block, error) {
	for {
		s, err := p.br.ReadString('\n')
		if err == io.EOF && s != "" {
			err = nil
		}
		if err != nil {
			return nil, err
		}
		p.line++

		b, err := ParseLine(s)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", p.line, err)
		}
		if b == nil {
			continue
		}
		return b, nil
	}
}
