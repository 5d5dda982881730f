// Package parser extracts photometry records from raw archive files. Each
// known file convention is a Parser; a Chain tries them in a fixed order.
package parser

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/couchcryptid/virgo-snana-etl/internal/domain"
	"github.com/spf13/afero"
)

var (
	// ErrFormatMismatch means the file does not follow the parser's convention.
	ErrFormatMismatch = errors.New("format mismatch")

	// ErrNoRecords means the file matched but yielded no usable rows.
	ErrNoRecords = errors.New("no usable records")

	// ErrAllParsersFailed is returned by ParseFile when every parser failed.
	ErrAllParsersFailed = errors.New("no parser could read file")
)

// Parser reads one raw file convention.
type Parser interface {
	Name() string
	Parse(r io.Reader) ([]domain.PhotometryRecord, error)
}

// Attempt records the outcome of one parser on one file.
type Attempt struct {
	Parser string
	Err    error
}

// Result is the outcome of ParseFile.
type Result struct {
	Parser   string // name of the parser that succeeded
	Records  []domain.PhotometryRecord
	Attempts []Attempt
}

// Chain is an ordered list of parsers tried in sequence.
type Chain struct {
	parsers []Parser
}

// NewChain returns a Chain trying parsers in the given order.
func NewChain(parsers ...Parser) *Chain {
	return &Chain{parsers: parsers}
}

// DefaultChain returns every known dialect in fallback order.
func DefaultChain() *Chain {
	return NewChain(
		NewIAUCCSV(),
		NewSimpleCSV(),
		NewTabText(),
		NewNotesText(),
		NewVizierFITS(),
	)
}

// Names lists the parsers in fallback order.
func (c *Chain) Names() []string {
	names := make([]string, len(c.parsers))
	for i, p := range c.parsers {
		names[i] = p.Name()
	}
	return names
}

// Order returns the parsers to try for a file: the hinted parser first, then
// the rest in fallback order. An unknown or empty hint yields the plain
// fallback order.
func (c *Chain) Order(hint string) []Parser {
	idx := slices.IndexFunc(c.parsers, func(p Parser) bool { return p.Name() == hint })
	if idx < 0 {
		return slices.Clone(c.parsers)
	}
	out := make([]Parser, 0, len(c.parsers))
	out = append(out, c.parsers[idx])
	out = append(out, c.parsers[:idx]...)
	return append(out, c.parsers[idx+1:]...)
}

// ParseFile tries each parser in Order(hint) until one yields at least one
// record. The file is opened and closed for every attempt.
func (c *Chain) ParseFile(fsys afero.Fs, path, hint string) (Result, error) {
	var res Result
	for _, p := range c.Order(hint) {
		recs, err := attempt(fsys, path, p)
		if err == nil && len(recs) == 0 {
			err = ErrNoRecords
		}
		res.Attempts = append(res.Attempts, Attempt{Parser: p.Name(), Err: err})
		if err != nil {
			continue
		}
		res.Parser = p.Name()
		res.Records = recs
		return res, nil
	}
	return res, fmt.Errorf("%s: %w", path, ErrAllParsersFailed)
}

// attempt runs one parser, converting a panic into an error so a malformed
// file can never abort the run.
func attempt(fsys afero.Fs, path string, p Parser) (recs []domain.PhotometryRecord, err error) {
	f, err := fsys.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	defer func() {
		if r := recover(); r != nil {
			recs = nil
			err = fmt.Errorf("%s panicked: %v", p.Name(), r)
		}
	}()
	return p.Parse(f)
}
