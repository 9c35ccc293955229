package distcsv

import (
	"fmt"
	"strings"
)

// Kind classifies a ParseError.
type Kind int

const (
	KindMalformedRow Kind = iota + 1
	KindBadHeader
	KindBadField
	KindNoAsset
	KindAmbiguousAsset
)

func (k Kind) String() string {
	switch k {
	case KindMalformedRow:
		return "malformed row"
	case KindBadHeader:
		return "bad header"
	case KindBadField:
		return "bad field"
	case KindNoAsset:
		return "no primary or base asset"
	case KindAmbiguousAsset:
		return "both primary and base asset"
	default:
		return "unknown"
	}
}

// ParseError describes an input row that cannot become a Record.
// Every kind is fatal to a run.
type ParseError struct {
	Kind   Kind
	File   string
	Line   int
	Column string
	Value  string
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	var b strings.Builder
	if e.File != "" {
		fmt.Fprintf(&b, "%s:", e.File)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, "%d:", e.Line)
	}
	if b.Len() > 0 {
		b.WriteString(" ")
	}
	b.WriteString(e.Kind.String())
	if e.Column != "" {
		fmt.Fprintf(&b, " %s=%q", e.Column, e.Value)
	}
	if e.Detail != "" {
		fmt.Fprintf(&b, ": %s", e.Detail)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *ParseError) Unwrap() error { return e.Err }
