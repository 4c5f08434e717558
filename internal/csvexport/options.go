package csvexport

import (
	"fmt"
	"strings"
)

// LineTerminator ends every record, the header included
type LineTerminator string

const (
	CRLF LineTerminator = "\r\n"
	LF   LineTerminator = "\n"
)

// Escaping selects how field contents are protected
type Escaping string

const (
	// EscapingStandard applies RFC 4180 quoting only
	EscapingStandard Escaping = "standard"
	// EscapingDefensive also neutralises text that spreadsheets would
	// evaluate as a formula by prefixing it with a single quote
	EscapingDefensive Escaping = "defensive"
)

// Options controls CSV rendering
type Options struct {
	LineTerminator LineTerminator
	BOM            bool
	NullAs         string
	Escaping       Escaping
}

// DefaultOptions returns CRLF line endings, a UTF-8 BOM, empty nulls and
// standard escaping
func DefaultOptions() Options {
	return Options{
		LineTerminator: CRLF,
		BOM:            true,
		NullAs:         "",
		Escaping:       EscapingStandard,
	}
}

func (o Options) normalized() Options {
	if o.LineTerminator == "" {
		o.LineTerminator = CRLF
	}
	if o.Escaping == "" {
		o.Escaping = EscapingStandard
	}
	return o
}

// ParseLineTerminator accepts "crlf" or "lf" in any case
func ParseLineTerminator(s string) (LineTerminator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "crlf", "":
		return CRLF, nil
	case "lf":
		return LF, nil
	default:
		return "", fmt.Errorf("unsupported line terminator %q (want crlf or lf)", s)
	}
}

// ParseEscaping accepts "standard" or "defensive" in any case
func ParseEscaping(s string) (Escaping, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "":
		return EscapingStandard, nil
	case "defensive":
		return EscapingDefensive, nil
	default:
		return "", fmt.Errorf("unsupported escaping mode %q (want standard or defensive)", s)
	}
}
