package security

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Rrens/nlsql/internal/domain"
)

// MaxIdentifierLength bounds table and column names accepted from clients
const MaxIdentifierLength = 128

// IdentifierKind names what an identifier refers to
type IdentifierKind string

const (
	KindTable  IdentifierKind = "table"
	KindColumn IdentifierKind = "column"
)

var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedWords may not be used as table names even though they match the pattern
var reservedWords = map[string]bool{
	"SELECT": true, "INSERT": true, "UPDATE": true, "DELETE": true,
	"DROP": true, "TRUNCATE": true, "ALTER": true, "CREATE": true,
	"GRANT": true, "REVOKE": true, "EXEC": true, "EXECUTE": true,
	"UNION": true, "FROM": true, "WHERE": true, "TABLE": true,
	"ATTACH": true, "DETACH": true, "PRAGMA": true, "VACUUM": true,
	"COPY": true, "CALL": true, "REPLACE": true, "MERGE": true,
	"NULL": true, "OR": true, "AND": true, "NOT": true,
}

// Identifier is a name that passed ValidateIdentifier. The character class
// restriction makes it safe to place inside a FROM clause.
type Identifier struct {
	name string
	kind IdentifierKind
}

// String returns the validated name
func (i Identifier) String() string {
	return i.name
}

// Kind returns what the identifier names
func (i Identifier) Kind() IdentifierKind {
	return i.kind
}

// IsZero reports whether i was never validated
func (i Identifier) IsZero() bool {
	return i.name == ""
}

// InvalidIdentifierError is returned when a name fails validation
type InvalidIdentifierError struct {
	Name   string
	Kind   IdentifierKind
	Reason string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("invalid %s name %q: %s", e.Kind, e.Name, e.Reason)
}

func (e *InvalidIdentifierError) Unwrap() error {
	return domain.ErrInvalidIdentifier
}

// ValidateIdentifier checks name against the allow-list for kind.
// Table names must match ^[A-Za-z_][A-Za-z0-9_]*$, be at most
// MaxIdentifierLength bytes and not be a reserved word. Column names are
// written into CSV headers only, so they are checked for length alone.
func ValidateIdentifier(name string, kind IdentifierKind) (Identifier, error) {
	invalid := func(reason string) (Identifier, error) {
		return Identifier{}, &InvalidIdentifierError{Name: name, Kind: kind, Reason: reason}
	}

	if name == "" {
		return invalid("must not be empty")
	}
	if len(name) > MaxIdentifierLength {
		return invalid(fmt.Sprintf("exceeds %d characters", MaxIdentifierLength))
	}

	switch kind {
	case KindColumn:
		return Identifier{name: name, kind: kind}, nil
	case KindTable:
	default:
		return invalid("unknown identifier kind")
	}

	if !identifierPattern.MatchString(name) {
		return invalid("only letters, digits and underscores are allowed and it must not start with a digit")
	}
	if reservedWords[strings.ToUpper(name)] {
		return invalid("reserved SQL keyword")
	}

	return Identifier{name: name, kind: kind}, nil
}

// MustIdentifier is ValidateIdentifier for names known at compile time
func MustIdentifier(name string, kind IdentifierKind) Identifier {
	id, err := ValidateIdentifier(name, kind)
	if err != nil {
		panic(err)
	}
	return id
}
