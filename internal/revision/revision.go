// Package revision parses the vendor CPU revision literal (spec §6):
// "r<release>p<part>", two decimal integers separated by the letters r/p.
package revision

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Revision is a parsed "r<release>p<part>" literal.
type Revision struct {
	Release int
	Part    int
}

// MalformedError is returned when the literal does not have the
// r...p... shape at all (a missing r or p marker, or one not starting
// with r). Empty halves are not Malformed; see Parse.
type MalformedError struct {
	Value string
}

func (e *MalformedError) Error() string {
	return "revision: malformed literal " + strconv.Quote(e.Value)
}

// Parse parses s as "r<release>p<part>". A string missing the r/p markers
// entirely is Malformed. A string that has both markers but an empty or
// non-digit release/part half fails with the underlying strconv error.
func Parse(s string) (Revision, error) {
	if len(s) == 0 || s[0] != 'r' {
		return Revision{}, &MalformedError{Value: s}
	}
	rest := s[1:]
	pIdx := strings.IndexByte(rest, 'p')
	if pIdx < 0 {
		return Revision{}, &MalformedError{Value: s}
	}
	releasePart, partPart := rest[:pIdx], rest[pIdx+1:]
	release, err := strconv.Atoi(releasePart)
	if err != nil {
		return Revision{}, errors.Wrapf(err, "revision: invalid release in %q", s)
	}
	part, err := strconv.Atoi(partPart)
	if err != nil {
		return Revision{}, errors.Wrapf(err, "revision: invalid part in %q", s)
	}
	return Revision{Release: release, Part: part}, nil
}
