package probe

import (
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"
)

// NonNumericLabel prefixes replies that are not integers.
const NonNumericLabel = "Non numerical log : "

// Reply is one decoded answer from the peer.
type Reply struct {
	// Raw is the decoded line without its terminator.
	Raw string
	// Value holds the parsed integer when Numeric is true.
	Value *big.Int
	// Numeric reports whether Raw parsed as a base-10 integer.
	Numeric bool
}

// Display returns the text printed for the reply: the canonical decimal value
// for integers, otherwise the label followed by the raw text.
func (r Reply) Display() string {
	if r.Numeric {
		return r.Value.String()
	}
	return NonNumericLabel + " " + r.Raw
}

// DecodeError is returned when a reply is not valid UTF-8.
type DecodeError struct {
	Line []byte
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("reply is not valid UTF-8: %q", e.Line)
}

// DecodeReply decodes a raw line into a Reply.
func DecodeReply(line []byte) (Reply, error) {
	if !utf8.Valid(line) {
		return Reply{}, &DecodeError{Line: append([]byte(nil), line...)}
	}
	raw := string(line)
	value, ok := ParseInteger(raw)
	return Reply{Raw: raw, Value: value, Numeric: ok}, nil
}

// ParseInteger parses s as a base-10 integer of any size. Surrounding
// whitespace, including a trailing carriage return, is ignored and a single
// leading sign is accepted.
func ParseInteger(s string) (*big.Int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, false
	}
	return v, true
}
