package codegen

import "bytes"

// Formatter models the external AST pretty-printer spec §4.4 and §9 hand
// the generator's text off to. The generator's own contract only requires
// byte-deterministic output given the database; Formatter is the seam a
// real target-language formatter would plug into.
type Formatter interface {
	Format(text []byte) ([]byte, error)
}

// IdentityFormatter strips the trailing NUL sentinel and returns the text
// unchanged, matching spec §9's note that dropping the sentinel and
// emitting already-formatted text is an equally valid implementation.
type IdentityFormatter struct{}

// Format implements Formatter.
func (IdentityFormatter) Format(text []byte) ([]byte, error) {
	return bytes.TrimRight(text, "\x00"), nil
}
