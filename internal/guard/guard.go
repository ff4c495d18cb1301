package guard

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnsafeQuery blocks a statement before it ever reaches the execution
// engine. The scan is substring-based and intentionally conservative: it can
// over-block legal read-only SQL that mentions one of the tokens inside a
// string literal, which is an accepted tradeoff on a read-only surface.
var ErrUnsafeQuery = errors.New("unsafe SQL detected: query blocked")

var blockedTokens = []string{"drop", "delete", "update", "insert", "alter"}

func Check(sqlText string) error {
	lowered := strings.ToLower(sqlText)
	for _, token := range blockedTokens {
		if strings.Contains(lowered, token) {
			return fmt.Errorf("%w: matched token %q", ErrUnsafeQuery, token)
		}
	}
	return nil
}
