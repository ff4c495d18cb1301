package guard

import (
	"context"
	"log/slog"

	libinjection "github.com/corazawaf/libinjection-go"
)

// Auditor records libinjection fingerprints for suspicious text. It is a
// log-only signal and never changes the block decision; Check alone decides
// what executes.
type Auditor struct {
	logger *slog.Logger
}

func NewAuditor(logger *slog.Logger) *Auditor {
	return &Auditor{logger: logger}
}

// Observe scans one value (a user question or a resolved statement) and logs
// a warning with the libinjection fingerprint when an injection pattern is
// present.
func (a *Auditor) Observe(ctx context.Context, origin, value string) {
	if a == nil || a.logger == nil {
		return
	}
	isSQLi, fingerprint := libinjection.IsSQLi(value)
	if !isSQLi {
		return
	}
	a.logger.WarnContext(ctx, "injection_pattern_detected",
		slog.String("origin", origin),
		slog.String("fingerprint", string(fingerprint)),
	)
}
