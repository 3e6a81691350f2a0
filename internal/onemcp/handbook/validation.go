package handbook

import (
	"fmt"
	"strings"

	"onemcp/internal/onemcp/onemcperr"
)

// ValidationError aggregates every missing or malformed handbook artifact
// found during Load, rather than failing on the first problem — matching
// SPEC_FULL.md §4.1 "Fails with a ValidationError listing every
// missing/incorrect artifact."
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("handbook validation failed: %s", strings.Join(e.Problems, "; "))
}

// ToOneMCPError wraps a ValidationError in the caller-visible error envelope.
func (e *ValidationError) ToOneMCPError() *onemcperr.Error {
	return onemcperr.ValidationError(onemcperr.StageLoad, e.Error(), e)
}

type problemCollector struct {
	problems []string
}

func (c *problemCollector) add(format string, args ...any) {
	c.problems = append(c.problems, fmt.Sprintf(format, args...))
}

func (c *problemCollector) err() error {
	if len(c.problems) == 0 {
		return nil
	}
	return &ValidationError{Problems: c.problems}
}
