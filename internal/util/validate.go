package util

import (
	"fmt"
	"regexp"
)

// validRevisionChars matches git revision spellings we accept from
// free-form input: hex IDs, branch/tag names, and relative suffixes
// like HEAD~2. Deliberately conservative — anything that would need
// shell quoting is rejected.
var validRevisionChars = regexp.MustCompile(`^[a-zA-Z0-9._/~^\-]+$`)

// ValidateRevision checks that a user-supplied revision identifier is
// safe to hand to git:
//   - At least 2 characters
//   - Only alphanumerics, dots, slashes, hyphens, underscores, ~ and ^
//   - Must not start with a hyphen (would parse as a git flag)
func ValidateRevision(rev string) error {
	if len(rev) < 2 {
		return fmt.Errorf("revision must be at least 2 characters, got %d", len(rev))
	}

	if !validRevisionChars.MatchString(rev) {
		return fmt.Errorf("revision %q contains invalid characters", rev)
	}

	if rev[0] == '-' {
		return fmt.Errorf("revision must not start with a hyphen, got %q", rev)
	}

	return nil
}
