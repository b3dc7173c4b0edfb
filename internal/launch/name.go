package launch

import (
	"fmt"
	"regexp"
)

// MaxLaunchNameLength is counted in characters, not bytes.
const MaxLaunchNameLength = 100

var launchNameRe = regexp.MustCompile(`^[\p{L}\p{N}_\s-]{1,100}$`)

// ValidateLaunchName accepts 1 to 100 letters, digits, whitespace, hyphens and underscores.
func ValidateLaunchName(name string) error {
	if !launchNameRe.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidLaunchName, name)
	}
	return nil
}
