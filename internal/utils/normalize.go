package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/relgate/relgate/internal/errors"
)

// packageNameRE is the PEP 508 project-name grammar: letters and digits at
// the edges, with single or repeated separators (-, _, .) in between.
var packageNameRE = regexp.MustCompile(`(?i)^[a-z0-9]([a-z0-9._-]*[a-z0-9])?$`)

var separatorRunRE = regexp.MustCompile(`[-_.]+`)

// ValidatePackageName checks that name is a well-formed project name.
func ValidatePackageName(name string) error {
	if name == "" {
		return errors.ErrPackageRequired
	}
	if !packageNameRE.MatchString(name) {
		return fmt.Errorf("%w: %q", errors.ErrInvalidPackageName, name)
	}
	return nil
}

// NormalizePackageName applies PEP 503 normalization: lowercase, with every
// run of -, _ and . collapsed to a single hyphen. Index project URLs are
// keyed by the normalized name.
func NormalizePackageName(name string) string {
	return strings.ToLower(separatorRunRE.ReplaceAllString(name, "-"))
}
