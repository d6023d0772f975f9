// Package script validates and persists animation source files.
package script

import (
	"strings"

	"github.com/mattjoyce/manimcp/internal/toolerr"
)

// deniedPatterns are matched as lowercase substrings, in order. The scan is a
// deterrent and not an isolation boundary: "reopen(" is rejected and an
// obfuscated import is not.
var deniedPatterns = []string{
	"import os",
	"import subprocess",
	"import sys",
	"__import__",
	"exec(",
	"eval(",
	"open(",
	"file(",
	"input(",
	"raw_input(",
}

// DeniedPatterns returns a copy of the denylist in scan order.
func DeniedPatterns() []string {
	out := make([]string, len(deniedPatterns))
	copy(out, deniedPatterns)
	return out
}

// Validate rejects code containing any denied pattern, reporting the first
// one found.
func Validate(code string) error {
	lowered := strings.ToLower(code)
	for _, p := range deniedPatterns {
		if strings.Contains(lowered, p) {
			return toolerr.Newf(toolerr.KindValidation, "",
				"Potentially dangerous code pattern detected: %s", p)
		}
	}
	return nil
}
