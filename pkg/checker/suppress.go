package checker

import (
	"regexp"
	"strings"

	"github.com/Sumatoshi-tech/importonly/pkg/pytree"
)

const disableAll = "all"

var disablePattern = regexp.MustCompile(`#\s*(?:pylint|importonly)\s*:\s*disable\s*=\s*([a-zA-Z0-9,_\- ]+)`)

// suppressed reports whether a comment on line disables rule.
func suppressed(file *pytree.File, line uint, rule Rule) bool {
	comment, ok := file.Comments[line]
	if !ok {
		return false
	}

	for _, match := range disablePattern.FindAllStringSubmatch(comment, -1) {
		for name := range strings.SplitSeq(match[1], ",") {
			name = strings.TrimSpace(name)

			if strings.EqualFold(name, disableAll) ||
				strings.EqualFold(name, string(rule.ID)) ||
				strings.EqualFold(name, rule.Code) {
				return true
			}
		}
	}

	return false
}
