package checker

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRule is returned by [ParseRuleID] for names that match no rule.
var ErrUnknownRule = errors.New("unknown rule")

// RuleID names a rule the way users refer to it in configuration and
// suppression comments.
type RuleID string

// Rules.
const (
	// ImportOnlyModules flags from-imports of names that are not modules.
	ImportOnlyModules RuleID = "import-only-modules"
	// ImportDirectAttributes flags attribute access on an imported module for
	// members that should be imported directly.
	ImportDirectAttributes RuleID = "import-direct-attributes"
)

// Rule describes one rule.
type Rule struct {
	ID          RuleID `json:"id"          yaml:"id"`
	Code        string `json:"code"        yaml:"code"`
	Message     string `json:"message"     yaml:"message"`
	Description string `json:"description" yaml:"description"`
}

// Format renders the rule message with its two arguments.
func (r Rule) Format(name, module string) string {
	return fmt.Sprintf(r.Message, name, module)
}

var ruleTable = []Rule{
	{
		ID:          ImportOnlyModules,
		Code:        "W5521",
		Message:     `Import "%s" from "%s" is not a module.`,
		Description: "Only modules should be imported.",
	},
	{
		ID:          ImportDirectAttributes,
		Code:        "W5522",
		Message:     `"%s" from module "%s" should be imported directly.`,
		Description: "Specified module members should be imported directly.",
	},
}

// Rules returns the metadata of every rule.
func Rules() []Rule {
	return append([]Rule(nil), ruleTable...)
}

// Lookup returns the metadata of id.
func Lookup(id RuleID) (Rule, bool) {
	for _, r := range ruleTable {
		if r.ID == id {
			return r, true
		}
	}

	return Rule{}, false
}

// ParseRuleID accepts a rule id or message code, case-insensitively.
func ParseRuleID(name string) (RuleID, error) {
	name = strings.TrimSpace(name)

	for _, r := range ruleTable {
		if strings.EqualFold(name, string(r.ID)) || strings.EqualFold(name, r.Code) {
			return r.ID, nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownRule, name)
}
