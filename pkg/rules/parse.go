package rules

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// ErrMalformed is returned by [Parse] when an entry does not follow the grammar
// `module.member` or `module.{m1,m2,...}`.
var ErrMalformed = errors.New("malformed allowed-direct-imports")

const (
	entrySeparator = ','
	groupOpen      = ".{"
	groupClose     = "}"
	groupEnd       = "},"
)

// Parse reads an allowed-direct-imports value. Whitespace anywhere is ignored,
// entries are comma separated, a plain entry splits at its last dot and a
// brace group lists several members of one module. Repeated modules merge.
// Empty entries are skipped, so "" yields an empty RuleSet.
func Parse(config string) (*RuleSet, error) {
	rs := Empty()

	text := stripSpace(config)
	if text == "" {
		return rs, nil
	}

	text += string(entrySeparator)
	offset := 0

	for text != "" {
		head, rest, grouped := splitHead(text)

		if !grouped {
			consumed := len(head) + 1

			if head != "" {
				module, member, err := splitEntry(head)
				if err != nil {
					return nil, malformed(head, offset, err.Error())
				}

				rs.add(module, member)
			}

			text = rest
			offset += consumed

			continue
		}

		members, tail, err := parseGroup(rest)
		if err != nil {
			entry := head + "." + strings.TrimSuffix(rest[:len(rest)-len(tail)], string(entrySeparator))

			return nil, malformed(entry, offset, err.Error())
		}

		if moduleErr := checkModule(head); moduleErr != nil {
			return nil, malformed(head, offset, moduleErr.Error())
		}

		rs.add(head, members...)

		offset += len(text) - len(tail)
		text = tail
	}

	return rs, nil
}

// MustParse is like [Parse] but panics on malformed input. It is meant for
// tests and constant configuration.
func MustParse(config string) *RuleSet {
	rs, err := Parse(config)
	if err != nil {
		panic(err)
	}

	return rs
}

// ParseList joins entries with commas and parses the result. It accepts the
// list form of the option used by YAML configuration files.
func ParseList(entries []string) (*RuleSet, error) {
	return Parse(strings.Join(entries, string(entrySeparator)))
}

func malformed(entry string, offset int, reason string) error {
	return fmt.Errorf("%w: entry %q at offset %d: %s", ErrMalformed, entry, offset, reason)
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}

		return r
	}, s)
}

// splitHead cuts text at the first comma or at the first dot that opens a
// brace group. For a group, rest starts with the opening brace.
func splitHead(text string) (head, rest string, grouped bool) {
	comma := strings.IndexByte(text, entrySeparator)
	brace := strings.Index(text, groupOpen)

	if brace >= 0 && (comma < 0 || brace < comma) {
		return text[:brace], text[brace+1:], true
	}

	if comma < 0 {
		return text, "", false
	}

	return text[:comma], text[comma+1:], false
}

// parseGroup reads `{m1,m2,...},` from the start of text.
func parseGroup(text string) (members []string, tail string, err error) {
	end := strings.Index(text, groupEnd)
	if end < 0 {
		if strings.Contains(text, groupClose) {
			return nil, "", errors.New("closing brace must end the entry")
		}

		return nil, "", errors.New("unbalanced brace")
	}

	inner := text[1:end]
	if strings.ContainsAny(inner, "{}") {
		return nil, text[end+len(groupEnd):], errors.New("nested braces")
	}

	for member := range strings.SplitSeq(inner, string(entrySeparator)) {
		if !validMember(member) {
			return nil, text[end+len(groupEnd):], fmt.Errorf("invalid member %q", member)
		}

		members = append(members, member)
	}

	return members, text[end+len(groupEnd):], nil
}

func splitEntry(entry string) (module, member string, err error) {
	if strings.ContainsAny(entry, "{}") {
		return "", "", errors.New("stray brace")
	}

	dot := strings.LastIndexByte(entry, '.')
	if dot < 0 {
		return "", "", errors.New("missing dot between module and member")
	}

	module, member = entry[:dot], entry[dot+1:]

	if moduleErr := checkModule(module); moduleErr != nil {
		return "", "", moduleErr
	}

	if !validMember(member) {
		return "", "", fmt.Errorf("invalid member %q", member)
	}

	return module, member, nil
}

// checkModule accepts dotted identifiers with optional leading dots, or dots alone.
func checkModule(module string) error {
	if module == "" {
		return errors.New("empty module")
	}

	name := strings.TrimLeft(module, ".")
	if name == "" {
		return nil
	}

	for segment := range strings.SplitSeq(name, ".") {
		if !isIdentifier(segment) {
			return fmt.Errorf("invalid module %q", module)
		}
	}

	return nil
}

func validMember(member string) bool {
	return member == Wildcard || isIdentifier(member)
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}

	for i, r := range s {
		switch {
		case r == '_', unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}

	return true
}
