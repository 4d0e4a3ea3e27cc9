package ucioptions

import "strconv"
import "strings"

// ParseLine parses a single `option name … type …` declaration line
// into the corresponding Option variant. Unknown or malformed input
// yields (nil, false) — never a partially-constructed option.
func ParseLine(line string) (Option, bool) {
	return ParseTokens(strings.Fields(line))
}

// ParseTokens is ParseLine given pre-split tokens (e.g. the tokens of
// a line already split by the caller). It is exposed separately
// because that is how the reference implementation's own tests drive
// the parser.
func ParseTokens(tokens []string) (Option, bool) {
	if len(tokens) < 2 || tokens[0] != "option" || tokens[1] != "name" {
		return nil, false
	}

	i := 2
	var nameParts []string
	for i < len(tokens) && tokens[i] != "type" {
		nameParts = append(nameParts, tokens[i])
		i++
	}
	if len(nameParts) == 0 {
		return nil, false
	}
	if i >= len(tokens) || tokens[i] != "type" {
		return nil, false
	}
	i++ // consume "type"
	if i >= len(tokens) {
		return nil, false
	}
	kind := tokens[i]
	i++
	name := strings.Join(nameParts, " ")

	consumeValue := func() string {
		var parts []string
		for i < len(tokens) && !isOptionKeyword(tokens[i]) {
			parts = append(parts, tokens[i])
			i++
		}
		return strings.Join(parts, " ")
	}

	switch kind {
	case "check":
		var defaultVal bool
		for i < len(tokens) {
			if tokens[i] == "default" {
				i++
				if v, err := strconv.ParseBool(consumeValue()); err == nil {
					defaultVal = v
				}
				continue
			}
			i++
		}
		return NewCheckOption(name, defaultVal), true

	case "spin":
		var defaultVal, minVal, maxVal int64
		for i < len(tokens) {
			switch tokens[i] {
			case "default":
				i++
				if v, err := strconv.ParseInt(consumeValue(), 10, 64); err == nil {
					defaultVal = v
				}
			case "min":
				i++
				if v, err := strconv.ParseInt(consumeValue(), 10, 64); err == nil {
					minVal = v
				}
			case "max":
				i++
				if v, err := strconv.ParseInt(consumeValue(), 10, 64); err == nil {
					maxVal = v
				}
			default:
				i++
			}
		}
		return NewSpinOption(name, minVal, maxVal, defaultVal), true

	case "combo":
		var defaultVal string
		var allowed []string
		for i < len(tokens) {
			switch tokens[i] {
			case "default":
				i++
				defaultVal = consumeValue()
			case "var":
				i++
				allowed = append(allowed, consumeValue())
			default:
				i++
			}
		}
		return NewComboOption(name, allowed, defaultVal), true

	case "button":
		return NewButtonOption(name), true

	case "string":
		var defaultVal string
		for i < len(tokens) {
			if tokens[i] == "default" {
				i++
				defaultVal = consumeValue()
				continue
			}
			i++
		}
		return NewStringOption(name, defaultVal), true

	default:
		return nil, false
	}
}

func isOptionKeyword(tok string) bool {
	switch tok {
	case "default", "min", "max", "var":
		return true
	default:
		return false
	}
}
