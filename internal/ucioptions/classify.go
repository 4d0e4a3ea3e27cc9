package ucioptions

import "strings"

// hostManaged lists option names the host configures itself (from its
// own settings, not by prompting the user) rather than surfacing for
// direct editing. Matching is case-insensitive.
var hostManaged = map[string]bool{
	"hash":              true,
	"ponder":            true,
	"multipv":           true,
	"uci_chess960":      true,
	"uci_limitstrength":  true,
	"uci_elo":           true,
	"ownbook":           true,
	"syzygypath":        true,
	"gaviotatbpath":     true,
}

// Classify reports whether an option with the given name should be
// surfaced to the user for editing. Names in hostManaged, and any name
// with the UCI_ prefix, are host-managed instead: the host applies its
// own configured value and hides the option from the editable list.
func Classify(name string) bool {
	lower := strings.ToLower(name)
	if strings.HasPrefix(lower, "uci_") {
		return false
	}
	return !hostManaged[lower]
}

// ApplyVisibility sets opt's visibility according to Classify and
// returns opt for chaining.
func ApplyVisibility(opt Option) Option {
	opt.setVisible(Classify(opt.Name()))
	return opt
}
