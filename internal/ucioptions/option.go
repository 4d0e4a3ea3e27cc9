// Package ucioptions models UCI engine options: the tagged-value
// variants a `setoption` target can hold, and the insertion-ordered
// registry that a session accumulates them into while parsing an
// engine's `option name … type …` declarations.
package ucioptions

import (
	"strconv"
	"strings"
)

// Type identifies the UCI option variant.
type Type int

const (
	Check Type = iota
	Spin
	Combo
	Button
	String
)

func (t Type) String() string {
	switch t {
	case Check:
		return "check"
	case Spin:
		return "spin"
	case Combo:
		return "combo"
	case Button:
		return "button"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// Option is satisfied by every option variant.
type Option interface {
	Name() string
	Kind() Type
	// Modified reports whether the current value differs from the
	// default as of the last successful update.
	Modified() bool
	// StringValue renders the current value the way it would appear on
	// a `setoption ... value ...` line.
	StringValue() string
	// SetFromString parses s and applies it as the new current value,
	// returning true iff the value actually changed. Malformed or
	// out-of-range input leaves the option untouched and returns false.
	SetFromString(s string) bool
	// Visible reports whether the host should surface this option to
	// the user, as opposed to managing it itself (see Classify).
	Visible() bool
	setVisible(bool)
}

// base carries the fields common to every variant.
type base struct {
	name     string
	visible  bool
	modified bool
}

func (b *base) Name() string       { return b.name }
func (b *base) Modified() bool     { return b.modified }
func (b *base) Visible() bool      { return b.visible }
func (b *base) setVisible(v bool)  { b.visible = v }

// CheckOption is a boolean toggle.
type CheckOption struct {
	base
	Default bool
	Value   bool
}

// NewCheckOption constructs a check option with defaultValue as both
// the default and current value.
func NewCheckOption(name string, defaultValue bool) *CheckOption {
	return &CheckOption{base: base{name: name, visible: true}, Default: defaultValue, Value: defaultValue}
}

func (o *CheckOption) Kind() Type { return Check }

func (o *CheckOption) StringValue() string {
	return strconv.FormatBool(o.Value)
}

// Set assigns a new boolean value, returning true iff it changed.
func (o *CheckOption) Set(v bool) bool {
	if v == o.Value {
		return false
	}
	o.Value = v
	o.modified = v != o.Default
	return true
}

func (o *CheckOption) SetFromString(s string) bool {
	v, err := strconv.ParseBool(s)
	if err != nil {
		return false
	}
	return o.Set(v)
}

// SpinOption is a bounded integer.
type SpinOption struct {
	base
	Min, Max, Default int64
	Value             int64
}

// NewSpinOption constructs a spin option; defaultValue is both the
// default and current value.
func NewSpinOption(name string, min, max, defaultValue int64) *SpinOption {
	return &SpinOption{base: base{name: name, visible: true}, Min: min, Max: max, Default: defaultValue, Value: defaultValue}
}

func (o *SpinOption) Kind() Type { return Spin }

func (o *SpinOption) StringValue() string {
	return strconv.FormatInt(o.Value, 10)
}

// Set assigns a new value if in range, returning true iff it changed.
// Out-of-range values are rejected without mutation.
func (o *SpinOption) Set(v int64) bool {
	if v < o.Min || v > o.Max {
		return false
	}
	if v == o.Value {
		return false
	}
	o.Value = v
	o.modified = v != o.Default
	return true
}

func (o *SpinOption) SetFromString(s string) bool {
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return false
	}
	return o.Set(v)
}

// ComboOption is a value drawn from a fixed, case-insensitively
// matched allowed set.
type ComboOption struct {
	base
	Allowed []string
	Default string
	Value   string
}

// NewComboOption constructs a combo option. defaultValue must appear
// in allowed (case-insensitively) for the option to behave sensibly,
// but this is not enforced at construction time — it mirrors an
// engine's own `option` declaration, which the parser trusts.
func NewComboOption(name string, allowed []string, defaultValue string) *ComboOption {
	cp := make([]string, len(allowed))
	copy(cp, allowed)
	return &ComboOption{base: base{name: name, visible: true}, Allowed: cp, Default: defaultValue, Value: defaultValue}
}

func (o *ComboOption) Kind() Type { return Combo }

func (o *ComboOption) StringValue() string { return o.Value }

// Set assigns v if it matches an allowed value case-insensitively,
// storing the canonical (allowed-set) casing. Returns true iff the
// stored value changed.
func (o *ComboOption) Set(v string) bool {
	canonical, ok := matchCaseInsensitive(o.Allowed, v)
	if !ok {
		return false
	}
	if canonical == o.Value {
		return false
	}
	o.Value = canonical
	o.modified = canonical != o.Default
	return true
}

func (o *ComboOption) SetFromString(s string) bool { return o.Set(s) }

func matchCaseInsensitive(allowed []string, v string) (string, bool) {
	for _, a := range allowed {
		if strings.EqualFold(a, v) {
			return a, true
		}
	}
	return "", false
}

// ButtonOption is a valueless action trigger.
type ButtonOption struct {
	base
}

// NewButtonOption constructs a button option.
func NewButtonOption(name string) *ButtonOption {
	return &ButtonOption{base: base{name: name, visible: true}}
}

func (o *ButtonOption) Kind() Type          { return Button }
func (o *ButtonOption) StringValue() string { return "" }

// SetFromString is always a no-op for buttons; they carry no value.
func (o *ButtonOption) SetFromString(string) bool { return false }

// StringOption is free-form text.
type StringOption struct {
	base
	Default string
	Value   string
}

// NewStringOption constructs a string option.
func NewStringOption(name, defaultValue string) *StringOption {
	return &StringOption{base: base{name: name, visible: true}, Default: defaultValue, Value: defaultValue}
}

func (o *StringOption) Kind() Type          { return String }
func (o *StringOption) StringValue() string { return o.Value }

// Set assigns a new string value, returning true iff it changed.
func (o *StringOption) Set(v string) bool {
	if v == o.Value {
		return false
	}
	o.Value = v
	o.modified = v != o.Default
	return true
}

func (o *StringOption) SetFromString(s string) bool { return o.Set(s) }
