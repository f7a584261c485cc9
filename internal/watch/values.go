// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package watch

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Text holds a free string value.
type Text struct {
	base[string]
}

// NewText creates a Text holding value. The initial value is stored without
// validation.
func NewText(app *App, value string, flags Flags) *Text {
	t := &Text{}
	t.init(app, t, value, flags)
	return t
}

// SetValue stores a new string.
func (t *Text) SetValue(value string, agent Agent) (bool, error) {
	return t.commit(value, agent)
}

// Set accepts strings directly and renders anything else with fmt. A nil
// value is rejected.
func (t *Text) Set(value any, agent Agent) (bool, error) {
	switch v := value.(type) {
	case nil:
		return false, fmt.Errorf("watch: nil is not a valid text value")
	case string:
		return t.SetValue(v, agent)
	case fmt.Stringer:
		return t.SetValue(v.String(), agent)
	default:
		return t.SetValue(fmt.Sprint(v), agent)
	}
}

// SetString stores the string as-is.
func (t *Text) SetString(value string, agent Agent) (bool, error) {
	return t.SetValue(value, agent)
}

// FloatOpts configures a Float. The zero value means the full float64 range
// with NaN admitted, matching an unconstrained reading.
type FloatOpts struct {
	// Min and Max bound accepted values. Leaving both zero selects the
	// full float64 range.
	Min, Max float64
	// Clamp pulls out-of-range values to the nearest bound instead of
	// rejecting them.
	Clamp bool
	// NoNaN rejects NaN. Without it NaN passes validation untouched, so a
	// dashboard can show "no reading yet".
	NoNaN bool
}

// Float holds a float64 constrained to a range.
type Float struct {
	base[float64]
	min, max float64
	clamp    bool
	noNaN    bool
}

// NewFloat creates a Float holding value. The initial value is stored
// without validation.
func NewFloat(app *App, value float64, opts FloatOpts, flags Flags) *Float {
	min, max := opts.Min, opts.Max
	if min == 0 && max == 0 {
		min, max = -math.MaxFloat64, math.MaxFloat64
	}
	f := &Float{min: min, max: max, clamp: opts.Clamp, noNaN: opts.NoNaN}
	f.init(app, f, value, flags)
	return f
}

// Range returns the accepted bounds.
func (f *Float) Range() (min, max float64) { return f.min, f.max }

// SetValue validates and stores a new float.
func (f *Float) SetValue(value float64, agent Agent) (bool, error) {
	v, err := f.check(value)
	if err != nil {
		return false, err
	}
	return f.commit(v, agent)
}

func (f *Float) check(v float64) (float64, error) {
	if math.IsNaN(v) {
		if f.noNaN {
			return 0, fmt.Errorf("watch: NaN not accepted")
		}
		return v, nil
	}
	if v < f.min || v > f.max {
		if !f.clamp {
			return 0, fmt.Errorf("watch: %v outside range %v..%v", v, f.min, f.max)
		}
		if v < f.min {
			return f.min, nil
		}
		return f.max, nil
	}
	return v, nil
}

// Set accepts numeric kinds and numeric strings.
func (f *Float) Set(value any, agent Agent) (bool, error) {
	switch v := value.(type) {
	case float64:
		return f.SetValue(v, agent)
	case float32:
		return f.SetValue(float64(v), agent)
	case int:
		return f.SetValue(float64(v), agent)
	case int64:
		return f.SetValue(float64(v), agent)
	case int32:
		return f.SetValue(float64(v), agent)
	case string:
		return f.SetString(v, agent)
	default:
		return false, fmt.Errorf("watch: cannot read %T as float", value)
	}
}

// SetString parses and stores a float from its decimal form.
func (f *Float) SetString(value string, agent Agent) (bool, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return false, fmt.Errorf("watch: %q is not a float", value)
	}
	return f.SetValue(v, agent)
}

// Limit wraps an int64 bound for IntOpts, which take pointers so that nil
// can mean unbounded.
func Limit(v int64) *int64 { return &v }

// IntOpts configures an Int. Nil bounds leave that side open.
type IntOpts struct {
	Min, Max *int64
	// Clamp pulls out-of-range values to the nearest bound instead of
	// rejecting them.
	Clamp bool
}

// Int holds an int64, optionally bounded.
type Int struct {
	base[int64]
	min, max *int64
	clamp    bool
}

// NewInt creates an Int holding value. The initial value is stored without
// validation.
func NewInt(app *App, value int64, opts IntOpts, flags Flags) *Int {
	i := &Int{min: opts.Min, max: opts.Max, clamp: opts.Clamp}
	i.init(app, i, value, flags)
	return i
}

// SetValue validates and stores a new int.
func (i *Int) SetValue(value int64, agent Agent) (bool, error) {
	v, err := i.check(value)
	if err != nil {
		return false, err
	}
	return i.commit(v, agent)
}

func (i *Int) check(v int64) (int64, error) {
	if i.min != nil && v < *i.min {
		if i.clamp {
			return *i.min, nil
		}
		return 0, fmt.Errorf("watch: %d below minimum %d", v, *i.min)
	}
	if i.max != nil && v > *i.max {
		if i.clamp {
			return *i.max, nil
		}
		return 0, fmt.Errorf("watch: %d above maximum %d", v, *i.max)
	}
	return v, nil
}

// Increment adds n to the current value through validation and returns the
// value actually stored.
func (i *Int) Increment(agent Agent, n int64) (int64, error) {
	if _, err := i.SetValue(i.Value()+n, agent); err != nil {
		return 0, err
	}
	return i.Value(), nil
}

// Set accepts integer kinds, floats (truncated toward zero) and decimal
// strings.
func (i *Int) Set(value any, agent Agent) (bool, error) {
	switch v := value.(type) {
	case int:
		return i.SetValue(int64(v), agent)
	case int64:
		return i.SetValue(v, agent)
	case int32:
		return i.SetValue(int64(v), agent)
	case float64:
		return i.SetValue(int64(v), agent)
	case string:
		return i.SetString(v, agent)
	default:
		return false, fmt.Errorf("watch: cannot read %T as int", value)
	}
}

// SetString parses and stores an int from its decimal form.
func (i *Int) SetString(value string, agent Agent) (bool, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return false, fmt.Errorf("watch: %q is not an int", value)
	}
	return i.SetValue(v, agent)
}

// EnumOpts configures how Increment behaves at the ends of the list. The
// zero value wraps, the historic default.
type EnumOpts struct {
	// NoWrap stops Increment from jumping past the ends of the list.
	NoWrap bool
	// Clamp makes Increment stick at the first or last entry when wrapping
	// is off. With both unset an out-of-range step is an error.
	Clamp bool
}

// Enum holds one value out of a fixed list. The stored value is the entry
// itself, not its position.
type Enum struct {
	base[string]
	values []string
	wrap   bool
	clamp  bool
}

// NewEnum creates an Enum over values, initially holding value. The list
// must not be empty; the initial value is stored without validation.
func NewEnum(app *App, values []string, value string, opts EnumOpts, flags Flags) (*Enum, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("watch: enum needs at least one value")
	}
	e := &Enum{values: append([]string(nil), values...), wrap: !opts.NoWrap, clamp: opts.Clamp}
	e.init(app, e, value, flags)
	return e, nil
}

// Values returns a copy of the value list.
func (e *Enum) Values() []string {
	return append([]string(nil), e.values...)
}

// Index returns the position of the current value in the list, or -1 when
// the initial value was never a member.
func (e *Enum) Index() int {
	cur := e.Value()
	for i, v := range e.values {
		if v == cur {
			return i
		}
	}
	return -1
}

// SetValue stores a new value after checking list membership.
func (e *Enum) SetValue(value string, agent Agent) (bool, error) {
	for _, v := range e.values {
		if v == value {
			return e.commit(value, agent)
		}
	}
	return false, fmt.Errorf("watch: %q is not one of %v", value, e.values)
}

// SetIndex stores the list entry at position i.
func (e *Enum) SetIndex(i int, agent Agent) (bool, error) {
	if i < 0 || i >= len(e.values) {
		return false, fmt.Errorf("watch: index %d out of range 0..%d", i, len(e.values)-1)
	}
	return e.commit(e.values[i], agent)
}

// Increment moves n steps through the list. Past the ends it wraps to the
// far entry, clamps to the near one, or errors, per the options.
func (e *Enum) Increment(agent Agent, n int) (bool, error) {
	idx := e.Index()
	if idx < 0 {
		return false, fmt.Errorf("watch: current value %q is not in the list", e.Value())
	}
	ni := idx + n
	switch {
	case ni >= 0 && ni < len(e.values):
	case e.wrap:
		if ni < 0 {
			ni = len(e.values) - 1
		} else {
			ni = 0
		}
	case e.clamp:
		if ni < 0 {
			ni = 0
		} else {
			ni = len(e.values) - 1
		}
	default:
		return false, fmt.Errorf("watch: step %d moves outside the list", n)
	}
	return e.commit(e.values[ni], agent)
}

// Set accepts strings (and anything fmt can render) subject to membership.
func (e *Enum) Set(value any, agent Agent) (bool, error) {
	switch v := value.(type) {
	case string:
		return e.SetValue(v, agent)
	case fmt.Stringer:
		return e.SetValue(v.String(), agent)
	default:
		return e.SetValue(fmt.Sprint(v), agent)
	}
}

// SetString stores the string subject to membership.
func (e *Enum) SetString(value string, agent Agent) (bool, error) {
	return e.SetValue(value, agent)
}

// Button is a watchable that never changes value: every set fires the
// observers with the fixed value on both sides, giving click semantics.
type Button struct {
	base[string]
}

// NewButton creates a Button labelled value.
func NewButton(app *App, value string, flags Flags) *Button {
	b := &Button{}
	b.init(app, b, value, flags)
	return b
}

// Press fires the observers registered for agent.
func (b *Button) Press(agent Agent) (bool, error) {
	return b.commitAlways(agent)
}

// SetValue ignores the supplied value and fires the observers.
func (b *Button) SetValue(_ string, agent Agent) (bool, error) {
	return b.commitAlways(agent)
}

// Set ignores the supplied value and fires the observers.
func (b *Button) Set(_ any, agent Agent) (bool, error) {
	return b.commitAlways(agent)
}

// SetString ignores the supplied value and fires the observers.
func (b *Button) SetString(_ string, agent Agent) (bool, error) {
	return b.commitAlways(agent)
}

// Folder holds a directory path. Paths are created on demand; a path naming
// an existing non-directory is rejected.
type Folder struct {
	base[string]
}

// NewFolder creates a Folder for path, creating the directory if needed.
// Unlike the other kinds the initial value is validated.
func NewFolder(app *App, path string, flags Flags) (*Folder, error) {
	p, err := checkFolder(path)
	if err != nil {
		return nil, err
	}
	f := &Folder{}
	f.init(app, f, p, flags)
	return f, nil
}

func checkFolder(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("watch: empty folder path")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("watch: expanding %q: %w", path, err)
		}
		path = filepath.Join(home, path[1:])
	}
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", fmt.Errorf("watch: %s exists and is not a folder", path)
		}
	case os.IsNotExist(err):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return "", fmt.Errorf("watch: creating %s: %w", path, err)
		}
	default:
		return "", fmt.Errorf("watch: checking %s: %w", path, err)
	}
	return path, nil
}

// Path returns the current directory path.
func (f *Folder) Path() string { return f.Value() }

// SetValue validates (creating if needed) and stores a new path.
func (f *Folder) SetValue(path string, agent Agent) (bool, error) {
	p, err := checkFolder(path)
	if err != nil {
		return false, err
	}
	return f.commit(p, agent)
}

// Set accepts string paths only.
func (f *Folder) Set(value any, agent Agent) (bool, error) {
	s, ok := value.(string)
	if !ok {
		return false, fmt.Errorf("watch: cannot read %T as folder path", value)
	}
	return f.SetValue(s, agent)
}

// SetString validates and stores the path.
func (f *Folder) SetString(value string, agent Agent) (bool, error) {
	return f.SetValue(value, agent)
}

// Files lists the plain files in the folder. With includes set, only names
// ending in one of the include suffixes are returned; any name ending in one
// of the exclude suffixes is dropped.
func (f *Folder) Files(includes, excludes []string) ([]string, error) {
	entries, err := os.ReadDir(f.Value())
	if err != nil {
		return nil, fmt.Errorf("watch: reading %s: %w", f.Value(), err)
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		name := ent.Name()
		if len(includes) > 0 && !hasSuffixIn(name, includes) {
			continue
		}
		if hasSuffixIn(name, excludes) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func hasSuffixIn(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
