// Specula - Watchable Values and Home Dashboard Toolkit
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/specula

package vars

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
)

// Text is a leaf var holding a free string.
type Text struct {
	base[string]
}

// NewText creates a text var under parent.
func NewText(parent Var, opts Opts) (*Text, error) {
	t := &Text{}
	if err := attachLeaf(parent, opts, t, &t.base, t.check); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *Text) check(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", fmt.Errorf("nil is not a valid text value")
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// Set stores a new value; anything fmt can render is accepted, nil is not.
func (t *Text) Set(value any, agent string) (bool, error) {
	v, err := t.check(value)
	if err != nil {
		return false, fmt.Errorf("vars: %s: %w", t.HierName(), err)
	}
	return t.setChecked(v, agent)
}

// SetValue stores a new string.
func (t *Text) SetValue(value string, agent string) (bool, error) {
	return t.setChecked(value, agent)
}

// Full range bounds for NewFloat.
const (
	MinFloat = -math.MaxFloat64
	MaxFloat = math.MaxFloat64
)

// Float is a leaf var holding a float64 within a range.
type Float struct {
	base[float64]
	min, max float64
	clamp    bool
}

// NewFloat creates a float var under parent accepting min..max. With clamp
// set, out-of-range values are pulled to the nearest bound instead of
// rejected. Use MinFloat and MaxFloat for an unbounded side.
func NewFloat(parent Var, opts Opts, min, max float64, clamp bool) (*Float, error) {
	if max < min {
		return nil, fmt.Errorf("vars: %s: bad range %v..%v", opts.Name, min, max)
	}
	f := &Float{min: min, max: max, clamp: clamp}
	if err := attachLeaf(parent, opts, f, &f.base, f.check); err != nil {
		return nil, err
	}
	return f, nil
}

// Range returns the accepted bounds.
func (f *Float) Range() (min, max float64) { return f.min, f.max }

func (f *Float) check(value any) (float64, error) {
	var v float64
	switch x := value.(type) {
	case nil:
		return 0, fmt.Errorf("nil is not a number")
	case float64:
		v = x
	case float32:
		v = float64(x)
	case int:
		v = float64(x)
	case int64:
		v = float64(x)
	case int32:
		v = float64(x)
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not a number", x)
		}
		v = p
	default:
		return 0, fmt.Errorf("cannot read %T as a number", value)
	}
	if f.clamp {
		if v < f.min {
			return f.min, nil
		}
		if v > f.max {
			return f.max, nil
		}
		return v, nil
	}
	if v >= f.min && v <= f.max {
		return v, nil
	}
	return 0, fmt.Errorf("value %v is outside range %v to %v", v, f.min, f.max)
}

// Set validates and stores a new value; numbers and numeric strings are
// accepted.
func (f *Float) Set(value any, agent string) (bool, error) {
	v, err := f.check(value)
	if err != nil {
		return false, fmt.Errorf("vars: %s: %w", f.HierName(), err)
	}
	return f.setChecked(v, agent)
}

// SetValue validates and stores a new float.
func (f *Float) SetValue(value float64, agent string) (bool, error) {
	return f.Set(value, agent)
}

// Limit wraps an int64 bound for NewInt, which takes pointers so that nil
// can mean unbounded.
func Limit(v int64) *int64 { return &v }

// Int is a leaf var holding an int64, optionally bounded.
type Int struct {
	base[int64]
	min, max *int64
	clamp    bool
}

// NewInt creates an int var under parent. Nil bounds leave that side open;
// with clamp set, out-of-range values are pulled to the nearest bound.
func NewInt(parent Var, opts Opts, min, max *int64, clamp bool) (*Int, error) {
	i := &Int{min: min, max: max, clamp: clamp}
	if err := attachLeaf(parent, opts, i, &i.base, i.check); err != nil {
		return nil, err
	}
	return i, nil
}

func (i *Int) check(value any) (int64, error) {
	var v int64
	switch x := value.(type) {
	case nil:
		return 0, fmt.Errorf("nil is not an integer")
	case int:
		v = int64(x)
	case int64:
		v = x
	case int32:
		v = int64(x)
	case float64:
		v = int64(x)
	case string:
		p, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%q is not an integer", x)
		}
		v = p
	default:
		return 0, fmt.Errorf("cannot read %T as an integer", value)
	}
	if i.min != nil && v < *i.min {
		if i.clamp {
			return *i.min, nil
		}
		return 0, fmt.Errorf("value %d is below minimum %d", v, *i.min)
	}
	if i.max != nil && v > *i.max {
		if i.clamp {
			return *i.max, nil
		}
		return 0, fmt.Errorf("value %d is above maximum %d", v, *i.max)
	}
	return v, nil
}

// Set validates and stores a new value; integers, floats (truncated toward
// zero) and decimal strings are accepted.
func (i *Int) Set(value any, agent string) (bool, error) {
	v, err := i.check(value)
	if err != nil {
		return false, fmt.Errorf("vars: %s: %w", i.HierName(), err)
	}
	return i.setChecked(v, agent)
}

// SetValue validates and stores a new int.
func (i *Int) SetValue(value int64, agent string) (bool, error) {
	return i.Set(value, agent)
}

// Increment adds count to the current value through validation.
func (i *Int) Increment(agent string, count int64) (bool, error) {
	return i.Set(i.Value()+count, agent)
}

// Mode selects how Enum.Increment behaves at the ends of the list.
type Mode string

const (
	// ModeWrap steps across the ends, modulo the list length.
	ModeWrap Mode = "wrap"
	// ModeClamp sticks at the first or last entry.
	ModeClamp Mode = "clamp"
	// ModeAbs rejects steps past either end.
	ModeAbs Mode = "abs"
)

// Enum is a leaf var holding one entry of a list. The stored form is the
// entry's index; Get, String and notifications present the entry itself.
type Enum struct {
	base[int]
	mode Mode
	// values is guarded by the base mutex: SetList replaces it at runtime.
	values []string
}

// NewEnum creates an enum var under parent over the given list. An empty
// mode means ModeWrap; an absent fallback means the first entry, so an
// enum without an initial value starts there.
func NewEnum(parent Var, opts Opts, values []string, mode Mode) (*Enum, error) {
	if len(values) == 0 {
		return nil, fmt.Errorf("vars: %s: value list cannot be empty", opts.Name)
	}
	if mode == "" {
		mode = ModeWrap
	}
	switch mode {
	case ModeWrap, ModeClamp, ModeAbs:
	default:
		return nil, fmt.Errorf("vars: %s: mode %q is not wrap, clamp or abs", opts.Name, mode)
	}
	if opts.Fallback == nil {
		opts.Fallback = values[0]
	}
	e := &Enum{mode: mode, values: append([]string(nil), values...)}
	e.render = e.entryAt
	if err := attachLeaf(parent, opts, e, &e.base, e.check); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Enum) check(value any) (int, error) {
	var s string
	switch v := value.(type) {
	case nil:
		return 0, fmt.Errorf("nil is not a list entry")
	case string:
		s = v
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, cand := range e.values {
		if cand == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%q is not one of %v", s, e.values)
}

// entryAt is the render hook: it maps the stored index to the list entry.
func (e *Enum) entryAt(i int) any {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i >= 0 && i < len(e.values) {
		return e.values[i]
	}
	return e.values[0]
}

// Value returns the current list entry.
func (e *Enum) Value() string {
	return e.entryAt(e.base.Value()).(string)
}

// Index returns the position of the current entry, falling back to 0 if
// the stored index no longer fits the list.
func (e *Enum) Index() int {
	i := e.base.Value()
	e.mu.Lock()
	defer e.mu.Unlock()
	if i >= 0 && i < len(e.values) {
		return i
	}
	return 0
}

// Values returns a copy of the list.
func (e *Enum) Values() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.values...)
}

// Mode returns the end-of-list behaviour.
func (e *Enum) Mode() Mode { return e.mode }

// Set stores the entry matching value, which must be in the list.
func (e *Enum) Set(value any, agent string) (bool, error) {
	i, err := e.check(value)
	if err != nil {
		return false, fmt.Errorf("vars: %s: %w", e.HierName(), err)
	}
	return e.setChecked(i, agent)
}

// SetValue stores a new entry after checking list membership.
func (e *Enum) SetValue(value string, agent string) (bool, error) {
	return e.Set(value, agent)
}

// SetIndex stores the entry at the given position, letting callers stay
// independent of the entry text.
func (e *Enum) SetIndex(index int, agent string) (bool, error) {
	e.mu.Lock()
	n := len(e.values)
	e.mu.Unlock()
	if index < 0 || index >= n {
		return false, fmt.Errorf("vars: %s: index %d out of range 0..%d", e.HierName(), index, n-1)
	}
	return e.setChecked(index, agent)
}

// Increment moves count entries through the list, handling the ends per
// the mode.
func (e *Enum) Increment(agent string, count int) (bool, error) {
	e.mu.Lock()
	idx, n := e.val, len(e.values)
	e.mu.Unlock()
	ni := idx + count
	if ni < 0 || ni >= n {
		switch e.mode {
		case ModeAbs:
			return false, fmt.Errorf("vars: cannot step %s beyond its list", e.HierName())
		case ModeClamp:
			if ni < 0 {
				ni = 0
			} else {
				ni = n - 1
			}
		default:
			ni = ((ni % n) + n) % n
		}
	}
	return e.setChecked(ni, agent)
}

// SetList replaces the value list. The current entry is kept when the new
// list still contains it, otherwise the first entry is taken. Observers are
// notified even when the stored index did not move, since the entry it
// names may have.
func (e *Enum) SetList(values []string, agent string) (bool, error) {
	if len(values) == 0 {
		return false, fmt.Errorf("vars: %s: value list cannot be empty", e.HierName())
	}
	if !e.root.Known(agent) {
		return false, fmt.Errorf("vars: agent %q not known in setting var %s", agent, e.Name())
	}
	e.mu.Lock()
	if slices.Equal(values, e.values) {
		e.mu.Unlock()
		return false, nil
	}
	oldEntry := e.values[0]
	if e.val >= 0 && e.val < len(e.values) {
		oldEntry = e.values[e.val]
	}
	e.values = append([]string(nil), values...)
	ni := 0
	for i, cand := range e.values {
		if cand == oldEntry {
			ni = i
			break
		}
	}
	e.mu.Unlock()
	changed, err := e.setChecked(ni, agent)
	if err != nil {
		return false, err
	}
	if !changed {
		e.forceNotify(agent, oldEntry, values[ni])
	}
	return true, nil
}

// Folder is a leaf var holding a directory path. Paths are created on
// demand; a path naming an existing non-directory is rejected.
type Folder struct {
	base[string]
}

// NewFolder creates a folder var under parent, creating the directory the
// initial value names if needed.
func NewFolder(parent Var, opts Opts) (*Folder, error) {
	f := &Folder{}
	if err := attachLeaf(parent, opts, f, &f.base, f.check); err != nil {
		return nil, err
	}
	return f, nil
}

func (f *Folder) check(value any) (string, error) {
	var path string
	switch v := value.(type) {
	case nil:
		return "", fmt.Errorf("nil is not a folder path")
	case string:
		path = v
	case fmt.Stringer:
		path = v.String()
	default:
		return "", fmt.Errorf("cannot read %T as a folder path", value)
	}
	return folderPath(path)
}

// folderPath expands, cleans and materialises a directory path.
func folderPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty folder path")
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("expanding %q: %w", path, err)
		}
		path = filepath.Join(home, path[1:])
	}
	path = filepath.Clean(path)
	info, err := os.Stat(path)
	switch {
	case err == nil:
		if !info.IsDir() {
			return "", fmt.Errorf("%s is not a folder", path)
		}
	case os.IsNotExist(err):
		if err := os.MkdirAll(path, 0o755); err != nil {
			return "", fmt.Errorf("creating %s: %w", path, err)
		}
	default:
		return "", fmt.Errorf("checking %s: %w", path, err)
	}
	return path, nil
}

// Set validates (creating if needed) and stores a new path.
func (f *Folder) Set(value any, agent string) (bool, error) {
	v, err := f.check(value)
	if err != nil {
		return false, fmt.Errorf("vars: %s: %w", f.HierName(), err)
	}
	return f.setChecked(v, agent)
}

// Path returns the current directory path.
func (f *Folder) Path() string { return f.Value() }

// Files lists the plain files in the folder. With includes set, only names
// ending in one of the include suffixes are returned; any name ending in
// one of the exclude suffixes is dropped.
func (f *Folder) Files(includes, excludes []string) ([]string, error) {
	dir := f.Value()
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("vars: reading %s: %w", dir, err)
	}
	var names []string
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		name := ent.Name()
		if len(includes) > 0 && !suffixMatch(name, includes) {
			continue
		}
		if suffixMatch(name, excludes) {
			continue
		}
		names = append(names, name)
	}
	return names, nil
}

func suffixMatch(name string, suffixes []string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(name, s) {
			return true
		}
	}
	return false
}
