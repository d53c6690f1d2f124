// Package vars holds the shell's variable tables: local variables that only
// the shell sees and the environment handed to programs it starts.
package vars

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Table is an in-memory set of variables.
type Table struct {
	rw   sync.RWMutex
	vars map[string]string
}

// New creates an empty table.
func New() *Table {
	return &Table{}
}

// FromEnviron creates a table from KEY=VALUE entries, e.g. os.Environ().
func FromEnviron(environ []string) *Table {
	out := New()
	Copy(out, environ)
	return out
}

// Copy sets every KEY=VALUE entry of environ in dst. Entries without a value
// are set to the empty string.
func Copy(dst *Table, environ []string) {
	for _, e := range environ {
		split := strings.SplitN(e, "=", 2)
		key, value := split[0], ""
		if len(split) > 1 {
			value = split[1]
		}
		dst.Set(key, value)
	}
}

// Set assigns a variable.
func (t *Table) Set(key, value string) {
	t.rw.Lock()
	defer t.rw.Unlock()

	if t.vars == nil {
		t.vars = make(map[string]string)
	}
	t.vars[key] = value
}

// Unset removes a variable.
func (t *Table) Unset(key string) {
	t.rw.Lock()
	defer t.rw.Unlock()
	delete(t.vars, key)
}

// Lookup returns a variable and whether it was set.
func (t *Table) Lookup(key string) (string, bool) {
	t.rw.RLock()
	defer t.rw.RUnlock()

	val, ok := t.vars[key]
	return val, ok
}

// Get returns a variable or the empty string.
func (t *Table) Get(key string) string {
	val, _ := t.Lookup(key)
	return val
}

// Names returns the sorted variable names.
func (t *Table) Names() []string {
	t.rw.RLock()
	defer t.rw.RUnlock()

	names := make([]string, 0, len(t.vars))
	for k := range t.vars {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Environ returns the table as sorted KEY=VALUE entries.
func (t *Table) Environ() []string {
	var env []string
	for _, k := range t.Names() {
		env = append(env, fmt.Sprintf("%s=%s", k, t.Get(k)))
	}
	return env
}

// ValidName reports whether name can be used as a variable name: a letter or
// underscore followed by letters, digits and underscores.
func ValidName(name string) bool {
	if name == "" {
		return false
	}
	for i, c := range name {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case i > 0 && c >= '0' && c <= '9':
		default:
			return false
		}
	}
	return true
}

// ParseAssignment splits NAME=VALUE. ok is false if there's no = or the name
// is invalid.
func ParseAssignment(s string) (name, value string, ok bool) {
	split := strings.SplitN(s, "=", 2)
	if len(split) != 2 || !ValidName(split[0]) {
		return "", "", false
	}
	return split[0], split[1], true
}
