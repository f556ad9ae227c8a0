package runner

import (
	"runtime"
	"slices"
	"strings"
)

// Env is an immutable process environment in KEY=VALUE form.
// The zero value means "inherit the parent environment".
type Env struct {
	vars []string
}

// BuildEnv copies base and adds every default whose key is not already set.
// Defaults are appended in key order so the result is deterministic.
func BuildEnv(base []string, defaults map[string]string) Env {
	vars := make([]string, 0, len(base)+len(defaults))
	vars = append(vars, base...)
	env := Env{vars: vars}

	keys := make([]string, 0, len(defaults))
	for k := range defaults {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	for _, k := range keys {
		if _, ok := env.Lookup(k); !ok {
			env.vars = append(env.vars, k+"="+defaults[k])
		}
	}
	return env
}

func (e Env) IsZero() bool {
	return e.vars == nil
}

// List returns a copy of the variables.
func (e Env) List() []string {
	return slices.Clone(e.vars)
}

// Lookup returns the value of the last assignment to key.
func (e Env) Lookup(key string) (string, bool) {
	for i := len(e.vars) - 1; i >= 0; i-- {
		k, v, ok := strings.Cut(e.vars[i], "=")
		if !ok {
			continue
		}
		if sameKey(k, key) {
			return v, true
		}
	}
	return "", false
}

// With returns a new Env with key set to value.
func (e Env) With(key, value string) Env {
	vars := make([]string, 0, len(e.vars)+1)
	for _, kv := range e.vars {
		k, _, _ := strings.Cut(kv, "=")
		if !sameKey(k, key) {
			vars = append(vars, kv)
		}
	}
	return Env{vars: append(vars, key+"="+value)}
}

func sameKey(a, b string) bool {
	if runtime.GOOS == "windows" {
		return strings.EqualFold(a, b)
	}
	return a == b
}
