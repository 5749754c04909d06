// Package settings implements the layered configuration trees that back the
// generated per-tool config files: deep merging with explicit precedence,
// and flattening of nested sections into OSKAR-style slash-separated keys.
package settings

import (
	"fmt"
	"sort"
	"strconv"
)

// Tree is a nested mapping of section/key names to scalar values or further
// trees. It aliases map[string]any so values decoded by yaml.v3 can be used
// directly as layers.
type Tree = map[string]any

// Clone returns a deep copy of a tree. Layers loaded once from the master
// document are shared read-only state; every merge starts from a clone so
// no run can mutate another run's input.
func Clone(t Tree) Tree {
	out := make(Tree, len(t))
	for k, v := range t {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return Clone(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// SubTree returns the nested tree at key, or an empty tree when the key is
// absent or holds a scalar.
func SubTree(t Tree, key string) Tree {
	if sub, ok := t[key].(map[string]any); ok {
		return sub
	}
	return Tree{}
}

// Flatten collapses a nested tree into a single-level map with path segments
// joined by "/", the key form OSKAR expects inside an INI section. Booleans
// become lowercase true/false, nil values are dropped entirely.
func Flatten(t Tree) map[string]string {
	flat := make(map[string]string)
	flattenInto(flat, t, "")
	return flat
}

func flattenInto(flat map[string]string, t Tree, prefix string) {
	for key, v := range t {
		if v == nil {
			continue
		}
		path := key
		if prefix != "" {
			path = prefix + "/" + key
		}
		if sub, ok := v.(map[string]any); ok {
			flattenInto(flat, sub, path)
			continue
		}
		flat[path] = FormatValue(v)
	}
}

// SortedKeys returns the keys of a flattened map in lexical order, used to
// keep generated files byte-identical across invocations.
func SortedKeys(flat map[string]string) []string {
	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatValue renders a scalar the way the external tools expect it on the
// wire: lowercase booleans, full-precision numbers without exponent noise.
func FormatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	default:
		return fmt.Sprintf("%v", val)
	}
}
