package settings

import "fmt"

// ConflictTypeError reports an attempt to merge a nested section over a
// scalar value at the same path. This signals a malformed layer definition
// and is never coerced silently.
type ConflictTypeError struct {
	Path string
}

func (e *ConflictTypeError) Error() string {
	return fmt.Sprintf("cannot merge nested section over scalar value at %q", e.Path)
}

// Merge layers configuration trees into one effective tree. Precedence,
// highest to lowest: globalFlags > axisOverrides (later entries win) >
// moduleSettings > defaults.
//
// The merge is deep: nested sections are merged key by key. A scalar in a
// higher layer fully replaces whatever sits at the same path below it,
// scalar or sub-tree. A nested section in a higher layer over a scalar
// below it is a ConflictTypeError. Nil values in any layer are skipped, so
// unset optional keys never overwrite real values with placeholders.
//
// The inputs are never mutated; the result is freshly allocated.
func Merge(defaults, moduleSettings Tree, axisOverrides []Tree, globalFlags Tree) (Tree, error) {
	merged := Clone(defaults)

	layers := make([]Tree, 0, len(axisOverrides)+2)
	layers = append(layers, moduleSettings)
	layers = append(layers, axisOverrides...)
	layers = append(layers, globalFlags)

	for _, layer := range layers {
		if layer == nil {
			continue
		}
		if err := overlay(merged, layer, ""); err != nil {
			return nil, err
		}
	}
	return merged, nil
}

func overlay(dst, src Tree, prefix string) error {
	for key, v := range src {
		if v == nil {
			continue
		}
		path := key
		if prefix != "" {
			path = prefix + "/" + key
		}

		sub, isTree := v.(map[string]any)
		if !isTree {
			// Scalars always win outright, including over sub-trees.
			dst[key] = cloneValue(v)
			continue
		}

		switch cur := dst[key].(type) {
		case map[string]any:
			if err := overlay(cur, sub, path); err != nil {
				return err
			}
		case nil:
			fresh := Tree{}
			if err := overlay(fresh, sub, path); err != nil {
				return err
			}
			dst[key] = fresh
		default:
			return &ConflictTypeError{Path: path}
		}
	}
	return nil
}
