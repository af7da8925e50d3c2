package render

import "maps"

// EffectiveContext merges, in order of increasing precedence, a deep copy of
// the source defaults, the source's own fields under "meta", and overrides.
// The source defaults are never mutated.
func EffectiveContext(src Source, overrides map[string]any) map[string]any {
	out := deepCopyMap(src.Defaults())
	out["meta"] = src.Meta()
	maps.Copy(out, overrides)
	return out
}

func deepCopyMap(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+2)
	for k, v := range in {
		out[k] = deepCopy(v)
	}
	return out
}

func deepCopy(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = deepCopy(item)
		}
		return out
	default:
		return v
	}
}
