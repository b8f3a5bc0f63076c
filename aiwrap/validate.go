package aiwrap

import "fmt"

// validateOutput checks a raw invoker result against the declared
// output shape and normalizes it into a Result. Any mismatch is an
// ErrMalformedOutput.
func validateOutput(spec OutputSpec, raw any) (Result, error) {
	switch spec.Type {
	case BoolOutput:
		b, ok := raw.(bool)
		if !ok {
			return Result{}, fmt.Errorf("%w: expected bool, got %T", ErrMalformedOutput, raw)
		}
		return Result{value: b}, nil

	case NumberOutput:
		n, ok := toFloat(raw)
		if !ok {
			return Result{}, fmt.Errorf("%w: expected number, got %T", ErrMalformedOutput, raw)
		}
		return Result{value: n}, nil

	default: // TextOutput
		s, ok := raw.(string)
		if !ok {
			return Result{}, fmt.Errorf("%w: expected text, got %T", ErrMalformedOutput, raw)
		}
		if len(spec.Enum) > 0 && !inEnum(spec.Enum, s) {
			return Result{}, fmt.Errorf("%w: %q is not an allowed value", ErrMalformedOutput, s)
		}
		return Result{value: s}, nil
	}
}

func toFloat(raw any) (float64, bool) {
	switch n := raw.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	default:
		return 0, false
	}
}

func inEnum(values []string, s string) bool {
	for _, v := range values {
		if v == s {
			return true
		}
	}
	return false
}
