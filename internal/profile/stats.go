package profile

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// meanStdDev returns the arithmetic mean and population standard deviation.
// Returns (0, 0) for an empty slice.
func meanStdDev(values []float64) (mean, stddev float64) {
	count := len(values)
	if count == 0 {
		return 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}

	mean = sum / float64(count)

	var sumSq float64

	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}

	return mean, math.Sqrt(sumSq / float64(count))
}

// minMax returns the smallest and largest value. NaN inputs are ignored unless
// every input is NaN.
func minMax(values []float64) (lo, hi float64) {
	lo, hi = math.NaN(), math.NaN()

	for _, v := range values {
		if math.IsNaN(v) {
			continue
		}

		if math.IsNaN(lo) || v < lo {
			lo = v
		}

		if math.IsNaN(hi) || v > hi {
			hi = v
		}
	}

	return lo, hi
}

// toFloat converts a numeric cell to float64.
func toFloat(v any) (float64, error) {
	switch x := v.(type) {
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case float32:
		return float64(x), nil
	case float64:
		return x, nil
	case json.Number:
		return x.Float64()
	case string:
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, fmt.Errorf("value %q is not numeric", x)
		}

		return f, nil
	default:
		return 0, fmt.Errorf("value of type %T is not numeric", v)
	}
}
