package table

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// InferValue converts a text cell to the narrowest value it represents:
// empty and NaN become nil, integers int64, decimals float64, and
// true/false bool. Anything else stays a string.
func InferValue(s string) any {
	t := strings.TrimSpace(s)
	switch t {
	case "":
		return nil
	case "true", "True", "TRUE":
		return true
	case "false", "False", "FALSE":
		return false
	case "NaN", "nan", "NULL", "null":
		return nil
	}
	if i, err := strconv.ParseInt(t, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(t, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return s
}

// FormatValue renders a cell value as text for CSV and spreadsheet output.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	default:
		return fmt.Sprint(x)
	}
}
