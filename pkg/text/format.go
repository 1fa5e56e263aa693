package text

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Format names how a column value is displayed.
type Format string

const (
	FormatText     Format = "text"
	FormatNumber   Format = "number"
	FormatMoney    Format = "money"
	FormatDate     Format = "date"
	FormatRelative Format = "relative"
	FormatBool     Format = "bool"
	FormatHoliday  Format = "holiday"
	FormatBadge    Format = "badge"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseTime interprets v as a timestamp: a time.Time or a string in one of
// the common API layouts.
func ParseTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, !t.IsZero()
	case *time.Time:
		if t == nil {
			return time.Time{}, false
		}
		return *t, !t.IsZero()
	case string:
		s := strings.TrimSpace(t)
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts, true
			}
		}
	}
	return time.Time{}, false
}

// ParseNumber interprets v as a number: any Go numeric, a json.Number or a
// numeric string.
func ParseNumber(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case int32:
		return float64(t), true
	case uint:
		return float64(t), true
	case uint64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	}
	return 0, false
}

// String renders v as plain text, without any formatting.
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case fmt.Stringer:
		return t.String()
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case map[string]any, []any:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	default:
		return fmt.Sprint(t)
	}
}

// FormatValue renders v for display according to f. Values that do not fit
// the format are rendered as plain text.
func FormatValue(v any, f Format, now time.Time) string {
	switch f {
	case FormatNumber:
		if n, ok := ParseNumber(v); ok {
			if n == float64(int64(n)) {
				return humanize.Comma(int64(n))
			}
			return humanize.Commaf(n)
		}
	case FormatMoney:
		if n, ok := ParseNumber(v); ok {
			return humanize.FormatFloat("#,###.##", n)
		}
	case FormatDate:
		if t, ok := ParseTime(v); ok {
			return t.Format("02 Jan 2006")
		}
	case FormatRelative:
		if t, ok := ParseTime(v); ok {
			return RelativeTime(t, now)
		}
	case FormatHoliday:
		if t, ok := ParseTime(v); ok {
			return DayLabel(t)
		}
	case FormatBool:
		switch t := v.(type) {
		case bool:
			if t {
				return "yes"
			}
			return "no"
		case string:
			if b, err := strconv.ParseBool(t); err == nil {
				return FormatValue(b, f, now)
			}
		}
	}
	return String(v)
}
