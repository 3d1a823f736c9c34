package dashboard

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/leapstack-labs/dashsql/pkg/core"
)

// TimestampLayout formats DATETIME values read back from the database.
const TimestampLayout = "2006-01-02 15:04:05"

// toFloat converts a scanned column value to float64. NULL and
// unparseable values report false.
func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case nil:
		return 0, false
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int64:
		return float64(x), true
	case int32:
		return float64(x), true
	case int:
		return float64(x), true
	case uint64:
		return float64(x), true
	case uint32:
		return float64(x), true
	case bool:
		if x {
			return 1, true
		}
		return 0, true
	case []byte:
		return parseFloat(string(x))
	case string:
		return parseFloat(x)
	default:
		return 0, false
	}
}

func parseFloat(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// toString renders a scanned column value as text. NULL reports false.
func toString(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, true
	case []byte:
		return string(x), true
	case time.Time:
		return x.Format(TimestampLayout), true
	default:
		return fmt.Sprint(x), true
	}
}

func floatPtr(v any) *float64 {
	f, ok := toFloat(v)
	if !ok {
		return nil
	}
	return &f
}

func stringPtr(v any) *string {
	s, ok := toString(v)
	if !ok {
		return nil
	}
	return &s
}

// passFail maps a raw latest-result value onto pass/fail. Values other than
// the 0/1 sentinels are passed through trimmed.
func passFail(v any) *string {
	s, ok := toString(v)
	if !ok {
		return nil
	}
	switch s = strings.TrimSpace(s); s {
	case "1":
		s = core.ResultFail
	case "0":
		s = core.ResultPass
	}
	return &s
}
