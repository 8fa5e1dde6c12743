// FILE: log/record.go
package log

import (
	"fmt"
	"strconv"
	"time"

	"github.com/davecgh/go-spew/spew"
)

// spewCfg renders values the record formatter has no explicit case for.
// Configured for compact, log-friendly single-record output.
var spewCfg = &spew.ConfigState{
	Indent:                  " ",
	MaxDepth:                10,
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	SortKeys:                true,
}

// formatRecord builds one fully formatted record line:
// an optional "[LEVEL]: " prefix, msgs joined by opts.Sep, then opts.End.
// opts must already be normalized except for Level, which may be empty to
// omit the prefix entirely.
func formatRecord(opts LogOptions, msgs []any) string {
	buf := make([]byte, 0, 64)
	if opts.Level != "" {
		buf = append(buf, '[')
		buf = append(buf, opts.Level...)
		buf = append(buf, "]: "...)
	}
	for i, msg := range msgs {
		if i > 0 {
			buf = append(buf, opts.Sep...)
		}
		buf = appendValue(buf, msg)
	}
	buf = append(buf, opts.End...)
	return string(buf)
}

// appendValue converts a single message value to text.
func appendValue(buf []byte, v any) []byte {
	switch val := v.(type) {
	case string:
		return append(buf, val...)
	case []byte:
		return append(buf, val...)
	case int:
		return strconv.AppendInt(buf, int64(val), 10)
	case int64:
		return strconv.AppendInt(buf, val, 10)
	case uint:
		return strconv.AppendUint(buf, uint64(val), 10)
	case uint64:
		return strconv.AppendUint(buf, val, 10)
	case float32:
		return strconv.AppendFloat(buf, float64(val), 'f', -1, 32)
	case float64:
		return strconv.AppendFloat(buf, val, 'f', -1, 64)
	case bool:
		return strconv.AppendBool(buf, val)
	case nil:
		return append(buf, "nil"...)
	case time.Time:
		return val.AppendFormat(buf, time.RFC3339Nano)
	case error:
		return append(buf, val.Error()...)
	case fmt.Stringer:
		return append(buf, val.String()...)
	default:
		// Structs, maps, pointers and the rest go through spew for a
		// deterministic, bounded-depth rendering.
		return append(buf, spewCfg.Sprintf("%v", val)...)
	}
}
