package google

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Keep selects which occurrence of a duplicated row survives.
type Keep string

const (
	KeepFirst Keep = "first"
	KeepLast  Keep = "last"
)

// ParseKeep validates a keep option, defaulting to KeepFirst.
func ParseKeep(s string) (Keep, error) {
	switch Keep(strings.ToLower(strings.TrimSpace(s))) {
	case "", KeepFirst:
		return KeepFirst, nil
	case KeepLast:
		return KeepLast, nil
	default:
		return "", fmt.Errorf("invalid keep option %q, must be 'first' or 'last'", s)
	}
}

// DuplicateRows returns the 0-based sheet indices of rows whose key columns
// repeat an earlier data row. Rows before headerRows are never considered.
// A cell missing from a short row is distinct from any present value.
// The result has no repeats and is sorted in descending order.
func DuplicateRows(rows [][]interface{}, keyColumns []int, headerRows int, keep Keep) []int64 {
	seen := make(map[string]int)
	var doomed []int

	for i := headerRows; i < len(rows); i++ {
		key := rowKey(rows[i], keyColumns)
		prev, dup := seen[key]
		switch {
		case !dup:
			seen[key] = i
		case keep == KeepLast:
			doomed = append(doomed, prev)
			seen[key] = i
		default:
			doomed = append(doomed, i)
		}
	}

	unique := make(map[int]struct{}, len(doomed))
	out := make([]int64, 0, len(doomed))
	for _, i := range doomed {
		if _, ok := unique[i]; ok {
			continue
		}
		unique[i] = struct{}{}
		out = append(out, int64(i))
	}
	sort.Slice(out, func(a, b int) bool { return out[a] > out[b] })
	return out
}

func rowKey(row []interface{}, keyColumns []int) string {
	parts := make([]string, len(keyColumns))
	for j, col := range keyColumns {
		if col < len(row) && row[col] != nil {
			parts[j] = strconv.Quote(fmt.Sprint(row[col]))
		} else {
			parts[j] = "-"
		}
	}
	return strings.Join(parts, ",")
}
