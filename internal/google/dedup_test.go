package google

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rows(values ...[]interface{}) [][]interface{} {
	return values
}

func TestDuplicateRows_KeepFirstAndLast(t *testing.T) {
	data := rows(
		[]interface{}{"a", "1"},
		[]interface{}{"a", "1"},
		[]interface{}{"b", "2"},
	)

	assert.Equal(t, []int64{1}, DuplicateRows(data, []int{0, 1}, 0, KeepFirst))
	assert.Equal(t, []int64{0}, DuplicateRows(data, []int{0, 1}, 0, KeepLast))
}

func TestDuplicateRows_HeaderRowsSkipped(t *testing.T) {
	data := rows(
		[]interface{}{"name", "id"},
		[]interface{}{"name", "id"},
		[]interface{}{"name", "id"},
	)

	assert.Equal(t, []int64{2}, DuplicateRows(data, []int{0, 1}, 1, KeepFirst))
	assert.Empty(t, DuplicateRows(data, []int{0}, 3, KeepFirst))
}

func TestDuplicateRows_SortedDescending(t *testing.T) {
	data := rows(
		[]interface{}{"x"},
		[]interface{}{"y"},
		[]interface{}{"x"},
		[]interface{}{"y"},
		[]interface{}{"x"},
	)

	assert.Equal(t, []int64{4, 3, 2}, DuplicateRows(data, []int{0}, 0, KeepFirst))
	assert.Equal(t, []int64{2, 1, 0}, DuplicateRows(data, []int{0}, 0, KeepLast))
}

func TestDuplicateRows_MissingCellsAreDistinct(t *testing.T) {
	data := rows(
		[]interface{}{"a"},
		[]interface{}{"a", ""},
		[]interface{}{"a"},
		[]interface{}{"-"},
		[]interface{}{},
	)

	got := DuplicateRows(data, []int{0, 1}, 0, KeepFirst)
	assert.Equal(t, []int64{2}, got, "short rows only match other short rows")
}

func TestDuplicateRows_KeyColumnSubset(t *testing.T) {
	data := rows(
		[]interface{}{"a", "1", "first"},
		[]interface{}{"a", "1", "second"},
		[]interface{}{"a", "2", "third"},
	)

	assert.Equal(t, []int64{1}, DuplicateRows(data, []int{0, 1}, 0, KeepFirst))
	assert.Equal(t, []int64{2, 1}, DuplicateRows(data, []int{0}, 0, KeepFirst))
}

func TestParseKeep(t *testing.T) {
	k, err := ParseKeep("")
	require.NoError(t, err)
	assert.Equal(t, KeepFirst, k)

	k, err = ParseKeep("LAST")
	require.NoError(t, err)
	assert.Equal(t, KeepLast, k)

	_, err = ParseKeep("middle")
	assert.Error(t, err)
}
