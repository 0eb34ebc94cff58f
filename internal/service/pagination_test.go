package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaginateTwentyFiveRows(t *testing.T) {
	rows := requestSeries(25)

	first, pages := Paginate(rows, 1, 10)
	require.Equal(t, 3, pages)
	require.Len(t, first, 10)
	require.Equal(t, "r00", first[0].ID)

	third, _ := Paginate(rows, 3, 10)
	require.Len(t, third, 5)
	require.Equal(t, "r24", third[4].ID)

	beyond, _ := Paginate(rows, 4, 10)
	require.NotNil(t, beyond)
	require.Empty(t, beyond)
}

func TestPaginateBounds(t *testing.T) {
	rows := requestSeries(7)

	items, pages := Paginate(rows, 0, 10)
	require.Empty(t, items)
	require.Equal(t, 1, pages)

	items, pages = Paginate(rows, -3, 10)
	require.Empty(t, items)
	require.Equal(t, 1, pages)

	items, pages = Paginate(nil, 1, 10)
	require.Empty(t, items)
	require.Zero(t, pages)
}

func TestPaginateDefaultsPageSize(t *testing.T) {
	items, pages := Paginate(requestSeries(11), 1, 0)
	require.Len(t, items, 10)
	require.Equal(t, 2, pages)
}
