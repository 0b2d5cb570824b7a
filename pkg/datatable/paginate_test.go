package datatable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		rows, size, want int
	}{
		{rows: 0, size: 10, want: 1},
		{rows: 1, size: 10, want: 1},
		{rows: 10, size: 10, want: 1},
		{rows: 11, size: 10, want: 2},
		{rows: 25, size: 10, want: 3},
		{rows: 100, size: 20, want: 5},
		{rows: 500, size: ShowAll, want: 1},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TotalPages(tt.rows, tt.size), "rows=%d size=%d", tt.rows, tt.size)
	}
}

func TestClampPage(t *testing.T) {
	assert.Equal(t, 1, ClampPage(0, 25, 10))
	assert.Equal(t, 2, ClampPage(2, 25, 10))
	assert.Equal(t, 3, ClampPage(9, 25, 10))
	assert.Equal(t, 1, ClampPage(4, 25, ShowAll))
	assert.Equal(t, 1, ClampPage(3, 0, 10))
}

func TestPaginate(t *testing.T) {
	rows := []int{1, 2, 3, 4, 5, 6, 7}

	assert.Equal(t, []int{1, 2, 3}, Paginate(rows, PaginationConfig{PageSize: 3, CurrentPage: 1}))
	assert.Equal(t, []int{7}, Paginate(rows, PaginationConfig{PageSize: 3, CurrentPage: 3}))
	assert.Empty(t, Paginate(rows, PaginationConfig{PageSize: 3, CurrentPage: 4}))
	assert.Equal(t, rows, Paginate(rows, PaginationConfig{PageSize: ShowAll, CurrentPage: 2}))

	page := Paginate(rows, PaginationConfig{PageSize: 3, CurrentPage: 1})
	page = append(page, 99)
	assert.Equal(t, 4, rows[3], "appending to a page never writes into the source")
	assert.Len(t, page, 4)
}

func TestParsePageSize(t *testing.T) {
	for in, want := range map[string]int{"10": 10, " 20 ": 20, "all": ShowAll, "TODOS": ShowAll, "-1": ShowAll, "7": 7} {
		got, err := ParsePageSize(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, in := range []string{"", "0", "-5", "diez"} {
		_, err := ParsePageSize(in)
		assert.ErrorIs(t, err, ErrInvalidPageSize, in)
	}
	assert.Equal(t, "all", FormatPageSize(ShowAll))
	assert.Equal(t, "50", FormatPageSize(50))
}

func TestPaginationConfigValidate(t *testing.T) {
	assert.NoError(t, PaginationConfig{PageSize: 20}.Validate())
	assert.NoError(t, PaginationConfig{PageSize: ShowAll}.Validate())
	assert.ErrorIs(t, PaginationConfig{PageSize: 0}.Validate(), ErrInvalidPageSize)
}
