package listquery

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTotalPages(t *testing.T) {
	tests := []struct {
		name     string
		query    Query
		total    int
		filtered int
		want     int
	}{
		{name: "no search uses total", query: Query{PageSize: 10}, total: 47, filtered: 23, want: 5},
		{name: "search uses filtered", query: Query{Search: "ana", PageSize: 10}, total: 47, filtered: 23, want: 3},
		{name: "whitespace search is inactive", query: Query{Search: "  ", PageSize: 10}, total: 47, filtered: 23, want: 5},
		{name: "exact multiple", query: Query{PageSize: 5}, total: 20, want: 4},
		{name: "empty", query: Query{PageSize: 20}, total: 0, want: 0},
		{name: "zero page size", query: Query{PageSize: 0}, total: 10, want: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TotalPages(tt.query, tt.total, tt.filtered))
		})
	}
}

func TestChange_Next(t *testing.T) {
	str := func(s string) *string { return &s }
	num := func(n int) *int { return &n }
	start := Query{Search: "x", Page: 3, PageSize: 10}

	tests := []struct {
		name   string
		change Change
		want   Query
	}{
		{name: "page only", change: Change{Page: num(4)}, want: Query{Search: "x", Page: 4, PageSize: 10}},
		{name: "page size resets page", change: Change{PageSize: num(20)}, want: Query{Search: "x", Page: 1, PageSize: 20}},
		{name: "search resets page", change: Change{Search: str("y")}, want: Query{Search: "y", Page: 1, PageSize: 10}},
		{name: "reset wins over requested page", change: Change{PageSize: num(20), Page: num(3)}, want: Query{Search: "x", Page: 1, PageSize: 20}},
		{name: "same search keeps page", change: Change{Search: str("x")}, want: start},
		{name: "page clamps to one", change: Change{Page: num(-2)}, want: Query{Search: "x", Page: 1, PageSize: 10}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.change.next(start))
		})
	}
}

func TestQuery_Offset(t *testing.T) {
	assert.Equal(t, 0, Query{Page: 1, PageSize: 10}.Offset())
	assert.Equal(t, 40, Query{Page: 3, PageSize: 20}.Offset())
	assert.Equal(t, 0, Query{Page: 0, PageSize: 20}.Offset())
}
