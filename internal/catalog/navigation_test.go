package catalog

import (
	"errors"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNavigationIndexed(t *testing.T) {
	tests := []struct {
		name               string
		start, size, total int
		wantNext, wantPrev string
		hasNext, hasPrev   bool
	}{
		{name: "single page", start: 0, size: 50, total: 2},
		{name: "first of two", start: 0, size: 1, total: 2, wantNext: "/alpha/a/1", hasNext: true},
		{name: "last of two", start: 1, size: 1, total: 2, wantPrev: "/alpha/a/0", hasPrev: true},
		{name: "middle", start: 50, size: 50, total: 200, wantNext: "/alpha/a/100", hasNext: true, wantPrev: "/alpha/a/0", hasPrev: true},
		{name: "exact end", start: 0, size: 2, total: 2},
		{name: "prev clamps to zero", start: 10, size: 50, total: 30, wantPrev: "/alpha/a/0", hasPrev: true},
		{name: "empty", start: 0, size: 10, total: 0},
		{name: "start far past the end", start: math.MaxInt, size: 50, total: 10, wantPrev: "/alpha/a/" + strconv.Itoa(math.MaxInt-50), hasPrev: true},
		{name: "huge page size", start: 5, size: math.MaxInt, total: 10, wantPrev: "/alpha/a/0", hasPrev: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := NewNavigation(tt.start, tt.size, tt.total, "/alpha/a/")
			require.NoError(t, err)

			next, ok := n.NextLink()
			assert.Equal(t, tt.hasNext, ok)
			assert.Equal(t, tt.wantNext, next)

			prev, ok := n.PrevLink()
			assert.Equal(t, tt.hasPrev, ok)
			assert.Equal(t, tt.wantPrev, prev)
		})
	}
}

func TestNavigationInvalid(t *testing.T) {
	for _, args := range [][3]int{{-1, 10, 10}, {0, 0, 10}, {0, -5, 10}, {0, 10, -1}} {
		n, err := NewNavigation(args[0], args[1], args[2], "/")
		assert.Nil(t, n)
		assert.True(t, errors.Is(err, ErrInvalidNavigation), "args %v", args)
	}
}

func TestNavigationLinks(t *testing.T) {
	n := NewNavigationLinks("http://bookserver.archive.org/catalog/alpha/a/1", "")
	assert.False(t, n.Indexed())

	next, ok := n.NextLink()
	assert.True(t, ok)
	assert.Equal(t, "http://bookserver.archive.org/catalog/alpha/a/1", next)

	_, ok = n.PrevLink()
	assert.False(t, ok)
}
