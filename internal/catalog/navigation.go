package catalog

import (
	"fmt"
	"strconv"
)

// Navigation describes how a catalog page links to its neighbours. It is
// either computed from an offset window or carries explicit URLs.
type Navigation struct {
	indexed  bool
	start    int
	pageSize int
	total    int
	baseURL  string

	next string
	prev string
}

// NewNavigation builds a Navigation for the window starting at offset start.
// Neighbour links are baseURL followed by the neighbour's offset.
func NewNavigation(start, pageSize, total int, baseURL string) (*Navigation, error) {
	switch {
	case start < 0:
		return nil, fmt.Errorf("%w: negative start %d", ErrInvalidNavigation, start)
	case pageSize <= 0:
		return nil, fmt.Errorf("%w: page size %d", ErrInvalidNavigation, pageSize)
	case total < 0:
		return nil, fmt.Errorf("%w: negative total %d", ErrInvalidNavigation, total)
	}
	return &Navigation{
		indexed:  true,
		start:    start,
		pageSize: pageSize,
		total:    total,
		baseURL:  baseURL,
	}, nil
}

// NewNavigationLinks builds a Navigation from explicit URLs. An empty URL
// means there is no such neighbour.
func NewNavigationLinks(nextURL, prevURL string) *Navigation {
	return &Navigation{next: nextURL, prev: prevURL}
}

// NextLink returns the URL of the following page, if there is one.
func (n *Navigation) NextLink() (string, bool) {
	if !n.indexed {
		return n.next, n.next != ""
	}
	// Written as a difference so a huge start cannot wrap around.
	if n.start >= n.total || n.pageSize >= n.total-n.start {
		return "", false
	}
	return n.baseURL + strconv.Itoa(n.start+n.pageSize), true
}

// PrevLink returns the URL of the preceding page, if there is one.
func (n *Navigation) PrevLink() (string, bool) {
	if !n.indexed {
		return n.prev, n.prev != ""
	}
	if n.start == 0 {
		return "", false
	}
	return n.baseURL + strconv.Itoa(max(0, n.start-n.pageSize)), true
}

// Start, PageSize and Total are zero for link-form navigation.
func (n *Navigation) Start() int    { return n.start }
func (n *Navigation) PageSize() int { return n.pageSize }
func (n *Navigation) Total() int    { return n.total }

// Indexed reports whether the navigation was built from an offset window.
func (n *Navigation) Indexed() bool { return n.indexed }
