package catalog

import "errors"

var (
	// ErrInvalidEntry is returned when a record cannot become an Entry,
	// most commonly because it has no urn.
	ErrInvalidEntry = errors.New("invalid entry")

	// ErrInvalidOpenSearch is returned for an empty description URL.
	ErrInvalidOpenSearch = errors.New("invalid opensearch description")

	// ErrInvalidNavigation is returned when pagination bounds are out of range.
	ErrInvalidNavigation = errors.New("invalid navigation")

	// ErrUnrenderableCatalog is returned by renderers when a catalog lacks
	// the title or urn a feed needs for its identity.
	ErrUnrenderableCatalog = errors.New("unrenderable catalog")
)
