package catalog

import "fmt"

// OpenSearch points at the search description document of a catalog.
type OpenSearch struct {
	descriptionURL string
}

// NewOpenSearch returns an OpenSearch reference for the given absolute or
// root-relative URL.
func NewOpenSearch(descriptionURL string) (*OpenSearch, error) {
	if descriptionURL == "" {
		return nil, fmt.Errorf("%w: empty description url", ErrInvalidOpenSearch)
	}
	return &OpenSearch{descriptionURL: descriptionURL}, nil
}

func (o *OpenSearch) DescriptionURL() string { return o.descriptionURL }
