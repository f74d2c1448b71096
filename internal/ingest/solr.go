package ingest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/bryan-buckman/bookserver/internal/catalog"
	"github.com/bryan-buckman/bookserver/internal/model"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// SolrClient queries a Solr index that returns wt=json responses with
// archive.org style item documents.
type SolrClient struct {
	httpClient *http.Client
	pub        model.PubInfo

	// ItemURNPrefix is prepended to a document identifier to form its urn.
	ItemURNPrefix string
	// DetailsURL is prepended to a document identifier to form its url.
	DetailsURL string
}

// NewSolrClient returns a client for catalogs published as pub.
func NewSolrClient(pub model.PubInfo) *SolrClient {
	return &SolrClient{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		pub:           pub,
		ItemURNPrefix: "x-internet-archive:item:",
		DetailsURL:    "http://archive.org/details/",
	}
}

type solrResponse struct {
	Response struct {
		NumFound int              `json:"numFound"`
		Start    int              `json:"start"`
		Docs     []map[string]any `json:"docs"`
	} `json:"response"`
}

// SolrResult is one page of a Solr query.
type SolrResult struct {
	Records  []catalog.Record
	Start    int
	NumFound int
}

// Query fetches queryURL and maps its documents to records.
func (c *SolrClient) Query(ctx context.Context, queryURL string) (*SolrResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, queryURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("solr query: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("solr query: status %d: %s", resp.StatusCode, body)
	}
	return c.Decode(resp.Body)
}

// Decode maps a Solr JSON response body to records.
func (c *SolrClient) Decode(r io.Reader) (*SolrResult, error) {
	var sr solrResponse
	if err := json.NewDecoder(r).Decode(&sr); err != nil {
		return nil, fmt.Errorf("decode solr response: %w", err)
	}
	result := &SolrResult{Start: sr.Response.Start, NumFound: sr.Response.NumFound}
	for _, doc := range sr.Response.Docs {
		id := firstString(doc["identifier"])
		if id == "" {
			continue
		}
		r := catalog.Record{
			"urn":   c.ItemURNPrefix + id,
			"url":   c.DetailsURL + id,
			"title": firstString(doc["title"]),
		}
		// oai_updatedate lists every update; the last one is current.
		if updated := lastString(doc["oai_updatedate"]); updated != "" {
			r["updated"] = updated
		}
		if date := firstString(doc["date"]); date != "" {
			r["date"] = date
		}
		for _, key := range []string{"subject", "publisher", "language"} {
			if v, ok := doc[key]; ok {
				r[key] = v
			}
		}
		if description := firstString(doc["description"]); description != "" {
			r["content"] = description
		}
		result.Records = append(result.Records, r)
	}
	return result, nil
}

// Catalog queries Solr and returns the page as a catalog. Its navigation
// links are navBase followed by an offset.
func (c *SolrClient) Catalog(ctx context.Context, queryURL, title, navBase string, rows int) (*catalog.Catalog, error) {
	result, err := c.Query(ctx, queryURL)
	if err != nil {
		return nil, err
	}
	cat, err := catalog.FromRecords(catalog.Options{
		Title:     title,
		URN:       c.pub.URNRoot,
		URL:       c.pub.OPDSRoot,
		Author:    c.pub.Name,
		AuthorURI: c.pub.URI,
	}, result.Records)
	if err != nil {
		return nil, err
	}
	if rows > 0 {
		nav, err := catalog.NewNavigation(result.Start, rows, result.NumFound, navBase)
		if err != nil {
			return nil, err
		}
		cat.AddNavigation(nav)
	}
	return cat, nil
}

func firstString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[0].(string); ok {
				return s
			}
		}
	}
	return ""
}

func lastString(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case []any:
		if len(v) > 0 {
			if s, ok := v[len(v)-1].(string); ok {
				return s
			}
		}
	}
	return ""
}
