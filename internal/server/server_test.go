package server

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryan-buckman/bookserver/internal/catalog"
	"github.com/bryan-buckman/bookserver/internal/database"
	"github.com/bryan-buckman/bookserver/internal/ingest"
	"github.com/bryan-buckman/bookserver/internal/model"
	"github.com/bryan-buckman/bookserver/internal/opensearch"
	"github.com/bryan-buckman/bookserver/internal/output"
)

func newTestServer(t *testing.T) (*Server, *database.DB) {
	t.Helper()
	db, err := database.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	ingest.Store(db, nil, []catalog.Record{
		{"urn": "urn:x:1", "title": "Atlas of Maps", "updated": "2009-01-01T00:00:00Z", "subject": "Maps"},
		{"urn": "urn:x:2", "title": "Birds", "updated": "2009-01-02T00:00:00Z", "language": "eng"},
		{"urn": "urn:x:3", "title": "Clocks", "updated": "2009-01-03T00:00:00Z"},
	}, time.Now())

	s := New(db, Config{
		Pub: model.PubInfo{
			Name:     "Test Library",
			URI:      "http://example.org",
			OPDSRoot: "http://example.org/catalog",
			URNRoot:  "urn:x:catalog",
		},
		Title:    "Test Catalog",
		PageSize: 2,
		BaseURL:  "http://example.org",
	})
	return s, db
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestAtomCatalog(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/catalog/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, output.OPDSContentType, rec.Header().Get("Content-Type"))

	feed, err := gofeed.NewParser().ParseString(rec.Body.String())
	require.NoError(t, err)
	assert.Equal(t, "Test Catalog", feed.Title)
	require.Len(t, feed.Items, 2)
	assert.Equal(t, "urn:x:3", feed.Items[0].GUID)
	assert.Equal(t, "urn:x:2", feed.Items[1].GUID)
	assert.Contains(t, rec.Body.String(), `href="/catalog/?start=2"`)
	assert.Contains(t, rec.Body.String(), `href="/opensearch.xml"`)
}

func TestHTMLCatalogSecondPage(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/catalog/index.html?start=2")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), "text/html"))

	doc, err := goquery.NewDocumentFromReader(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 1, doc.Find("li.opds-entry-list-item").Length())
	assert.Equal(t, "Atlas of Maps", strings.TrimSpace(doc.Find("h2.opds-entry-title").Text()))
	prev, ok := doc.Find(".opds-navigation a").Attr("href")
	assert.True(t, ok)
	assert.Equal(t, "/catalog/index.html?start=0", prev)
}

func TestJSONCatalogSearch(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/catalog/index.json?q=maps")
	require.Equal(t, http.StatusOK, rec.Code)

	var feed output.JSONFeed
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &feed))
	assert.Equal(t, `Search results for "maps"`, feed.Title)
	require.Len(t, feed.Entries, 1)
	assert.Equal(t, "urn:x:1", feed.Entries[0].URN)
}

func TestCatalogRejectsBadStart(t *testing.T) {
	s, _ := newTestServer(t)
	for _, target := range []string{"/catalog/?start=x", "/catalog/?start=-1"} {
		assert.Equal(t, http.StatusBadRequest, get(t, s, target).Code, target)
	}
}

func TestCatalogStartPastTheEnd(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/catalog/?start=9223372036854775807")
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.NotContains(t, body, `rel="next"`)
	assert.NotContains(t, body, "start=-")
	assert.Contains(t, body, `href="/catalog/?start=9223372036854775757"`)
}

func TestNavBase(t *testing.T) {
	assert.Equal(t, "/catalog/?start=", navBase("/catalog/", ""))
	assert.Equal(t, "/catalog/?q=old+maps&start=", navBase("/catalog/", "old maps"))
}

func TestOpenSearch(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, "/opensearch.xml")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, opensearch.ContentType, rec.Header().Get("Content-Type"))

	d, err := opensearch.Parse(rec.Body)
	require.NoError(t, err)
	tmpl, ok := d.Template("application/atom+xml")
	assert.True(t, ok)
	assert.Equal(t, "http://example.org/catalog/?q={searchTerms}&start={startIndex?}", tmpl)
}

func TestStaticStylesheet(t *testing.T) {
	s, _ := newTestServer(t)
	rec := get(t, s, output.DefaultStylesheet)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), ".opds-entry-list")
}

func TestSourcesAPI(t *testing.T) {
	s, db := newTestServer(t)

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/sources", bytes.NewBufferString(body))
		s.Handler().ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusCreated, post(`{"url": "http://example.org/feed.xml"}`).Code)
	assert.Equal(t, http.StatusOK, post(`{"url": "http://example.org/feed.xml"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`{"url": "ftp://example.org/feed.xml"}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`not json`).Code)

	sources, err := db.GetSources()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "http://example.org/feed.xml", sources[0].Title)

	rec := get(t, s, "/api/sources")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Sources []model.Source `json:"sources"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Sources, 1)
	assert.Equal(t, "http://example.org/feed.xml", resp.Sources[0].URL)
}

func TestSettingsAPI(t *testing.T) {
	s, db := newTestServer(t)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/settings", bytes.NewBufferString(`{"polling_interval": 5}`))
	s.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	interval, err := db.GetPollingInterval()
	require.NoError(t, err)
	assert.Equal(t, ingest.MinPollingIntervalMinutes, interval)

	rec = get(t, s, "/api/settings")
	assert.JSONEq(t, `{"polling_interval": 15}`, rec.Body.String())
}
