package database

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bryan-buckman/bookserver/internal/model"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func strPtr(s string) *string { return &s }

func TestAddItem(t *testing.T) {
	db := newTestDB(t)
	item := &model.Item{
		URN:        "x-internet-archive:item:itemid",
		URL:        strPtr("http://archive.org/details/itemid"),
		Title:      "test item",
		Updated:    "2009-01-01T00:00:00Z",
		Subjects:   []string{"History", "Maps"},
		Publishers: []string{"Dover"},
		Content:    strPtr(""),
		FetchedAt:  time.Now(),
	}

	_, isNew, err := db.AddItem(item)
	require.NoError(t, err)
	assert.True(t, isNew)

	_, isNew, err = db.AddItem(item)
	require.NoError(t, err)
	assert.False(t, isNew)

	got, err := db.GetItem(item.URN)
	require.NoError(t, err)
	assert.Equal(t, "test item", got.Title)
	assert.Equal(t, "http://archive.org/details/itemid", *got.URL)
	assert.Nil(t, got.Date)
	require.NotNil(t, got.Content)
	assert.Equal(t, "", *got.Content)
	assert.Equal(t, []string{"History", "Maps"}, got.Subjects)
	assert.Equal(t, []string{"Dover"}, got.Publishers)
	assert.Nil(t, got.Languages)
	assert.Nil(t, got.SourceID)
}

func TestSearchItems(t *testing.T) {
	db := newTestDB(t)
	for _, it := range []model.Item{
		{URN: "a", Title: "Atlas of the World", Updated: "2009-01-03T00:00:00Z", Subjects: []string{"Maps"}},
		{URN: "b", Title: "Birds", Updated: "2009-01-02T00:00:00Z", Subjects: []string{"Nature"}},
		{URN: "c", Title: "Coastal charts", Updated: "2009-01-01T00:00:00Z", Subjects: []string{"maps"}},
	} {
		_, _, err := db.AddItem(&it)
		require.NoError(t, err)
	}

	items, total, err := db.SearchItems("", 0, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].URN)
	assert.Equal(t, "b", items[1].URN)

	items, total, err = db.SearchItems("", 2, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, total)
	require.Len(t, items, 1)
	assert.Equal(t, "c", items[0].URN)

	items, total, err = db.SearchItems("maps", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "a", items[0].URN)
	assert.Equal(t, "c", items[1].URN)
}

func TestSearchItemsLiteral(t *testing.T) {
	db := newTestDB(t)
	for _, it := range []model.Item{
		{URN: "a", Title: "100% cotton", Subjects: []string{"Textiles", "Maps"}},
		{URN: "b", Title: "Tax_Law", Subjects: []string{"Law"}},
		{URN: "c", Title: "Taxonomy", Subjects: []string{"Birds, North America"}},
	} {
		_, _, err := db.AddItem(&it)
		require.NoError(t, err)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{query: "100%", want: []string{"a"}},
		{query: "%", want: []string{"a"}},
		{query: "x_l", want: []string{"b"}},
		{query: "T_x", want: nil},
		{query: `","`, want: nil},
		{query: `"`, want: nil},
		{query: "[", want: nil},
		{query: "Birds, North", want: []string{"c"}},
		{query: "maps", want: []string{"a"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			items, total, err := db.SearchItems(tt.query, 0, 10)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), total)
			var urns []string
			for _, it := range items {
				urns = append(urns, it.URN)
			}
			assert.ElementsMatch(t, tt.want, urns)
		})
	}
}

func TestLikePattern(t *testing.T) {
	assert.Equal(t, `%100\%%`, likePattern("100%"))
	assert.Equal(t, `%a\_b%`, likePattern("a_b"))
	assert.Equal(t, `%c:\\%`, likePattern(`c:\`))
}

func TestSources(t *testing.T) {
	db := newTestDB(t)

	id, isNew, err := db.GetOrCreateSource("http://example.org/feed", "http://example.org/feed")
	require.NoError(t, err)
	assert.True(t, isNew)

	again, isNew, err := db.GetOrCreateSource("other title", "http://example.org/feed")
	require.NoError(t, err)
	assert.False(t, isNew)
	assert.Equal(t, id, again)

	require.NoError(t, db.UpdateSourceTitle(id, "Example"))
	require.NoError(t, db.UpdateSourceError(id, "boom"))

	sources, err := db.GetSources()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.Equal(t, "Example", sources[0].Title)
	assert.Equal(t, "boom", sources[0].LastError)
	assert.True(t, sources[0].LastFetched.IsZero())

	require.NoError(t, db.UpdateSourceLastFetched(id, time.Now()))
	sources, err = db.GetSources()
	require.NoError(t, err)
	assert.Equal(t, "", sources[0].LastError)
	assert.False(t, sources[0].LastFetched.IsZero())

	_, _, err = db.AddItem(&model.Item{URN: "from-source", SourceID: &id})
	require.NoError(t, err)
	require.NoError(t, db.DeleteSource(id))
	_, total, err := db.SearchItems("", 0, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, total)
}

func TestPollingInterval(t *testing.T) {
	db := newTestDB(t)

	mins, err := db.GetPollingInterval()
	require.NoError(t, err)
	assert.Equal(t, 60, mins)

	require.NoError(t, db.SetSetting(model.SettingPollingInterval, "5"))
	mins, err = db.GetPollingInterval()
	require.NoError(t, err)
	assert.Equal(t, 15, mins)
}
