package listing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"modelfolio/pkg/types"
)

func openTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := OpenSQLite(filepath.Join(t.TempDir(), "listings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func sampleListings() []types.Listing {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []types.Listing{
		{ID: "sum", Title: "Summarizer", Tags: []string{"nlp"}, IsPublic: true, DemoType: types.DemoTextToText, UserID: "alice", CreatedAt: base},
		{ID: "qa", Title: "QA", IsPublic: false, DemoType: types.DemoQuestionAnswering, APIEndpoint: "deepset/tinyroberta-squad2", UserID: "alice", CreatedAt: base.Add(time.Hour)},
		{ID: "sd", Title: "Diffusion", IsPublic: true, DemoType: types.DemoTextToImage, UserID: "bob", CreatedAt: base.Add(500 * time.Millisecond)},
	}
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	n, err := Seed(ctx, s, sampleListings())
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	got, err := s.Get(ctx, "qa")
	require.NoError(t, err)
	assert.Equal(t, types.DemoQuestionAnswering, got.DemoType)
	assert.Equal(t, "deepset/tinyroberta-squad2", got.APIEndpoint)
	assert.False(t, got.IsPublic)
	assert.Equal(t, []string{}, got.Tags)
	assert.True(t, got.CreatedAt.Equal(got.UpdatedAt))

	sum, err := s.Get(ctx, "sum")
	require.NoError(t, err)
	assert.Equal(t, []string{"nlp"}, sum.Tags)
	assert.Empty(t, sum.APIEndpoint)
}

func TestSQLiteStore_GetMissing(t *testing.T) {
	_, err := openTestStore(t).Get(context.Background(), "nope")
	assert.True(t, IsNotFound(err))
}

func TestSQLiteStore_PublicAndOwnerOrdering(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	_, err := Seed(ctx, s, sampleListings())
	require.NoError(t, err)

	pub, err := s.Public(ctx)
	require.NoError(t, err)
	require.Len(t, pub, 2)
	assert.Equal(t, "sd", pub[0].ID)
	assert.Equal(t, "sum", pub[1].ID)

	mine, err := s.ByOwner(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, "qa", mine[0].ID)

	none, err := s.ByOwner(ctx, "carol")
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestSQLiteStore_UpsertReplaces(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	l := sampleListings()[0]
	require.NoError(t, s.Upsert(ctx, l))
	l.Title = "Better Summarizer"
	l.DemoType = types.DemoSentimentAnalysis
	require.NoError(t, s.Upsert(ctx, l))
	got, err := s.Get(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "Better Summarizer", got.Title)
	assert.Equal(t, types.DemoSentimentAnalysis, got.DemoType)
}

func TestSQLiteStore_UpsertValidation(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Upsert(context.Background(), types.Listing{UserID: "u"}))
	assert.Error(t, s.Upsert(context.Background(), types.Listing{ID: "x"}))
}

func TestOpenSQLite_Memory(t *testing.T) {
	s, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	defer s.Close()
	require.NoError(t, s.Ping(context.Background()))
	require.NoError(t, s.Upsert(context.Background(), sampleListings()[0]))
	_, err = s.Get(context.Background(), "sum")
	assert.NoError(t, err)
}

func TestLoadSeed_Formats(t *testing.T) {
	d := t.TempDir()
	files := map[string]string{
		"seed.yaml": "listings:\n  - id: a\n    title: A\n    user_id: u1\n    demo_type: sentiment-analysis\n    is_public: true\n  - title: B\n    user_id: u1\n",
		"seed.json": `{"listings":[{"id":"a","title":"A","user_id":"u1","demo_type":"sentiment-analysis","is_public":true},{"title":"B","user_id":"u1"}]}`,
		"seed.toml": "[[listings]]\nid = \"a\"\ntitle = \"A\"\nuser_id = \"u1\"\ndemo_type = \"sentiment-analysis\"\nis_public = true\n\n[[listings]]\ntitle = \"B\"\nuser_id = \"u1\"\n",
	}
	for name, content := range files {
		t.Run(name, func(t *testing.T) {
			p := filepath.Join(d, name)
			require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
			ls, err := LoadSeed(p)
			require.NoError(t, err)
			require.Len(t, ls, 2)
			assert.Equal(t, "a", ls[0].ID)
			assert.Equal(t, types.DemoSentimentAnalysis, ls[0].DemoType)
			assert.True(t, ls[0].IsPublic)
			assert.Len(t, ls[1].ID, 36, "generated uuid")
		})
	}
}

func TestLoadSeed_Errors(t *testing.T) {
	d := t.TempDir()
	p := filepath.Join(d, "seed.txt")
	require.NoError(t, os.WriteFile(p, []byte("x"), 0o644))
	_, err := LoadSeed(p)
	assert.Error(t, err)
	_, err = LoadSeed(filepath.Join(d, "missing.yaml"))
	assert.Error(t, err)
}
