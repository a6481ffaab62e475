package service

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/thingspace/thingspace-notes/internal/domain"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func seedNote(t *testing.T, f *fixture, id, title, content string, age time.Duration, embedded bool, tags ...string) *domain.Note {
	t.Helper()
	n := &domain.Note{
		ID:          id,
		AuthorID:    "alice",
		WorkspaceID: "w1",
		NoteType:    domain.NoteTypeNote,
		Title:       title,
		Fields:      []domain.Field{{Label: "body", Type: domain.FieldText, Content: content}},
		Tags:        tags,
		Version:     1,
		CreatedAt:   baseTime.Add(-age),
		UpdatedAt:   baseTime.Add(-age),
	}
	if embedded && f.embedder != nil {
		vec, err := f.embedder.Embed(context.Background(), n.EmbeddingText())
		require.NoError(t, err)
		n.Embedding = vec
	}
	f.notes.put(n)
	return n
}

func hitIDs(res *SearchResult) []string {
	ids := make([]string, 0, len(res.Hits))
	for _, h := range res.Hits {
		ids = append(ids, h.Note.ID)
	}
	return ids
}

func TestSearch_EmptyQueryOrdersByRecency(t *testing.T) {
	f := newFixture(t, &hashEmbedder{})
	seedNote(t, f, "old", "Old", "x", 3*time.Hour, true)
	seedNote(t, f, "new", "New", "x", time.Hour, true)
	seedNote(t, f, "b-tie", "Tie", "x", 2*time.Hour, true)
	seedNote(t, f, "a-tie", "Tie", "x", 2*time.Hour, true)

	res, err := f.search.Search(context.Background(), SearchQuery{WorkspaceID: "w1", NoteType: domain.NoteTypeNote})
	require.NoError(t, err)
	assert.Equal(t, []string{"new", "a-tie", "b-tie", "old"}, hitIDs(res))
	assert.False(t, res.Degraded)
}

func TestSearch_ScopedToWorkspaceAndType(t *testing.T) {
	f := newFixture(t, &hashEmbedder{})
	seedNote(t, f, "n1", "Kayak", "x", 0, true)
	other := seedNote(t, f, "n2", "Kayak", "x", 0, true)
	other.WorkspaceID = "w2"
	f.notes.put(other)
	tpl := seedNote(t, f, "t1", "Kayak", "x", 0, true)
	tpl.NoteType = domain.NoteTypeTemplate
	f.notes.put(tpl)

	res, err := f.search.Search(context.Background(), SearchQuery{WorkspaceID: "w1", NoteType: domain.NoteTypeNote, Query: "kayak"})
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, hitIDs(res))
}

func TestSearch_HybridRanking(t *testing.T) {
	emb := &hashEmbedder{}
	f := newFixture(t, emb)
	seedNote(t, f, "trip", "Kayak trip", "paddle", 2*time.Hour, true)
	seedNote(t, f, "groceries", "Grocery list", "milk", 0, true)
	// no vector: ranked on the lexical score alone
	seedNote(t, f, "repair", "Kayak repair", "glue", time.Hour, false)

	before := emb.calls.Load()
	res, err := f.search.Search(context.Background(), SearchQuery{WorkspaceID: "w1", NoteType: domain.NoteTypeNote, Query: "Kayak trip"})
	require.NoError(t, err)
	assert.Equal(t, before+1, emb.calls.Load())

	assert.Equal(t, []string{"trip", "repair", "groceries"}, hitIDs(res))
	assert.False(t, res.Degraded)
	for i := 1; i < len(res.Hits); i++ {
		assert.GreaterOrEqual(t, res.Hits[i-1].Score, res.Hits[i].Score)
	}
}

func TestSearch_DegradesToLexical(t *testing.T) {
	down := &downEmbedder{}
	f := newFixture(t, down)
	seedNote(t, f, "a", "Budget review", "numbers for q3", 0, false)
	seedNote(t, f, "b", "Team offsite", "budget approved", time.Hour, false)
	seedNote(t, f, "c", "Lunch", "tacos", 0, false)

	res, err := f.search.Search(context.Background(), SearchQuery{WorkspaceID: "w1", NoteType: domain.NoteTypeNote, Query: "budget"})
	require.NoError(t, err)
	assert.True(t, res.Degraded)
	// nothing is dropped for lacking a vector or a match
	assert.Equal(t, []string{"a", "b", "c"}, hitIDs(res))
	assert.Equal(t, 0.0, res.Hits[2].Score)
	assert.Equal(t, int64(1), down.calls.Load())
}

func TestSearch_TagFilterIsAnyOf(t *testing.T) {
	f := newFixture(t, nil)
	seedNote(t, f, "a", "A", "x", 0, false, "red")
	seedNote(t, f, "b", "B", "x", time.Minute, false, "blue", "green")
	seedNote(t, f, "c", "C", "x", 2*time.Minute, false)

	tests := []struct {
		tags []string
		want []string
	}{
		{nil, []string{"a", "b", "c"}},
		{[]string{"red"}, []string{"a"}},
		{[]string{"red", "green"}, []string{"a", "b"}},
		{[]string{" blue ", ""}, []string{"b"}},
		{[]string{"purple"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.tags), func(t *testing.T) {
			res, err := f.search.Search(context.Background(), SearchQuery{WorkspaceID: "w1", NoteType: domain.NoteTypeNote, Tags: tt.tags})
			require.NoError(t, err)
			assert.Equal(t, tt.want, hitIDs(res))
		})
	}
}

func TestSearch_Limit(t *testing.T) {
	f := newFixture(t, nil)
	for i := 0; i < 5; i++ {
		seedNote(t, f, fmt.Sprintf("n%d", i), "T", "x", time.Duration(i)*time.Minute, false)
	}
	res, err := f.search.Search(context.Background(), SearchQuery{WorkspaceID: "w1", NoteType: domain.NoteTypeNote, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"n0", "n1"}, hitIDs(res))
}

var tagUniverse = []string{"work", "home", "travel", "urgent", "ideas"}

func tagGen() gopter.Gen {
	return gen.IntRange(0, len(tagUniverse)-1).Map(func(i int) string { return tagUniverse[i] })
}

func searchIDSet(f *fixture, tags []string, query string) map[string]struct{} {
	res, err := f.search.Search(context.Background(), SearchQuery{WorkspaceID: "w1", NoteType: domain.NoteTypeNote, Tags: tags, Query: query})
	if err != nil {
		return nil
	}
	out := make(map[string]struct{}, len(res.Hits))
	for _, h := range res.Hits {
		out[h.Note.ID] = struct{}{}
	}
	return out
}

func TestProperty_TagFilter(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100

	properties := gopter.NewProperties(parameters)

	build := func(noteTags [][]string) *fixture {
		f := newFixture(t, &hashEmbedder{})
		for i, tags := range noteTags {
			seedNote(t, f, fmt.Sprintf("n%02d", i), fmt.Sprintf("note %d", i), "shared words", time.Duration(i)*time.Minute, i%2 == 0, tags...)
		}
		return f
	}

	properties.Property("empty tag set equals all known tags", prop.ForAll(
		func(noteTags [][]string, query string) bool {
			f := build(noteTags)
			none := searchIDSet(f, nil, query)
			all := searchIDSet(f, tagUniverse, query)
			if len(none) != len(noteTags) || len(all) != len(none) {
				return false
			}
			for id := range all {
				if _, ok := none[id]; !ok {
					return false
				}
			}
			return true
		},
		// every note carries at least one known tag
		gen.SliceOfN(10, gen.SliceOfN(2, tagGen())),
		gen.OneConstOf("", "shared", "note 3"),
	))

	properties.Property("enlarging the tag set never drops a note", prop.ForAll(
		func(noteTags [][]string, t1, extra []string) bool {
			f := build(noteTags)
			t2 := append(append([]string(nil), t1...), extra...)
			r1 := searchIDSet(f, t1, "")
			r2 := searchIDSet(f, t2, "")
			if len(t1) == 0 {
				// the identity filter: both select everything
				return len(r1) == len(noteTags)
			}
			for id := range r1 {
				if _, ok := r2[id]; !ok {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(10, gen.SliceOf(tagGen())),
		gen.SliceOf(tagGen()),
		gen.SliceOf(tagGen()),
	))

	properties.TestingRun(t)
}

func TestProperty_RankingIsDeterministic(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("same input gives the same order", prop.ForAll(
		func(ages []int, query string) bool {
			f := newFixture(t, &hashEmbedder{})
			for i, age := range ages {
				seedNote(t, f, fmt.Sprintf("n%02d", i), "walk the dog", "park", time.Duration(age)*time.Minute, i%3 != 0)
			}
			a, err1 := f.search.Search(context.Background(), SearchQuery{WorkspaceID: "w1", NoteType: domain.NoteTypeNote, Query: query})
			b, err2 := f.search.Search(context.Background(), SearchQuery{WorkspaceID: "w1", NoteType: domain.NoteTypeNote, Query: query})
			if err1 != nil || err2 != nil {
				return false
			}
			return fmt.Sprint(hitIDs(a)) == fmt.Sprint(hitIDs(b))
		},
		gen.SliceOfN(8, gen.IntRange(0, 3)),
		gen.OneConstOf("", "dog", "park walk"),
	))

	properties.TestingRun(t)
}

func TestSearch_FourHundredNotesLatency(t *testing.T) {
	emb := &hashEmbedder{}
	f := newFixture(t, emb)
	words := []string{"meeting", "budget", "recipe", "travel", "garden", "invoice", "project", "lecture", "workout", "book"}
	for i := 0; i < 400; i++ {
		title := fmt.Sprintf("%s %s %d", words[i%len(words)], words[(i*7)%len(words)], i)
		content := fmt.Sprintf("details about %s and %s", words[(i*3)%len(words)], words[(i*5)%len(words)])
		seedNote(t, f, fmt.Sprintf("n%03d", i), title, content, time.Duration(i)*time.Second, i%4 != 0, words[i%3])
	}

	for _, q := range []string{"budget meeting", "garden recipe ideas", "travel invoice project"} {
		before := emb.calls.Load()
		start := time.Now()
		res, err := f.search.Search(context.Background(), SearchQuery{WorkspaceID: "w1", NoteType: domain.NoteTypeNote, Query: q})
		elapsed := time.Since(start)

		require.NoError(t, err)
		assert.Len(t, res.Hits, 400)
		assert.Less(t, elapsed, 5*time.Second, q)
		assert.Equal(t, before+1, emb.calls.Load(), "one embedding per search")
		assert.True(t, sort.SliceIsSorted(res.Hits, func(i, j int) bool { return res.Hits[i].Score > res.Hits[j].Score }))
	}
}

func TestLexicalScore(t *testing.T) {
	note := &domain.Note{
		Title:  "Weekly Grocery List",
		Fields: []domain.Field{{Label: "items", Content: "Milk, eggs & bread"}},
	}
	tests := []struct {
		query string
		want  float64
	}{
		{"grocery list", 1.0},
		{"GROCERY", 1.0},
		{"milk", 0.6 + 0.15},
		{"eggs bread", 0.6 + 0.15},
		{"milk bread", 0.6},
		{"grocery milk", 0.6 + 0.125},
		{"the", 0.0},
		{"pizza", 0.0},
		{"the list", 0.85},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.InDelta(t, tt.want, newLexicalQuery(tt.query).score(note), 1e-9)
		})
	}
}
