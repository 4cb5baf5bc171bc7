package samples

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barun-bash/coursebot/internal/grammar"
	"github.com/barun-bash/coursebot/internal/parser"
)

func TestAllCategoriesHaveSamples(t *testing.T) {
	for _, cat := range AllCategories() {
		if len(ByCategory(cat)) < 2 {
			t.Errorf("category %q has only %d samples (want >= 2)", cat, len(ByCategory(cat)))
		}
		if CategoryLabel(cat) == string(cat) {
			t.Errorf("category %q has no label", cat)
		}
	}
}

func TestAllSamplesHaveRequiredFields(t *testing.T) {
	for i, s := range All() {
		if s.Sentence == "" {
			t.Errorf("sample %d has empty Sentence", i)
		}
		if s.Description == "" {
			t.Errorf("sample %d (%q) has empty Description", i, s.Sentence)
		}
		if len(s.Tags) == 0 {
			t.Errorf("sample %d (%q) has no Tags", i, s.Sentence)
		}
	}
}

func TestNoDuplicateSentences(t *testing.T) {
	seen := make(map[string]bool)
	for _, s := range All() {
		if seen[s.Sentence] {
			t.Errorf("duplicate sentence: %q", s.Sentence)
		}
		seen[s.Sentence] = true
	}
}

// Every catalog sentence parses, and exactly the ones marked ambiguous have
// more than one tree.
func TestSamplesParse(t *testing.T) {
	p := parser.New(grammar.Default())
	for _, s := range All() {
		res, err := p.Parse(s.Sentence)
		if !assert.NoError(t, err, s.Sentence) {
			continue
		}
		assert.Equal(t, s.Ambiguous, res.Ambiguous(), "%q: %d trees", s.Sentence, len(res.Trees))
	}
}

func TestSearch(t *testing.T) {
	results := Search("absent")
	require.NotEmpty(t, results)
	for _, s := range results {
		assert.Equal(t, CatAttendance, s.Category)
	}

	results = Search("deadline")
	require.NotEmpty(t, results)
	assert.Equal(t, CatDeadlines, results[0].Category)
}

func TestSearchRanksSentenceFirst(t *testing.T) {
	results := Search("comments on")
	require.NotEmpty(t, results)
	assert.Equal(t, "show me comments on lab 2", results[0].Sentence)
}

func TestSearchFuzzy(t *testing.T) {
	results := Search("atendance")
	require.NotEmpty(t, results)
	assert.Equal(t, CatAttendance, results[0].Category)
}

func TestSearchEmpty(t *testing.T) {
	assert.Len(t, Search(""), len(All()))
	assert.Len(t, Search("   "), len(All()))
}

func TestSearchNoResults(t *testing.T) {
	assert.Empty(t, Search("xyzzyplugh"))
}

func TestAutocomplete(t *testing.T) {
	results := Autocomplete("show me")
	require.NotEmpty(t, results)
	for _, s := range results {
		assert.True(t, strings.HasPrefix(s.Sentence, "show me"))
	}
	assert.Nil(t, Autocomplete(""))
}

func TestReadCases(t *testing.T) {
	src := `# attendance
message students who did not attend lecture on 7/30

  show me comments on lab 2
# trailing comment
`
	cases, err := ReadCases(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, []Case{
		{Line: 2, Sentence: "message students who did not attend lecture on 7/30"},
		{Line: 4, Sentence: "show me comments on lab 2"},
	}, cases)
}

func TestLoadCases(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cases.txt")
	require.NoError(t, os.WriteFile(path, []byte("message students with the lab\n"), 0o644))

	cases, err := LoadCases(path)
	require.NoError(t, err)
	require.Len(t, cases, 1)

	_, err = LoadCases(filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestCheckAll(t *testing.T) {
	cases := []Case{
		{Line: 1, Sentence: "message students with no submissions for lab"},
		{Line: 2, Sentence: "message students about nothing"},
		{Line: 3, Sentence: "message students with the lab"},
		{Line: 4, Sentence: "show me comments on lab 2"},
	}
	report, err := CheckAll(context.Background(), parser.New(grammar.Default()), cases)
	require.NoError(t, err)

	require.Len(t, report.Outcomes, len(cases))
	for i, o := range report.Outcomes {
		assert.Equal(t, cases[i], o.Case)
	}
	assert.Equal(t, 2, report.Unambiguous)
	assert.Equal(t, 1, report.Ambiguous)
	assert.Equal(t, 1, report.Failed)

	failed := report.Outcomes[1]
	assert.False(t, failed.OK())
	_, ok := parser.AsSyntaxError(failed.Err)
	assert.True(t, ok)
}

func TestCheckAllBuiltin(t *testing.T) {
	report, err := CheckAll(context.Background(), parser.New(grammar.Default()), BuiltinCases())
	require.NoError(t, err)
	assert.Zero(t, report.Failed)
	assert.Equal(t, 2, report.Ambiguous)
}

func TestCheckAllCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := CheckAll(ctx, parser.New(grammar.Default()), BuiltinCases())
	assert.ErrorIs(t, err, context.Canceled)
}
