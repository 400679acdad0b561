package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/bm25-search/pkg/errors"
)

func writeCorpus(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "documents.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const catDog = "a\nthe cat sat\nb\nthe dog sat\nc\ncat and dog\n"

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestQuery_OneShot(t *testing.T) {
	path := writeCorpus(t, catDog)

	out, err := run(t, "", "--corpus", path, "query", "--limit", "1", "cat", "dog")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "1. c (score: "), out)
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestQuery_OmitsZeroScores(t *testing.T) {
	path := writeCorpus(t, catDog)

	out, err := run(t, "", "--corpus", path, "query", "cat")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "1. a")
	assert.Contains(t, lines[1], "2. c")
}

func TestQuery_NoResults(t *testing.T) {
	path := writeCorpus(t, catDog)

	out, err := run(t, "", "--corpus", path, "query", "zebra")
	require.NoError(t, err)
	assert.Equal(t, noResults+"\n", out)
}

func TestQuery_PunctuationOnly(t *testing.T) {
	path := writeCorpus(t, catDog)

	out, err := run(t, "", "--corpus", path, "query", "?!", "...")
	require.NoError(t, err)
	assert.Equal(t, noResults+"\n", out)
}

func TestQuery_Interactive(t *testing.T) {
	path := writeCorpus(t, catDog)

	out, err := run(t, "cat dog\n\nzebra\n", "--corpus", path, "query", "-n", "1")
	require.NoError(t, err)
	assert.Equal(t, 4, strings.Count(out, prompt))
	assert.Contains(t, out, "1. c (score: ")
	assert.Contains(t, out, noResults)
}

func TestQuery_NegativeLimit(t *testing.T) {
	path := writeCorpus(t, catDog)

	_, err := run(t, "", "--corpus", path, "query", "--limit", "-1", "cat")
	require.ErrorIs(t, err, apperrors.ErrInvalidLimit)
}

func TestQuery_LoadFailures(t *testing.T) {
	_, err := run(t, "", "--corpus", filepath.Join(t.TempDir(), "missing.txt"), "query", "cat")
	require.ErrorIs(t, err, apperrors.ErrIO)

	_, err = run(t, "", "--corpus", writeCorpus(t, ""), "query", "cat")
	require.ErrorIs(t, err, apperrors.ErrEmptyCorpus)
}

func TestRoot_InvalidFormat(t *testing.T) {
	_, err := run(t, "", "--corpus", writeCorpus(t, catDog), "--format", "csv", "stats")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestStats(t *testing.T) {
	path := writeCorpus(t, "#url a\n#content the cat sat\n\n#url b\n#content the dog sat\n")

	out, err := run(t, "", "--corpus", path, "stats", "--top", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Documents:       2")
	assert.Contains(t, out, "Distinct terms:  4")
	assert.Contains(t, out, "Avg doc length:  3.00")
	assert.Contains(t, out, "sat   2")
	assert.Contains(t, out, "the   2")
}
