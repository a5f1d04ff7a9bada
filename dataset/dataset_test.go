package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/debateflow/types"
)

const sampleJSON = `[
	{"id": 1, "category": "probability", "question": "Coin flip puzzle", "verifiable_answer": 0.0, "difficulty": "medium"},
	{"id": 2, "category": "arithmetic", "question": "What is 7 * 8?", "verifiable_answer": 56},
	{"id": 5, "category": "probability", "question": "Dice puzzle", "verifiable_answer": "1/6"}
]`

func TestFromReader_IndexesProblems(t *testing.T) {
	t.Parallel()

	src, err := FromReader(strings.NewReader(sampleJSON))
	require.NoError(t, err)
	assert.Equal(t, 3, src.Len())

	p, err := src.Problem(2)
	require.NoError(t, err)
	assert.Equal(t, "arithmetic", p.Category)
	assert.Equal(t, float64(56), p.Answer)

	p, err = src.Problem(5)
	require.NoError(t, err)
	assert.Equal(t, "1/6", p.Answer)
}

func TestProblem_NotFound(t *testing.T) {
	t.Parallel()

	src, err := FromReader(strings.NewReader(sampleJSON))
	require.NoError(t, err)

	_, err = src.Problem(99)
	require.Error(t, err)
	assert.Equal(t, types.ErrProblemNotFound, types.GetErrorCode(err))
}

func TestFromReader_DuplicateID(t *testing.T) {
	t.Parallel()

	_, err := FromReader(strings.NewReader(`[{"id": 1, "question": "a"}, {"id": 1, "question": "b"}]`))
	require.Error(t, err)
	assert.Equal(t, types.ErrConfiguration, types.GetErrorCode(err))
}

func TestFromReader_MalformedJSON(t *testing.T) {
	t.Parallel()

	_, err := FromReader(strings.NewReader(`{"not": "an array"}`))
	assert.Error(t, err)
}

func TestByCategory(t *testing.T) {
	t.Parallel()

	src, err := FromReader(strings.NewReader(sampleJSON))
	require.NoError(t, err)

	probs := src.ByCategory("probability")
	require.Len(t, probs, 2)
	assert.Equal(t, 1, probs[0].ID)
	assert.Equal(t, 5, probs[1].ID)
	assert.Empty(t, src.ByCategory("geometry"))
}

func TestLoad_File(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "problems.json")
	require.NoError(t, os.WriteFile(path, []byte(sampleJSON), 0o644))

	src, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, src.Len())

	_, err = Load(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}
