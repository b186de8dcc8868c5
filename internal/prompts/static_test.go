package prompts

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStaticDrawsDistinctPrompts(t *testing.T) {
	source := NewStatic()

	drawn, err := source.Draw(context.Background(), 5, "")
	require.NoError(t, err)
	assert.Len(t, drawn, 5)
	assert.Len(t, dedupe(drawn, 0), 5)

	work, err := source.Draw(context.Background(), 50, "Work")
	require.NoError(t, err)
	assert.ElementsMatch(t, builtinPrompts["work"], work)
}

func TestStaticUnknownCategoryUsesGeneral(t *testing.T) {
	source := NewStaticCorpus(map[string][]string{"general": {"only one"}})

	drawn, err := source.Draw(context.Background(), 3, "sports")
	require.NoError(t, err)
	assert.Equal(t, []string{"only one"}, drawn)
}

func TestStaticHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewStatic().Draw(ctx, 3, "")
	assert.ErrorIs(t, err, context.Canceled)
}
