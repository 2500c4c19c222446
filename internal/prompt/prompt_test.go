package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuild(t *testing.T) {
	t.Run("embeds the behavioral rules and the documents", func(t *testing.T) {
		got := Build("=== doc ===\ncontenu")

		assert.Contains(t, got, "assistant virtuel du service scolarité")
		assert.Contains(t, got, "RÈGLES ABSOLUES")
		assert.Contains(t, got, "N'invente JAMAIS d'info")
		assert.Contains(t, got, "L'admission est décidée par la commission pédagogique")
		assert.Contains(t, got, "Google Workspace, Notion")
		assert.Contains(t, got, "=== doc ===\ncontenu")
	})

	t.Run("is deterministic", func(t *testing.T) {
		assert.Equal(t, Build("docs"), Build("docs"))
	})

	t.Run("documents come last so rules stay verbatim", func(t *testing.T) {
		got := Build("XYZ")
		assert.Equal(t, "XYZ", got[len(got)-3:])
	})
}
