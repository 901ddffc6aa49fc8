package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/songwriter-studio/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestProjectPatchSetEmptyPatch(t *testing.T) {
	set, args := projectPatchSet(&models.UpdateProjectRequest{})
	assert.Empty(t, set)
	assert.Empty(t, args)
}

func TestProjectPatchSetOnlyProvidedFields(t *testing.T) {
	patch := &models.UpdateProjectRequest{
		Title: strPtr("New Title"),
		BPM:   intPtr(120),
	}

	set, args := projectPatchSet(patch)

	require.Equal(t, []string{"title = $1", "bpm = $2"}, set)
	require.Equal(t, []any{"New Title", 120}, args)
}

func TestProjectPatchSetAllFields(t *testing.T) {
	patch := &models.UpdateProjectRequest{
		Title:        strPtr("t"),
		ArtistName:   strPtr("a"),
		Genre:        strPtr("g"),
		Mood:         strPtr("m"),
		Language:     strPtr("l"),
		BPM:          intPtr(90),
		KeySignature: strPtr("Am"),
		Notes:        strPtr("n"),
	}

	set, args := projectPatchSet(patch)

	require.Len(t, set, 8)
	require.Len(t, args, 8)
	assert.Equal(t, "title = $1", set[0])
	assert.Equal(t, "notes = $8", set[7])
}

func TestSectionPatchSetEmptyPatch(t *testing.T) {
	set, args := sectionPatchSet(&models.UpdateSectionRequest{})
	assert.Empty(t, set)
	assert.Empty(t, args)
}

func TestSectionPatchSetOnlyProvidedFields(t *testing.T) {
	patch := &models.UpdateSectionRequest{
		OrderIndex: intPtr(3),
		Lyrics:     strPtr("la la la"),
	}

	set, args := sectionPatchSet(patch)

	require.Equal(t, []string{"order_index = $1", "lyrics = $2"}, set)
	require.Equal(t, []any{3, "la la la"}, args)
}

func TestSectionPatchSetZeroValuesAreStillSet(t *testing.T) {
	// A pointer to a zero value is an explicitly provided field, not an
	// absent one.
	patch := &models.UpdateSectionRequest{
		OrderIndex: intPtr(0),
		Chords:     strPtr(""),
	}

	set, args := sectionPatchSet(patch)

	require.Equal(t, []string{"order_index = $1", "chords = $2"}, set)
	require.Equal(t, []any{0, ""}, args)
}
