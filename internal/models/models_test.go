package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUpdateProjectRequestIsEmpty(t *testing.T) {
	assert.True(t, (&UpdateProjectRequest{}).IsEmpty())

	title := "Midnight Drive"
	assert.False(t, (&UpdateProjectRequest{Title: &title}).IsEmpty())

	bpm := 0
	assert.False(t, (&UpdateProjectRequest{BPM: &bpm}).IsEmpty(), "explicit zero is a provided field")
}

func TestUpdateSectionRequestIsEmpty(t *testing.T) {
	assert.True(t, (&UpdateSectionRequest{}).IsEmpty())

	lyrics := ""
	assert.False(t, (&UpdateSectionRequest{Lyrics: &lyrics}).IsEmpty())
}
