package models

import "time"

type SongSection struct {
	ID            string    `json:"id" db:"id"`
	SongProjectID string    `json:"songProjectId" db:"song_project_id"`
	OrderIndex    int       `json:"orderIndex" db:"order_index"`
	SectionType   *string   `json:"sectionType,omitempty" db:"section_type"`
	Label         *string   `json:"label,omitempty" db:"label"`
	Lyrics        string    `json:"lyrics" db:"lyrics"`
	Chords        *string   `json:"chords,omitempty" db:"chords"`
	MelodyHints   *string   `json:"melodyHints,omitempty" db:"melody_hints"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

type CreateSectionRequest struct {
	OrderIndex  *int    `json:"orderIndex,omitempty"`
	SectionType *string `json:"sectionType,omitempty"`
	Label       *string `json:"label,omitempty"`
	Lyrics      string  `json:"lyrics"`
	Chords      *string `json:"chords,omitempty"`
	MelodyHints *string `json:"melodyHints,omitempty"`
}

type UpdateSectionRequest struct {
	OrderIndex  *int    `json:"orderIndex,omitempty"`
	SectionType *string `json:"sectionType,omitempty"`
	Label       *string `json:"label,omitempty"`
	Lyrics      *string `json:"lyrics,omitempty"`
	Chords      *string `json:"chords,omitempty"`
	MelodyHints *string `json:"melodyHints,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (r *UpdateSectionRequest) IsEmpty() bool {
	return r.OrderIndex == nil &&
		r.SectionType == nil &&
		r.Label == nil &&
		r.Lyrics == nil &&
		r.Chords == nil &&
		r.MelodyHints == nil
}

// SectionHit is a section enriched with its parent project's title,
// used by the search surface.
type SectionHit struct {
	SongSection
	UserID       string `json:"userId" db:"user_id"`
	ProjectTitle string `json:"projectTitle" db:"project_title"`
}
