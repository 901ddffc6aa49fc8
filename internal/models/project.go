package models

import "time"

type SongProject struct {
	ID           string    `json:"id" db:"id"`
	UserID       string    `json:"userId" db:"user_id"`
	Title        string    `json:"title" db:"title"`
	ArtistName   *string   `json:"artistName,omitempty" db:"artist_name"`
	Genre        *string   `json:"genre,omitempty" db:"genre"`
	Mood         *string   `json:"mood,omitempty" db:"mood"`
	Language     *string   `json:"language,omitempty" db:"language"`
	BPM          *int      `json:"bpm,omitempty" db:"bpm"`
	KeySignature *string   `json:"keySignature,omitempty" db:"key_signature"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

type CreateProjectRequest struct {
	Title        string  `json:"title"`
	ArtistName   *string `json:"artistName,omitempty"`
	Genre        *string `json:"genre,omitempty"`
	Mood         *string `json:"mood,omitempty"`
	Language     *string `json:"language,omitempty"`
	BPM          *int    `json:"bpm,omitempty"`
	KeySignature *string `json:"keySignature,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type UpdateProjectRequest struct {
	Title        *string `json:"title,omitempty"`
	ArtistName   *string `json:"artistName,omitempty"`
	Genre        *string `json:"genre,omitempty"`
	Mood         *string `json:"mood,omitempty"`
	Language     *string `json:"language,omitempty"`
	BPM          *int    `json:"bpm,omitempty"`
	KeySignature *string `json:"keySignature,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

// IsEmpty reports whether the patch carries no fields at all.
func (r *UpdateProjectRequest) IsEmpty() bool {
	return r.Title == nil &&
		r.ArtistName == nil &&
		r.Genre == nil &&
		r.Mood == nil &&
		r.Language == nil &&
		r.BPM == nil &&
		r.KeySignature == nil &&
		r.Notes == nil
}
