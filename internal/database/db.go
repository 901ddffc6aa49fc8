package database

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/yourusername/songwriter-studio/internal/models"
)

type DB struct {
	*sql.DB
}

func New(dsn string) (*DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Test connection
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}

	log.Println("Database connection established")
	return &DB{db}, nil
}

const projectColumns = "id, user_id, title, artist_name, genre, mood, language, bpm, key_signature, notes, created_at, updated_at"

const sectionColumns = "id, song_project_id, order_index, section_type, label, lyrics, chords, melody_hints, created_at, updated_at"

type scanner interface {
	Scan(dest ...any) error
}

func scanProject(s scanner) (*models.SongProject, error) {
	var p models.SongProject
	err := s.Scan(&p.ID, &p.UserID, &p.Title, &p.ArtistName, &p.Genre, &p.Mood,
		&p.Language, &p.BPM, &p.KeySignature, &p.Notes, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func scanSection(s scanner) (*models.SongSection, error) {
	var sec models.SongSection
	err := s.Scan(&sec.ID, &sec.SongProjectID, &sec.OrderIndex, &sec.SectionType,
		&sec.Label, &sec.Lyrics, &sec.Chords, &sec.MelodyHints, &sec.CreatedAt, &sec.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sec, nil
}

// CreateProject inserts a new project owned by userID
func (db *DB) CreateProject(userID string, req *models.CreateProjectRequest) (*models.SongProject, error) {
	query := `
		INSERT INTO song_projects (id, user_id, title, artist_name, genre, mood, language, bpm, key_signature, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, NOW(), NOW())
		RETURNING ` + projectColumns

	project, err := scanProject(db.QueryRow(query, uuid.NewString(), userID,
		req.Title, req.ArtistName, req.Genre, req.Mood, req.Language, req.BPM,
		req.KeySignature, req.Notes))
	if err != nil {
		return nil, fmt.Errorf("error creating project: %w", err)
	}

	return project, nil
}

// GetProject retrieves a project by ID, scoped to its owner. A project
// that exists but belongs to someone else is indistinguishable from one
// that does not exist.
func (db *DB) GetProject(userID, id string) (*models.SongProject, error) {
	query := `SELECT ` + projectColumns + ` FROM song_projects WHERE id = $1 AND user_id = $2`

	project, err := scanProject(db.QueryRow(query, id, userID))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error getting project: %w", err)
	}

	return project, nil
}

// ListProjects retrieves all projects owned by userID, oldest first
func (db *DB) ListProjects(userID string) ([]models.SongProject, error) {
	query := `SELECT ` + projectColumns + ` FROM song_projects WHERE user_id = $1 ORDER BY created_at ASC, id ASC`

	rows, err := db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing projects: %w", err)
	}
	defer rows.Close()

	projects := []models.SongProject{}
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning project: %w", err)
		}
		projects = append(projects, *project)
	}

	return projects, rows.Err()
}

// projectPatchSet maps the provided patch fields to SET fragments,
// leaving absent fields out so they are never overwritten.
func projectPatchSet(patch *models.UpdateProjectRequest) ([]string, []any) {
	set := []string{}
	args := []any{}

	add := func(column string, value any) {
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if patch.Title != nil {
		add("title", *patch.Title)
	}
	if patch.ArtistName != nil {
		add("artist_name", *patch.ArtistName)
	}
	if patch.Genre != nil {
		add("genre", *patch.Genre)
	}
	if patch.Mood != nil {
		add("mood", *patch.Mood)
	}
	if patch.Language != nil {
		add("language", *patch.Language)
	}
	if patch.BPM != nil {
		add("bpm", *patch.BPM)
	}
	if patch.KeySignature != nil {
		add("key_signature", *patch.KeySignature)
	}
	if patch.Notes != nil {
		add("notes", *patch.Notes)
	}

	return set, args
}

// UpdateProject applies a partial update to an owned project
func (db *DB) UpdateProject(userID, id string, patch *models.UpdateProjectRequest) (*models.SongProject, error) {
	set, args := projectPatchSet(patch)
	if len(set) == 0 {
		return nil, ErrNoFields
	}

	query := fmt.Sprintf(
		`UPDATE song_projects SET updated_at = NOW(), %s WHERE id = $%d AND user_id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args)+1, len(args)+2, projectColumns)
	args = append(args, id, userID)

	project, err := scanProject(db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error updating project: %w", err)
	}

	return project, nil
}

// CreateSection inserts a new section under a project. Ownership of the
// parent project must already be verified by the caller.
func (db *DB) CreateSection(projectID string, orderIndex int, req *models.CreateSectionRequest) (*models.SongSection, error) {
	query := `
		INSERT INTO song_sections (id, song_project_id, order_index, section_type, label, lyrics, chords, melody_hints, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING ` + sectionColumns

	section, err := scanSection(db.QueryRow(query, uuid.NewString(), projectID,
		orderIndex, req.SectionType, req.Label, req.Lyrics, req.Chords, req.MelodyHints))
	if err != nil {
		return nil, fmt.Errorf("error creating section: %w", err)
	}

	return section, nil
}

// ListSections retrieves all sections of a project, ordered by position
func (db *DB) ListSections(projectID string) ([]models.SongSection, error) {
	query := `SELECT ` + sectionColumns + ` FROM song_sections WHERE song_project_id = $1 ORDER BY order_index ASC, created_at ASC, id ASC`

	rows, err := db.Query(query, projectID)
	if err != nil {
		return nil, fmt.Errorf("error listing sections: %w", err)
	}
	defer rows.Close()

	sections := []models.SongSection{}
	for rows.Next() {
		section, err := scanSection(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning section: %w", err)
		}
		sections = append(sections, *section)
	}

	return sections, rows.Err()
}

func sectionPatchSet(patch *models.UpdateSectionRequest) ([]string, []any) {
	set := []string{}
	args := []any{}

	add := func(column string, value any) {
		set = append(set, fmt.Sprintf("%s = $%d", column, len(args)+1))
		args = append(args, value)
	}

	if patch.OrderIndex != nil {
		add("order_index", *patch.OrderIndex)
	}
	if patch.SectionType != nil {
		add("section_type", *patch.SectionType)
	}
	if patch.Label != nil {
		add("label", *patch.Label)
	}
	if patch.Lyrics != nil {
		add("lyrics", *patch.Lyrics)
	}
	if patch.Chords != nil {
		add("chords", *patch.Chords)
	}
	if patch.MelodyHints != nil {
		add("melody_hints", *patch.MelodyHints)
	}

	return set, args
}

// UpdateSection applies a partial update to a section. The section must
// belong to the given project; an id that matches a section of some other
// project is treated as not found.
func (db *DB) UpdateSection(projectID, id string, patch *models.UpdateSectionRequest) (*models.SongSection, error) {
	set, args := sectionPatchSet(patch)
	if len(set) == 0 {
		return nil, ErrNoFields
	}

	query := fmt.Sprintf(
		`UPDATE song_sections SET updated_at = NOW(), %s WHERE id = $%d AND song_project_id = $%d RETURNING %s`,
		strings.Join(set, ", "), len(args)+1, len(args)+2, sectionColumns)
	args = append(args, id, projectID)

	section, err := scanSection(db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error updating section: %w", err)
	}

	return section, nil
}

// DeleteSection deletes the section matching both id and project
func (db *DB) DeleteSection(projectID, id string) error {
	query := `DELETE FROM song_sections WHERE id = $1 AND song_project_id = $2`
	result, err := db.Exec(query, id, projectID)
	if err != nil {
		return fmt.Errorf("error deleting section: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error checking rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

const sectionHitColumns = `s.id, s.song_project_id, s.order_index, s.section_type, s.label, s.lyrics, s.chords, s.melody_hints, s.created_at, s.updated_at, p.user_id, p.title`

func scanSectionHit(s scanner) (*models.SectionHit, error) {
	var hit models.SectionHit
	err := s.Scan(&hit.ID, &hit.SongProjectID, &hit.OrderIndex, &hit.SectionType,
		&hit.Label, &hit.Lyrics, &hit.Chords, &hit.MelodyHints, &hit.CreatedAt,
		&hit.UpdatedAt, &hit.UserID, &hit.ProjectTitle)
	if err != nil {
		return nil, err
	}
	return &hit, nil
}

// SearchSections performs a DB text search over the caller's sections.
// Used when the search index is disabled.
func (db *DB) SearchSections(userID, query string) ([]models.SectionHit, error) {
	base := `
		SELECT ` + sectionHitColumns + `
		FROM song_sections s
		JOIN song_projects p ON p.id = s.song_project_id
		WHERE p.user_id = $1
	`
	args := []any{userID}

	if query != "" && query != "*" {
		base += ` AND (s.lyrics ILIKE $2 OR s.label ILIKE $2 OR s.section_type ILIKE $2 OR p.title ILIKE $2)`
		args = append(args, "%"+query+"%")
	}

	base += ` ORDER BY s.updated_at DESC`

	rows, err := db.Query(base, args...)
	if err != nil {
		return nil, fmt.Errorf("error searching sections: %w", err)
	}
	defer rows.Close()

	hits := []models.SectionHit{}
	for rows.Next() {
		hit, err := scanSectionHit(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning section: %w", err)
		}
		hits = append(hits, *hit)
	}

	return hits, rows.Err()
}

// AllSectionHits returns every section joined with its owner and project
// title, used to rebuild the search index.
func (db *DB) AllSectionHits() ([]models.SectionHit, error) {
	query := `
		SELECT ` + sectionHitColumns + `
		FROM song_sections s
		JOIN song_projects p ON p.id = s.song_project_id
		ORDER BY s.created_at ASC
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("error getting sections for reindex: %w", err)
	}
	defer rows.Close()

	hits := []models.SectionHit{}
	for rows.Next() {
		hit, err := scanSectionHit(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning section: %w", err)
		}
		hits = append(hits, *hit)
	}

	return hits, rows.Err()
}

// EditCount returns the total number of rows across both tables, used as
// the backup threshold input
func (db *DB) EditCount() (int, error) {
	var count int
	query := `SELECT (SELECT COUNT(*) FROM song_projects) + (SELECT COUNT(*) FROM song_sections)`
	err := db.QueryRow(query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("error getting edit count: %w", err)
	}
	return count, nil
}
