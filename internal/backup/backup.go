package backup

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"
)

// Metadata describes one completed backup.
type Metadata struct {
	Kind      string `json:"kind"`
	Timestamp string `json:"timestamp"`
	SizeBytes int64  `json:"sizeBytes"`
	Filename  string `json:"filename"`
}

// Manager dumps the song database with pg_dump, both on a daily schedule
// and after a configured number of record edits.
type Manager struct {
	dbDSN          string
	backupDir      string
	editsThreshold int
	retentionDays  int

	mu            sync.Mutex
	lastEditCount int
}

func NewManager(dbDSN, backupDir string, editsThreshold int) *Manager {
	return &Manager{
		dbDSN:          dbDSN,
		backupDir:      backupDir,
		editsThreshold: editsThreshold,
		retentionDays:  7,
	}
}

// Start begins the backup scheduler
func (m *Manager) Start() {
	go m.runDaily()
	log.Println("Backup manager started")
}

// runDaily creates one backup per day at 02:00 local time
func (m *Manager) runDaily() {
	for {
		now := time.Now()
		next := time.Date(now.Year(), now.Month(), now.Day()+1, 2, 0, 0, 0, now.Location())
		time.Sleep(next.Sub(now))

		if err := m.Create("daily"); err != nil {
			log.Printf("Error creating daily backup: %v", err)
		}
	}
}

// NoteEditCount triggers a backup when enough edits have accumulated
// since the last threshold backup.
func (m *Manager) NoteEditCount(currentEditCount int) error {
	m.mu.Lock()
	threshold := currentEditCount-m.lastEditCount >= m.editsThreshold
	m.mu.Unlock()

	if !threshold {
		return nil
	}

	if err := m.Create("edit-threshold"); err != nil {
		return err
	}

	m.mu.Lock()
	m.lastEditCount = currentEditCount
	m.mu.Unlock()
	return nil
}

// Create runs pg_dump and writes a metadata sidecar next to the dump
func (m *Manager) Create(kind string) error {
	if err := os.MkdirAll(m.backupDir, 0755); err != nil {
		return fmt.Errorf("error creating backup directory: %w", err)
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	filename := fmt.Sprintf("songwriter_%s_%s.sql", kind, timestamp)
	dumpPath := filepath.Join(m.backupDir, filename)

	cmd := exec.Command("pg_dump", m.dbDSN, "-f", dumpPath)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("pg_dump failed: %w, output: %s", err, string(output))
	}

	info, err := os.Stat(dumpPath)
	if err != nil {
		return fmt.Errorf("error getting backup file info: %w", err)
	}

	log.Printf("Backup created: %s (%.2f MB)", filename, float64(info.Size())/(1024*1024))

	meta := Metadata{
		Kind:      kind,
		Timestamp: timestamp,
		SizeBytes: info.Size(),
		Filename:  filename,
	}

	metaJSON, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("error creating metadata: %w", err)
	}

	metaPath := filepath.Join(m.backupDir, fmt.Sprintf("songwriter_%s_%s.json", kind, timestamp))
	if err := os.WriteFile(metaPath, metaJSON, 0644); err != nil {
		return fmt.Errorf("error writing metadata: %w", err)
	}

	m.sweepOld()

	return nil
}

// sweepOld removes dumps and sidecars past the retention window
func (m *Manager) sweepOld() {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		log.Printf("Error reading backup directory: %v", err)
		return
	}

	cutoff := time.Now().AddDate(0, 0, -m.retentionDays)
	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}

		if info.ModTime().Before(cutoff) {
			if err := os.Remove(filepath.Join(m.backupDir, entry.Name())); err != nil {
				log.Printf("Error deleting old backup %s: %v", entry.Name(), err)
			} else {
				deleted++
			}
		}
	}

	if deleted > 0 {
		log.Printf("Cleaned up %d old backup files", deleted)
	}
}

// List returns the metadata of all retained backups
func (m *Manager) List() ([]Metadata, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Metadata{}, nil
		}
		return nil, fmt.Errorf("error reading backup directory: %w", err)
	}

	backups := []Metadata{}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}

		data, err := os.ReadFile(filepath.Join(m.backupDir, entry.Name()))
		if err != nil {
			continue
		}

		var meta Metadata
		if err := json.Unmarshal(data, &meta); err != nil {
			continue
		}

		backups = append(backups, meta)
	}

	return backups, nil
}
