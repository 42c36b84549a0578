package backup

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/connexx-dev/connexx/internal/models"
	"gorm.io/gorm"
)

// Snapshotter exports the whole dataset to timestamped JSON files. Reads
// run through the normal connection, so a snapshot is safe while the
// API keeps serving traffic.
type Snapshotter struct {
	conn          *gorm.DB
	dir           string
	retentionDays int
	now           func() time.Time
}

func NewSnapshotter(conn *gorm.DB, dir string, retentionDays int) *Snapshotter {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	return &Snapshotter{conn: conn, dir: dir, retentionDays: retentionDays, now: time.Now}
}

type snapshot struct {
	CreatedAt    time.Time             `json:"created_at"`
	Tenants      []models.Tenant       `json:"tenants"`
	Events       []models.Event        `json:"events"`
	SystemErrors []models.SystemError  `json:"system_errors"`
	Alerts       []models.Alert        `json:"alerts"`
	Incidents    []models.Incident     `json:"incidents"`
	IPRules      []models.IPRule       `json:"ip_rules"`
	DMAIC        []models.DMAICProject `json:"dmaic_projects"`
	Campaigns    []models.Campaign     `json:"campaigns"`
}

// Snapshot writes connexx_<timestamp>.json into the backup dir and
// returns its path. The file is written to a temp name and renamed so a
// crash never leaves a truncated snapshot behind.
func (s *Snapshotter) Snapshot() (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", err
	}

	data := snapshot{CreatedAt: s.now()}

	loads := []struct {
		name string
		dest any
	}{
		{"tenants", &data.Tenants},
		{"events", &data.Events},
		{"system_errors", &data.SystemErrors},
		{"alerts", &data.Alerts},
		{"incidents", &data.Incidents},
		{"ip_rules", &data.IPRules},
		{"dmaic_projects", &data.DMAIC},
		{"campaigns", &data.Campaigns},
	}
	for _, load := range loads {
		if err := s.conn.Find(load.dest).Error; err != nil {
			return "", fmt.Errorf("snapshot %s: %w", load.name, err)
		}
	}

	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("connexx_%s.json", s.now().Format("20060102_150405"))
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"

	if err := os.WriteFile(tmp, encoded, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return "", err
	}

	log.Printf("Snapshot written: %s (%d tenants, %d events)", path, len(data.Tenants), len(data.Events))
	return path, nil
}

// Cleanup removes snapshots older than the retention window. Returns
// the number of deleted files.
func (s *Snapshotter) Cleanup() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := s.now().AddDate(0, 0, -s.retentionDays)
	deleted := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "connexx_") || !strings.HasSuffix(name, ".json") {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(s.dir, name)); err != nil {
			log.Printf("Failed to remove old snapshot %s: %v", name, err)
			continue
		}
		deleted++
	}

	return deleted, nil
}
