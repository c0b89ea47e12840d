package export

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/sadopc/hourtree/internal/store"
)

type jsonExport struct {
	ExportedAt string        `json:"exported_at"`
	Count      int           `json:"count"`
	TotalHours float64       `json:"total_hours"`
	Sessions   []jsonSession `json:"sessions"`
}

type jsonSession struct {
	Project     string `json:"project"`
	ProjectID   *int64 `json:"project_id"`
	StartTime   string `json:"start_time"`
	EndTime     string `json:"end_time"`
	DurationSec int64  `json:"duration_seconds"`
	Duration    string `json:"duration"`
}

func ToJSON(sessions []store.WorkSession, paths map[int64]string, path string) error {
	export := jsonExport{
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Count:      len(sessions),
	}

	var total int64
	for _, r := range rows(sessions, paths) {
		total += r.Seconds
		export.Sessions = append(export.Sessions, jsonSession{
			Project:     r.Project,
			ProjectID:   r.ProjectID,
			StartTime:   r.Start.Format(time.RFC3339),
			EndTime:     r.End.Format(time.RFC3339),
			DurationSec: r.Seconds,
			Duration:    formatDuration(r.Seconds),
		})
	}
	export.TotalHours = float64(total) / 3600

	data, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write json file: %w", err)
	}
	return nil
}
