package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/hourtree/internal/store"
)

var csvHeader = []string{"Project", "Project ID", "Start", "End", "Duration (s)", "Duration"}

// ToCSV writes one row per work session. paths maps project ids to display paths.
func ToCSV(sessions []store.WorkSession, paths map[int64]string, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if err := w.Write(csvHeader); err != nil {
		return err
	}

	for _, r := range rows(sessions, paths) {
		record := []string{
			r.Project,
			r.projectIDString(),
			r.Start.Format(time.RFC3339),
			r.End.Format(time.RFC3339),
			strconv.FormatInt(r.Seconds, 10),
			formatDuration(r.Seconds),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}
