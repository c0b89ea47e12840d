package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/sadopc/hourtree/internal/logging"
)

// AddWorkSession records one completed session.
func (s *Store) AddWorkSession(ws WorkSession) error {
	_, err := s.db.Exec(
		`INSERT INTO work (time_start, duration, project_id) VALUES (?, ?, ?)`,
		ws.TimeStart, ws.Duration, ws.ProjectID,
	)
	if err != nil {
		return storageErr("add work session", err)
	}
	logging.Logger().Info("work session recorded",
		"start", ws.TimeStart, "duration", ws.Duration, "project", ws.ProjectID)
	return nil
}

// ListWorkSessions returns sessions starting in [from, to), newest first. Either
// bound may be nil.
func (s *Store) ListWorkSessions(from, to *time.Time) ([]WorkSession, error) {
	query := `SELECT time_start, duration, project_id FROM work WHERE 1=1`
	var args []any

	if from != nil {
		query += ` AND time_start >= ?`
		args = append(args, from.Unix())
	}
	if to != nil {
		query += ` AND time_start < ?`
		args = append(args, to.Unix())
	}
	query += ` ORDER BY time_start DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, storageErr("list work sessions", err)
	}
	defer rows.Close()

	var sessions []WorkSession
	for rows.Next() {
		var ws WorkSession
		var projectID sql.NullInt64
		if err := rows.Scan(&ws.TimeStart, &ws.Duration, &projectID); err != nil {
			return nil, storageErr("list work sessions", err)
		}
		if projectID.Valid {
			ws.ProjectID = &projectID.Int64
		}
		sessions = append(sessions, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("list work sessions", err)
	}
	return sessions, nil
}

// DayBounds returns the 24 hour window a logical day covers. The day starts at
// local midnight of day's calendar date plus offsetHours mod 24, in day's zone.
func DayBounds(day time.Time, offsetHours int) (time.Time, time.Time) {
	offset := ((offsetHours % 24) + 24) % 24
	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, day.Location()).Add(time.Duration(offset) * time.Hour)
	return start, start.Add(24 * time.Hour)
}

// GetWorkHoursForDay sums the duration of sessions that started within the logical
// day and returns it in hours.
func (s *Store) GetWorkHoursForDay(day time.Time, offsetHours int) (float64, error) {
	start, end := DayBounds(day, offsetHours)

	var total sql.NullInt64
	err := s.db.QueryRow(`
		SELECT SUM(duration)
		FROM work
		WHERE time_start >= ? AND time_start < ?`,
		start.Unix(), end.Unix(),
	).Scan(&total)
	if err != nil {
		return 0, storageErr(fmt.Sprintf("work hours for %s", day.Format("2006-01-02")), err)
	}
	return float64(total.Int64) / 3600, nil
}
