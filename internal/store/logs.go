package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/smokyabdulrahman/shaum/internal/fasting"
)

// LogFilter narrows ListLogs. Zero fields match everything; From and To are
// inclusive ISO dates.
type LogFilter struct {
	From string
	To   string
	Type fasting.FastingType
}

// AddLog validates and inserts a log, assigning an ID when l.ID is empty.
func (s *Store) AddLog(ctx context.Context, l *fasting.Log) error {
	if _, err := time.Parse(fasting.DateLayout, l.Date); err != nil {
		return fmt.Errorf("invalid log date %q: expected YYYY-MM-DD", l.Date)
	}
	if !l.Type.Valid() {
		return fmt.Errorf("invalid log type %q", l.Type)
	}
	if l.ID == "" {
		l.ID = uuid.NewString()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO fasting_logs (id, date, type, is_completed, is_nadzar, is_qadha)
		VALUES (?, ?, ?, ?, ?, ?)
	`, l.ID, l.Date, string(l.Type), l.IsCompleted, l.IsNadzar, l.IsQadha)
	if err != nil {
		return fmt.Errorf("insert log: %w", err)
	}
	return nil
}

// DeleteLog removes a log by ID.
func (s *Store) DeleteLog(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM fasting_logs WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete log: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("log %s: %w", id, ErrNotFound)
	}
	return nil
}

// ListLogs returns matching logs ordered by date.
func (s *Store) ListLogs(ctx context.Context, f LogFilter) ([]fasting.Log, error) {
	var where []string
	var args []any
	if f.From != "" {
		where = append(where, "date >= ?")
		args = append(args, f.From)
	}
	if f.To != "" {
		where = append(where, "date <= ?")
		args = append(args, f.To)
	}
	if f.Type != fasting.None {
		where = append(where, "type = ?")
		args = append(args, string(f.Type))
	}

	query := "SELECT id, date, type, is_completed, is_nadzar, is_qadha FROM fasting_logs"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY date, created_at, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query logs: %w", err)
	}
	defer rows.Close()

	var logs []fasting.Log
	for rows.Next() {
		var l fasting.Log
		var typ string
		if err := rows.Scan(&l.ID, &l.Date, &typ, &l.IsCompleted, &l.IsNadzar, &l.IsQadha); err != nil {
			return nil, fmt.Errorf("scan log: %w", err)
		}
		l.Type = fasting.FastingType(typ)
		logs = append(logs, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate logs: %w", err)
	}
	return logs, nil
}

// Stats summarizes one year of logs.
type Stats struct {
	Year      int                         `json:"year"`
	Total     int                         `json:"total"`
	Completed int                         `json:"completed"`
	ByType    map[fasting.FastingType]int `json:"byType"`
	// QadhaRepaid and NadzarFulfilled count completed fasts that discharged
	// an obligation, whatever their primary type.
	QadhaRepaid     int `json:"qadhaRepaid"`
	NadzarFulfilled int `json:"nadzarFulfilled"`
}

// Stats counts the logs dated in the given Gregorian year.
func (s *Store) Stats(ctx context.Context, year int) (Stats, error) {
	logs, err := s.ListLogs(ctx, LogFilter{
		From: fmt.Sprintf("%04d-01-01", year),
		To:   fmt.Sprintf("%04d-12-31", year),
	})
	if err != nil {
		return Stats{}, err
	}

	st := Stats{Year: year, ByType: make(map[fasting.FastingType]int)}
	for _, l := range logs {
		st.Total++
		if !l.IsCompleted {
			continue
		}
		st.Completed++
		st.ByType[l.Type]++
		if l.IsQadha || l.Type == fasting.Qadha {
			st.QadhaRepaid++
		}
		if l.IsNadzar || l.Type == fasting.Nadzar {
			st.NadzarFulfilled++
		}
	}
	return st, nil
}
