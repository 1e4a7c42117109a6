package sqlite

import (
	"database/sql"
	"errors"
	"time"

	"github.com/vertextoedge/image-downloader/internal/domain"
)

const downloadColumns = `id, url, directory, success, message, file_path, error_kind,
	content_type, bytes_written, started_at, finished_at`

// Record inserts a finished download attempt
func (s *Store) Record(record *domain.DownloadRecord) error {
	query := `
		INSERT INTO downloads (` + downloadColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		record.ID, record.URL, record.Directory, record.Success, record.Message,
		nullString(record.FilePath), record.ErrorKind, nullString(record.ContentType),
		record.BytesWritten, record.StartedAt.UTC(), record.FinishedAt.UTC())
	return err
}

// Get retrieves a record by ID
func (s *Store) Get(id string) (*domain.DownloadRecord, error) {
	query := `SELECT ` + downloadColumns + ` FROM downloads WHERE id = ?`

	record, err := scanRecord(s.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	return record, err
}

// ListRecent returns up to limit records, newest first
func (s *Store) ListRecent(limit int) ([]*domain.DownloadRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + downloadColumns + `
		FROM downloads
		ORDER BY started_at DESC, rowid DESC
		LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []*domain.DownloadRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, rows.Err()
}

// GetHistoryStats returns aggregate counts over all records
func (s *Store) GetHistoryStats() (*domain.HistoryStats, error) {
	stats := &domain.HistoryStats{FailuresByKind: make(map[string]int)}

	var totalBytes sql.NullInt64
	err := s.db.QueryRow(`
		SELECT COUNT(*),
			COALESCE(SUM(CASE WHEN success THEN 1 ELSE 0 END), 0),
			SUM(CASE WHEN success THEN bytes_written ELSE 0 END)
		FROM downloads
	`).Scan(&stats.TotalDownloads, &stats.Succeeded, &totalBytes)
	if err != nil {
		return nil, err
	}
	stats.TotalBytes = totalBytes.Int64
	stats.Failed = stats.TotalDownloads - stats.Succeeded

	rows, err := s.db.Query(`
		SELECT error_kind, COUNT(*)
		FROM downloads
		WHERE NOT success
		GROUP BY error_kind
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var kind string
		var count int
		if err := rows.Scan(&kind, &count); err != nil {
			return nil, err
		}
		stats.FailuresByKind[kind] = count
	}

	return stats, rows.Err()
}

// DeleteOlderThan removes records that finished before cutoff
func (s *Store) DeleteOlderThan(cutoff time.Time) (int, error) {
	result, err := s.db.Exec(`DELETE FROM downloads WHERE finished_at < ?`, cutoff.UTC())
	if err != nil {
		return 0, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(affected), nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanRecord(row rowScanner) (*domain.DownloadRecord, error) {
	record := &domain.DownloadRecord{}
	var filePath, contentType sql.NullString

	err := row.Scan(
		&record.ID, &record.URL, &record.Directory, &record.Success, &record.Message,
		&filePath, &record.ErrorKind, &contentType, &record.BytesWritten,
		&record.StartedAt, &record.FinishedAt,
	)
	if err != nil {
		return nil, err
	}

	record.FilePath = filePath.String
	record.ContentType = contentType.String
	return record, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
