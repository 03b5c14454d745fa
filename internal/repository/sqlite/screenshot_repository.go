package sqlite

import (
	"database/sql"
	"errors"
	"fmt"

	"livedetect/internal/dto"
	"livedetect/internal/model"
)

// ScreenshotRepository implements repository.ScreenshotRepository for SQLite.
type ScreenshotRepository struct {
	db *DB
}

// NewScreenshotRepository creates a new SQLite screenshot repository.
func NewScreenshotRepository(db *DB) *ScreenshotRepository {
	return &ScreenshotRepository{db: db}
}

const screenshotColumns = `s.id, s.filename, s.filepath, s.filesize, s.width, s.height, s.model, s.confidence, s.run_id, s.timestamp`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanScreenshot(row rowScanner) (*model.Screenshot, error) {
	var s model.Screenshot
	err := row.Scan(&s.ID, &s.Filename, &s.FilePath, &s.FileSize, &s.Width, &s.Height,
		&s.Model, &s.Confidence, &s.RunID, &s.Timestamp)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Insert adds a new screenshot record to the database.
func (r *ScreenshotRepository) Insert(s *model.Screenshot) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO screenshots (filename, filepath, filesize, width, height, model, confidence, run_id, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.Filename, s.FilePath, s.FileSize, s.Width, s.Height, s.Model, s.Confidence, s.RunID, s.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("failed to insert screenshot: %w", err)
	}

	return result.LastInsertId()
}

// GetByID retrieves a screenshot by its ID. A missing row yields nil, nil.
func (r *ScreenshotRepository) GetByID(id int64) (*model.Screenshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	s, err := scanScreenshot(r.db.Conn().QueryRow(`SELECT `+screenshotColumns+` FROM screenshots s WHERE s.id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get screenshot: %w", err)
	}
	return s, nil
}

// GetByFilename retrieves a screenshot by its filename. A missing row yields nil, nil.
func (r *ScreenshotRepository) GetByFilename(filename string) (*model.Screenshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	s, err := scanScreenshot(r.db.Conn().QueryRow(`SELECT `+screenshotColumns+` FROM screenshots s WHERE s.filename = ?`, filename))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get screenshot: %w", err)
	}
	return s, nil
}

// filterClause appends the WHERE conditions for filter to query.
func filterClause(query string, filter *dto.ScreenshotFilters) (string, []interface{}) {
	args := []interface{}{}
	if filter == nil {
		return query, args
	}

	if filter.Model != "" {
		query += " AND s.model = ?"
		args = append(args, filter.Model)
	}

	if filter.Object != "" {
		query += " AND d.object_name = ?"
		args = append(args, filter.Object)
	}

	if filter.RunID != "" {
		query += " AND s.run_id = ?"
		args = append(args, filter.RunID)
	}

	if !filter.DateAfter.IsZero() {
		query += " AND s.timestamp >= ?"
		args = append(args, filter.DateAfter)
	}

	if !filter.DateBefore.IsZero() {
		query += " AND s.timestamp <= ?"
		args = append(args, filter.DateBefore)
	}

	return query, args
}

// GetAll retrieves screenshots based on filter criteria, newest first.
func (r *ScreenshotRepository) GetAll(filter *dto.ScreenshotFilters) ([]model.Screenshot, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query, args := filterClause(`
		SELECT DISTINCT `+screenshotColumns+`
		FROM screenshots s
		LEFT JOIN detections d ON s.id = d.screenshot_id
		WHERE 1=1
	`, filter)

	query += " ORDER BY s.timestamp DESC, s.id DESC"

	if filter != nil && filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)

		if filter.Offset > 0 {
			query += " OFFSET ?"
			args = append(args, filter.Offset)
		}
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query screenshots: %w", err)
	}
	defer rows.Close()

	var screenshots []model.Screenshot
	for rows.Next() {
		s, err := scanScreenshot(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan screenshot: %w", err)
		}
		screenshots = append(screenshots, *s)
	}

	return screenshots, rows.Err()
}

// GetTotalCount returns the total count of screenshots matching the filter.
func (r *ScreenshotRepository) GetTotalCount(filter *dto.ScreenshotFilters) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query, args := filterClause(`
		SELECT COUNT(DISTINCT s.id)
		FROM screenshots s
		LEFT JOIN detections d ON s.id = d.screenshot_id
		WHERE 1=1
	`, filter)

	var count int
	if err := r.db.Conn().QueryRow(query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count screenshots: %w", err)
	}

	return count, nil
}

// GetStats returns statistics about stored screenshots.
func (r *ScreenshotRepository) GetStats() (*model.ScreenshotStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &model.ScreenshotStats{
		PerModel:     make(map[string]int),
		ObjectCounts: make(map[string]int),
	}

	if err := r.db.Conn().QueryRow(`SELECT COUNT(*), COALESCE(SUM(filesize), 0) FROM screenshots`).
		Scan(&stats.TotalScreenshots, &stats.TotalSizeBytes); err != nil {
		return nil, fmt.Errorf("failed to count screenshots: %w", err)
	}

	if err := r.countInto(stats.PerModel, `SELECT model, COUNT(*) FROM screenshots GROUP BY model`); err != nil {
		return nil, err
	}

	// Most detected objects
	if err := r.countInto(stats.ObjectCounts, `
		SELECT object_name, COUNT(*) AS cnt
		FROM detections
		GROUP BY object_name
		ORDER BY cnt DESC
		LIMIT 10
	`); err != nil {
		return nil, err
	}

	return stats, nil
}

func (r *ScreenshotRepository) countInto(dst map[string]int, query string) error {
	rows, err := r.db.Conn().Query(query)
	if err != nil {
		return fmt.Errorf("failed to query stats: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var key string
		var count int
		if err := rows.Scan(&key, &count); err != nil {
			return fmt.Errorf("failed to scan stats: %w", err)
		}
		dst[key] = count
	}
	return rows.Err()
}

// DeleteByFilename removes a screenshot and its detections. Deleting an
// unknown filename is not an error.
func (r *ScreenshotRepository) DeleteByFilename(filename string) error {
	r.db.Lock()
	defer r.db.Unlock()

	tx, err := r.db.Conn().Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRow(`SELECT id FROM screenshots WHERE filename = ?`, filename).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to get screenshot id: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM detections WHERE screenshot_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete detections: %w", err)
	}

	if _, err := tx.Exec(`DELETE FROM screenshots WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete screenshot: %w", err)
	}

	return tx.Commit()
}
