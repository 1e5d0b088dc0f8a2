package repository

import (
	"database/sql"
	"fmt"

	"github.com/jeypi-mxnslvs/lost-and-found/internal/models"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// MatchRepository stores the audit trail of match runs and owner notifications.
// Reports themselves are never persisted.
type MatchRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewMatchRepository opens (or creates) the audit database
func NewMatchRepository(dbPath string, logger *zap.Logger) (*MatchRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// sqlite allows one writer; this also keeps ":memory:" databases on one connection
	db.SetMaxOpenConns(1)

	repo := &MatchRepository{
		db:     db,
		logger: logger,
	}

	if err := repo.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	logger.Info("Match repository initialized", zap.String("db_path", dbPath))

	return repo, nil
}

// migrate creates tables
func (r *MatchRepository) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS match_runs (
		id TEXT PRIMARY KEY,
		session_id TEXT,
		found_item_id TEXT NOT NULL,
		candidate_count INTEGER NOT NULL,
		match_count INTEGER NOT NULL,
		degraded_images INTEGER DEFAULT 0,
		provider TEXT NOT NULL,
		model_version TEXT,
		status TEXT NOT NULL,
		error_message TEXT,
		duration_ms INTEGER NOT NULL,
		started_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_runs_found_item ON match_runs(found_item_id);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON match_runs(started_at);
	CREATE INDEX IF NOT EXISTS idx_runs_status ON match_runs(status);

	CREATE TABLE IF NOT EXISTS notifications (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT,
		found_item_id TEXT,
		lost_item_id TEXT NOT NULL,
		owner_name TEXT NOT NULL,
		message TEXT NOT NULL,
		acknowledged_at DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_notifications_lost_item ON notifications(lost_item_id);
	`

	_, err := r.db.Exec(schema)
	return err
}

// SaveRun records a finished match run
func (r *MatchRepository) SaveRun(run *models.MatchRun) error {
	query := `
		INSERT INTO match_runs (
			id, session_id, found_item_id, candidate_count, match_count, degraded_images,
			provider, model_version, status, error_message, duration_ms, started_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		run.ID,
		run.SessionID,
		run.FoundItemID,
		run.CandidateCount,
		run.MatchCount,
		run.DegradedImages,
		run.Provider,
		run.ModelVersion,
		run.Status,
		run.ErrorMessage,
		run.DurationMillis,
		run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save match run: %w", err)
	}

	return nil
}

// ListRuns returns the most recent runs, optionally for one found item
func (r *MatchRepository) ListRuns(foundItemID string, limit int) ([]*models.MatchRun, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT id, session_id, found_item_id, candidate_count, match_count, degraded_images,
		       provider, model_version, status, error_message, duration_ms, started_at
		FROM match_runs
		WHERE (? = '' OR found_item_id = ?)
		ORDER BY started_at DESC
		LIMIT ?
	`

	rows, err := r.db.Query(query, foundItemID, foundItemID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query match runs: %w", err)
	}
	defer rows.Close()

	runs := []*models.MatchRun{}
	for rows.Next() {
		run := &models.MatchRun{}
		var sessionID, modelVersion, errorMessage sql.NullString
		err := rows.Scan(
			&run.ID,
			&sessionID,
			&run.FoundItemID,
			&run.CandidateCount,
			&run.MatchCount,
			&run.DegradedImages,
			&run.Provider,
			&modelVersion,
			&run.Status,
			&errorMessage,
			&run.DurationMillis,
			&run.StartedAt,
		)
		if err != nil {
			r.logger.Error("Failed to scan match run", zap.Error(err))
			continue
		}
		run.SessionID = sessionID.String
		run.ModelVersion = modelVersion.String
		run.ErrorMessage = errorMessage.String
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// GetStats returns aggregate statistics about match runs
func (r *MatchRepository) GetStats() (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total int
	var avgDuration sql.NullFloat64
	err := r.db.QueryRow("SELECT COUNT(*), AVG(duration_ms) FROM match_runs").Scan(&total, &avgDuration)
	if err != nil {
		return nil, err
	}
	stats["total"] = total
	stats["avg_duration_ms"] = avgDuration.Float64

	rows, err := r.db.Query(`
		SELECT status, COUNT(*) as count
		FROM match_runs
		GROUP BY status
		ORDER BY status
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byStatus := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			continue
		}
		byStatus[status] = count
	}
	stats["by_status"] = byStatus

	var notifications int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM notifications").Scan(&notifications); err != nil {
		return nil, err
	}
	stats["notifications"] = notifications

	return stats, nil
}

// SaveNotification records a "notify owner" acknowledgment
func (r *MatchRepository) SaveNotification(n *models.Notification) error {
	query := `
		INSERT INTO notifications (
			session_id, found_item_id, lost_item_id, owner_name, message, acknowledged_at
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.Exec(query,
		n.SessionID,
		n.FoundItemID,
		n.LostItemID,
		n.OwnerName,
		n.Message,
		n.Acknowledged,
	)
	if err != nil {
		return fmt.Errorf("failed to save notification: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = id
	return nil
}

// ListNotifications returns acknowledgments for one lost item
func (r *MatchRepository) ListNotifications(lostItemID string) ([]*models.Notification, error) {
	rows, err := r.db.Query(`
		SELECT id, session_id, found_item_id, lost_item_id, owner_name, message, acknowledged_at
		FROM notifications
		WHERE lost_item_id = ?
		ORDER BY acknowledged_at DESC
	`, lostItemID)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer rows.Close()

	out := []*models.Notification{}
	for rows.Next() {
		n := &models.Notification{}
		var sessionID, foundItemID sql.NullString
		if err := rows.Scan(&n.ID, &sessionID, &foundItemID, &n.LostItemID, &n.OwnerName, &n.Message, &n.Acknowledged); err != nil {
			r.logger.Error("Failed to scan notification", zap.Error(err))
			continue
		}
		n.SessionID = sessionID.String
		n.FoundItemID = foundItemID.String
		out = append(out, n)
	}

	return out, rows.Err()
}

// Close closes the database connection
func (r *MatchRepository) Close() error {
	return r.db.Close()
}
