package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// Store manages batch task persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the task database under dir and verifies
// the schema.
func Open(dir string) (*Store, error) {
	dbPath := filepath.Join(dir, "tasks.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Add inserts a new task in pending status and fills in its assigned row ID.
func (s *Store) Add(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task is nil")
	}
	if task.TaskID == "" {
		return errors.New("task id must not be empty")
	}
	now := time.Now().UTC()
	timestamp := now.Format(time.RFC3339Nano)
	if task.Status == "" {
		task.Status = StatusPending
	}

	res, err := s.db.ExecContext(
		ctx,
		`INSERT INTO batch_tasks (
            task_id, project, name, episode, config_json, status, created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.TaskID,
		task.Project,
		task.Name,
		task.Episode,
		nullableString(task.ConfigJSON),
		task.Status,
		timestamp,
		timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert task: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	task.ID = id
	task.CreatedAt = now
	task.UpdatedAt = now
	return nil
}

// GetByTaskID fetches a task by its string identifier.
func (s *Store) GetByTaskID(ctx context.Context, taskID string) (*Task, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+taskColumns+` FROM batch_tasks WHERE task_id = ?`, taskID)
	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get task: %w", err)
	}
	return task, nil
}

// Update persists changes to an existing task, rejecting status regressions.
func (s *Store) Update(ctx context.Context, task *Task) error {
	if task == nil {
		return errors.New("task is nil")
	}
	if _, ok := statusRank[task.Status]; !ok {
		return fmt.Errorf("unknown task status %q", task.Status)
	}

	current, err := s.GetByTaskID(ctx, task.TaskID)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("task %q not found", task.TaskID)
	}
	if !CanTransition(current.Status, task.Status) {
		return fmt.Errorf("illegal task transition %s -> %s for %q", current.Status, task.Status, task.TaskID)
	}

	task.UpdatedAt = time.Now().UTC()
	_, err = s.db.ExecContext(
		ctx,
		`UPDATE batch_tasks
         SET name = ?, episode = ?, config_json = ?, status = ?, episode_dir = ?,
             config_path = ?, error_message = ?, updated_at = ?, started_at = ?, ended_at = ?
         WHERE task_id = ?`,
		task.Name,
		task.Episode,
		nullableString(task.ConfigJSON),
		task.Status,
		nullableString(task.EpisodeDir),
		nullableString(task.ConfigPath),
		nullableString(task.ErrorMessage),
		task.UpdatedAt.Format(time.RFC3339Nano),
		nullableTime(task.StartedAt),
		nullableTime(task.EndedAt),
		task.TaskID,
	)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	return nil
}

// ListByProject returns a project's tasks ordered by episode.
func (s *Store) ListByProject(ctx context.Context, projectName string) ([]*Task, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT `+taskColumns+` FROM batch_tasks WHERE project = ? ORDER BY episode`,
		projectName,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var list []*Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, task)
	}
	return list, rows.Err()
}

// Stats returns task counts grouped by status for one project.
func (s *Store) Stats(ctx context.Context, projectName string) (StatusCounts, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT status, COUNT(1) FROM batch_tasks WHERE project = ? GROUP BY status`,
		projectName,
	)
	if err != nil {
		return StatusCounts{}, fmt.Errorf("task stats: %w", err)
	}
	defer rows.Close()

	var counts StatusCounts
	for rows.Next() {
		var status Status
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return StatusCounts{}, err
		}
		counts.Add(status, count)
	}
	return counts, rows.Err()
}

// ProjectStats returns task counts grouped by status for every known project.
func (s *Store) ProjectStats(ctx context.Context) (map[string]StatusCounts, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT project, status, COUNT(1) FROM batch_tasks GROUP BY project, status`)
	if err != nil {
		return nil, fmt.Errorf("project stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]StatusCounts)
	for rows.Next() {
		var projectName string
		var status Status
		var count int
		if err := rows.Scan(&projectName, &status, &count); err != nil {
			return nil, err
		}
		counts := stats[projectName]
		counts.Add(status, count)
		stats[projectName] = counts
	}
	return stats, rows.Err()
}

// RemoveProject deletes all tasks belonging to a project.
func (s *Store) RemoveProject(ctx context.Context, projectName string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM batch_tasks WHERE project = ?`, projectName)
	if err != nil {
		return 0, fmt.Errorf("remove project tasks: %w", err)
	}
	return res.RowsAffected()
}

const taskColumns = "id, task_id, project, name, episode, config_json, status, episode_dir, config_path, error_message, created_at, updated_at, started_at, ended_at"

func scanTask(scanner interface{ Scan(dest ...any) error }) (*Task, error) {
	var (
		id           int64
		taskID       string
		projectName  string
		name         string
		episode      int
		configJSON   sql.NullString
		statusStr    string
		episodeDir   sql.NullString
		configPath   sql.NullString
		errorMessage sql.NullString
		createdRaw   sql.NullString
		updatedRaw   sql.NullString
		startedRaw   sql.NullString
		endedRaw     sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&taskID,
		&projectName,
		&name,
		&episode,
		&configJSON,
		&statusStr,
		&episodeDir,
		&configPath,
		&errorMessage,
		&createdRaw,
		&updatedRaw,
		&startedRaw,
		&endedRaw,
	); err != nil {
		return nil, err
	}

	task := &Task{
		ID:           id,
		TaskID:       taskID,
		Project:      projectName,
		Name:         name,
		Episode:      episode,
		ConfigJSON:   configJSON.String,
		Status:       Status(statusStr),
		EpisodeDir:   episodeDir.String,
		ConfigPath:   configPath.String,
		ErrorMessage: errorMessage.String,
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		task.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		task.UpdatedAt = updated
	}
	if startedRaw.Valid {
		if started, err := parseTimeString(startedRaw.String); err == nil {
			task.StartedAt = &started
		}
	}
	if endedRaw.Valid {
		if ended, err := parseTimeString(endedRaw.String); err == nil {
			task.EndedAt = &ended
		}
	}
	return task, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value *time.Time) any {
	if value == nil {
		return nil
	}
	return value.UTC().Format(time.RFC3339Nano)
}

func parseTimeString(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, errors.New("empty")
	}
	return time.Parse(time.RFC3339Nano, value)
}
