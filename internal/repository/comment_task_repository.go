package repository

import (
	"context"
	"database/sql"
	"time"

	"invoicehub-backend/internal/model"
)

// CommentTaskRepo manages the "pinned to-do" rows in comment_tasks. At most
// one task exists per comment; Create checks for an existing row inside its
// transaction and returns ErrConflict so the handler surfaces 409.
type CommentTaskRepo struct{ DB *sql.DB }

func NewCommentTaskRepo(db *sql.DB) *CommentTaskRepo { return &CommentTaskRepo{DB: db} }

const taskCols = `id, comment_id, project_id, user_id, company_id, priority,
        due_date, reminder_at, reminder_sent, is_completed, created_at, updated_at`

func scanTask(row interface{ Scan(...interface{}) error }) (model.CommentTask, error) {
	var t model.CommentTask
	var due, reminder sql.NullTime
	err := row.Scan(&t.ID, &t.CommentID, &t.ProjectID, &t.UserID, &t.CompanyID,
		&t.Priority, &due, &reminder, &t.ReminderSent, &t.IsCompleted,
		&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return model.CommentTask{}, err
	}
	if due.Valid {
		d := due.Time
		t.DueDate = &d
	}
	if reminder.Valid {
		rm := reminder.Time
		t.ReminderAt = &rm
	}
	return t, nil
}

// Create pins a comment as a task. Returns ErrConflict when the comment is
// already pinned, sql.ErrNoRows when the comment does not exist.
func (r *CommentTaskRepo) Create(ctx context.Context, t *model.CommentTask) error {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var projectID, companyID uint64
	if err := tx.QueryRowContext(ctx,
		"SELECT project_id, company_id FROM project_comments WHERE id=? LIMIT 1",
		t.CommentID).Scan(&projectID, &companyID); err != nil {
		return err
	}
	var existing int
	if err := tx.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM comment_tasks WHERE comment_id=?", t.CommentID).Scan(&existing); err != nil {
		return err
	}
	if existing > 0 {
		return ErrConflict
	}
	t.ProjectID = projectID
	t.CompanyID = companyID
	res, err := tx.ExecContext(ctx,
		`INSERT INTO comment_tasks
         (comment_id, project_id, user_id, company_id, priority, due_date, reminder_at)
         VALUES (?,?,?,?,?,?,?)`,
		t.CommentID, t.ProjectID, t.UserID, t.CompanyID, t.Priority, t.DueDate, t.ReminderAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	stored, err := scanTask(tx.QueryRowContext(ctx,
		"SELECT "+taskCols+" FROM comment_tasks WHERE id=?", t.ID))
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*t = stored
	return nil
}

// GetByID loads one task.
func (r *CommentTaskRepo) GetByID(ctx context.Context, id uint64) (model.CommentTask, error) {
	return scanTask(r.DB.QueryRowContext(ctx,
		"SELECT "+taskCols+" FROM comment_tasks WHERE id=? LIMIT 1", id))
}

// ListByUser returns a user's pinned tasks, optionally scoped to a project.
func (r *CommentTaskRepo) ListByUser(ctx context.Context, userID uint64, projectID *uint64) ([]model.CommentTask, error) {
	q := "SELECT " + taskCols + " FROM comment_tasks WHERE user_id=?"
	args := []interface{}{userID}
	if projectID != nil {
		q += " AND project_id=?"
		args = append(args, *projectID)
	}
	q += " ORDER BY created_at DESC"
	rows, err := r.DB.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.CommentTask, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// Update edits priority/due/reminder of the caller's own task.
func (r *CommentTaskRepo) Update(ctx context.Context, id, userID uint64, priority string, due, reminder *time.Time) (model.CommentTask, error) {
	if err := r.requireOwner(ctx, id, userID); err != nil {
		return model.CommentTask{}, err
	}
	_, err := r.DB.ExecContext(ctx,
		`UPDATE comment_tasks SET priority=?, due_date=?, reminder_at=?, reminder_sent=0, updated_at=NOW()
         WHERE id=?`, priority, due, reminder, id)
	if err != nil {
		return model.CommentTask{}, err
	}
	return r.GetByID(ctx, id)
}

// ToggleComplete flips is_completed on the caller's own task.
func (r *CommentTaskRepo) ToggleComplete(ctx context.Context, id, userID uint64) (model.CommentTask, error) {
	if err := r.requireOwner(ctx, id, userID); err != nil {
		return model.CommentTask{}, err
	}
	_, err := r.DB.ExecContext(ctx,
		"UPDATE comment_tasks SET is_completed = NOT is_completed, updated_at=NOW() WHERE id=?", id)
	if err != nil {
		return model.CommentTask{}, err
	}
	return r.GetByID(ctx, id)
}

// Delete unpins the caller's own task.
func (r *CommentTaskRepo) Delete(ctx context.Context, id, userID uint64) error {
	if err := r.requireOwner(ctx, id, userID); err != nil {
		return err
	}
	_, err := r.DB.ExecContext(ctx, "DELETE FROM comment_tasks WHERE id=?", id)
	return err
}

func (r *CommentTaskRepo) requireOwner(ctx context.Context, id, userID uint64) error {
	var owner uint64
	if err := r.DB.QueryRowContext(ctx,
		"SELECT user_id FROM comment_tasks WHERE id=? LIMIT 1", id).Scan(&owner); err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	return nil
}
