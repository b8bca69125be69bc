package repository

import (
	"context"
	"database/sql"

	"invoicehub-backend/internal/model"
)

// NotificationRepo persists in-app notification rows. Writes are
// best-effort from the caller's perspective: mention fan-out catches and
// logs failures instead of failing the comment write.
type NotificationRepo struct{ DB *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{DB: db} }

// Create inserts one notification row.
func (r *NotificationRepo) Create(ctx context.Context, n model.Notification) error {
	_, err := r.DB.ExecContext(ctx,
		`INSERT INTO notifications
         (company_id, user_id, type, title, message, reference_id, reference_type, is_read)
         VALUES (?,?,?,?,?,?,?,0)`,
		n.CompanyID, n.UserID, n.Type, n.Title, n.Message, n.ReferenceID, n.ReferenceType)
	return err
}

// ListUnread returns a user's unread notifications, newest first.
func (r *NotificationRepo) ListUnread(ctx context.Context, userID uint64) ([]model.Notification, error) {
	const q = `SELECT id, company_id, user_id, type, title, message,
                      reference_id, reference_type, is_read, created_at
               FROM notifications WHERE user_id=? AND is_read=0
               ORDER BY created_at DESC, id DESC`
	rows, err := r.DB.QueryContext(ctx, q, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.CompanyID, &n.UserID, &n.Type, &n.Title,
			&n.Message, &n.ReferenceID, &n.ReferenceType, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags one of the user's notifications as read.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID uint64) error {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE notifications SET is_read=1 WHERE id=? AND user_id=?", id, userID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
