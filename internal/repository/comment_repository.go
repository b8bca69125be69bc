package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"invoicehub-backend/internal/model"
)

// CommentRepo provides CRUD operations for project comments and their
// mention rows. Comments form a two-level tree: top-level rows have a NULL
// parent_id and replies reference a top-level row in the same project.
// Attachments are persisted as a JSON array column; mentions live in the
// comment_mentions join table and are hydrated onto the model.
type CommentRepo struct{ DB *sql.DB }

func NewCommentRepo(db *sql.DB) *CommentRepo { return &CommentRepo{DB: db} }

const commentSelect = `SELECT c.id, c.project_id, c.company_id, c.author_id,
              u.name, u.email, c.content, c.visibility, c.parent_id,
              c.attachments, c.is_resolved, c.created_at, c.updated_at
       FROM project_comments c
       JOIN users u ON u.id = c.author_id`

func scanComment(row interface{ Scan(...interface{}) error }) (model.Comment, error) {
	var c model.Comment
	var parentID sql.NullInt64
	var attachments sql.NullString
	err := row.Scan(&c.ID, &c.ProjectID, &c.CompanyID, &c.AuthorID,
		&c.AuthorName, &c.AuthorEmail, &c.Content, &c.Visibility, &parentID,
		&attachments, &c.IsResolved, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return model.Comment{}, err
	}
	if parentID.Valid {
		pid := uint64(parentID.Int64)
		c.ParentID = &pid
	}
	c.Attachments = []string{}
	if attachments.Valid && attachments.String != "" {
		// Bad rows degrade to an empty list instead of failing the read.
		_ = json.Unmarshal([]byte(attachments.String), &c.Attachments)
	}
	return c, nil
}

// Create inserts a comment and its mention rows in one transaction and
// returns the stored row with author fields and timestamps populated.
// For replies it verifies inside the transaction that the parent exists,
// is top-level and belongs to the same project; otherwise ErrConflict.
func (r *CommentRepo) Create(ctx context.Context, c *model.Comment) error {
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

	if c.ParentID != nil {
		var parentProject uint64
		var parentParent sql.NullInt64
		err := tx.QueryRowContext(ctx,
			"SELECT project_id, parent_id FROM project_comments WHERE id=? LIMIT 1",
			*c.ParentID).Scan(&parentProject, &parentParent)
		if err == sql.ErrNoRows {
			return ErrConflict
		}
		if err != nil {
			return err
		}
		if parentProject != c.ProjectID || parentParent.Valid {
			return ErrConflict
		}
	}

	attachments, err := json.Marshal(c.Attachments)
	if err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO project_comments
         (project_id, company_id, author_id, content, visibility, parent_id, attachments, is_resolved)
         VALUES (?,?,?,?,?,?,?,0)`,
		c.ProjectID, c.CompanyID, c.AuthorID, c.Content, c.Visibility, c.ParentID, string(attachments))
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	c.ID = uint64(id)

	if err := replaceMentionsTx(ctx, tx, c.ID, c.Mentions); err != nil {
		return err
	}

	// Query back the full row to populate author fields and timestamps.
	stored, err := scanComment(tx.QueryRowContext(ctx, commentSelect+" WHERE c.id=?", c.ID))
	if err != nil {
		return err
	}
	stored.Mentions = c.Mentions
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	*c = stored
	return nil
}

// replaceMentionsTx rewrites the comment_mentions rows for a comment.
func replaceMentionsTx(ctx context.Context, tx *sql.Tx, commentID uint64, mentions []uint64) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM comment_mentions WHERE comment_id=?", commentID); err != nil {
		return err
	}
	if len(mentions) == 0 {
		return nil
	}
	query := "INSERT INTO comment_mentions (comment_id, user_id) VALUES "
	args := make([]interface{}, 0, len(mentions)*2)
	for i, uid := range mentions {
		if i > 0 {
			query += ","
		}
		query += "(?,?)"
		args = append(args, commentID, uid)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// GetByID loads one comment with its mentions.
func (r *CommentRepo) GetByID(ctx context.Context, id uint64) (model.Comment, error) {
	c, err := scanComment(r.DB.QueryRowContext(ctx, commentSelect+" WHERE c.id=?", id))
	if err != nil {
		return model.Comment{}, err
	}
	mentions, err := r.mentionsFor(ctx, []uint64{id})
	if err != nil {
		return model.Comment{}, err
	}
	c.Mentions = mentions[id]
	return c, nil
}

// ListByProject returns all comments of a project ordered newest first,
// with mention ids hydrated in a single batched query. Internal comments
// are filtered out for callers outside the owning company.
func (r *CommentRepo) ListByProject(ctx context.Context, projectID uint64, includeInternal bool) ([]model.Comment, error) {
	q := commentSelect + " WHERE c.project_id=?"
	if !includeInternal {
		q += " AND c.visibility='all'"
	}
	q += " ORDER BY c.created_at DESC, c.id DESC"
	rows, err := r.DB.QueryContext(ctx, q, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, err := collectComments(rows)
	if err != nil {
		return nil, err
	}
	return r.hydrateMentions(ctx, out)
}

// ListForUser returns every comment visible to a user across projects: all
// projects of the user's company plus projects where the user is an
// accepted collaborator (internal comments excluded for those).
func (r *CommentRepo) ListForUser(ctx context.Context, userID, companyID uint64) ([]model.Comment, error) {
	const q = commentSelect + `
       JOIN projects p ON p.id = c.project_id
       LEFT JOIN project_collaborators pc
              ON pc.project_id = c.project_id AND pc.user_id = ? AND pc.status = 'accepted'
       WHERE (p.company_id = ?)
          OR (pc.id IS NOT NULL AND c.visibility = 'all')
       ORDER BY c.created_at DESC, c.id DESC`
	rows, err := r.DB.QueryContext(ctx, q, userID, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out, err := collectComments(rows)
	if err != nil {
		return nil, err
	}
	return r.hydrateMentions(ctx, out)
}

func collectComments(rows *sql.Rows) ([]model.Comment, error) {
	out := make([]model.Comment, 0)
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CommentRepo) hydrateMentions(ctx context.Context, comments []model.Comment) ([]model.Comment, error) {
	if len(comments) == 0 {
		return comments, nil
	}
	ids := make([]uint64, len(comments))
	for i, c := range comments {
		ids[i] = c.ID
	}
	mentions, err := r.mentionsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		comments[i].Mentions = mentions[comments[i].ID]
	}
	return comments, nil
}

func (r *CommentRepo) mentionsFor(ctx context.Context, commentIDs []uint64) (map[uint64][]uint64, error) {
	out := make(map[uint64][]uint64, len(commentIDs))
	if len(commentIDs) == 0 {
		return out, nil
	}
	placeholders := make([]string, len(commentIDs))
	args := make([]interface{}, len(commentIDs))
	for i, id := range commentIDs {
		placeholders[i] = "?"
		args[i] = id
	}
	rows, err := r.DB.QueryContext(ctx,
		"SELECT comment_id, user_id FROM comment_mentions WHERE comment_id IN ("+
			strings.Join(placeholders, ",")+") ORDER BY id", args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var cid, uid uint64
		if err := rows.Scan(&cid, &uid); err != nil {
			return nil, err
		}
		out[cid] = append(out[cid], uid)
	}
	return out, rows.Err()
}

// Update patches content, visibility and mention rows of a comment owned by
// the given author. ErrForbidden is returned when someone else's comment is
// targeted, sql.ErrNoRows when it does not exist.
func (r *CommentRepo) Update(ctx context.Context, id, authorID uint64, content, visibility string, mentions []uint64) (model.Comment, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Comment{}, err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var actualAuthor uint64
	if err := tx.QueryRowContext(ctx,
		"SELECT author_id FROM project_comments WHERE id=? LIMIT 1", id).Scan(&actualAuthor); err != nil {
		return model.Comment{}, err
	}
	if actualAuthor != authorID {
		return model.Comment{}, ErrForbidden
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE project_comments SET content=?, visibility=?, updated_at=NOW() WHERE id=?",
		content, visibility, id); err != nil {
		return model.Comment{}, err
	}
	if err := replaceMentionsTx(ctx, tx, id, mentions); err != nil {
		return model.Comment{}, err
	}
	stored, err := scanComment(tx.QueryRowContext(ctx, commentSelect+" WHERE c.id=?", id))
	if err != nil {
		return model.Comment{}, err
	}
	stored.Mentions = mentions
	if err := tx.Commit(); err != nil {
		return model.Comment{}, err
	}
	committed = true
	return stored, nil
}

// SetResolved flips the resolved flag for anyone in the owning company.
func (r *CommentRepo) SetResolved(ctx context.Context, id, companyID uint64, resolved bool) (model.Comment, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE project_comments SET is_resolved=?, updated_at=NOW() WHERE id=? AND company_id=?",
		resolved, id, companyID)
	if err != nil {
		return model.Comment{}, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return model.Comment{}, err
	}
	if n == 0 {
		// Either missing or another company's comment; re-check for 403 vs 404.
		var owner uint64
		if err := r.DB.QueryRowContext(ctx,
			"SELECT company_id FROM project_comments WHERE id=? LIMIT 1", id).Scan(&owner); err != nil {
			return model.Comment{}, err
		}
		if owner != companyID {
			return model.Comment{}, ErrForbidden
		}
	}
	return r.GetByID(ctx, id)
}

// Delete removes a comment authored by the caller, cascading to its
// replies, reply mentions and any pinned tasks.
func (r *CommentRepo) Delete(ctx context.Context, id, authorID uint64) error {
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

	var actualAuthor uint64
	if err := tx.QueryRowContext(ctx,
		"SELECT author_id FROM project_comments WHERE id=? LIMIT 1", id).Scan(&actualAuthor); err != nil {
		return err
	}
	if actualAuthor != authorID {
		return ErrForbidden
	}
	// Collect the comment and its replies, then delete dependents first.
	ids := []interface{}{id}
	placeholders := "?"
	rows, err := tx.QueryContext(ctx, "SELECT id FROM project_comments WHERE parent_id=?", id)
	if err != nil {
		return err
	}
	for rows.Next() {
		var rid uint64
		if err := rows.Scan(&rid); err != nil {
			rows.Close()
			return err
		}
		ids = append(ids, rid)
		placeholders += ",?"
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}
	for _, q := range []string{
		"DELETE FROM comment_mentions WHERE comment_id IN (" + placeholders + ")",
		"DELETE FROM comment_tasks WHERE comment_id IN (" + placeholders + ")",
		"DELETE FROM project_comments WHERE id IN (" + placeholders + ")",
	} {
		if _, err := tx.ExecContext(ctx, q, ids...); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}
