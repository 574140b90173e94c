package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

// Post mirrors the 'posts' table. FileURL/FileName are set only when the
// post carries an attachment; UpdatedAt is nil until the first edit.
type Post struct {
	ID        uint64     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	MemberID  uint64     `json:"member_id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at"`
	HitCount  uint64     `json:"hit_count"`
	FileURL   *string    `json:"file_url"`
	FileName  *string    `json:"file_name"`
}

// ValidateOwner fails with ErrForbidden unless the post belongs to the
// given member. Ownership is keyed on posts.member_id only.
func ValidateOwner(p *Post, memberID uint64) error {
	if p == nil || p.MemberID != memberID {
		return ErrForbidden
	}
	return nil
}

type PostRepo struct{ DB *sql.DB }

func NewPostRepo(db *sql.DB) *PostRepo { return &PostRepo{DB: db} }

const postCols = "id, title, content, member_id, created_at, updated_at, hit_count, file_url, file_name"

func scanPost(scan func(dest ...any) error) (*Post, error) {
	var (
		p         Post
		updatedAt sql.NullTime
		fileURL   sql.NullString
		fileName  sql.NullString
	)
	if err := scan(&p.ID, &p.Title, &p.Content, &p.MemberID, &p.CreatedAt,
		&updatedAt, &p.HitCount, &fileURL, &fileName); err != nil {
		return nil, err
	}
	if updatedAt.Valid {
		t := updatedAt.Time
		p.UpdatedAt = &t
	}
	if fileURL.Valid {
		s := fileURL.String
		p.FileURL = &s
	}
	if fileName.Valid {
		s := fileName.String
		p.FileName = &s
	}
	return &p, nil
}

// List returns all posts newest first.
func (r *PostRepo) List(ctx context.Context) ([]*Post, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+postCols+" FROM posts ORDER BY id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Post
	for rows.Next() {
		p, err := scanPost(rows.Scan)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID fetches a post without touching the view counter. Used by the
// edit/delete paths where a read must not count as a view.
func (r *PostRepo) GetByID(ctx context.Context, id uint64) (*Post, error) {
	p, err := scanPost(r.DB.QueryRowContext(ctx,
		"SELECT "+postCols+" FROM posts WHERE id=? LIMIT 1", id).Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPostNotFound
	}
	return p, err
}

// GetDetail increments the view counter and returns the updated post. The
// UPDATE runs first so concurrent reads each count exactly once; zero rows
// affected means the post does not exist.
func (r *PostRepo) GetDetail(ctx context.Context, id uint64) (*Post, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE posts SET hit_count=hit_count+1 WHERE id=?", id)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrPostNotFound
	}
	return r.GetByID(ctx, id)
}

// Create inserts a post and populates its ID and timestamp fields.
func (r *PostRepo) Create(ctx context.Context, p *Post) error {
	var fileURL, fileName any
	if p.FileURL != nil {
		fileURL = *p.FileURL
	}
	if p.FileName != nil {
		fileName = *p.FileName
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO posts (title, content, member_id, hit_count, file_url, file_name) VALUES (?,?,?,0,?,?)",
		p.Title, p.Content, p.MemberID, fileURL, fileName)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)

	got, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

// Update writes the mutable columns back and stamps updated_at. The hit
// counter is deliberately not part of the statement.
func (r *PostRepo) Update(ctx context.Context, p *Post) error {
	var fileURL, fileName any
	if p.FileURL != nil {
		fileURL = *p.FileURL
	}
	if p.FileName != nil {
		fileName = *p.FileName
	}
	res, err := r.DB.ExecContext(ctx,
		"UPDATE posts SET title=?, content=?, file_url=?, file_name=?, updated_at=CURRENT_TIMESTAMP WHERE id=?",
		p.Title, p.Content, fileURL, fileName, p.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPostNotFound
	}
	got, err := r.GetByID(ctx, p.ID)
	if err != nil {
		return err
	}
	*p = *got
	return nil
}

// Delete removes a post row.
func (r *PostRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM posts WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPostNotFound
	}
	return nil
}
