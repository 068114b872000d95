package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NoteService handles note persistence. Tags are stored as a JSON array column.
type NoteService struct {
	db *sql.DB
}

func NewNoteService(db *sql.DB) *NoteService {
	return &NoteService{db: db}
}

type NoteFilter struct {
	FolderID       string
	Tag            string
	Search         string
	IncludeDeleted bool
}

func (s *NoteService) List(userID string, filter NoteFilter) ([]Note, error) {
	query := `SELECT id, user_id, title, content, tags, pinned, favorite, folder_id,
	                 is_deleted, deleted_at, created_at, updated_at
	          FROM notes WHERE user_id = ?`
	args := []any{userID}

	if !filter.IncludeDeleted {
		query += ` AND is_deleted = 0`
	}
	if filter.FolderID != "" {
		query += ` AND folder_id = ?`
		args = append(args, filter.FolderID)
	}
	if filter.Search != "" {
		query += ` AND (title LIKE ? OR content LIKE ?)`
		pattern := "%" + filter.Search + "%"
		args = append(args, pattern, pattern)
	}
	query += ` ORDER BY pinned DESC, created_at`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query notes: %w", err)
	}
	defer rows.Close()

	notes := []Note{}
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, err
		}
		// Tag matching happens here rather than in SQL; a LIKE against the JSON
		// column would match substrings of unrelated tags.
		if filter.Tag != "" && !hasTag(n.Tags, filter.Tag) {
			continue
		}
		notes = append(notes, *n)
	}
	return notes, rows.Err()
}

type NoteCreate struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Tags     []string `json:"tags"`
	Pinned   bool     `json:"pinned"`
	Favorite bool     `json:"favorite"`
	FolderID *string  `json:"folderId"`
}

func (s *NoteService) Create(userID string, in NoteCreate) (*Note, error) {
	now := time.Now().UTC()
	note := &Note{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     in.Title,
		Content:   in.Content,
		Tags:      in.Tags,
		Pinned:    in.Pinned,
		Favorite:  in.Favorite,
		FolderID:  in.FolderID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if note.Tags == nil {
		note.Tags = []string{}
	}

	tags, err := json.Marshal(note.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO notes (id, user_id, title, content, tags, pinned, favorite, folder_id,
		                    is_deleted, deleted_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, NULL, ?, ?)`,
		note.ID, note.UserID, note.Title, note.Content, string(tags), note.Pinned, note.Favorite,
		note.FolderID, note.CreatedAt, note.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert note: %w", err)
	}
	return note, nil
}

func (s *NoteService) Get(id, userID string) (*Note, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, title, content, tags, pinned, favorite, folder_id,
		        is_deleted, deleted_at, created_at, updated_at
		 FROM notes WHERE id = ?`, id)
	note, err := scanNote(row)
	if err != nil {
		return nil, err
	}
	if note.UserID != userID {
		return nil, ErrForbidden
	}
	return note, nil
}

type NoteUpdate struct {
	Title    *string   `json:"title"`
	Content  *string   `json:"content"`
	Tags     *[]string `json:"tags"`
	Pinned   *bool     `json:"pinned"`
	Favorite *bool     `json:"favorite"`
	FolderID *string   `json:"folderId"`
}

func (s *NoteService) Update(id, userID string, patch NoteUpdate) (*Note, error) {
	note, err := s.Get(id, userID)
	if err != nil {
		return nil, err
	}

	if patch.Title != nil {
		note.Title = *patch.Title
	}
	if patch.Content != nil {
		note.Content = *patch.Content
	}
	if patch.Tags != nil {
		note.Tags = *patch.Tags
		if note.Tags == nil {
			note.Tags = []string{}
		}
	}
	if patch.Pinned != nil {
		note.Pinned = *patch.Pinned
	}
	if patch.Favorite != nil {
		note.Favorite = *patch.Favorite
	}
	if patch.FolderID != nil {
		note.FolderID = patch.FolderID
	}
	note.UpdatedAt = time.Now().UTC()

	tags, err := json.Marshal(note.Tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = s.db.Exec(
		`UPDATE notes SET title = ?, content = ?, tags = ?, pinned = ?, favorite = ?,
		                  folder_id = ?, updated_at = ?
		 WHERE id = ?`,
		note.Title, note.Content, string(tags), note.Pinned, note.Favorite,
		note.FolderID, note.UpdatedAt, note.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update note: %w", err)
	}
	return note, nil
}

func (s *NoteService) SoftDelete(id, userID string) (*Note, error) {
	note, err := s.Get(id, userID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	note.IsDeleted = true
	note.DeletedAt = &now
	note.UpdatedAt = now

	_, err = s.db.Exec(
		`UPDATE notes SET is_deleted = 1, deleted_at = ?, updated_at = ? WHERE id = ?`,
		now, now, note.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to soft-delete note: %w", err)
	}
	return note, nil
}

func (s *NoteService) Restore(id, userID string) (*Note, error) {
	note, err := s.Get(id, userID)
	if err != nil {
		return nil, err
	}

	note.IsDeleted = false
	note.DeletedAt = nil
	note.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		`UPDATE notes SET is_deleted = 0, deleted_at = NULL, updated_at = ? WHERE id = ?`,
		note.UpdatedAt, note.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to restore note: %w", err)
	}
	return note, nil
}

func (s *NoteService) Delete(id, userID string) error {
	if _, err := s.Get(id, userID); err != nil {
		return err
	}
	if _, err := s.db.Exec(`DELETE FROM notes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete note: %w", err)
	}
	return nil
}

func scanNote(row rowScanner) (*Note, error) {
	var n Note
	var tags string
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Content, &tags, &n.Pinned, &n.Favorite,
		&n.FolderID, &n.IsDeleted, &n.DeletedAt, &n.CreatedAt, &n.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan note: %w", err)
	}
	if err := json.Unmarshal([]byte(tags), &n.Tags); err != nil {
		return nil, fmt.Errorf("failed to unmarshal tags: %w", err)
	}
	return &n, nil
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
