package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FolderService handles folder persistence. Folders delete hard, detaching the
// owner's tasks and notes in the same transaction.
type FolderService struct {
	db *sql.DB
}

func NewFolderService(db *sql.DB) *FolderService {
	return &FolderService{db: db}
}

func (s *FolderService) List(userID string) ([]Folder, error) {
	rows, err := s.db.Query(
		`SELECT id, user_id, name, color, is_private, created_at, updated_at
		 FROM folders WHERE user_id = ? ORDER BY created_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query folders: %w", err)
	}
	defer rows.Close()

	folders := []Folder{}
	for rows.Next() {
		f, err := scanFolder(rows)
		if err != nil {
			return nil, err
		}
		folders = append(folders, *f)
	}
	return folders, rows.Err()
}

type FolderCreate struct {
	Name      string `json:"name"`
	Color     string `json:"color"`
	IsPrivate bool   `json:"isPrivate"`
}

func (s *FolderService) Create(userID string, in FolderCreate) (*Folder, error) {
	now := time.Now().UTC()
	folder := &Folder{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      in.Name,
		Color:     in.Color,
		IsPrivate: in.IsPrivate,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(
		`INSERT INTO folders (id, user_id, name, color, is_private, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		folder.ID, folder.UserID, folder.Name, folder.Color, folder.IsPrivate,
		folder.CreatedAt, folder.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert folder: %w", err)
	}
	return folder, nil
}

func (s *FolderService) Get(id, userID string) (*Folder, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, name, color, is_private, created_at, updated_at
		 FROM folders WHERE id = ?`, id)
	folder, err := scanFolder(row)
	if err != nil {
		return nil, err
	}
	if folder.UserID != userID {
		return nil, ErrForbidden
	}
	return folder, nil
}

type FolderUpdate struct {
	Name      *string `json:"name"`
	Color     *string `json:"color"`
	IsPrivate *bool   `json:"isPrivate"`
}

func (s *FolderService) Update(id, userID string, patch FolderUpdate) (*Folder, error) {
	folder, err := s.Get(id, userID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		folder.Name = *patch.Name
	}
	if patch.Color != nil {
		folder.Color = *patch.Color
	}
	if patch.IsPrivate != nil {
		folder.IsPrivate = *patch.IsPrivate
	}
	folder.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		`UPDATE folders SET name = ?, color = ?, is_private = ?, updated_at = ? WHERE id = ?`,
		folder.Name, folder.Color, folder.IsPrivate, folder.UpdatedAt, folder.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update folder: %w", err)
	}
	return folder, nil
}

// Delete removes the folder and nulls folder_id on the owner's tasks and notes.
// All three writes commit together so nothing is left pointing at a dead folder.
func (s *FolderService) Delete(id, userID string) error {
	if _, err := s.Get(id, userID); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`UPDATE tasks SET folder_id = NULL WHERE folder_id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("failed to detach tasks: %w", err)
	}
	if _, err := tx.Exec(
		`UPDATE notes SET folder_id = NULL WHERE folder_id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("failed to detach notes: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM folders WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete folder: %w", err)
	}
	return tx.Commit()
}

func scanFolder(row rowScanner) (*Folder, error) {
	var f Folder
	err := row.Scan(&f.ID, &f.UserID, &f.Name, &f.Color, &f.IsPrivate, &f.CreatedAt, &f.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan folder: %w", err)
	}
	return &f, nil
}
