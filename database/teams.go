package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// TeamService handles teams and their membership roster. The owner always has an
// implicit roster row with the owner role; removing it is not allowed.
type TeamService struct {
	db *sql.DB
}

func NewTeamService(db *sql.DB) *TeamService {
	return &TeamService{db: db}
}

// List returns every team the user owns or belongs to.
func (s *TeamService) List(userID string) ([]Team, error) {
	rows, err := s.db.Query(
		`SELECT DISTINCT t.id, t.owner_id, t.name, t.description, t.created_at, t.updated_at
		 FROM teams t
		 LEFT JOIN team_members m ON m.team_id = t.id
		 WHERE t.owner_id = ? OR m.user_id = ?
		 ORDER BY t.created_at`, userID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	teams := []Team{}
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.OwnerID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range teams {
		members, err := s.members(teams[i].ID)
		if err != nil {
			return nil, err
		}
		teams[i].Members = members
	}
	return teams, nil
}

type TeamCreate struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (s *TeamService) Create(ownerID string, in TeamCreate) (*Team, error) {
	now := time.Now().UTC()
	team := &Team{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        in.Name,
		Description: in.Description,
		Members:     []TeamMember{{UserID: ownerID, Role: RoleOwner}},
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO teams (id, owner_id, name, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		team.ID, team.OwnerID, team.Name, team.Description, team.CreatedAt, team.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert team: %w", err)
	}

	_, err = tx.Exec(
		`INSERT INTO team_members (team_id, user_id, role) VALUES (?, ?, ?)`,
		team.ID, ownerID, RoleOwner,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert owner membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return team, nil
}

// Get returns a team if the caller is on its roster.
func (s *TeamService) Get(id, userID string) (*Team, error) {
	team, err := s.getAny(id)
	if err != nil {
		return nil, err
	}
	if s.roleOf(team, userID) == "" {
		return nil, ErrForbidden
	}
	return team, nil
}

type TeamUpdate struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}

// Update is owner-only.
func (s *TeamService) Update(id, userID string, patch TeamUpdate) (*Team, error) {
	team, err := s.getAny(id)
	if err != nil {
		return nil, err
	}
	if team.OwnerID != userID {
		return nil, ErrForbidden
	}

	if patch.Name != nil {
		team.Name = *patch.Name
	}
	if patch.Description != nil {
		team.Description = *patch.Description
	}
	team.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		`UPDATE teams SET name = ?, description = ?, updated_at = ? WHERE id = ?`,
		team.Name, team.Description, team.UpdatedAt, team.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	return team, nil
}

// Delete is owner-only. Membership rows cascade.
func (s *TeamService) Delete(id, userID string) error {
	team, err := s.getAny(id)
	if err != nil {
		return err
	}
	if team.OwnerID != userID {
		return ErrForbidden
	}
	if _, err := s.db.Exec(`DELETE FROM teams WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return nil
}

// AddMember requires the caller to be owner or admin.
func (s *TeamService) AddMember(teamID, callerID, memberID, role string) (*Team, error) {
	team, err := s.getAny(teamID)
	if err != nil {
		return nil, err
	}
	callerRole := s.roleOf(team, callerID)
	if callerRole != RoleOwner && callerRole != RoleAdmin {
		return nil, ErrForbidden
	}
	if role == "" {
		role = RoleMember
	}
	if s.roleOf(team, memberID) != "" {
		return nil, ErrDuplicate
	}

	_, err = s.db.Exec(
		`INSERT INTO team_members (team_id, user_id, role) VALUES (?, ?, ?)`,
		teamID, memberID, role,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert member: %w", err)
	}
	return s.getAny(teamID)
}

// RemoveMember requires owner or admin; the owner itself can never be removed.
func (s *TeamService) RemoveMember(teamID, callerID, memberID string) (*Team, error) {
	team, err := s.getAny(teamID)
	if err != nil {
		return nil, err
	}
	callerRole := s.roleOf(team, callerID)
	if callerRole != RoleOwner && callerRole != RoleAdmin {
		return nil, ErrForbidden
	}
	if memberID == team.OwnerID {
		return nil, ErrForbidden
	}
	if s.roleOf(team, memberID) == "" {
		return nil, ErrNotFound
	}

	_, err = s.db.Exec(
		`DELETE FROM team_members WHERE team_id = ? AND user_id = ?`, teamID, memberID)
	if err != nil {
		return nil, fmt.Errorf("failed to remove member: %w", err)
	}
	return s.getAny(teamID)
}

func (s *TeamService) getAny(id string) (*Team, error) {
	var t Team
	err := s.db.QueryRow(
		`SELECT id, owner_id, name, description, created_at, updated_at FROM teams WHERE id = ?`, id).
		Scan(&t.ID, &t.OwnerID, &t.Name, &t.Description, &t.CreatedAt, &t.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan team: %w", err)
	}

	members, err := s.members(t.ID)
	if err != nil {
		return nil, err
	}
	t.Members = members
	return &t, nil
}

func (s *TeamService) members(teamID string) ([]TeamMember, error) {
	rows, err := s.db.Query(
		`SELECT user_id, role FROM team_members WHERE team_id = ? ORDER BY role, user_id`, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	members := []TeamMember{}
	for rows.Next() {
		var m TeamMember
		if err := rows.Scan(&m.UserID, &m.Role); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *TeamService) roleOf(team *Team, userID string) string {
	for _, m := range team.Members {
		if m.UserID == userID {
			return m.Role
		}
	}
	return ""
}
