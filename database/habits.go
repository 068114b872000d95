package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// DayFormat is the day key used by habit logs.
const DayFormat = "2006-01-02"

// streakCap bounds the walk back through history when deriving the current streak.
const streakCap = 365

// HabitService handles habits and their day-keyed logs, and derives streak numbers
// from the completed logs.
type HabitService struct {
	db *sql.DB

	// today is overridable so streak derivation is deterministic under test.
	today func() time.Time
}

func NewHabitService(db *sql.DB) *HabitService {
	return &HabitService{db: db, today: time.Now}
}

type HabitFilter struct {
	Active   *bool
	Category string
}

func (s *HabitService) List(userID string, filter HabitFilter) ([]Habit, error) {
	query := `SELECT id, user_id, name, category, frequency, goal, reminder_time, color, is_active,
	                 created_at, updated_at
	          FROM habits WHERE user_id = ?`
	args := []any{userID}

	if filter.Active != nil {
		query += ` AND is_active = ?`
		args = append(args, *filter.Active)
	}
	if filter.Category != "" {
		query += ` AND category = ?`
		args = append(args, filter.Category)
	}
	query += ` ORDER BY created_at`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query habits: %w", err)
	}
	defer rows.Close()

	habits := []Habit{}
	for rows.Next() {
		h, err := scanHabit(rows)
		if err != nil {
			return nil, err
		}
		habits = append(habits, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range habits {
		if err := s.fillStreaks(&habits[i]); err != nil {
			return nil, err
		}
	}
	return habits, nil
}

type HabitCreate struct {
	Name         string `json:"name"`
	Category     string `json:"category"`
	Frequency    string `json:"frequency"`
	Goal         *int   `json:"goal"`
	ReminderTime string `json:"reminderTime"`
	Color        string `json:"color"`
}

func (s *HabitService) Create(userID string, in HabitCreate) (*Habit, error) {
	now := time.Now().UTC()
	habit := &Habit{
		ID:           uuid.NewString(),
		UserID:       userID,
		Name:         in.Name,
		Category:     in.Category,
		Frequency:    in.Frequency,
		Goal:         in.Goal,
		ReminderTime: in.ReminderTime,
		Color:        in.Color,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if habit.Category == "" {
		habit.Category = "other"
	}
	if habit.Frequency == "" {
		habit.Frequency = FrequencyDaily
	}

	_, err := s.db.Exec(
		`INSERT INTO habits (id, user_id, name, category, frequency, goal, reminder_time, color,
		                     is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, 1, ?, ?)`,
		habit.ID, habit.UserID, habit.Name, habit.Category, habit.Frequency, habit.Goal,
		habit.ReminderTime, habit.Color, habit.CreatedAt, habit.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert habit: %w", err)
	}
	return habit, nil
}

func (s *HabitService) Get(id, userID string) (*Habit, error) {
	habit, err := s.getAny(id)
	if err != nil {
		return nil, err
	}
	if habit.UserID != userID {
		return nil, ErrForbidden
	}
	if err := s.fillStreaks(habit); err != nil {
		return nil, err
	}
	return habit, nil
}

type HabitUpdate struct {
	Name         *string `json:"name"`
	Category     *string `json:"category"`
	Frequency    *string `json:"frequency"`
	Goal         *int    `json:"goal"`
	ReminderTime *string `json:"reminderTime"`
	Color        *string `json:"color"`
	IsActive     *bool   `json:"isActive"`
}

func (s *HabitService) Update(id, userID string, patch HabitUpdate) (*Habit, error) {
	habit, err := s.Get(id, userID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		habit.Name = *patch.Name
	}
	if patch.Category != nil {
		habit.Category = *patch.Category
	}
	if patch.Frequency != nil {
		habit.Frequency = *patch.Frequency
	}
	if patch.Goal != nil {
		habit.Goal = patch.Goal
	}
	if patch.ReminderTime != nil {
		habit.ReminderTime = *patch.ReminderTime
	}
	if patch.Color != nil {
		habit.Color = *patch.Color
	}
	if patch.IsActive != nil {
		habit.IsActive = *patch.IsActive
	}
	habit.UpdatedAt = time.Now().UTC()

	_, err = s.db.Exec(
		`UPDATE habits SET name = ?, category = ?, frequency = ?, goal = ?, reminder_time = ?,
		                   color = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		habit.Name, habit.Category, habit.Frequency, habit.Goal, habit.ReminderTime,
		habit.Color, habit.IsActive, habit.UpdatedAt, habit.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update habit: %w", err)
	}
	return habit, nil
}

// Delete removes the habit and its logs (cascade).
func (s *HabitService) Delete(id, userID string) error {
	habit, err := s.getAny(id)
	if err != nil {
		return err
	}
	if habit.UserID != userID {
		return ErrForbidden
	}
	if _, err := s.db.Exec(`DELETE FROM habits WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete habit: %w", err)
	}
	return nil
}

// Log upserts the log row for (habit, date).
func (s *HabitService) Log(habitID, userID, date string, completed bool, notes string) (*HabitLog, error) {
	if _, err := time.Parse(DayFormat, date); err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	if _, err := s.Get(habitID, userID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entry := &HabitLog{
		ID:        uuid.NewString(),
		HabitID:   habitID,
		UserID:    userID,
		Date:      date,
		Completed: completed,
		Notes:     notes,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.Exec(
		`INSERT INTO habit_logs (id, habit_id, user_id, date, completed, notes, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(habit_id, date) DO UPDATE SET
			completed = excluded.completed,
			notes = excluded.notes,
			updated_at = excluded.updated_at`,
		entry.ID, entry.HabitID, entry.UserID, entry.Date, entry.Completed, entry.Notes,
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert habit log: %w", err)
	}

	// Re-read so an upsert over an existing row returns that row's id.
	err = s.db.QueryRow(
		`SELECT id, habit_id, user_id, date, completed, notes, created_at, updated_at
		 FROM habit_logs WHERE habit_id = ? AND date = ?`, habitID, date).
		Scan(&entry.ID, &entry.HabitID, &entry.UserID, &entry.Date, &entry.Completed,
			&entry.Notes, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to read habit log: %w", err)
	}
	return entry, nil
}

// Logs lists the habit's logs, optionally bounded by from/to day keys (inclusive).
func (s *HabitService) Logs(habitID, userID, from, to string) ([]HabitLog, error) {
	if _, err := s.Get(habitID, userID); err != nil {
		return nil, err
	}

	query := `SELECT id, habit_id, user_id, date, completed, notes, created_at, updated_at
	          FROM habit_logs WHERE habit_id = ?`
	args := []any{habitID}
	if from != "" {
		query += ` AND date >= ?`
		args = append(args, from)
	}
	if to != "" {
		query += ` AND date <= ?`
		args = append(args, to)
	}
	query += ` ORDER BY date`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query habit logs: %w", err)
	}
	defer rows.Close()

	logs := []HabitLog{}
	for rows.Next() {
		var l HabitLog
		if err := rows.Scan(&l.ID, &l.HabitID, &l.UserID, &l.Date, &l.Completed, &l.Notes,
			&l.CreatedAt, &l.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan habit log: %w", err)
		}
		logs = append(logs, l)
	}
	return logs, rows.Err()
}

func (s *HabitService) fillStreaks(h *Habit) error {
	days, err := s.completedDays(h.ID)
	if err != nil {
		return err
	}
	h.TotalCompletions = len(days)
	h.LongestStreak = longestStreak(days)
	h.CurrentStreak = currentStreak(days, s.today().Format(DayFormat))
	return nil
}

// completedDays returns the habit's completed day keys in ascending order.
func (s *HabitService) completedDays(habitID string) ([]string, error) {
	rows, err := s.db.Query(
		`SELECT date FROM habit_logs WHERE habit_id = ? AND completed = 1 ORDER BY date`, habitID)
	if err != nil {
		return nil, fmt.Errorf("failed to query completed days: %w", err)
	}
	defer rows.Close()

	days := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("failed to scan day: %w", err)
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// currentStreak walks back day by day from today over the completed set.
func currentStreak(days []string, today string) int {
	set := make(map[string]bool, len(days))
	for _, d := range days {
		set[d] = true
	}

	check, err := time.Parse(DayFormat, today)
	if err != nil {
		return 0
	}

	streak := 0
	for streak < streakCap && set[check.Format(DayFormat)] {
		streak++
		check = check.AddDate(0, 0, -1)
	}
	return streak
}

// longestStreak finds the longest run of consecutive days in the sorted completed set.
func longestStreak(days []string) int {
	if len(days) == 0 {
		return 0
	}

	max := 0
	run := 1
	for i := 1; i < len(days); i++ {
		prev, err1 := time.Parse(DayFormat, days[i-1])
		curr, err2 := time.Parse(DayFormat, days[i])
		if err1 == nil && err2 == nil && curr.Sub(prev) == 24*time.Hour {
			run++
		} else {
			if run > max {
				max = run
			}
			run = 1
		}
	}
	if run > max {
		max = run
	}
	return max
}

func (s *HabitService) getAny(id string) (*Habit, error) {
	row := s.db.QueryRow(
		`SELECT id, user_id, name, category, frequency, goal, reminder_time, color, is_active,
		        created_at, updated_at
		 FROM habits WHERE id = ?`, id)
	return scanHabit(row)
}

func scanHabit(row rowScanner) (*Habit, error) {
	var h Habit
	err := row.Scan(&h.ID, &h.UserID, &h.Name, &h.Category, &h.Frequency, &h.Goal,
		&h.ReminderTime, &h.Color, &h.IsActive, &h.CreatedAt, &h.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan habit: %w", err)
	}
	return &h, nil
}
