package database

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// StreakEntry is one habit's streak numbers inside the analytics summary.
type StreakEntry struct {
	HabitID       string `json:"habitId"`
	HabitName     string `json:"habitName"`
	CurrentStreak int    `json:"currentStreak"`
	LongestStreak int    `json:"longestStreak"`
}

// AnalyticsSummary aggregates the user's habits for a dashboard overview.
type AnalyticsSummary struct {
	TotalHabits             int           `json:"totalHabits"`
	ActiveHabits            int           `json:"activeHabits"`
	CompletionRate          float64       `json:"completionRate"`
	CurrentMonthCompletions int           `json:"currentMonthCompletions"`
	TotalCompletions        int           `json:"totalCompletions"`
	AverageStreak           float64       `json:"averageStreak"`
	TopStreaks              []StreakEntry `json:"topStreaks"`
}

// HeatmapDay is one day's completion count plus the habits completed that day.
type HeatmapDay struct {
	Date        string   `json:"date"`
	Completions int      `json:"completions"`
	Habits      []string `json:"habits"`
}

// Summary aggregates streaks and completion counts across the user's habits.
// The completion rate is completions this month over active habits times days
// elapsed in the month, as a percentage.
func (s *HabitService) Summary(userID string) (*AnalyticsSummary, error) {
	habits, err := s.List(userID, HabitFilter{})
	if err != nil {
		return nil, err
	}

	today := s.today().Format(DayFormat)
	monthStart := s.today().Format("2006-01") + "-01"

	summary := &AnalyticsSummary{
		TotalHabits: len(habits),
		TopStreaks:  []StreakEntry{},
	}

	streaks := []StreakEntry{}
	for _, h := range habits {
		if !h.IsActive {
			continue
		}
		summary.ActiveHabits++
		summary.TotalCompletions += h.TotalCompletions
		streaks = append(streaks, StreakEntry{
			HabitID:       h.ID,
			HabitName:     h.Name,
			CurrentStreak: h.CurrentStreak,
			LongestStreak: h.LongestStreak,
		})
	}

	err = s.db.QueryRow(
		`SELECT COUNT(*) FROM habit_logs l
		 JOIN habits h ON h.id = l.habit_id
		 WHERE l.user_id = ? AND l.completed = 1 AND h.is_active = 1
		   AND l.date >= ? AND l.date <= ?`,
		userID, monthStart, today).Scan(&summary.CurrentMonthCompletions)
	if err != nil {
		return nil, fmt.Errorf("failed to count month completions: %w", err)
	}

	if expected := summary.ActiveHabits * s.today().Day(); expected > 0 {
		summary.CompletionRate = round2(float64(summary.CurrentMonthCompletions) / float64(expected) * 100)
	}

	if len(streaks) > 0 {
		total := 0
		for _, e := range streaks {
			total += e.CurrentStreak
		}
		summary.AverageStreak = round2(float64(total) / float64(len(streaks)))

		sort.SliceStable(streaks, func(i, j int) bool {
			return streaks[i].CurrentStreak > streaks[j].CurrentStreak
		})
		if len(streaks) > 5 {
			streaks = streaks[:5]
		}
		summary.TopStreaks = streaks
	}

	return summary, nil
}

// Heatmap returns per-day completion counts over [from, to], zero-filled so the
// client can render a contribution graph without gaps.
func (s *HabitService) Heatmap(userID, from, to string) ([]HeatmapDay, error) {
	start, err := time.Parse(DayFormat, from)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, from)
	}
	end, err := time.Parse(DayFormat, to)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, to)
	}

	rows, err := s.db.Query(
		`SELECT l.date, h.name FROM habit_logs l
		 JOIN habits h ON h.id = l.habit_id
		 WHERE l.user_id = ? AND l.completed = 1 AND l.date >= ? AND l.date <= ?
		 ORDER BY l.date`,
		userID, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query heatmap: %w", err)
	}
	defer rows.Close()

	byDay := map[string][]string{}
	for rows.Next() {
		var day, name string
		if err := rows.Scan(&day, &name); err != nil {
			return nil, fmt.Errorf("failed to scan heatmap row: %w", err)
		}
		byDay[day] = append(byDay[day], name)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	days := []HeatmapDay{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(DayFormat)
		names := byDay[key]
		if names == nil {
			names = []string{}
		}
		days = append(days, HeatmapDay{Date: key, Completions: len(names), Habits: names})
	}
	return days, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
