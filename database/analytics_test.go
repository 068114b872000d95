package database

import (
	"errors"
	"testing"
	"time"
)

func seedAnalytics(t *testing.T) (*HabitService, string) {
	t.Helper()

	db, err := InitDB(":memory:")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := NewUserService(db)
	user, err := users.Create("Ann", "ann@example.com", "irrelevant-hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	habits := NewHabitService(db)
	habits.today = func() time.Time {
		return time.Date(2026, 9, 10, 8, 0, 0, 0, time.UTC)
	}

	stretch, err := habits.Create(user.ID, HabitCreate{Name: "Stretch"})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	read, err := habits.Create(user.ID, HabitCreate{Name: "Read"})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	paused, err := habits.Create(user.ID, HabitCreate{Name: "Paused"})
	if err != nil {
		t.Fatalf("create habit: %v", err)
	}
	inactive := false
	if _, err := habits.Update(paused.ID, user.ID, HabitUpdate{IsActive: &inactive}); err != nil {
		t.Fatalf("deactivate habit: %v", err)
	}

	for _, day := range []string{"2026-09-08", "2026-09-09", "2026-09-10"} {
		if _, err := habits.Log(stretch.ID, user.ID, day, true, ""); err != nil {
			t.Fatalf("log %s: %v", day, err)
		}
	}
	if _, err := habits.Log(read.ID, user.ID, "2026-09-10", true, ""); err != nil {
		t.Fatalf("log read: %v", err)
	}

	return habits, user.ID
}

func TestAnalyticsSummary(t *testing.T) {
	habits, userID := seedAnalytics(t)

	summary, err := habits.Summary(userID)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}

	if summary.TotalHabits != 3 {
		t.Errorf("TotalHabits = %d, want 3", summary.TotalHabits)
	}
	if summary.ActiveHabits != 2 {
		t.Errorf("ActiveHabits = %d, want 2", summary.ActiveHabits)
	}
	if summary.TotalCompletions != 4 {
		t.Errorf("TotalCompletions = %d, want 4", summary.TotalCompletions)
	}
	if summary.CurrentMonthCompletions != 4 {
		t.Errorf("CurrentMonthCompletions = %d, want 4", summary.CurrentMonthCompletions)
	}

	// 4 completions over 2 active habits * 10 days elapsed = 20%.
	if summary.CompletionRate != 20 {
		t.Errorf("CompletionRate = %v, want 20", summary.CompletionRate)
	}
	if summary.AverageStreak != 2 {
		t.Errorf("AverageStreak = %v, want 2", summary.AverageStreak)
	}

	if len(summary.TopStreaks) != 2 {
		t.Fatalf("TopStreaks = %+v, want 2 entries", summary.TopStreaks)
	}
	if summary.TopStreaks[0].HabitName != "Stretch" || summary.TopStreaks[0].CurrentStreak != 3 {
		t.Errorf("top streak = %+v, want Stretch at 3", summary.TopStreaks[0])
	}
}

func TestHeatmapZeroFillsGaps(t *testing.T) {
	habits, userID := seedAnalytics(t)

	days, err := habits.Heatmap(userID, "2026-09-07", "2026-09-10")
	if err != nil {
		t.Fatalf("Heatmap: %v", err)
	}
	if len(days) != 4 {
		t.Fatalf("got %d days, want 4", len(days))
	}

	wantCompletions := []int{0, 1, 1, 2}
	for i, want := range wantCompletions {
		if days[i].Completions != want {
			t.Errorf("day %s: completions = %d, want %d", days[i].Date, days[i].Completions, want)
		}
	}
	if days[0].Habits == nil || len(days[0].Habits) != 0 {
		t.Errorf("empty day habits = %#v, want []", days[0].Habits)
	}
	if len(days[3].Habits) != 2 {
		t.Errorf("last day habits = %v, want both habit names", days[3].Habits)
	}
}

func TestHeatmapRejectsBadRange(t *testing.T) {
	habits, userID := seedAnalytics(t)

	if _, err := habits.Heatmap(userID, "not-a-date", "2026-09-10"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("err = %v, want ErrInvalidDate", err)
	}
}
