package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/taskflowapp/taskflow/database"
)

type HabitListOptions struct {
	Active   *bool
	Category string
}

func (c *Client) ListHabits(ctx context.Context, opts HabitListOptions) ([]database.Habit, error) {
	q := url.Values{}
	if opts.Active != nil {
		if *opts.Active {
			q.Set("active", "true")
		} else {
			q.Set("active", "false")
		}
	}
	if opts.Category != "" {
		q.Set("category", opts.Category)
	}

	path := "/habits"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp listResponse[database.Habit]
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) CreateHabit(ctx context.Context, in database.HabitCreate) (*database.Habit, error) {
	var habit database.Habit
	if err := c.do(ctx, http.MethodPost, "/habits", in, &habit); err != nil {
		return nil, err
	}
	return &habit, nil
}

func (c *Client) GetHabit(ctx context.Context, id string) (*database.Habit, error) {
	var habit database.Habit
	if err := c.do(ctx, http.MethodGet, "/habits/"+id, nil, &habit); err != nil {
		return nil, err
	}
	return &habit, nil
}

func (c *Client) UpdateHabit(ctx context.Context, id string, patch database.HabitUpdate) (*database.Habit, error) {
	var habit database.Habit
	if err := c.do(ctx, http.MethodPatch, "/habits/"+id, patch, &habit); err != nil {
		return nil, err
	}
	return &habit, nil
}

func (c *Client) DeleteHabit(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/habits/"+id, nil, nil)
}

// LogHabit upserts the completion entry for a day ("2024-05-01" style key).
func (c *Client) LogHabit(ctx context.Context, id, date string, completed bool, notes string) (*database.HabitLog, error) {
	in := map[string]any{"date": date, "completed": completed, "notes": notes}
	var entry database.HabitLog
	if err := c.do(ctx, http.MethodPost, "/habits/"+id+"/logs", in, &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

func (c *Client) HabitLogs(ctx context.Context, id, from, to string) ([]database.HabitLog, error) {
	q := url.Values{}
	if from != "" {
		q.Set("from", from)
	}
	if to != "" {
		q.Set("to", to)
	}

	path := "/habits/" + id + "/logs"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp listResponse[database.HabitLog]
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

// AnalyticsSummary fetches the dashboard aggregation over the user's habits.
func (c *Client) AnalyticsSummary(ctx context.Context) (*database.AnalyticsSummary, error) {
	var summary database.AnalyticsSummary
	if err := c.do(ctx, http.MethodGet, "/analytics/summary", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Heatmap fetches zero-filled per-day completion counts for [from, to].
func (c *Client) Heatmap(ctx context.Context, from, to string) ([]database.HeatmapDay, error) {
	q := url.Values{"from": {from}, "to": {to}}

	var resp struct {
		Data []database.HeatmapDay `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/analytics/heatmap?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}
