package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/taskflowapp/taskflow/database"
)

// TaskListOptions narrows ListTasks. Zero values are omitted from the query.
type TaskListOptions struct {
	Status   string
	FolderID string
	Search   string
	Deleted  bool
}

type listResponse[T any] struct {
	Items []T `json:"items"`
	Total int `json:"total"`
}

func (c *Client) ListTasks(ctx context.Context, opts TaskListOptions) ([]database.Task, error) {
	q := url.Values{}
	if opts.Status != "" {
		q.Set("status", opts.Status)
	}
	if opts.FolderID != "" {
		q.Set("folderId", opts.FolderID)
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Deleted {
		q.Set("deleted", "true")
	}

	path := "/tasks"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp listResponse[database.Task]
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) CreateTask(ctx context.Context, in database.TaskCreate) (*database.Task, error) {
	var task database.Task
	if err := c.do(ctx, http.MethodPost, "/tasks", in, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) GetTask(ctx context.Context, id string) (*database.Task, error) {
	var task database.Task
	if err := c.do(ctx, http.MethodGet, "/tasks/"+id, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTask sends a partial update. The patch is any JSON-marshalable value;
// map[string]any lets callers express an explicit null due date.
func (c *Client) UpdateTask(ctx context.Context, id string, patch any) (*database.Task, error) {
	var task database.Task
	if err := c.do(ctx, http.MethodPatch, "/tasks/"+id, patch, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// UpdateTaskStatus patches only the status field, the kanban-move call.
func (c *Client) UpdateTaskStatus(ctx context.Context, id, status string) (*database.Task, error) {
	return c.UpdateTask(ctx, id, map[string]string{"status": status})
}

// DeleteTask soft-deletes the task (moves it to the trash).
func (c *Client) DeleteTask(ctx context.Context, id string) (*database.Task, error) {
	var task database.Task
	if err := c.do(ctx, http.MethodDelete, "/tasks/"+id, nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

func (c *Client) RestoreTask(ctx context.Context, id string) (*database.Task, error) {
	var task database.Task
	if err := c.do(ctx, http.MethodPost, "/tasks/"+id+"/restore", nil, &task); err != nil {
		return nil, err
	}
	return &task, nil
}

// DeleteTaskPermanent removes the task irreversibly.
func (c *Client) DeleteTaskPermanent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/tasks/"+id+"/permanent", nil, nil)
}
