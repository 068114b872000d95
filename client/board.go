package client

import (
	"context"
	"errors"

	"github.com/taskflowapp/taskflow/database"
)

// Board is the in-memory kanban model: one ordered column per task status.
// Intra-column order is client-local only; the server persists just the status.
type Board struct {
	Columns []BoardColumn
}

type BoardColumn struct {
	ID    string
	Title string
	Tasks []database.Task
}

var errUnknownColumn = errors.New("unknown column")

// NewBoard builds the four standard columns.
func NewBoard() *Board {
	return &Board{
		Columns: []BoardColumn{
			{ID: database.StatusTodo, Title: "To Do"},
			{ID: database.StatusDoing, Title: "In Progress"},
			{ID: database.StatusReview, Title: "Review"},
			{ID: database.StatusDone, Title: "Done"},
		},
	}
}

// Load distributes tasks into columns by status, replacing current contents.
func (b *Board) Load(tasks []database.Task) {
	for i := range b.Columns {
		b.Columns[i].Tasks = nil
	}
	for _, t := range tasks {
		if col := b.column(t.Status); col != nil {
			col.Tasks = append(col.Tasks, t)
		}
	}
}

// Move applies a completed drag: same column reorders in place, different
// columns splice the task out of the source and into the destination at the
// drop index. It returns the moved task and whether its column changed.
func (b *Board) Move(srcID, dstID string, from, to int) (*database.Task, bool, error) {
	src := b.column(srcID)
	dst := b.column(dstID)
	if src == nil || dst == nil {
		return nil, false, errUnknownColumn
	}
	if from < 0 || from >= len(src.Tasks) {
		return nil, false, errors.New("source index out of range")
	}

	if srcID == dstID {
		task := src.Tasks[from]
		src.Tasks = append(src.Tasks[:from], src.Tasks[from+1:]...)
		src.Tasks = insertTask(src.Tasks, clampIndex(to, len(src.Tasks)), task)
		return &task, false, nil
	}

	task := src.Tasks[from]
	src.Tasks = append(src.Tasks[:from], src.Tasks[from+1:]...)
	task.Status = dstID
	dst.Tasks = insertTask(dst.Tasks, clampIndex(to, len(dst.Tasks)), task)
	return &task, true, nil
}

// MoveTask updates the board synchronously, then persists the status change
// with a single PATCH when the task crossed columns. The board reflects the
// move before the network call resolves.
func (c *Client) MoveTask(ctx context.Context, b *Board, srcID, dstID string, from, to int) error {
	task, crossed, err := b.Move(srcID, dstID, from, to)
	if err != nil {
		return err
	}
	if !crossed {
		return nil
	}

	_, err = c.UpdateTaskStatus(ctx, task.ID, dstID)
	return err
}

func (b *Board) column(id string) *BoardColumn {
	for i := range b.Columns {
		if b.Columns[i].ID == id {
			return &b.Columns[i]
		}
	}
	return nil
}

func insertTask(tasks []database.Task, at int, task database.Task) []database.Task {
	tasks = append(tasks, database.Task{})
	copy(tasks[at+1:], tasks[at:])
	tasks[at] = task
	return tasks
}

func clampIndex(i, max int) int {
	if i < 0 {
		return 0
	}
	if i > max {
		return max
	}
	return i
}
