package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/taskflowapp/taskflow/database"
)

type NoteListOptions struct {
	FolderID string
	Tag      string
	Search   string
	Deleted  bool
}

func (c *Client) ListNotes(ctx context.Context, opts NoteListOptions) ([]database.Note, error) {
	q := url.Values{}
	if opts.FolderID != "" {
		q.Set("folderId", opts.FolderID)
	}
	if opts.Tag != "" {
		q.Set("tag", opts.Tag)
	}
	if opts.Search != "" {
		q.Set("search", opts.Search)
	}
	if opts.Deleted {
		q.Set("deleted", "true")
	}

	path := "/notes"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp listResponse[database.Note]
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Items, nil
}

func (c *Client) CreateNote(ctx context.Context, in database.NoteCreate) (*database.Note, error) {
	var note database.Note
	if err := c.do(ctx, http.MethodPost, "/notes", in, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) GetNote(ctx context.Context, id string) (*database.Note, error) {
	var note database.Note
	if err := c.do(ctx, http.MethodGet, "/notes/"+id, nil, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) UpdateNote(ctx context.Context, id string, patch database.NoteUpdate) (*database.Note, error) {
	var note database.Note
	if err := c.do(ctx, http.MethodPatch, "/notes/"+id, patch, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) DeleteNote(ctx context.Context, id string) (*database.Note, error) {
	var note database.Note
	if err := c.do(ctx, http.MethodDelete, "/notes/"+id, nil, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) RestoreNote(ctx context.Context, id string) (*database.Note, error) {
	var note database.Note
	if err := c.do(ctx, http.MethodPost, "/notes/"+id+"/restore", nil, &note); err != nil {
		return nil, err
	}
	return &note, nil
}

func (c *Client) DeleteNotePermanent(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notes/"+id+"/permanent", nil, nil)
}
