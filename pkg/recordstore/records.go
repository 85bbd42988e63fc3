package recordstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
)

// ListOptions narrow a collection listing. Filter is a backend boolean
// expression over record fields, Sort a field name with an optional leading
// "-" for descending order, Expand a comma-joined list of relation fields to
// inline. RequestKey, when set, registers the request for cancellation.
type ListOptions struct {
	Filter     string
	Sort       string
	Expand     string
	RequestKey string
}

// ListResult is one page of records. Items are left raw for the caller to
// decode into its own types.
type ListResult struct {
	Page       int               `json:"page"`
	PerPage    int               `json:"perPage"`
	TotalItems int               `json:"totalItems"`
	TotalPages int               `json:"totalPages"`
	Items      []json.RawMessage `json:"items"`
}

func collectionPath(collection string) string {
	return "/api/collections/" + url.PathEscape(collection) + "/records"
}

// List fetches one page of records from collection.
func (c *Client) List(ctx context.Context, collection string, page, perPage int, opts ListOptions) (*ListResult, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("perPage", strconv.Itoa(perPage))
	if opts.Filter != "" {
		query.Set("filter", opts.Filter)
	}
	if opts.Sort != "" {
		query.Set("sort", opts.Sort)
	}
	if opts.Expand != "" {
		query.Set("expand", opts.Expand)
	}

	data, err := c.send(ctx, http.MethodGet, collectionPath(collection), query, nil, "", opts.RequestKey)
	if err != nil {
		return nil, err
	}

	var result ListResult
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, &ResponseError{Message: "malformed list response", Err: err}
	}
	return &result, nil
}

// GetOne fetches a single record by id.
func (c *Client) GetOne(ctx context.Context, collection, id, expand string) (json.RawMessage, error) {
	query := url.Values{}
	if expand != "" {
		query.Set("expand", expand)
	}
	return c.send(ctx, http.MethodGet, collectionPath(collection)+"/"+url.PathEscape(id), query, nil, "", "")
}

// Create stores a new record. The id is assigned by the backend; payloads
// never carry one.
func (c *Client) Create(ctx context.Context, collection string, p *Payload) (json.RawMessage, error) {
	body, contentType, err := encodeBody(p)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodPost, collectionPath(collection), nil, body, contentType, "")
}

// Update replaces the given fields of an existing record.
func (c *Client) Update(ctx context.Context, collection, id string, p *Payload) (json.RawMessage, error) {
	body, contentType, err := encodeBody(p)
	if err != nil {
		return nil, err
	}
	return c.send(ctx, http.MethodPatch, collectionPath(collection)+"/"+url.PathEscape(id), nil, body, contentType, "")
}

// Delete removes a record.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	_, err := c.send(ctx, http.MethodDelete, collectionPath(collection)+"/"+url.PathEscape(id), nil, nil, "", "")
	return err
}

// encodeBody picks the wire encoding: multipart whenever the payload carries
// new files, JSON otherwise.
func encodeBody(p *Payload) (io.Reader, string, error) {
	if p == nil {
		return nil, "", fmt.Errorf("nil payload")
	}
	if p.hasFiles() {
		return encodeMultipartBody(p)
	}
	data, err := p.encodeJSON()
	if err != nil {
		return nil, "", err
	}
	return bytes.NewReader(data), "application/json", nil
}

func encodeMultipartBody(p *Payload) (io.Reader, string, error) {
	body, contentType, err := p.encodeMultipart()
	if err != nil {
		return nil, "", err
	}
	return body, contentType, nil
}
