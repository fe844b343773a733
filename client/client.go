// client/client.go
package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"kambios/internal/api"
	"kambios/internal/apply"
	"kambios/internal/errors"
	"kambios/internal/journal"
	"kambios/internal/lister"
	"kambios/internal/plan"
	"kambios/internal/renamer"
	"kambios/internal/undo"
	"kambios/internal/validation"
)

// Client talks to a running kambios server.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: time.Second * 30,
		},
	}
}

func (c *Client) Health() error {
	return c.get("/health", nil, nil)
}

func (c *Client) ListFiles(dir string) ([]lister.FileEntry, error) {
	var files []lister.FileEntry
	if err := c.get("/api/files", url.Values{"dir": {dir}}, &files); err != nil {
		return nil, err
	}
	return files, nil
}

func (c *Client) Plan(dir string, req renamer.Request) (*renamer.Preview, error) {
	var preview renamer.Preview
	body := validation.PlanRequest{Dir: dir, Request: req}
	if err := c.post("/api/plan", body, &preview); err != nil {
		return nil, err
	}
	return &preview, nil
}

func (c *Client) Apply(dir string, p plan.Plan) (*apply.Result, error) {
	var result apply.Result
	if err := c.post("/api/apply", validation.ApplyRequest{Dir: dir, Plan: p}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UndoStatus(dir string) (*api.UndoStatus, error) {
	var status api.UndoStatus
	if err := c.get("/api/undo", url.Values{"dir": {dir}}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *Client) Undo(dir string) (*undo.Result, error) {
	var result undo.Result
	if err := c.post("/api/undo", validation.UndoRequest{Dir: dir}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) History(limit int) ([]*journal.Entry, error) {
	var entries []*journal.Entry
	if err := c.get("/api/history", url.Values{"limit": {strconv.Itoa(limit)}}, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) get(path string, query url.Values, out any) error {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	resp, err := c.httpClient.Get(target)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

func (c *Client) post(path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}

	resp, err := c.httpClient.Post(c.baseURL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer resp.Body.Close()

	return decodeResponse(resp, out)
}

// decodeResponse turns error bodies back into *errors.Error so callers can
// branch on the kind.
func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode != http.StatusOK {
		var e errors.Error
		if err := json.NewDecoder(resp.Body).Decode(&e); err != nil || e.Kind == "" {
			return fmt.Errorf("unexpected status: %s", resp.Status)
		}
		e.Code = resp.StatusCode
		return &e
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
