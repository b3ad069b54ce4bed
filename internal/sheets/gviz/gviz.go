// Package gviz fetches expense rows from the public spreadsheet query
// endpoint. The endpoint wraps its JSON body in a fixed-length textual
// envelope that must be stripped before decoding; a changed envelope
// surfaces as ErrEnvelope rather than silent garbage.
package gviz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"pcfdash/internal/core"
)

const (
	// The response body is "/*O_o*/\ngoogle.visualization.Query.setResponse("
	// followed by the JSON object and a closing ");".
	envelopePrefixLen = 47
	envelopeSuffixLen = 2

	defaultBaseURL = "https://docs.google.com/spreadsheets/d"
	defaultTimeout = 30 * time.Second
)

// ErrEnvelope reports a response body that does not carry the expected
// query envelope.
var ErrEnvelope = errors.New("malformed query response envelope")

// Client reads one sheet of one spreadsheet through the query endpoint.
type Client struct {
	hc        *http.Client
	name      string
	sheetID   string
	sheetName string
	baseURL   string
	now       func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the endpoint base, mainly for tests.
func WithBaseURL(base string) Option {
	return func(c *Client) { c.baseURL = base }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

// New creates a query endpoint source. The name becomes the provenance
// of every row it yields.
func New(name, sheetID, sheetName string, opts ...Option) *Client {
	c := &Client{
		hc:        &http.Client{Timeout: defaultTimeout},
		name:      name,
		sheetID:   sheetID,
		sheetName: sheetName,
		baseURL:   defaultBaseURL,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name implements sheets.RowSource.
func (c *Client) Name() string { return c.name }

// Fetch downloads the sheet, strips the envelope and ingests the rows.
// A cache buster keeps intermediaries from serving stale tables.
func (c *Client) Fetch(ctx context.Context) ([]core.Row, error) {
	u := fmt.Sprintf("%s/%s/gviz/tq?tqx=out:json&sheet=%s&_cb=%d",
		c.baseURL, c.sheetID, url.QueryEscape(c.sheetName), c.now().UnixMilli())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch sheet %s: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch sheet %s: unexpected status %s", c.name, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	payload, err := stripEnvelope(body)
	if err != nil {
		return nil, err
	}

	var gr response
	if err := json.Unmarshal(payload, &gr); err != nil {
		return nil, fmt.Errorf("decode table payload: %w", err)
	}

	return core.Ingest(gr.toTable(), c.name), nil
}

func stripEnvelope(b []byte) ([]byte, error) {
	if len(b) < envelopePrefixLen+envelopeSuffixLen {
		return nil, fmt.Errorf("%w: body too short (%d bytes)", ErrEnvelope, len(b))
	}
	payload := bytes.TrimSpace(b[envelopePrefixLen : len(b)-envelopeSuffixLen])
	if len(payload) == 0 || payload[0] != '{' {
		return nil, fmt.Errorf("%w: payload is not a JSON object", ErrEnvelope)
	}
	return payload, nil
}

type response struct {
	Table table `json:"table"`
}

type table struct {
	Cols []col `json:"cols"`
	Rows []row `json:"rows"`
}

type col struct {
	Label string `json:"label"`
	ID    string `json:"id"`
}

type row struct {
	C []*cell `json:"c"`
}

type cell struct {
	V any    `json:"v"`
	F string `json:"f"`
}

func (r response) toTable() core.Table {
	t := core.Table{
		Cols: make([]core.Column, len(r.Table.Cols)),
		Rows: make([][]*core.Cell, len(r.Table.Rows)),
	}
	for i, c := range r.Table.Cols {
		t.Cols[i] = core.Column{Label: c.Label, ID: c.ID}
	}
	for i, row := range r.Table.Rows {
		cells := make([]*core.Cell, len(row.C))
		for j, c := range row.C {
			if c == nil {
				continue
			}
			cells[j] = &core.Cell{Value: c.V, Formatted: c.F}
		}
		t.Rows[i] = cells
	}
	return t
}
