// Package memory provides an in-memory row source, used by the memory
// backend for local development and by tests.
package memory

import (
	"context"
	"sync"

	"pcfdash/internal/core"
	ports "pcfdash/internal/sheets"
)

type Store struct {
	mu    sync.Mutex
	name  string
	table core.Table
	err   error
}

var _ ports.RowSource = (*Store)(nil)

func New(name string, table core.Table) *Store {
	return &Store{name: name, table: table}
}

// Name implements sheets.RowSource.
func (s *Store) Name() string { return s.name }

// Fetch implements sheets.RowSource.
func (s *Store) Fetch(ctx context.Context) ([]core.Row, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return core.Ingest(s.table, s.name), nil
}

// SetTable replaces the backing table.
func (s *Store) SetTable(t core.Table) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.table = t
}

// FailWith makes subsequent fetches return err. Passing nil restores
// normal operation.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Seed returns a small table with a few representative rows, enough to
// exercise the dashboard without network access.
func Seed() core.Table {
	headers := []string{"Date", "AMT W/ VAt", "Account Name", "Expense Description", "Cost Center", "Vendor Name"}
	rows := [][]any{
		{"Date(2026,7,3)", 2450.75, "Flour and Sugar", "weekly flour restock", "Jbs 22348 blumentrit", "Metro Milling"},
		{"Date(2026,7,5)", 1830.00, "Meralco", "electric bill july", "Jbs 22348 blumentrit", "Meralco"},
		{"Date(2026,7,5)", 640.50, "Packaging boxes", "cake boxes 8x8", "Jbs 22349 balicbalic", "Uniwide Packaging"},
		{"Date(2026,7,8)", 1200.00, "Store Rental", "stall rent share", "Jbs 22351 paco", "Paco Market Admin"},
		{"Date(2026,7,9)", 315.25, "Gasoline", "delivery run", "Jbs 22350 kalentong", "Shell"},
	}

	t := core.Table{Cols: make([]core.Column, len(headers))}
	for i, h := range headers {
		t.Cols[i] = core.Column{Label: h}
	}
	for _, r := range rows {
		cells := make([]*core.Cell, len(r))
		for j, v := range r {
			cells[j] = &core.Cell{Value: v}
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}
