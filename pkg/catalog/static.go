package catalog

import (
	"context"
	"sort"
	"sync"

	"github.com/pseudomuto/dbmover/pkg/dialect"
)

// Static is an in-memory Conn. It serves a fixed set of tables and records the
// statements passed to Exec without applying them.
type Static struct {
	mu       sync.Mutex
	dialect  dialect.Dialect
	tables   map[string][]Column
	executed []string
	err      error
}

var _ Conn = (*Static)(nil)

// NewStatic returns an empty catalog for the given dialect.
func NewStatic(d dialect.Dialect) *Static {
	return &Static{
		dialect: d,
		tables:  make(map[string][]Column),
	}
}

// AddTable registers a base table with the given columns in ordinal order.
func (s *Static) AddTable(name string, columns ...Column) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tables[name] = columns
	return s
}

// FailWith makes every subsequent call return err.
func (s *Static) FailWith(err error) *Static {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
	return s
}

// Executed returns the statements passed to Exec, in order.
func (s *Static) Executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.executed...)
}

func (s *Static) Dialect() dialect.Dialect { return s.dialect }

func (s *Static) TableExists(_ context.Context, _, table string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return false, s.err
	}

	_, ok := s.tables[table]
	return ok, nil
}

func (s *Static) ListBaseTables(_ context.Context, _ string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	names := make([]string, 0, len(s.tables))
	for name := range s.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	return names, nil
}

func (s *Static) ListColumns(_ context.Context, _, table string) ([]Column, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return nil, s.err
	}

	return append([]Column(nil), s.tables[table]...), nil
}

func (s *Static) Exec(_ context.Context, sql string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}

	s.executed = append(s.executed, sql)
	return nil
}

func (s *Static) Close() error { return nil }
