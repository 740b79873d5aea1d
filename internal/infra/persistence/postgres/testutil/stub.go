// Package testutil provides a fake database/sql connection that understands
// the statements issued by the postgres store and keeps the state bucket
// table in memory. Writes inside a transaction become visible on commit.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
)

// Faults injects errors into the matching driver calls.
type Faults struct {
	Ping   error
	Exec   error
	Begin  error
	Commit error
	Rows   error
}

// StubConn is the shared connection behind every pooled handle.
type StubConn struct {
	mu      sync.Mutex
	Execs   []string
	Buckets map[string][]byte
	Commits int
	Faults  Faults
	pending map[string][]byte
}

// NewStubDB returns a sql.DB whose connections all resolve to one StubConn.
func NewStubDB() (*sql.DB, *StubConn) {
	conn := &StubConn{Buckets: make(map[string][]byte)}
	return sql.OpenDB(connector{conn: conn}), conn
}

type connector struct{ conn *StubConn }

func (c connector) Connect(context.Context) (driver.Conn, error) { return c.conn, nil }
func (c connector) Driver() driver.Driver                        { return stubDriver{c.conn} }

type stubDriver struct{ conn *StubConn }

func (d stubDriver) Open(string) (driver.Conn, error) { return d.conn, nil }

// Bucket returns a copy of the committed payload for name.
func (c *StubConn) Bucket(name string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.Buckets[name]
	return append([]byte(nil), p...), ok
}

func (c *StubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("stub: prepared statements are not supported")
}

func (c *StubConn) Close() error { return nil }

func (c *StubConn) Begin() (driver.Tx, error) {
	return c.BeginTx(context.Background(), driver.TxOptions{})
}

func (c *StubConn) Ping(context.Context) error { return c.Faults.Ping }

func (c *StubConn) BeginTx(context.Context, driver.TxOptions) (driver.Tx, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Faults.Begin != nil {
		return nil, c.Faults.Begin
	}
	c.pending = make(map[string][]byte)
	return stubTx{conn: c}, nil
}

func normalize(query string) string {
	return strings.ToUpper(strings.Join(strings.Fields(query), " "))
}

func (c *StubConn) ExecContext(_ context.Context, query string, args []driver.NamedValue) (driver.Result, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Execs = append(c.Execs, query)
	if c.Faults.Exec != nil {
		return nil, c.Faults.Exec
	}
	q := normalize(query)
	switch {
	case strings.HasPrefix(q, "CREATE TABLE IF NOT EXISTS STATE"):
		return driver.RowsAffected(0), nil
	case strings.HasPrefix(q, "INSERT INTO STATE"):
		if len(args) != 2 {
			return nil, fmt.Errorf("stub: upsert expects 2 args, got %d", len(args))
		}
		bucket, ok := args[0].Value.(string)
		if !ok {
			return nil, fmt.Errorf("stub: bucket arg is %T", args[0].Value)
		}
		payload, _ := args[1].Value.([]byte)
		target := c.Buckets
		if c.pending != nil {
			target = c.pending
		}
		target[bucket] = append([]byte(nil), payload...)
		return driver.RowsAffected(1), nil
	default:
		return nil, fmt.Errorf("stub: unsupported statement %q", query)
	}
}

func (c *StubConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if normalize(query) != "SELECT BUCKET, PAYLOAD FROM STATE" {
		return nil, fmt.Errorf("stub: unsupported query %q", query)
	}
	names := make([]string, 0, len(c.Buckets))
	for name := range c.Buckets {
		names = append(names, name)
	}
	sort.Strings(names)
	rows := &stubRows{err: c.Faults.Rows}
	for _, name := range names {
		rows.rows = append(rows.rows, []driver.Value{name, append([]byte(nil), c.Buckets[name]...)})
	}
	return rows, nil
}

type stubTx struct{ conn *StubConn }

func (t stubTx) Commit() error {
	c := t.conn
	c.mu.Lock()
	defer c.mu.Unlock()
	pending := c.pending
	c.pending = nil
	if c.Faults.Commit != nil {
		return c.Faults.Commit
	}
	for name, payload := range pending {
		c.Buckets[name] = payload
	}
	c.Commits++
	return nil
}

func (t stubTx) Rollback() error {
	t.conn.mu.Lock()
	t.conn.pending = nil
	t.conn.mu.Unlock()
	return nil
}

type stubRows struct {
	rows [][]driver.Value
	next int
	err  error
}

func (r *stubRows) Columns() []string { return []string{"bucket", "payload"} }
func (r *stubRows) Close() error      { return nil }

func (r *stubRows) Next(dest []driver.Value) error {
	if r.next >= len(r.rows) {
		if r.err != nil {
			return r.err
		}
		return io.EOF
	}
	copy(dest, r.rows[r.next])
	r.next++
	return nil
}
