// Package sqlclient talks to a memsql server over the sqlwire protocol.
package sqlclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/tuannm99/memsql/internal/sql/executor"
	"github.com/tuannm99/memsql/server/sqlwire"
)

var (
	ErrNilClient = errors.New("sqlclient: nil client")
	// ErrBroken is returned once a request was cut off midway, since the
	// stream can no longer be matched to request ids.
	ErrBroken = errors.New("sqlclient: connection broken")
)

// ServerError is a statement error reported by the server. The session is
// still usable after one.
type ServerError struct {
	Msg string
}

func (e *ServerError) Error() string { return e.Msg }

// Client sends one statement at a time over a single connection. Concurrent
// calls are served in turn.
type Client struct {
	mu      sync.Mutex
	nc      net.Conn
	wire    *sqlwire.Conn
	lastID  uint64
	broken  error
	timeout time.Duration
}

func Dial(addr string, timeout time.Duration) (*Client, error) {
	return DialContext(context.Background(), addr, timeout)
}

func DialContext(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	d := net.Dialer{Timeout: timeout}
	nc, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("sqlclient: dial %s: %w", addr, err)
	}
	return New(nc), nil
}

// New wraps an established connection.
func New(nc net.Conn) *Client {
	return &Client{nc: nc, wire: sqlwire.NewConn(nc)}
}

// SetRWTimeout bounds each request that has no context deadline. Zero
// means wait forever.
func (c *Client) SetRWTimeout(d time.Duration) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

func (c *Client) Close() error {
	if c == nil || c.nc == nil {
		return nil
	}
	return c.nc.Close()
}

func (c *Client) Exec(sql string) (*executor.Result, error) {
	return c.ExecContext(context.Background(), sql)
}

// Query runs sql and returns the result as display text.
func (c *Client) Query(ctx context.Context, sql string) (string, error) {
	res, err := c.ExecContext(ctx, sql)
	if err != nil {
		return "", err
	}
	return res.Text()
}

// ExecContext sends one statement and waits for its result. Statement
// errors come back as *ServerError. Cancelling ctx aborts the wait and
// leaves the client broken.
func (c *Client) ExecContext(ctx context.Context, sql string) (*executor.Result, error) {
	if c == nil || c.nc == nil {
		return nil, ErrNilClient
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.broken != nil {
		return nil, fmt.Errorf("%w: %v", ErrBroken, c.broken)
	}

	resp, err := c.roundTrip(ctx, sql)
	if err != nil {
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		c.broken = err
		return nil, err
	}
	if resp.Error != "" {
		return nil, &ServerError{Msg: resp.Error}
	}
	if resp.Result == nil {
		return nil, fmt.Errorf("sqlclient: empty response for id %d", resp.ID)
	}
	return resp.Result, nil
}

// roundTrip runs with c.mu held.
func (c *Client) roundTrip(ctx context.Context, sql string) (sqlwire.ExecuteResponse, error) {
	var resp sqlwire.ExecuteResponse

	deadline, ok := ctx.Deadline()
	if !ok && c.timeout > 0 {
		deadline = time.Now().Add(c.timeout)
	}
	if err := c.nc.SetDeadline(deadline); err != nil {
		return resp, err
	}
	defer func() { _ = c.nc.SetDeadline(time.Time{}) }()

	// a past deadline wakes the blocked read when ctx is cancelled
	stop := context.AfterFunc(ctx, func() { _ = c.nc.SetDeadline(time.Unix(1, 0)) })
	defer stop()

	c.lastID++
	id := c.lastID
	if err := c.wire.Send(sqlwire.ExecuteRequest{ID: id, SQL: sql}); err != nil {
		return resp, err
	}
	if err := c.wire.Recv(&resp); err != nil {
		return resp, err
	}
	if resp.ID != id {
		return resp, fmt.Errorf("sqlclient: response id mismatch: got=%d want=%d", resp.ID, id)
	}
	return resp, nil
}
