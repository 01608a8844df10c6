package manager

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/vvka-141/tpchload/internal/db"
	"github.com/vvka-141/tpchload/pkg/tpch"
)

// OpenFunc opens a session and returns the function that closes it.
type OpenFunc func(ctx context.Context) (tpch.Session, func() error, error)

// Manager implements tpch.SessionProvider.
type Manager struct {
	open   OpenFunc
	logger tpch.Logger

	mu      sync.Mutex
	session tpch.Session
	closeFn func() error
}

// New creates a Manager that opens sessions through connector.
// Panics if connector or logger is nil.
func New(connector tpch.Connector, logger tpch.Logger) *Manager {
	if connector == nil {
		panic("connector cannot be nil")
	}
	return NewWithOpener(PoolOpener(connector), logger)
}

// NewWithOpener creates a Manager around a custom open function.
func NewWithOpener(open OpenFunc, logger tpch.Logger) *Manager {
	if open == nil {
		panic("open cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &Manager{open: open, logger: logger}
}

// PoolOpener connects a one-connection pool and pins its only connection.
func PoolOpener(connector tpch.Connector) OpenFunc {
	return func(ctx context.Context) (tpch.Session, func() error, error) {
		pool, err := connector.Connect(ctx)
		if err != nil {
			closeConnector(connector)
			return nil, nil, err
		}
		conn, err := pool.Acquire(ctx)
		if err != nil {
			pool.Close()
			closeConnector(connector)
			return nil, nil, fmt.Errorf("failed to acquire connection from pool: %w", err)
		}

		session := db.NewConnSession(conn)
		closeFn := func() error {
			session.Release()
			pool.Close()
			return closeConnector(connector)
		}
		return session, closeFn, nil
	}
}

func closeConnector(connector tpch.Connector) error {
	if c, ok := connector.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Acquire returns the live session, opening it on first use.
func (m *Manager) Acquire(ctx context.Context) (tpch.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return m.session, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", tpch.ErrConnectionFailed, err)
	}

	session, closeFn, err := m.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", tpch.ErrConnectionFailed, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: opener returned no session", tpch.ErrConnectionFailed)
	}

	m.logger.Verbose("session opened")
	m.session = session
	m.closeFn = closeFn
	return session, nil
}

// Release closes the session if one is open.
func (m *Manager) Release() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil
	}
	closeFn := m.closeFn
	m.session = nil
	m.closeFn = nil

	if closeFn == nil {
		return nil
	}
	if err := closeFn(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to close session: %w", err)
	}
	m.logger.Verbose("session closed")
	return nil
}

var _ tpch.SessionProvider = (*Manager)(nil)
