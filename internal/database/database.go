package database

import (
	"context"
	"fmt"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"golang.org/x/sync/singleflight"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/config"
)

// DSN builds the lib/pq connection string from config.
func DSN(cfg *config.Config) string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s",
		cfg.DBHost, cfg.DBUser, cfg.DBPassword, cfg.DBName, cfg.DBPort, cfg.DBSSLMode)
}

func Connect(ctx context.Context, cfg *config.Config) (*sqlx.DB, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", DSN(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// ConnectFunc opens a new database handle.
type ConnectFunc func(ctx context.Context) (*sqlx.DB, error)

// Provider owns the process-wide database handle. The first Get dials;
// concurrent first callers share that single dial instead of racing to open
// their own pools. A failed dial is not cached, so the next Get retries.
type Provider struct {
	connect ConnectFunc
	group   singleflight.Group

	mu     sync.RWMutex
	db     *sqlx.DB
	closed bool
}

func NewProvider(connect ConnectFunc) *Provider {
	return &Provider{connect: connect}
}

// Get returns the shared handle, dialing on first use.
func (p *Provider) Get(ctx context.Context) (*sqlx.DB, error) {
	p.mu.RLock()
	db, closed := p.db, p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrProviderClosed
	}
	if db != nil {
		return db, nil
	}

	v, err, _ := p.group.Do("db", func() (interface{}, error) {
		p.mu.RLock()
		existing := p.db
		p.mu.RUnlock()
		if existing != nil {
			return existing, nil
		}

		conn, err := p.connect(ctx)
		if err != nil {
			return nil, err
		}

		p.mu.Lock()
		defer p.mu.Unlock()
		if p.closed {
			conn.Close()
			return nil, ErrProviderClosed
		}
		p.db = conn
		return conn, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*sqlx.DB), nil
}

// Close releases the handle. Safe to call more than once.
func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.db == nil {
		return nil
	}
	err := p.db.Close()
	p.db = nil
	return err
}
