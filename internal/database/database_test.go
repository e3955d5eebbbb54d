package database

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferdaws-ahmed/WisdomVault-server-side/internal/config"
)

// lazyHandle returns a handle that never dials: sql.Open defers connecting
// until the first query.
func lazyHandle(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := sqlx.Open("postgres", "host=127.0.0.1 port=1 user=x dbname=x sslmode=disable")
	require.NoError(t, err)
	return db
}

func TestProvider_ConcurrentFirstUseDialsOnce(t *testing.T) {
	var dials int32
	p := NewProvider(func(ctx context.Context) (*sqlx.DB, error) {
		atomic.AddInt32(&dials, 1)
		time.Sleep(20 * time.Millisecond)
		return lazyHandle(t), nil
	})
	defer p.Close()

	const callers = 32
	handles := make([]*sqlx.DB, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := p.Get(context.Background())
			assert.NoError(t, err)
			handles[i] = db
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&dials))
	for _, h := range handles {
		assert.Same(t, handles[0], h)
	}
}

func TestProvider_FailedDialIsRetried(t *testing.T) {
	var dials int32
	dialErr := errors.New("connection refused")
	p := NewProvider(func(ctx context.Context) (*sqlx.DB, error) {
		if atomic.AddInt32(&dials, 1) == 1 {
			return nil, dialErr
		}
		return lazyHandle(t), nil
	})
	defer p.Close()

	_, err := p.Get(context.Background())
	require.ErrorIs(t, err, dialErr)

	db, err := p.Get(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, db)
	assert.Equal(t, int32(2), atomic.LoadInt32(&dials))
}

func TestProvider_GetAfterClose(t *testing.T) {
	p := NewProvider(func(ctx context.Context) (*sqlx.DB, error) {
		return lazyHandle(t), nil
	})
	_, err := p.Get(context.Background())
	require.NoError(t, err)

	require.NoError(t, p.Close())
	require.NoError(t, p.Close())

	_, err = p.Get(context.Background())
	assert.ErrorIs(t, err, ErrProviderClosed)
}

func TestDSN(t *testing.T) {
	cfg := &config.Config{
		DBHost: "db", DBPort: "5432", DBUser: "vault", DBPassword: "pw", DBName: "wisdom", DBSSLMode: "disable",
	}
	assert.Equal(t, "host=db user=vault password=pw dbname=wisdom port=5432 sslmode=disable", DSN(cfg))
}
