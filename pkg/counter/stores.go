// pkg/counter/stores.go
package counter

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
)

// FileStore keeps the count as a decimal number in a text file
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed store; the file is created on first write
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Name identifies the store in warnings
func (s *FileStore) Name() string { return "file:" + s.path }

// Read returns the stored count
func (s *FileStore) Read(_ context.Context) (int, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read counter file: %w", err)
	}
	return parseCount(string(data)), nil
}

// Write replaces the stored count, going through a temp file so readers never see a partial value
func (s *FileStore) Write(_ context.Context, n int) error {
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".visits-*")
	if err != nil {
		return fmt.Errorf("failed to create counter temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(strconv.Itoa(n)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write counter file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write counter file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace counter file: %w", err)
	}
	return nil
}

// RedisStore keeps the count under a single key
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a redis-backed store
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "datawizard:visits"
	}
	return &RedisStore{client: client, key: key}
}

// NewRedisClient builds a client from connection settings and checks it responds
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}
	return client, nil
}

// Name identifies the store in warnings
func (s *RedisStore) Name() string { return "redis:" + s.key }

// Read returns the stored count
func (s *RedisStore) Read(ctx context.Context) (int, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get %s: %w", s.key, err)
	}
	return parseCount(val), nil
}

// Write replaces the stored count
func (s *RedisStore) Write(ctx context.Context, n int) error {
	if err := s.client.Set(ctx, s.key, n, 0).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", s.key, err)
	}
	return nil
}

// PostgresStore keeps named counters in a small table
type PostgresStore struct {
	db   *sqlx.DB
	name string
}

// NewPostgresStore creates a postgres-backed store and ensures its table exists
func NewPostgresStore(ctx context.Context, db *sqlx.DB, name string) (*PostgresStore, error) {
	if db == nil {
		return nil, errors.New("database connection cannot be nil")
	}
	if name == "" {
		name = "visits"
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS public.visit_counters (
			name TEXT PRIMARY KEY,
			count BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
		)
	`); err != nil {
		return nil, fmt.Errorf("failed to create visit_counters table: %w", err)
	}

	return &PostgresStore{db: db, name: name}, nil
}

// Name identifies the store in warnings
func (s *PostgresStore) Name() string { return "postgres:" + s.name }

// Read returns the stored count
func (s *PostgresStore) Read(ctx context.Context) (int, error) {
	var n int
	err := s.db.GetContext(ctx, &n, `SELECT count FROM public.visit_counters WHERE name = $1`, s.name)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to query visit count: %w", err)
	}
	return n, nil
}

// Write replaces the stored count
func (s *PostgresStore) Write(ctx context.Context, n int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO public.visit_counters (name, count, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (name) DO UPDATE SET count = EXCLUDED.count, updated_at = EXCLUDED.updated_at
	`, s.name, n)
	if err != nil {
		return fmt.Errorf("failed to store visit count: %w", err)
	}
	return nil
}

// parseCount reads a stored count, treating anything unparseable or negative as 0
func parseCount(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
