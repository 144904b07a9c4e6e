package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pocketbase/dbx"
	_ "modernc.org/sqlite"
)

const createKVTable = `CREATE TABLE IF NOT EXISTS kv_store (
	key     TEXT PRIMARY KEY NOT NULL,
	value   TEXT NOT NULL,
	updated INTEGER NOT NULL
)`

// SQLStore keeps values in a single kv_store table.
type SQLStore struct {
	DB *dbx.DB
}

// OpenSQLite opens (or creates) the database file at path and makes sure the
// kv_store table exists.
func OpenSQLite(path string) (*SQLStore, error) {
	db, err := dbx.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// one writer keeps SQLite from returning SQLITE_BUSY under concurrent saves
	db.DB().SetMaxOpenConns(1)

	store := &SQLStore{DB: db}
	if _, err := db.NewQuery(createKVTable).Execute(); err != nil {
		db.Close()
		return nil, fmt.Errorf("create kv_store: %w", err)
	}
	return store, nil
}

func (s *SQLStore) Close() error {
	return s.DB.Close()
}

func (s *SQLStore) Load(ctx context.Context, key string, dst any) (bool, error) {
	var value string
	err := s.DB.NewQuery("SELECT value FROM kv_store WHERE key = {:key}").
		WithContext(ctx).
		Bind(dbx.Params{"key": key}).
		Row(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("sqlite load %s: %w", key, err)
	}

	if err := decode(key, []byte(value), dst); err != nil {
		return false, err
	}
	return true, nil
}

func (s *SQLStore) Save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	_, err = s.DB.NewQuery(`INSERT INTO kv_store (key, value, updated)
		VALUES ({:key}, {:value}, {:updated})
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated = excluded.updated`).
		WithContext(ctx).
		Bind(dbx.Params{"key": key, "value": string(data), "updated": time.Now().Unix()}).
		Execute()
	if err != nil {
		return fmt.Errorf("sqlite save %s: %w", key, err)
	}
	return nil
}

func (s *SQLStore) Delete(ctx context.Context, key string) error {
	_, err := s.DB.NewQuery("DELETE FROM kv_store WHERE key = {:key}").
		WithContext(ctx).
		Bind(dbx.Params{"key": key}).
		Execute()
	if err != nil {
		return fmt.Errorf("sqlite delete %s: %w", key, err)
	}
	return nil
}
