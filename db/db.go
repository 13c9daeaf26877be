package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"querydesk/models"
)

const (
	historyPrefix   = "history:"
	historyIDPrefix = "history_id:"
	sqlFilePrefix   = "sql_file:"
)

// ErrNotFound is returned when a history entry does not exist.
var ErrNotFound = errors.New("not found")

type DB struct {
	badgerDB *badger.DB
}

func New(dbPath string) (*DB, error) {
	opts := badger.DefaultOptions(dbPath)
	opts.Logger = nil // Disable badger logging for cleaner output

	return open(opts)
}

// NewInMemory opens a store that keeps everything in memory.
func NewInMemory() (*DB, error) {
	opts := badger.DefaultOptions("").WithInMemory(true)
	opts.Logger = nil

	return open(opts)
}

func open(opts badger.Options) (*DB, error) {
	badgerDB, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &DB{badgerDB: badgerDB}, nil
}

func (d *DB) Close() error {
	return d.badgerDB.Close()
}

// StoreQueryHistory records one query exchange and returns the stored entry.
func (d *DB) StoreQueryHistory(entry models.QueryHistory) (models.QueryHistory, error) {
	now := time.Now()
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Timestamp == "" {
		entry.Timestamp = now.Format(time.RFC3339Nano)
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return entry, err
	}

	// Zero padding keeps lexical key order equal to insertion time order.
	key := []byte(fmt.Sprintf("%s%020d:%s", historyPrefix, now.UnixNano(), entry.ID))

	err = d.badgerDB.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set([]byte(historyIDPrefix+entry.ID), key)
	})
	return entry, err
}

// RecentQueries returns up to limit history entries, newest first.
func (d *DB) RecentQueries(limit int) ([]models.QueryHistory, error) {
	entries := []models.QueryHistory{}
	if limit <= 0 {
		return entries, nil
	}

	err := d.badgerDB.View(func(txn *badger.Txn) error {
		prefix := []byte(historyPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := append([]byte(historyPrefix), 0xFF)
		for it.Seek(seek); it.ValidForPrefix(prefix) && len(entries) < limit; it.Next() {
			var entry models.QueryHistory
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &entry)
			})
			if err != nil {
				return err
			}
			entries = append(entries, entry)
		}
		return nil
	})

	return entries, err
}

// GetQueryHistory looks up a single history entry by id.
func (d *DB) GetQueryHistory(id string) (*models.QueryHistory, error) {
	var entry models.QueryHistory

	err := d.badgerDB.View(func(txn *badger.Txn) error {
		ref, err := txn.Get([]byte(historyIDPrefix + id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		key, err := ref.ValueCopy(nil)
		if err != nil {
			return err
		}

		item, err := txn.Get(key)
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &entry)
		})
	})
	if err != nil {
		return nil, err
	}

	return &entry, nil
}

func (d *DB) StoreSQLFile(name string, content string) error {
	return d.badgerDB.Update(func(txn *badger.Txn) error {
		key := []byte(sqlFilePrefix + name)
		return txn.Set(key, []byte(content))
	})
}

func (d *DB) GetSQLFiles() ([]models.SQLFile, error) {
	var sqlFiles []models.SQLFile

	err := d.badgerDB.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(sqlFilePrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			name := strings.TrimPrefix(string(item.Key()), sqlFilePrefix)

			err := item.Value(func(val []byte) error {
				sqlFiles = append(sqlFiles, models.SQLFile{
					Name:    name,
					Content: string(val),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})

	return sqlFiles, err
}

// LoadSQLFilesFromDir reads every *.sql file below sqlFilesDir.
// A missing directory yields no files.
func LoadSQLFilesFromDir(sqlFilesDir string) ([]models.SQLFile, error) {
	var sqlFiles []models.SQLFile

	if _, err := os.Stat(sqlFilesDir); errors.Is(err, os.ErrNotExist) {
		return sqlFiles, nil
	}

	err := filepath.Walk(sqlFilesDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(strings.ToLower(info.Name()), ".sql") {
			content, err := os.ReadFile(path)
			if err != nil {
				return err
			}

			sqlFiles = append(sqlFiles, models.SQLFile{
				Name:    info.Name(),
				Content: string(content),
			})
		}
		return nil
	})

	return sqlFiles, err
}
