package dataset

import (
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang/snappy"

	"sales-dashboard/internal/models"
)

const cacheVersion = "v2"

var ErrCacheMiss = errors.New("cache miss")

// Cache keeps parsed rows on disk as snappy-compressed gob, keyed by source
// name and valid for one source modification time.
type Cache struct {
	dir string
}

type cacheEntry struct {
	Version    string
	SourceTime time.Time
	Rows       []models.Transaction
}

func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

func (c *Cache) filename(source string) string {
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return '_'
		}
	}, source)
	return filepath.Join(c.dir, fmt.Sprintf("%s_%s.gob.sz", safe, cacheVersion))
}

// Load returns ErrCacheMiss when there is no entry for source or it was
// written for a different sourceTime.
func (c *Cache) Load(source string, sourceTime time.Time) (*models.Table, error) {
	file, err := os.Open(c.filename(source))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var entry cacheEntry
	if err := gob.NewDecoder(snappy.NewReader(file)).Decode(&entry); err != nil {
		return nil, fmt.Errorf("decode cache: %w", err)
	}

	if entry.Version != cacheVersion || !entry.SourceTime.Equal(sourceTime) {
		return nil, ErrCacheMiss
	}

	return models.NewTable(entry.Rows, entry.SourceTime), nil
}

func (c *Cache) Save(source string, table *models.Table) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return err
	}

	rows := make([]models.Transaction, table.Len())
	for i := range rows {
		rows[i] = table.Row(i)
	}
	entry := cacheEntry{
		Version:    cacheVersion,
		SourceTime: table.SourceTime(),
		Rows:       rows,
	}

	tmp, err := os.CreateTemp(c.dir, "table-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	w := snappy.NewBufferedWriter(tmp)
	if err := gob.NewEncoder(w).Encode(entry); err != nil {
		tmp.Close()
		return fmt.Errorf("encode cache: %w", err)
	}
	if err := w.Close(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), c.filename(source))
}
