package dataset

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"sales-dashboard/internal/config"
)

// Source is where the sales table lives.
type Source interface {
	Name() string
	// ModTime reports when the underlying data last changed. A zero time
	// means unknown and disables caching.
	ModTime(ctx context.Context) (time.Time, error)
	// Records yields the header row first, then one row per transaction.
	Records(ctx context.Context) (RecordReader, error)
}

type RecordReader interface {
	Read() ([]string, error)
	Close() error
}

// OpenSource picks a Source from a dataset URI: a plain path, file://,
// s3://bucket/key or sqlite://path?table=name.
func OpenSource(ctx context.Context, uri string, s3cfg config.S3Config) (Source, error) {
	u, err := url.Parse(uri)
	if err != nil || len(u.Scheme) <= 1 {
		return NewFileSource(uri), nil
	}

	switch u.Scheme {
	case "file":
		return NewFileSource(u.Host + u.Path), nil
	case "s3":
		key := strings.TrimPrefix(u.Path, "/")
		if u.Host == "" || key == "" {
			return nil, fmt.Errorf("s3 dataset URI needs bucket and key: %q", uri)
		}
		return NewS3Source(ctx, u.Host, key, s3cfg)
	case "sqlite":
		path := u.Host + u.Path
		if u.Opaque != "" {
			path = u.Opaque
		}
		return NewSQLiteSource(path, u.Query().Get("table"))
	default:
		return nil, fmt.Errorf("unsupported dataset scheme %q", u.Scheme)
	}
}

// FileSource reads a CSV file from local disk.
type FileSource struct {
	path string
}

func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

func (f *FileSource) Name() string { return f.path }

func (f *FileSource) ModTime(ctx context.Context) (time.Time, error) {
	info, err := os.Stat(f.path)
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

func (f *FileSource) Records(ctx context.Context) (RecordReader, error) {
	file, err := os.Open(f.path)
	if err != nil {
		return nil, err
	}
	return newCSVRecords(file), nil
}

type csvRecords struct {
	reader *csv.Reader
	closer io.Closer
}

func newCSVRecords(rc io.ReadCloser) *csvRecords {
	r := csv.NewReader(rc)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	return &csvRecords{reader: r, closer: rc}
}

func (c *csvRecords) Read() ([]string, error) { return c.reader.Read() }

func (c *csvRecords) Close() error { return c.closer.Close() }
