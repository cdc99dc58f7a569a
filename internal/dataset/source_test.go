package dataset

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"sales-dashboard/internal/config"
)

func TestOpenSource(t *testing.T) {
	tests := []struct {
		uri      string
		wantName string
		wantErr  bool
	}{
		{uri: "superstore.csv", wantName: "superstore.csv"},
		{uri: "data/superstore.csv", wantName: "data/superstore.csv"},
		{uri: "file:///srv/data/superstore.csv", wantName: "/srv/data/superstore.csv"},
		{uri: "sqlite://data/sales.db?table=sales", wantName: "sqlite://data/sales.db?table=sales"},
		{uri: "sqlite://data/sales.db", wantName: "sqlite://data/sales.db?table=orders"},
		{uri: "sqlite://data/sales.db?table=orders-archive", wantErr: true},
		{uri: "s3://bucket-only", wantErr: true},
		{uri: "ftp://host/file.csv", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			src, err := OpenSource(context.Background(), tt.uri, config.S3Config{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("OpenSource() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && src.Name() != tt.wantName {
				t.Errorf("Name() = %q, want %q", src.Name(), tt.wantName)
			}
		})
	}
}

func TestSQLiteSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sales.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	stmts := []string{
		`CREATE TABLE orders ("Order Date" TEXT, "Region" TEXT, "Category" TEXT, "Sub-Category" TEXT,
			"Product Name" TEXT, "Sales" REAL, "Profit" REAL, "Quantity" INTEGER, "Discount" REAL)`,
		`INSERT INTO orders VALUES ('2016-11-08', 'South', 'Furniture', 'Chairs', 'Chair A', 731.94, 219.582, 3, 0)`,
		`INSERT INTO orders VALUES ('garbage', 'West', 'Technology', 'Phones', 'Phone B', 100, NULL, 1, 0.2)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("exec %q: %v", stmt, err)
		}
	}
	db.Close()

	src, err := NewSQLiteSource(path, "")
	if err != nil {
		t.Fatal(err)
	}

	rows, err := Read(context.Background(), src)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	if rows[0].Year != 2016 || rows[0].Sales != 731.94 || rows[0].Quantity != 3 {
		t.Errorf("first row = %+v", rows[0])
	}
	if rows[1].HasDate || rows[1].Profit != 0 {
		t.Errorf("second row should have a missing date and zero profit, got %+v", rows[1])
	}

	if mod, err := src.ModTime(context.Background()); err != nil || mod.IsZero() {
		t.Errorf("ModTime() = %v, %v", mod, err)
	}
}

func TestSQLiteSource_MissingFileIsNotCreated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.db")
	src, err := NewSQLiteSource(path, "orders")
	if err != nil {
		t.Fatal(err)
	}

	if _, err := src.Records(context.Background()); err == nil {
		t.Fatal("expected error for missing database")
	}
	if _, err := src.ModTime(context.Background()); err == nil {
		t.Error("database file should not have been created")
	}
}

type fakeObjects struct {
	body         string
	lastModified time.Time
	err          error
	gotKey       string
}

func (f *fakeObjects) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.gotKey = aws.ToString(in.Bucket) + "/" + aws.ToString(in.Key)
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(f.body))}, nil
}

func (f *fakeObjects) HeadObject(ctx context.Context, in *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &s3.HeadObjectOutput{LastModified: aws.Time(f.lastModified)}, nil
}

func TestS3Source(t *testing.T) {
	modified := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	fake := &fakeObjects{
		body:         testHeader + "\n1,3/4/2015,Central,Technology,Phones,Phone,50,1,0,5\n",
		lastModified: modified,
	}
	src := newS3Source(fake, "sales", "2024/superstore.csv")

	if src.Name() != "s3://sales/2024/superstore.csv" {
		t.Errorf("Name() = %q", src.Name())
	}

	mod, err := src.ModTime(context.Background())
	if err != nil || !mod.Equal(modified) {
		t.Errorf("ModTime() = %v, %v", mod, err)
	}

	rows, err := Read(context.Background(), src)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if fake.gotKey != "sales/2024/superstore.csv" {
		t.Errorf("requested %q", fake.gotKey)
	}
	if len(rows) != 1 || rows[0].Region != "Central" || rows[0].Year != 2015 {
		t.Errorf("rows = %+v", rows)
	}
}

func TestS3Source_Error(t *testing.T) {
	src := newS3Source(&fakeObjects{err: errors.New("access denied")}, "sales", "x.csv")

	if _, err := Read(context.Background(), src); err == nil || !strings.Contains(err.Error(), "access denied") {
		t.Errorf("Read() error = %v, want access denied", err)
	}
}
