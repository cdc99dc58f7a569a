package dataset

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testHeader = "Row ID,Order Date,Region,Category,Sub-Category,Product Name,Sales,Quantity,Discount,Profit"

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "superstore.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRead_ValidCSV(t *testing.T) {
	path := writeCSV(t, testHeader+`
1,11/8/2016,South,Furniture,Bookcases,"Bush Somerset Collection Bookcase",261.96,2,0,41.9136
2,2017-06-12,West,Office Supplies,Labels,"Self-Adhesive Address Labels",14.62,2,0,6.8714
3,not-a-date,East,Technology,Phones,"Apple iPhone",907.152,6,0.2,-90.7152
`)

	rows, err := Read(context.Background(), NewFileSource(path))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("len(rows) = %d, want 3", len(rows))
	}

	first := rows[0]
	if !first.HasDate || first.Year != 2016 || first.Month != 11 {
		t.Errorf("first row date = %v/%d/%d, want 2016-11", first.HasDate, first.Year, first.Month)
	}
	if first.Region != "South" || first.SubCategory != "Bookcases" || first.ProductName != "Bush Somerset Collection Bookcase" {
		t.Errorf("first row strings = %+v", first)
	}
	if first.Sales != 261.96 || first.Quantity != 2 || first.Profit != 41.9136 {
		t.Errorf("first row numbers = %+v", first)
	}

	if rows[1].Year != 2017 || rows[1].Month != 6 {
		t.Errorf("ISO date parsed as %d-%d", rows[1].Year, rows[1].Month)
	}

	bad := rows[2]
	if bad.HasDate || bad.Year != 0 || bad.Month != 0 {
		t.Errorf("unparseable date should be missing, got %+v", bad)
	}
	if bad.Discount != 0.2 || bad.Profit != -90.7152 {
		t.Errorf("row with bad date should keep its values, got %+v", bad)
	}
}

func TestRead_MissingColumn(t *testing.T) {
	path := writeCSV(t, "Order Date,Region,Category,Product Name,Sales,Profit,Quantity\n1/1/2016,East,Tech,Phone,1,1,1\n")

	_, err := Read(context.Background(), NewFileSource(path))
	if !errors.Is(err, ErrMissingColumn) {
		t.Fatalf("error = %v, want ErrMissingColumn", err)
	}
	for _, col := range []string{"Sub-Category", "Discount"} {
		if !strings.Contains(err.Error(), col) {
			t.Errorf("error %q should name %q", err, col)
		}
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name    string
		csv     string
		wantErr error
		wantMsg string
	}{
		{name: "empty file", csv: "", wantErr: ErrEmptyDataset},
		{name: "header only", csv: testHeader + "\n", wantErr: ErrEmptyDataset},
		{
			name:    "invalid sales",
			csv:     testHeader + "\n1,1/2/2016,East,Tech,Phones,Phone,abc,1,0,1\n",
			wantMsg: `line 2: column "Sales"`,
		},
		{
			name:    "invalid quantity on later line",
			csv:     testHeader + "\n1,1/2/2016,East,Tech,Phones,Phone,1,1,0,1\n2,1/2/2016,East,Tech,Phones,Phone,1,x,0,1\n",
			wantMsg: `line 3: column "Quantity"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(context.Background(), NewFileSource(writeCSV(t, tt.csv)))
			if err == nil {
				t.Fatal("expected error")
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if tt.wantMsg != "" && !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error %q should contain %q", err, tt.wantMsg)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	_, err := Read(context.Background(), NewFileSource(filepath.Join(t.TempDir(), "nope.csv")))
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("error = %v, want os.ErrNotExist", err)
	}
}

func TestRead_EmptyNumericCellsAreZero(t *testing.T) {
	path := writeCSV(t, testHeader+"\n1,1/2/2016,East,Tech,Phones,Phone,,,,\n")

	rows, err := Read(context.Background(), NewFileSource(path))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if rows[0].Sales != 0 || rows[0].Profit != 0 || rows[0].Quantity != 0 {
		t.Errorf("empty cells should read as 0, got %+v", rows[0])
	}
}

func TestRead_NaNCellsAreZero(t *testing.T) {
	path := writeCSV(t, testHeader+`
1,1/2/2016,East,Tech,Phones,Phone,100,1,0,20
2,1/3/2016,East,Tech,Phones,Phone,NaN,2,nan,NAN
`)

	rows, err := Read(context.Background(), NewFileSource(path))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len(rows) = %d, want 2", len(rows))
	}
	got := rows[1]
	if got.Sales != 0 || got.Profit != 0 || got.Discount != 0 || got.Quantity != 2 {
		t.Errorf("NaN cells should read as 0, got %+v", got)
	}
}

func TestRead_InfiniteAmounts(t *testing.T) {
	for _, cell := range []string{"Inf", "+Inf", "-inf", "Infinity"} {
		t.Run(cell, func(t *testing.T) {
			path := writeCSV(t, testHeader+"\n1,1/2/2016,East,Tech,Phones,Phone,"+cell+",1,0,1\n")

			_, err := Read(context.Background(), NewFileSource(path))
			if err == nil || !strings.Contains(err.Error(), `column "Sales"`) {
				t.Errorf("error = %v, want invalid Sales", err)
			}
		})
	}
}

func TestRead_PreservesOrderAcrossBatches(t *testing.T) {
	var b strings.Builder
	b.WriteString(testHeader + "\n")
	n := batchSize*2 + 17
	for i := 0; i < n; i++ {
		fmt.Fprintf(&b, "%d,1/2/2016,East,Tech,Phones,P%d,%d,1,0,0\n", i, i, i)
	}

	rows, err := Read(context.Background(), NewFileSource(writeCSV(t, b.String())))
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(rows) != n {
		t.Fatalf("len(rows) = %d, want %d", len(rows), n)
	}
	for i, r := range rows {
		if r.Sales != float64(i) {
			t.Fatalf("row %d has sales %v; order not preserved", i, r.Sales)
		}
	}
}

func TestRead_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Read(ctx, NewFileSource(writeCSV(t, testHeader+"\n1,1/2/2016,East,Tech,Phones,Phone,1,1,0,1\n")))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestParseOrderDate(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"11/8/2016", time.Date(2016, 11, 8, 0, 0, 0, 0, time.UTC), true},
		{"01/09/2015", time.Date(2015, 1, 9, 0, 0, 0, 0, time.UTC), true},
		{"2014-03-01", time.Date(2014, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"2014-03-01 10:30:00", time.Date(2014, 3, 1, 10, 30, 0, 0, time.UTC), true},
		{"Mar 5, 2017", time.Date(2017, 3, 5, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"13/45/2016", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseOrderDate(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && !got.Equal(tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestLoader_Cache(t *testing.T) {
	path := writeCSV(t, testHeader+"\n1,1/2/2016,East,Tech,Phones,Phone,10,1,0,2\n")
	cacheDir := t.TempDir()
	cache := NewCache(cacheDir)
	loader := NewLoader(NewFileSource(path), cache, discardLogger())

	first, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("first Load() error = %v", err)
	}

	entries, _ := filepath.Glob(filepath.Join(cacheDir, "*.gob.sz"))
	if len(entries) != 1 {
		t.Fatalf("expected one cache file, got %v", entries)
	}

	cached, err := cache.Load(path, first.SourceTime())
	if err != nil {
		t.Fatalf("cache.Load() error = %v", err)
	}
	if got, want := cached.Row(0), first.Row(0); cached.Len() != 1 || got.Sales != want.Sales ||
		got.ProductName != want.ProductName || !got.OrderDate.Equal(want.OrderDate) || got.Year != want.Year {
		t.Errorf("cached rows differ: %+v vs %+v", got, want)
	}

	if _, err := cache.Load(path, first.SourceTime().Add(time.Second)); !errors.Is(err, ErrCacheMiss) {
		t.Errorf("stale entry should miss, got %v", err)
	}

	// Rewrite the source with a newer mtime; the loader must re-read it.
	if err := os.WriteFile(path, []byte(testHeader+"\n1,1/2/2016,East,Tech,Phones,Phone,99,1,0,2\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatal(err)
	}

	second, err := loader.Load(context.Background())
	if err != nil {
		t.Fatalf("second Load() error = %v", err)
	}
	if second.Row(0).Sales != 99 {
		t.Errorf("expected fresh read after source change, got sales %v", second.Row(0).Sales)
	}
}

func TestCache_MissingEntry(t *testing.T) {
	_, err := NewCache(t.TempDir()).Load("anything.csv", time.Now())
	if !errors.Is(err, ErrCacheMiss) {
		t.Errorf("error = %v, want ErrCacheMiss", err)
	}
}
