package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"sales-dashboard/internal/config"
)

const testCSV = `Row ID,Order Date,Region,Category,Sub-Category,Product Name,Sales,Quantity,Discount,Profit
1,11/8/2016,South,Furniture,Bookcases,Bush Somerset Collection Bookcase,261.96,2,0,41.9136
2,6/12/2016,West,Office Supplies,Labels,Self-Adhesive Address Labels,14.62,2,0,6.8714
3,10/11/2015,South,Furniture,Tables,Bretford Rectangular Table,957.5775,5,0.45,-383.031
4,not a date,East,Technology,Phones,Mitel 5320 IP Phone,907.152,6,0.2,90.7152
5,4/15/2017,East,Technology,Phones,Konftel 250 Conference Phone,911.424,4,0.2,68.3568
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig(t *testing.T, csv string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "superstore.csv")
	if csv != "" {
		if err := os.WriteFile(path, []byte(csv), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	return &config.Config{
		Server: config.ServerConfig{
			Host:            "localhost",
			Port:            8084,
			ReadTimeout:     time.Second,
			WriteTimeout:    time.Second,
			ShutdownTimeout: time.Second,
		},
		Dataset: config.DatasetConfig{
			URI:          path,
			LoadTimeout:  5 * time.Second,
			CacheEnabled: true,
			CacheDir:     filepath.Join(dir, "cache"),
		},
		Logger: config.LoggerConfig{Level: "error", Format: "text"},
		Security: config.SecurityConfig{
			EnableRateLimit: true,
			RateLimitRPS:    1000,
			RateLimitBurst:  1000,
			AllowedOrigins:  []string{"http://localhost:8084"},
			TrustedProxies:  []string{"127.0.0.1"},
		},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

func TestSetup_Routes(t *testing.T) {
	app, err := setup(context.Background(), testConfig(t, testCSV), testLogger())
	if err != nil {
		t.Fatalf("setup() error = %v", err)
	}
	if app.watcher != nil {
		t.Error("no watcher expected without a reload interval")
	}

	tests := []struct {
		method     string
		path       string
		wantStatus int
	}{
		{http.MethodGet, "/", http.StatusOK},
		{http.MethodGet, "/api/dashboard", http.StatusOK},
		{http.MethodGet, "/api/dashboard?region=West&year_from=2016&year_to=2016", http.StatusOK},
		{http.MethodGet, "/api/dashboard?region=North", http.StatusBadRequest},
		{http.MethodGet, "/api/filters", http.StatusOK},
		{http.MethodGet, "/health", http.StatusOK},
		{http.MethodGet, "/admin/stats", http.StatusOK},
		{http.MethodGet, "/deck.pptx", http.StatusOK},
		{http.MethodGet, "/sse/reset", http.StatusOK},
		{http.MethodGet, "/metrics", http.StatusOK},
		{http.MethodGet, "/missing", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			w := httptest.NewRecorder()

			app.handler.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if w.Header().Get("X-Request-ID") == "" {
				t.Error("missing X-Request-ID")
			}
			if w.Header().Get("X-Content-Type-Options") != "nosniff" {
				t.Error("missing security headers")
			}
		})
	}
}

func TestSetup_DashboardTotals(t *testing.T) {
	app, err := setup(context.Background(), testConfig(t, testCSV), testLogger())
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/dashboard?region=South", nil)
	w := httptest.NewRecorder()
	app.handler.ServeHTTP(w, req)

	var body struct {
		Data struct {
			RowCount int `json:"row_count"`
			KPIs     struct {
				TotalSales  float64 `json:"total_sales"`
				TotalProfit float64 `json:"total_profit"`
			} `json:"kpis"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}

	if body.Data.RowCount != 2 {
		t.Errorf("row_count = %d, want 2", body.Data.RowCount)
	}
	if diff := body.Data.KPIs.TotalSales - 1219.5375; diff > 1e-6 || diff < -1e-6 {
		t.Errorf("total_sales = %v, want 1219.5375", body.Data.KPIs.TotalSales)
	}
}

func TestSetup_UndatedRowsExcluded(t *testing.T) {
	app, err := setup(context.Background(), testConfig(t, testCSV), testLogger())
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()
	app.handler.ServeHTTP(w, req)

	var body struct {
		Data map[string]any `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Data["record_count"] != float64(5) || body.Data["missing_dates"] != float64(1) {
		t.Errorf("stats = %v", body.Data)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/dashboard?region=East", nil)
	w = httptest.NewRecorder()
	app.handler.ServeHTTP(w, req)
	if !strings.Contains(w.Body.String(), `"row_count":1`) {
		t.Errorf("undated East row should not match: %s", w.Body.String())
	}
}

func TestSetup_MetricsByRoute(t *testing.T) {
	app, err := setup(context.Background(), testConfig(t, testCSV), testLogger())
	if err != nil {
		t.Fatal(err)
	}

	app.handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))

	w := httptest.NewRecorder()
	app.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	body := w.Body.String()
	for _, want := range []string{
		`sales_dashboard_http_requests_total{code="200",route="GET /api/dashboard"} 1`,
		"sales_dashboard_dataset_rows 5",
		`sales_dashboard_dataset_loads_total{result="ok"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %q", want)
		}
	}
}

func TestSetup_MetricsDisabled(t *testing.T) {
	cfg := testConfig(t, testCSV)
	cfg.Metrics.Enabled = false

	app, err := setup(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	app.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusNotFound {
		t.Errorf("/metrics status = %d, want 404", w.Code)
	}
}

func TestSetup_Watcher(t *testing.T) {
	cfg := testConfig(t, testCSV)
	cfg.Dataset.ReloadInterval = time.Minute

	app, err := setup(context.Background(), cfg, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if app.watcher == nil {
		t.Fatal("watcher expected with a reload interval")
	}
}

func TestSetup_DatasetErrors(t *testing.T) {
	tests := []struct {
		name string
		csv  string
	}{
		{name: "missing file", csv: ""},
		{name: "header only", csv: "Row ID,Order Date,Region,Category,Sub-Category,Product Name,Sales,Quantity,Discount,Profit\n"},
		{name: "missing column", csv: "Order Date,Region\n1/1/2016,East\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := setup(context.Background(), testConfig(t, tt.csv), testLogger()); err == nil {
				t.Error("setup() should fail")
			}
		})
	}
}

func TestSetup_NaNAmountsStillEncode(t *testing.T) {
	csv := `Row ID,Order Date,Region,Category,Sub-Category,Product Name,Sales,Quantity,Discount,Profit
1,11/8/2016,South,Furniture,Bookcases,Bush Somerset Collection Bookcase,200,2,0,50
2,6/12/2016,South,Furniture,Chairs,Hon Deluxe Fabric Chair,NaN,2,0,NaN
`
	app, err := setup(context.Background(), testConfig(t, csv), testLogger())
	if err != nil {
		t.Fatal(err)
	}

	w := httptest.NewRecorder()
	app.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/dashboard", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var body struct {
		Data struct {
			RowCount int `json:"row_count"`
			KPIs     struct {
				TotalSales      float64 `json:"total_sales"`
				TotalProfit     float64 `json:"total_profit"`
				AvgProfitMargin float64 `json:"avg_profit_margin"`
			} `json:"kpis"`
		} `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("dashboard did not encode: %v", err)
	}
	if body.Data.RowCount != 2 || body.Data.KPIs.TotalSales != 200 || body.Data.KPIs.TotalProfit != 50 {
		t.Errorf("dashboard = %+v", body.Data)
	}
	if body.Data.KPIs.AvgProfitMargin != 25 {
		t.Errorf("avg_profit_margin = %v, want 25", body.Data.KPIs.AvgProfitMargin)
	}

	w = httptest.NewRecorder()
	app.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sse/reset", nil))
	if !strings.Contains(w.Body.String(), "datastar-patch-signals") {
		t.Errorf("reset stream did not patch signals:\n%s", w.Body.String())
	}
}
