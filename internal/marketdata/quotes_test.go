package marketdata

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/httputil"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "fatal", LogFormat: "json"})
}

func testHTTPClient() *httputil.Client {
	return httputil.New(&config.Config{}, testLogger()).DisableRetry()
}

func newTestQuotesClient(baseURL string) *QuotesClient {
	return NewQuotesClient(config.QuotesConfig{BaseURL: baseURL, APIKey: "k1"}, testHTTPClient(), testLogger())
}

func TestQuotesEndpoint(t *testing.T) {
	c := newTestQuotesClient("https://api.example.com")
	from := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2025, 8, 26, 0, 0, 0, 0, time.UTC)

	got := c.endpoint("ACME", from, to)
	want := "https://api.example.com/v1/stocks/candles/D/ACME?from=2025-08-01&to=2025-08-26&token=k1"
	if got != want {
		t.Errorf("endpoint() = %q, want %q", got, want)
	}
}

func candlesFixture(days ...time.Time) string {
	ts := ""
	opens, highs, lows, closes, volumes := "", "", "", "", ""
	for i, d := range days {
		if i > 0 {
			ts, opens, highs, lows, closes, volumes = ts+",", opens+",", highs+",", lows+",", closes+",", volumes+","
		}
		ts += fmt.Sprintf("%d", d.Unix())
		opens += fmt.Sprintf("%.1f", 100.0+float64(i))
		highs += fmt.Sprintf("%.1f", 101.0+float64(i))
		lows += fmt.Sprintf("%.1f", 99.0+float64(i))
		closes += fmt.Sprintf("%.1f", 100.5+float64(i))
		volumes += "1000"
	}
	return fmt.Sprintf(`{"s":"ok","t":[%s],"o":[%s],"h":[%s],"l":[%s],"c":[%s],"v":[%s]}`,
		ts, opens, highs, lows, closes, volumes)
}

func TestFetchDailyParsesCandles(t *testing.T) {
	day1 := time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2025, 8, 4, 0, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/stocks/candles/D/ACME" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		fmt.Fprint(w, candlesFixture(day1, day2))
	}))
	defer server.Close()

	c := newTestQuotesClient(server.URL)
	bars, err := c.FetchDaily(context.Background(), "ACME", day1, day2)
	if err != nil {
		t.Fatalf("FetchDaily() error = %v", err)
	}
	if len(bars) != 2 {
		t.Fatalf("got %d bars, want 2", len(bars))
	}

	if bars[0].Ticker != "ACME" {
		t.Errorf("Ticker = %q, want ACME", bars[0].Ticker)
	}
	if !bars[0].Day.Equal(day1) {
		t.Errorf("Day = %v, want %v", bars[0].Day, day1)
	}
	if bars[0].Close != 100.5 {
		t.Errorf("Close = %v, want 100.5", bars[0].Close)
	}
	if bars[1].High != 102.0 {
		t.Errorf("High = %v, want 102.0", bars[1].High)
	}
	if bars[1].Volume != 1000 {
		t.Errorf("Volume = %v, want 1000", bars[1].Volume)
	}
}

func TestFetchDailyNoData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"s":"no_data"}`)
	}))
	defer server.Close()

	c := newTestQuotesClient(server.URL)
	bars, err := c.FetchDaily(context.Background(), "ACME", time.Now().AddDate(0, 0, -7), time.Now())
	if err != nil {
		t.Fatalf("FetchDaily() error = %v", err)
	}
	if bars != nil {
		t.Errorf("got %d bars, want none", len(bars))
	}
}

func TestFetchDailyNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	c := newTestQuotesClient(server.URL)
	bars, err := c.FetchDaily(context.Background(), "ACME", time.Now().AddDate(0, 0, -7), time.Now())
	if err != nil {
		t.Fatalf("FetchDaily() error = %v", err)
	}
	if bars != nil {
		t.Errorf("got %d bars, want none", len(bars))
	}
}

func TestFetchDailyUpstreamFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := newTestQuotesClient(server.URL)
	if _, err := c.FetchDaily(context.Background(), "ACME", time.Now().AddDate(0, 0, -7), time.Now()); err == nil {
		t.Fatal("expected error for 500 response")
	}
}

func TestFetchDailyErrorStatusField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"s":"error"}`)
	}))
	defer server.Close()

	c := newTestQuotesClient(server.URL)
	if _, err := c.FetchDaily(context.Background(), "ACME", time.Now().AddDate(0, 0, -7), time.Now()); err == nil {
		t.Fatal("expected error for error status")
	}
}

func TestFetchDailyArrayMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"s":"ok","t":[1722470400,1722556800],"o":[100],"h":[101],"l":[99],"c":[100.5],"v":[1000]}`)
	}))
	defer server.Close()

	c := newTestQuotesClient(server.URL)
	if _, err := c.FetchDaily(context.Background(), "ACME", time.Now().AddDate(0, 0, -7), time.Now()); err == nil {
		t.Fatal("expected error for mismatched candle arrays")
	}
}
