package sim

import (
	"bytes"
	"log/slog"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/route"

	"github.com/astrolab/voquery/internal/middleware"
)

func newTestEngine() *route.Engine {
	dataset := NewDataset(100)
	store := NewJobStore(time.Millisecond, dataset.Execute)
	h := server.New()
	SetupRoutes(h, NewHandler(store, dataset))
	return h.Engine
}

func formBody(values url.Values) (*ut.Body, ut.Header) {
	encoded := values.Encode()
	return &ut.Body{Body: strings.NewReader(encoded), Len: len(encoded)},
		ut.Header{Key: "Content-Type", Value: "application/x-www-form-urlencoded"}
}

func TestRoutesServeTAPSurface(t *testing.T) {
	engine := newTestEngine()

	resp := ut.PerformRequest(engine, "GET", "/ping", nil).Result()
	if resp.StatusCode() != 200 {
		t.Errorf("GET /ping status = %d", resp.StatusCode())
	}
	if resp.Header.Get(middleware.RequestIDKey) == "" {
		t.Error("GET /ping response has no request ID")
	}

	body, header := formBody(url.Values{"QUERY": {"SELECT * FROM sascat.observation"}})
	resp = ut.PerformRequest(engine, "POST", "/sync", body, header).Result()
	if resp.StatusCode() != 200 {
		t.Fatalf("POST /sync status = %d", resp.StatusCode())
	}
	if !strings.Contains(string(resp.Body()), "<VOTABLE") {
		t.Errorf("POST /sync body is not a VOTable: %.100s", resp.Body())
	}

	resp = ut.PerformRequest(engine, "GET", "/tables", nil).Result()
	if resp.StatusCode() != 200 {
		t.Errorf("GET /tables status = %d", resp.StatusCode())
	}
	if !strings.Contains(string(resp.Body()), "sascat.observation") {
		t.Errorf("GET /tables body missing schema rows: %.100s", resp.Body())
	}

	resp = ut.PerformRequest(engine, "GET", "/async/no-such-job", nil).Result()
	if resp.StatusCode() != 404 {
		t.Errorf("GET /async/no-such-job status = %d, want 404", resp.StatusCode())
	}
}

func TestRequestLoggingSkipsPing(t *testing.T) {
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, nil)))
	defer slog.SetDefault(prev)

	engine := newTestEngine()

	ut.PerformRequest(engine, "GET", "/ping", nil)
	if buf.Len() != 0 {
		t.Errorf("GET /ping was logged: %s", buf.String())
	}

	ut.PerformRequest(engine, "GET", "/tables", nil)
	logged := buf.String()
	if !strings.Contains(logged, "request completed") || !strings.Contains(logged, "/tables") {
		t.Errorf("GET /tables missing from request log: %q", logged)
	}
}
