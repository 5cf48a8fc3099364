package tap

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/cloudwego/hertz/pkg/protocol"

	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
)

// fakeDoer routes requests to a handler instead of the network
type fakeDoer struct {
	handler func(req *protocol.Request, resp *protocol.Response) error
	calls   atomic.Int32
}

func (f *fakeDoer) Do(ctx context.Context, req *protocol.Request, resp *protocol.Response) error {
	f.calls.Add(1)
	return f.handler(req, resp)
}

const base = "http://tap.example.org/tap"

func newTestClient(handler func(req *protocol.Request, resp *protocol.Response) error) (*Client, *fakeDoer) {
	fake := &fakeDoer{handler: handler}
	return newClient(fake, base, nil), fake
}

const resultVOTable = `<?xml version="1.0"?>
<VOTABLE version="1.4">
  <RESOURCE type="results">
    <INFO name="QUERY_STATUS" value="OK"/>
    <TABLE>
      <FIELD name="obs_id" datatype="char"/>
      <DATA><TABLEDATA><TR><TD>obs-42</TD></TR></TABLEDATA></DATA>
    </TABLE>
  </RESOURCE>
</VOTABLE>`

func TestNormalizeBaseURL(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"http://archive.example.org/tap", "http://archive.example.org/tap", false},
		{"http://archive.example.org/tap/", "http://archive.example.org/tap", false},
		{"archive.example.org/tap", "http://archive.example.org/tap", false},
		{"https://archive.example.org", "https://archive.example.org", false},
		{"://bad", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := normalizeBaseURL(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("normalizeBaseURL(%q) = %q, want error", tt.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("normalizeBaseURL(%q) error: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("normalizeBaseURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuery(t *testing.T) {
	c, _ := newTestClient(func(req *protocol.Request, resp *protocol.Response) error {
		if got := string(req.URI().Path()); got != "/tap/sync" {
			t.Errorf("path = %q, want /tap/sync", got)
		}
		body := string(req.Body())
		if !strings.Contains(body, "LANG=ADQL") || !strings.Contains(body, "QUERY=") {
			t.Errorf("form body missing TAP parameters: %q", body)
		}
		resp.SetStatusCode(200)
		resp.SetBodyString(resultVOTable)
		return nil
	})

	table, err := c.Query(context.Background(), "SELECT * FROM ivoa.obscore")
	if err != nil {
		t.Fatalf("Query() error: %v", err)
	}
	if table.Len() != 1 || table.Rows[0][0] != "obs-42" {
		t.Errorf("unexpected table: %+v", table)
	}
}

func TestQueryEmptyRejected(t *testing.T) {
	c, fake := newTestClient(func(req *protocol.Request, resp *protocol.Response) error {
		return nil
	})
	_, err := c.Query(context.Background(), "   ")
	if !domain.IsInvalidQuery(err) {
		t.Fatalf("Query() error = %v, want ErrInvalidQuery", err)
	}
	if fake.calls.Load() != 0 {
		t.Error("empty query must be rejected before any HTTP call")
	}
}

func TestQueryRemoteError(t *testing.T) {
	c, _ := newTestClient(func(req *protocol.Request, resp *protocol.Response) error {
		resp.SetStatusCode(400)
		resp.SetBodyString("bad ADQL")
		return nil
	})
	_, err := c.Query(context.Background(), "SELECT broken")
	if !domain.IsRemote(err) {
		t.Fatalf("Query() error = %v, want ErrRemote", err)
	}
	if !strings.Contains(err.Error(), "400") {
		t.Errorf("error %v does not carry HTTP status", err)
	}
}

func jobJSON(id, phase string, extra string) string {
	doc := fmt.Sprintf(`{"jobId":%q,"phase":%q,"query":"SELECT 1"`, id, phase)
	if extra != "" {
		doc += "," + extra
	}
	return doc + "}"
}

func TestSubmitJobRedirect(t *testing.T) {
	c, _ := newTestClient(func(req *protocol.Request, resp *protocol.Response) error {
		path := string(req.URI().Path())
		switch {
		case path == "/tap/async":
			if !strings.Contains(string(req.Body()), "PHASE=RUN") {
				t.Errorf("submit body missing PHASE=RUN: %q", req.Body())
			}
			resp.SetStatusCode(303)
			resp.Header.Set("Location", base+"/async/job-7")
		case path == "/tap/async/job-7":
			resp.SetStatusCode(200)
			resp.SetBodyString(jobJSON("job-7", "QUEUED", ""))
		default:
			t.Errorf("unexpected path %q", path)
		}
		return nil
	})

	job, err := c.SubmitJob(context.Background(), "SELECT 1")
	if err != nil {
		t.Fatalf("SubmitJob() error: %v", err)
	}
	if job.JobID != "job-7" || job.Phase != entity.PhaseQueued {
		t.Errorf("unexpected job: %+v", job)
	}
}

func TestSubmitJobDocument(t *testing.T) {
	c, _ := newTestClient(func(req *protocol.Request, resp *protocol.Response) error {
		resp.SetStatusCode(200)
		resp.SetBodyString(jobJSON("job-9", "EXECUTING", `"ownerId":"anon"`))
		return nil
	})

	job, err := c.SubmitJob(context.Background(), "SELECT 1")
	if err != nil {
		t.Fatalf("SubmitJob() error: %v", err)
	}
	if job.JobID != "job-9" || job.Phase != entity.PhaseExecuting || job.OwnerID != "anon" {
		t.Errorf("unexpected job: %+v", job)
	}
}

func TestPhase(t *testing.T) {
	c, _ := newTestClient(func(req *protocol.Request, resp *protocol.Response) error {
		resp.SetStatusCode(200)
		resp.SetBodyString("EXECUTING\n")
		return nil
	})
	phase, err := c.Phase(context.Background(), "job-1")
	if err != nil {
		t.Fatalf("Phase() error: %v", err)
	}
	if phase != entity.PhaseExecuting {
		t.Errorf("Phase() = %q", phase)
	}
}

func TestPhaseNotFound(t *testing.T) {
	c, _ := newTestClient(func(req *protocol.Request, resp *protocol.Response) error {
		resp.SetStatusCode(404)
		return nil
	})
	_, err := c.Phase(context.Background(), "gone")
	if !domain.IsNotFound(err) {
		t.Fatalf("Phase() error = %v, want ErrNotFound", err)
	}
}

func TestWaitForJobCompletes(t *testing.T) {
	var polls atomic.Int32
	c, _ := newTestClient(func(req *protocol.Request, resp *protocol.Response) error {
		path := string(req.URI().Path())
		switch {
		case strings.HasSuffix(path, "/phase"):
			resp.SetStatusCode(200)
			if polls.Add(1) < 3 {
				resp.SetBodyString("EXECUTING")
			} else {
				resp.SetBodyString("COMPLETED")
			}
		case strings.HasSuffix(path, "/job-3"):
			resp.SetStatusCode(200)
			resp.SetBodyString(jobJSON("job-3", "COMPLETED", `"resultUrl":"`+base+`/async/job-3/results/result"`))
		default:
			t.Errorf("unexpected path %q", path)
		}
		return nil
	})

	job, err := c.WaitForJob(context.Background(), "job-3", WaitOptions{Interval: time.Millisecond})
	if err != nil {
		t.Fatalf("WaitForJob() error: %v", err)
	}
	if job.Phase != entity.PhaseCompleted {
		t.Errorf("job phase = %q", job.Phase)
	}
	if polls.Load() != 3 {
		t.Errorf("polled %d times, want 3", polls.Load())
	}
}

func TestWaitForJobError(t *testing.T) {
	c, _ := newTestClient(func(req *protocol.Request, resp *protocol.Response) error {
		path := string(req.URI().Path())
		resp.SetStatusCode(200)
		if strings.HasSuffix(path, "/phase") {
			resp.SetBodyString("ERROR")
		} else {
			resp.SetBodyString(jobJSON("job-4", "ERROR", `"errorSummary":"table does not exist"`))
		}
		return nil
	})

	_, err := c.WaitForJob(context.Background(), "job-4", WaitOptions{Interval: time.Millisecond})
	if !domain.IsJobFailed(err) {
		t.Fatalf("WaitForJob() error = %v, want ErrJobFailed", err)
	}
	if !strings.Contains(err.Error(), "table does not exist") {
		t.Errorf("error %v does not carry server summary", err)
	}
}

func TestWaitForJobAborted(t *testing.T) {
	c, _ := newTestClient(func(req *protocol.Request, resp *protocol.Response) error {
		resp.SetStatusCode(200)
		if strings.HasSuffix(string(req.URI().Path()), "/phase") {
			resp.SetBodyString("ABORTED")
		} else {
			resp.SetBodyString(jobJSON("job-5", "ABORTED", ""))
		}
		return nil
	})

	_, err := c.WaitForJob(context.Background(), "job-5", WaitOptions{Interval: time.Millisecond})
	if !domain.IsJobAborted(err) {
		t.Fatalf("WaitForJob() error = %v, want ErrJobAborted", err)
	}
}

func TestWaitForJobContextCanceled(t *testing.T) {
	c, _ := newTestClient(func(req *protocol.Request, resp *protocol.Response) error {
		resp.SetStatusCode(200)
		resp.SetBodyString("EXECUTING")
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.WaitForJob(ctx, "job-6", WaitOptions{Interval: time.Hour})
	if err == nil {
		t.Fatal("WaitForJob() should fail when context is canceled")
	}
}

func TestRunAndWait(t *testing.T) {
	c, _ := newTestClient(func(req *protocol.Request, resp *protocol.Response) error {
		path := string(req.URI().Path())
		switch {
		case path == "/tap/async":
			resp.SetStatusCode(200)
			resp.SetBodyString(jobJSON("job-8", "EXECUTING", ""))
		case strings.HasSuffix(path, "/phase"):
			resp.SetStatusCode(200)
			resp.SetBodyString("COMPLETED")
		case strings.HasSuffix(path, "/results/result"):
			resp.SetStatusCode(200)
			resp.SetBodyString(resultVOTable)
		case strings.HasSuffix(path, "/job-8"):
			resp.SetStatusCode(200)
			resp.SetBodyString(jobJSON("job-8", "COMPLETED", ""))
		default:
			t.Errorf("unexpected path %q", path)
		}
		return nil
	})

	table, err := c.RunAndWait(context.Background(), "SELECT 1", WaitOptions{Interval: time.Millisecond})
	if err != nil {
		t.Fatalf("RunAndWait() error: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("unexpected table: %+v", table)
	}
}

func TestJobResultsRequiresCompleted(t *testing.T) {
	c, fake := newTestClient(func(req *protocol.Request, resp *protocol.Response) error {
		return nil
	})
	_, err := c.JobResults(context.Background(), &entity.Job{JobID: "j", Phase: entity.PhaseExecuting})
	if !domain.IsInvalidQuery(err) {
		t.Fatalf("JobResults() error = %v, want ErrInvalidQuery", err)
	}
	if fake.calls.Load() != 0 {
		t.Error("JobResults on a running job must not hit the network")
	}
}

func TestAbortPostsPhase(t *testing.T) {
	c, _ := newTestClient(func(req *protocol.Request, resp *protocol.Response) error {
		if got := string(req.URI().Path()); got != "/tap/async/job-2/phase" {
			t.Errorf("path = %q", got)
		}
		if !strings.Contains(string(req.Body()), "PHASE=ABORT") {
			t.Errorf("body missing PHASE=ABORT: %q", req.Body())
		}
		resp.SetStatusCode(303)
		resp.Header.Set("Location", base+"/async/job-2")
		return nil
	})
	if err := c.Abort(context.Background(), "job-2"); err != nil {
		t.Fatalf("Abort() error: %v", err)
	}
}

func TestJobIDFromLocation(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://tap.example.org/tap/async/12345", "12345"},
		{"http://tap.example.org/tap/async/12345/", "12345"},
		{"/tap/async/abc-def", "abc-def"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := jobIDFromLocation(tt.in); got != tt.want {
			t.Errorf("jobIDFromLocation(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
