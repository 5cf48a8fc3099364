// Package tap implements a client for the IVOA Table Access Protocol:
// synchronous queries, asynchronous UWS jobs, and result retrieval.
package tap

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cloudwego/hertz/pkg/app/client"
	"github.com/cloudwego/hertz/pkg/network/standard"
	"github.com/cloudwego/hertz/pkg/protocol"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/astrolab/voquery/internal/domain"
	"github.com/astrolab/voquery/internal/domain/entity"
	"github.com/astrolab/voquery/internal/votable"
)

// doer is the request seam; satisfied by *client.Client and by test fakes
type doer interface {
	Do(ctx context.Context, req *protocol.Request, resp *protocol.Response) error
}

// Client talks to one TAP service
type Client struct {
	client doer
	base   string
	logger *slog.Logger
}

// NewClient creates a TAP client for the service at base
func NewClient(base string, logger *slog.Logger) (*Client, error) {
	normalized, err := normalizeBaseURL(base)
	if err != nil {
		return nil, err
	}

	// Standard library dialer: netpoll does not support response body
	// streaming, which downloads rely on
	c, err := client.NewClient(
		client.WithDialTimeout(10*time.Second),
		client.WithMaxIdleConnDuration(60*time.Second),
		client.WithResponseBodyStream(true),
		client.WithDialer(standard.NewDialer()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	return newClient(c, normalized, logger), nil
}

// newClient wires an explicit doer; tests use this with a fake
func newClient(d doer, base string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{client: d, base: base, logger: logger}
}

// BaseURL returns the normalized service base URL
func (c *Client) BaseURL() string {
	return c.base
}

// normalizeBaseURL ensures a scheme and strips any trailing slash
func normalizeBaseURL(base string) (string, error) {
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return "", domain.NewInvalidQueryError("invalid service URL: " + base)
	}
	return strings.TrimRight(u.String(), "/"), nil
}

// Query runs a synchronous ADQL query and decodes the VOTable result
func (c *Client) Query(ctx context.Context, adql string) (*entity.Table, error) {
	if strings.TrimSpace(adql) == "" {
		return nil, domain.NewInvalidQueryError("query must not be empty")
	}

	form := url.Values{}
	form.Set("REQUEST", "doQuery")
	form.Set("LANG", "ADQL")
	form.Set("FORMAT", "votable")
	form.Set("QUERY", adql)

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.base + endpointSync)
	req.Header.SetContentTypeBytes([]byte("application/x-www-form-urlencoded"))
	req.SetBodyString(form.Encode())

	c.logger.Debug("sync query", "url", c.base+endpointSync, "query", adql)

	if err := c.client.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != consts.StatusOK {
		return nil, domain.NewRemoteError(resp.StatusCode(), string(resp.Body()))
	}

	return votable.Decode(bytes.NewReader(resp.Body()))
}

// SubmitJob submits an asynchronous query with PHASE=RUN and returns the
// job handle. Services answer either with a redirect whose Location names
// the job, or with a JSON job document.
func (c *Client) SubmitJob(ctx context.Context, adql string) (*entity.Job, error) {
	if strings.TrimSpace(adql) == "" {
		return nil, domain.NewInvalidQueryError("query must not be empty")
	}

	form := url.Values{}
	form.Set("REQUEST", "doQuery")
	form.Set("LANG", "ADQL")
	form.Set("FORMAT", "votable")
	form.Set("PHASE", "RUN")
	form.Set("QUERY", adql)

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.base + endpointAsync)
	req.Header.SetContentTypeBytes([]byte("application/x-www-form-urlencoded"))
	req.Header.Set("Accept", "application/json")
	req.SetBodyString(form.Encode())

	if err := c.client.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	status := resp.StatusCode()
	switch {
	case status == consts.StatusSeeOther, status == consts.StatusFound:
		location := string(resp.Header.Peek("Location"))
		jobID := jobIDFromLocation(location)
		if jobID == "" {
			return nil, domain.NewInternalError(
				fmt.Errorf("job redirect without usable Location: %q", location))
		}
		return c.GetJob(ctx, jobID)
	case status >= 200 && status < 300:
		job, err := decodeJob(resp.Body())
		if err != nil {
			return nil, err
		}
		c.logger.Debug("job submitted", "job_id", job.JobID, "phase", job.Phase)
		return job, nil
	default:
		return nil, domain.NewRemoteError(status, string(resp.Body()))
	}
}

// GetJob fetches the current job document
func (c *Client) GetJob(ctx context.Context, jobID string) (*entity.Job, error) {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(c.base + fmt.Sprintf(endpointJob, jobID))
	req.Header.Set("Accept", "application/json")

	if err := c.client.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() == consts.StatusNotFound {
		return nil, domain.NewNotFoundError("job", jobID)
	}
	if resp.StatusCode() != consts.StatusOK {
		return nil, domain.NewRemoteError(resp.StatusCode(), string(resp.Body()))
	}

	return decodeJob(resp.Body())
}

// Phase fetches just the job phase (plain text endpoint)
func (c *Client) Phase(ctx context.Context, jobID string) (entity.Phase, error) {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(c.base + fmt.Sprintf(endpointJobPhase, jobID))

	if err := c.client.Do(ctx, req, resp); err != nil {
		return entity.PhaseUnknown, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() == consts.StatusNotFound {
		return entity.PhaseUnknown, domain.NewNotFoundError("job", jobID)
	}
	if resp.StatusCode() != consts.StatusOK {
		return entity.PhaseUnknown, domain.NewRemoteError(resp.StatusCode(), string(resp.Body()))
	}

	phase := entity.Phase(strings.TrimSpace(string(resp.Body())))
	if !phase.Valid() {
		return entity.PhaseUnknown, domain.NewInternalError(
			fmt.Errorf("service reported unknown phase %q", phase))
	}
	return phase, nil
}

// Run starts a PENDING job
func (c *Client) Run(ctx context.Context, jobID string) error {
	return c.postPhase(ctx, jobID, "RUN")
}

// Abort requests job cancellation
func (c *Client) Abort(ctx context.Context, jobID string) error {
	return c.postPhase(ctx, jobID, "ABORT")
}

func (c *Client) postPhase(ctx context.Context, jobID, phase string) error {
	form := url.Values{}
	form.Set("PHASE", phase)

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodPost)
	req.SetRequestURI(c.base + fmt.Sprintf(endpointJobPhase, jobID))
	req.Header.SetContentTypeBytes([]byte("application/x-www-form-urlencoded"))
	req.SetBodyString(form.Encode())

	if err := c.client.Do(ctx, req, resp); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	status := resp.StatusCode()
	if status == consts.StatusNotFound {
		return domain.NewNotFoundError("job", jobID)
	}
	if status < 200 || status >= 400 {
		return domain.NewRemoteError(status, string(resp.Body()))
	}
	return nil
}

// DeleteJob removes a job from the service
func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodDelete)
	req.SetRequestURI(c.base + fmt.Sprintf(endpointJob, jobID))

	if err := c.client.Do(ctx, req, resp); err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	status := resp.StatusCode()
	if status == consts.StatusNotFound {
		return domain.NewNotFoundError("job", jobID)
	}
	if status < 200 || status >= 400 {
		return domain.NewRemoteError(status, string(resp.Body()))
	}
	return nil
}

// JobResults fetches and decodes the result table of a COMPLETED job
func (c *Client) JobResults(ctx context.Context, job *entity.Job) (*entity.Table, error) {
	if job.Phase != entity.PhaseCompleted {
		return nil, domain.NewInvalidQueryError(
			fmt.Sprintf("job %s is %s, results require COMPLETED", job.JobID, job.Phase))
	}

	resultURL := job.ResultURL
	if resultURL == "" {
		resultURL = c.base + fmt.Sprintf(endpointJobResult, job.JobID)
	}

	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()
	defer func() {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
	}()

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(resultURL)

	if err := c.client.Do(ctx, req, resp); err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != consts.StatusOK {
		return nil, domain.NewRemoteError(resp.StatusCode(), string(resp.Body()))
	}

	return votable.Decode(bytes.NewReader(resp.Body()))
}

// Tables lists the tables the service exposes through TAP_SCHEMA
func (c *Client) Tables(ctx context.Context) (*entity.Table, error) {
	return c.Query(ctx, queryTables)
}

// Columns lists the columns of one table through TAP_SCHEMA
func (c *Client) Columns(ctx context.Context, table string) (*entity.Table, error) {
	if strings.TrimSpace(table) == "" {
		return nil, domain.NewInvalidQueryError("table name must not be empty")
	}
	return c.Query(ctx, fmt.Sprintf(queryColumns, strings.ReplaceAll(table, "'", "''")))
}

// Fetch streams a GET of an absolute URL, for product downloads.
// The caller must close the returned reader.
func (c *Client) Fetch(ctx context.Context, rawURL string) (io.ReadCloser, int64, error) {
	req := protocol.AcquireRequest()
	resp := protocol.AcquireResponse()

	req.SetMethod(consts.MethodGet)
	req.SetRequestURI(rawURL)

	if err := c.client.Do(ctx, req, resp); err != nil {
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode() != consts.StatusOK {
		status := resp.StatusCode()
		body := string(resp.Body())
		protocol.ReleaseRequest(req)
		protocol.ReleaseResponse(resp)
		return nil, 0, domain.NewRemoteError(status, body)
	}

	size := int64(resp.Header.ContentLength())
	stream := resp.BodyStream()
	if stream == nil {
		stream = bytes.NewReader(resp.Body())
	}
	return &fetchBody{Reader: stream, req: req, resp: resp}, size, nil
}

// fetchBody releases the pooled request objects when the stream is closed
type fetchBody struct {
	io.Reader
	req  *protocol.Request
	resp *protocol.Response
}

func (b *fetchBody) Close() error {
	protocol.ReleaseRequest(b.req)
	protocol.ReleaseResponse(b.resp)
	return nil
}

// jobIDFromLocation extracts the job identifier from a redirect URL
func jobIDFromLocation(location string) string {
	location = strings.TrimRight(location, "/")
	idx := strings.LastIndex(location, "/")
	if idx < 0 || idx == len(location)-1 {
		return ""
	}
	return location[idx+1:]
}

// jobDocument is the JSON job representation the client accepts
type jobDocument struct {
	JobID             string `json:"jobId"`
	RunID             string `json:"runId,omitempty"`
	OwnerID           string `json:"ownerId,omitempty"`
	Phase             string `json:"phase"`
	Query             string `json:"query"`
	Quote             string `json:"quote,omitempty"`
	ResultURL         string `json:"resultUrl,omitempty"`
	StartTime         string `json:"startTime,omitempty"`
	EndTime           string `json:"endTime,omitempty"`
	ExecutionDuration int    `json:"executionDuration,omitempty"`
	ErrorSummary      string `json:"errorSummary,omitempty"`
}

// decodeJob parses a JSON job document into the entity
func decodeJob(body []byte) (*entity.Job, error) {
	var doc jobDocument
	if err := sonic.Unmarshal(body, &doc); err != nil {
		return nil, domain.NewInternalError(fmt.Errorf("malformed job document: %w", err))
	}
	if doc.JobID == "" {
		return nil, domain.NewInternalError(fmt.Errorf("job document missing jobId"))
	}

	phase := entity.Phase(strings.ToUpper(strings.TrimSpace(doc.Phase)))
	if !phase.Valid() {
		phase = entity.PhaseUnknown
	}

	job := &entity.Job{
		JobID:             doc.JobID,
		RunID:             doc.RunID,
		OwnerID:           doc.OwnerID,
		Phase:             phase,
		Query:             doc.Query,
		Quote:             doc.Quote,
		ResultURL:         doc.ResultURL,
		ExecutionDuration: doc.ExecutionDuration,
		ErrorSummary:      doc.ErrorSummary,
	}
	if t, err := time.Parse(time.RFC3339, doc.StartTime); err == nil {
		job.StartTime = &t
	}
	if t, err := time.Parse(time.RFC3339, doc.EndTime); err == nil {
		job.EndTime = &t
	}
	return job, nil
}
