package sim

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"github.com/astrolab/voquery/internal/domain/entity"
	"github.com/astrolab/voquery/internal/votable"
)

const votableContentType = "application/x-votable+xml"

// Handler serves the TAP endpoints
type Handler struct {
	store   *JobStore
	dataset *Dataset
}

// NewHandler wires the job store and dataset
func NewHandler(store *JobStore, dataset *Dataset) *Handler {
	return &Handler{store: store, dataset: dataset}
}

// Sync handles POST /sync: run the query and return a VOTable document.
// Query failures are reported as a VOTable error document, the way real
// TAP services do, not as an HTTP error.
func (h *Handler) Sync(ctx context.Context, c *app.RequestContext) {
	query := c.PostForm("QUERY")
	if query == "" {
		h.votableError(c, "missing QUERY parameter")
		return
	}

	table, err := h.dataset.Execute(query)
	if err != nil {
		h.votableError(c, err.Error())
		return
	}
	h.votableResult(c, table)
}

// SubmitAsync handles POST /async: create a job, optionally started
func (h *Handler) SubmitAsync(ctx context.Context, c *app.RequestContext) {
	query := c.PostForm("QUERY")
	if query == "" {
		c.JSON(consts.StatusBadRequest, utils.H{
			"code":    "INVALID_QUERY",
			"message": "missing QUERY parameter",
		})
		return
	}
	start := strings.EqualFold(c.PostForm("PHASE"), "RUN")
	job := h.store.Create(query, start)
	c.JSON(consts.StatusOK, jobDocument(job))
}

// GetJob handles GET /async/:id
func (h *Handler) GetJob(ctx context.Context, c *app.RequestContext) {
	job := h.store.Get(c.Param("id"))
	if job == nil {
		h.jobNotFound(c)
		return
	}
	c.JSON(consts.StatusOK, jobDocument(job))
}

// GetPhase handles GET /async/:id/phase as plain text
func (h *Handler) GetPhase(ctx context.Context, c *app.RequestContext) {
	job := h.store.Get(c.Param("id"))
	if job == nil {
		h.jobNotFound(c)
		return
	}
	c.Data(consts.StatusOK, "text/plain", []byte(job.Phase))
}

// PostPhase handles POST /async/:id/phase with PHASE=RUN or PHASE=ABORT
func (h *Handler) PostPhase(ctx context.Context, c *app.RequestContext) {
	id := c.Param("id")
	if h.store.Get(id) == nil {
		h.jobNotFound(c)
		return
	}

	switch strings.ToUpper(c.PostForm("PHASE")) {
	case "RUN":
		h.store.Start(id)
	case "ABORT":
		h.store.Abort(id)
	default:
		c.JSON(consts.StatusBadRequest, utils.H{
			"code":    "INVALID_PHASE",
			"message": "PHASE must be RUN or ABORT",
		})
		return
	}
	c.Redirect(consts.StatusSeeOther, []byte("/async/"+id))
}

// GetResult handles GET /async/:id/results/result
func (h *Handler) GetResult(ctx context.Context, c *app.RequestContext) {
	job := h.store.Get(c.Param("id"))
	if job == nil {
		h.jobNotFound(c)
		return
	}
	if job.Phase != entity.PhaseCompleted || job.Result == nil {
		c.JSON(consts.StatusBadRequest, utils.H{
			"code":    "JOB_NOT_COMPLETED",
			"message": fmt.Sprintf("job is %s", job.Phase),
		})
		return
	}
	h.votableResult(c, job.Result)
}

// DeleteJob handles DELETE /async/:id
func (h *Handler) DeleteJob(ctx context.Context, c *app.RequestContext) {
	if !h.store.Delete(c.Param("id")) {
		h.jobNotFound(c)
		return
	}
	c.Status(consts.StatusNoContent)
}

// Tables handles GET /tables, the schema discovery endpoint
func (h *Handler) Tables(ctx context.Context, c *app.RequestContext) {
	h.votableResult(c, h.dataset.schemaTables())
}

// Data handles GET /data/:file, serving deterministic bytes for product
// downloads. File sizes match the product listing.
func (h *Handler) Data(ctx context.Context, c *app.RequestContext) {
	name := c.Param("file")
	for _, row := range h.dataset.products.Rows {
		if row[1] == name {
			var size int
			fmt.Sscanf(row[2], "%d", &size)
			c.Data(consts.StatusOK, row[3], bytes.Repeat([]byte("SIM"), size/3+1)[:size])
			return
		}
	}
	c.JSON(consts.StatusNotFound, utils.H{
		"code":    "NOT_FOUND",
		"message": "no such product file",
	})
}

// Ping is a basic health check
func (h *Handler) Ping(ctx context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, utils.H{
		"status":  "ok",
		"message": "pong",
	})
}

func (h *Handler) jobNotFound(c *app.RequestContext) {
	c.JSON(consts.StatusNotFound, utils.H{
		"code":    "NOT_FOUND",
		"message": "job not found",
	})
}

func (h *Handler) votableResult(c *app.RequestContext, table *entity.Table) {
	var buf bytes.Buffer
	if err := votable.Encode(table, &buf); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{
			"code":    "INTERNAL_ERROR",
			"message": "failed to encode result",
		})
		return
	}
	c.Data(consts.StatusOK, votableContentType, buf.Bytes())
}

func (h *Handler) votableError(c *app.RequestContext, message string) {
	var buf bytes.Buffer
	if err := votable.ErrorDocument(message, &buf); err != nil {
		c.JSON(consts.StatusInternalServerError, utils.H{
			"code":    "INTERNAL_ERROR",
			"message": "failed to encode error document",
		})
		return
	}
	c.Data(consts.StatusOK, votableContentType, buf.Bytes())
}

// jobDocument renders the JSON job representation
func jobDocument(job *Job) utils.H {
	doc := utils.H{
		"jobId": job.ID,
		"phase": string(job.Phase),
		"query": job.Query,
	}
	if !job.StartedAt.IsZero() {
		doc["startTime"] = job.StartedAt.Format(time.RFC3339)
	}
	if !job.EndedAt.IsZero() {
		doc["endTime"] = job.EndedAt.Format(time.RFC3339)
	}
	if job.ErrorSummary != "" {
		doc["errorSummary"] = job.ErrorSummary
	}
	return doc
}
