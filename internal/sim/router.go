package sim

import (
	"github.com/cloudwego/hertz/pkg/app/server"

	"github.com/astrolab/voquery/internal/middleware"
)

// SetupRoutes registers the TAP surface on the server
func SetupRoutes(h *server.Hertz, handler *Handler) {
	h.Use(middleware.Recovery())
	h.Use(middleware.Logger())
	h.Use(middleware.CORS())

	h.GET("/ping", handler.Ping)

	h.POST("/sync", handler.Sync)
	h.GET("/tables", handler.Tables)

	async := h.Group("/async")
	{
		async.POST("", handler.SubmitAsync)
		async.GET("/:id", handler.GetJob)
		async.DELETE("/:id", handler.DeleteJob)
		async.GET("/:id/phase", handler.GetPhase)
		async.POST("/:id/phase", handler.PostPhase)
		async.GET("/:id/results/result", handler.GetResult)
	}

	h.GET("/data/:file", handler.Data)
}
