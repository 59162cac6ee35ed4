package server

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes wires every HTTP endpoint this service exposes.
func RegisterRoutes(e *echo.Echo, deps Dependencies) {
	e.GET("/health", func(c echo.Context) error {
		return c.String(200, "OK")
	})

	api := e.Group("/api")
	api.POST("/find-path-stream", FindPathStreamHandler(deps))
	api.POST("/find-path", FindPathHandler(deps))
	api.GET("/searches", RecentSearchesHandler(deps))
	api.GET("/searches/:id", SearchByIDHandler(deps))
	api.GET("/stats", StatsHandler(deps))
}
