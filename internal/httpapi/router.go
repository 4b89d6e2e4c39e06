package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"orgstructure/internal/service"
)

// NewRouter builds the HTTP surface over the department service.
func NewRouter(svc service.Manager, logger zerolog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(RequestID())
	r.Use(Logger(logger))
	r.Use(Recovery(logger))

	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "route not found")
	})
	r.HandleMethodNotAllowed = true
	r.NoMethod(func(c *gin.Context) {
		writeError(c, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.GET("/healthcheck", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	h := NewHandler(svc, logger)
	departments := r.Group("/departments")
	departments.POST("", h.CreateDepartment)
	departments.GET("/:id", h.GetDepartment)
	departments.PATCH("/:id", h.UpdateDepartment)
	departments.DELETE("/:id", h.DeleteDepartment)
	departments.POST("/:id/employees", h.CreateEmployee)

	return r
}
