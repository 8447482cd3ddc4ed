package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/taskmaster/recurring/internal/domain/entities"
	"github.com/taskmaster/recurring/internal/infrastructure/logger"
	"github.com/taskmaster/recurring/internal/ports"
)

// OwnerHandler handles per-owner generation and task views
type OwnerHandler struct {
	generation ports.GenerationService
	logger     *logger.Logger
}

// NewOwnerHandler creates a new owner handler
func NewOwnerHandler(generation ports.GenerationService, logger *logger.Logger) *OwnerHandler {
	return &OwnerHandler{
		generation: generation,
		logger:     logger,
	}
}

// GenerateForOwner runs generation for all active templates of an owner
// @Summary Generate instances for an owner
// @Description Runs generation for every active template of the owner. Failed templates are listed in the result and do not stop the others.
// @Tags generation
// @Accept json
// @Produce json
// @Param ownerId path string true "Owner ID"
// @Param request body ports.GenerateRequest true "Window"
// @Success 200 {object} ports.BatchResult
// @Failure 400 {object} ports.ErrorResponse
// @Failure 503 {object} ports.ErrorResponse
// @Router /owners/{ownerId}/generate [post]
func (h *OwnerHandler) GenerateForOwner(c echo.Context) error {
	ownerID, err := uuidParam(c, "ownerId")
	if err != nil {
		return err
	}

	var req ports.GenerateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	result, err := h.generation.GenerateAllForOwner(c.Request().Context(), ownerID, req.From, req.To)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, result)
}

// ListOwnerTasks returns the owner's tasks due inside a window
// @Summary List an owner's tasks
// @Description Lists tasks due inside [from, to]. With generate=true missing recurring instances are created first.
// @Tags tasks
// @Produce json
// @Param ownerId path string true "Owner ID"
// @Param from query string true "Window start (RFC 3339 or YYYY-MM-DD)"
// @Param to query string true "Window end (RFC 3339 or YYYY-MM-DD)"
// @Param generate query bool false "Materialize recurring instances first"
// @Success 200 {object} ports.ListResponse[entities.Task]
// @Failure 400 {object} ports.ErrorResponse
// @Failure 503 {object} ports.ErrorResponse
// @Router /owners/{ownerId}/tasks [get]
func (h *OwnerHandler) ListOwnerTasks(c echo.Context) error {
	ownerID, err := uuidParam(c, "ownerId")
	if err != nil {
		return err
	}

	from, err := timeQuery(c, "from")
	if err != nil {
		return err
	}
	to, err := timeQuery(c, "to")
	if err != nil {
		return err
	}
	generate, err := boolQuery(c, "generate")
	if err != nil {
		return err
	}

	tasks, err := h.generation.ListInstances(c.Request().Context(), ownerID, from, to, generate != nil && *generate)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, ports.ListResponse[*entities.Task]{
		Data:  tasks,
		Total: len(tasks),
	})
}

// Register mounts the recurrence routes on an API group
func Register(g *echo.Group, templates *TemplateHandler, owners *OwnerHandler) {
	tg := g.Group("/templates")
	tg.POST("", templates.CreateTemplate)
	tg.GET("", templates.ListTemplates)
	tg.GET("/:id", templates.GetTemplate)
	tg.PATCH("/:id", templates.UpdateTemplate)
	tg.DELETE("/:id", templates.DeleteTemplate)
	tg.POST("/:id/generate", templates.GenerateTemplate)
	tg.GET("/:id/exceptions", templates.ListExceptions)
	tg.POST("/:id/exceptions", templates.AddException)

	g.DELETE("/exceptions/:id", templates.RemoveException)

	og := g.Group("/owners/:ownerId")
	og.POST("/generate", owners.GenerateForOwner)
	og.GET("/tasks", owners.ListOwnerTasks)
}
