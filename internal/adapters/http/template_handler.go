package http

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/taskmaster/recurring/internal/domain/entities"
	"github.com/taskmaster/recurring/internal/infrastructure/logger"
	"github.com/taskmaster/recurring/internal/ports"
)

// TemplateHandler handles recurrence template and exception requests
type TemplateHandler struct {
	recurrence ports.RecurrenceService
	generation ports.GenerationService
	logger     *logger.Logger
}

// NewTemplateHandler creates a new template handler
func NewTemplateHandler(recurrence ports.RecurrenceService, generation ports.GenerationService, logger *logger.Logger) *TemplateHandler {
	return &TemplateHandler{
		recurrence: recurrence,
		generation: generation,
		logger:     logger,
	}
}

// CreateTemplate handles template creation
// @Summary Create a recurrence template
// @Description Create a recurring task definition. The rule cannot be changed afterwards.
// @Tags templates
// @Accept json
// @Produce json
// @Param request body ports.CreateTemplateRequest true "Template data"
// @Success 201 {object} entities.RecurrenceTemplate
// @Failure 400 {object} ports.ErrorResponse
// @Router /templates [post]
func (h *TemplateHandler) CreateTemplate(c echo.Context) error {
	var req ports.CreateTemplateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	template, err := h.recurrence.CreateTemplate(c.Request().Context(), req)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusCreated, template)
}

// GetTemplate handles getting a template by ID
// @Summary Get recurrence template
// @Tags templates
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} entities.RecurrenceTemplate
// @Failure 404 {object} ports.ErrorResponse
// @Router /templates/{id} [get]
func (h *TemplateHandler) GetTemplate(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	template, err := h.recurrence.GetTemplate(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, template)
}

// UpdateTemplate handles template updates
// @Summary Update recurrence template
// @Description Change title, description, priority or activity. Instances already generated keep their values.
// @Tags templates
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param request body ports.UpdateTemplateRequest true "Fields to change"
// @Success 200 {object} entities.RecurrenceTemplate
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Router /templates/{id} [patch]
func (h *TemplateHandler) UpdateTemplate(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.UpdateTemplateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	template, err := h.recurrence.UpdateTemplate(c.Request().Context(), id, req)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, template)
}

// DeleteTemplate handles template deletion
// @Summary Delete recurrence template
// @Description Deletes the template together with its exceptions and generated instances.
// @Tags templates
// @Param id path string true "Template ID"
// @Success 204
// @Failure 404 {object} ports.ErrorResponse
// @Router /templates/{id} [delete]
func (h *TemplateHandler) DeleteTemplate(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.recurrence.DeleteTemplate(c.Request().Context(), id); err != nil {
		return serviceError(err)
	}

	return c.NoContent(http.StatusNoContent)
}

// ListTemplates handles listing templates
// @Summary List recurrence templates
// @Tags templates
// @Produce json
// @Param owner_id query string false "Owner ID"
// @Param active query bool false "Only active or inactive templates"
// @Param limit query int false "Page size"
// @Param offset query int false "Page offset"
// @Success 200 {object} ports.ListResponse[entities.RecurrenceTemplate]
// @Router /templates [get]
func (h *TemplateHandler) ListTemplates(c echo.Context) error {
	var filter ports.TemplateFilter

	if raw := c.QueryParam("owner_id"); raw != "" {
		owner, err := uuid.Parse(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "Invalid owner_id")
		}
		filter.OwnerID = &owner
	}

	active, err := boolQuery(c, "active")
	if err != nil {
		return err
	}
	filter.IsActive = active

	if filter.Limit, err = intQuery(c, "limit"); err != nil {
		return err
	}
	if filter.Offset, err = intQuery(c, "offset"); err != nil {
		return err
	}

	templates, err := h.recurrence.ListTemplates(c.Request().Context(), filter)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, ports.ListResponse[*entities.RecurrenceTemplate]{
		Data:  templates,
		Total: len(templates),
	})
}

// GenerateTemplate materializes one template's instances for a window
// @Summary Generate instances
// @Description Creates the missing task instances of the template inside [from, to]. Safe to repeat.
// @Tags generation
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param request body ports.GenerateRequest true "Window"
// @Success 200 {object} ports.GenerateResponse
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Failure 503 {object} ports.ErrorResponse
// @Router /templates/{id}/generate [post]
func (h *TemplateHandler) GenerateTemplate(c echo.Context) error {
	id, err := uuidParam(c, "id")
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

	created, err := h.generation.Generate(c.Request().Context(), id, req.From, req.To)
	if err != nil {
		h.logger.Errorw("Generation failed", "template_id", id, "created", created, "error", err)
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, ports.GenerateResponse{TemplateID: id, Created: created})
}

// AddException handles overriding one occurrence
// @Summary Add exception
// @Description Skip or reschedule a single occurrence, identified by its original date.
// @Tags exceptions
// @Accept json
// @Produce json
// @Param id path string true "Template ID"
// @Param request body ports.AddExceptionRequest true "Exception"
// @Success 201 {object} entities.RecurrenceException
// @Failure 400 {object} ports.ErrorResponse
// @Failure 404 {object} ports.ErrorResponse
// @Failure 409 {object} ports.ErrorResponse
// @Router /templates/{id}/exceptions [post]
func (h *TemplateHandler) AddException(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	var req ports.AddExceptionRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request format")
	}
	req.TemplateID = id

	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	exception, err := h.recurrence.AddException(c.Request().Context(), req)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusCreated, exception)
}

// ListExceptions handles listing a template's exceptions
// @Summary List exceptions
// @Tags exceptions
// @Produce json
// @Param id path string true "Template ID"
// @Success 200 {object} ports.ListResponse[entities.RecurrenceException]
// @Failure 404 {object} ports.ErrorResponse
// @Router /templates/{id}/exceptions [get]
func (h *TemplateHandler) ListExceptions(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	exceptions, err := h.recurrence.ListExceptions(c.Request().Context(), id)
	if err != nil {
		return serviceError(err)
	}

	return c.JSON(http.StatusOK, ports.ListResponse[*entities.RecurrenceException]{
		Data:  exceptions,
		Total: len(exceptions),
	})
}

// RemoveException handles exception deletion
// @Summary Remove exception
// @Description The occurrence is generated normally again on the next run.
// @Tags exceptions
// @Param id path string true "Exception ID"
// @Success 204
// @Failure 404 {object} ports.ErrorResponse
// @Router /exceptions/{id} [delete]
func (h *TemplateHandler) RemoveException(c echo.Context) error {
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	if err := h.recurrence.RemoveException(c.Request().Context(), id); err != nil {
		return serviceError(err)
	}

	return c.NoContent(http.StatusNoContent)
}
