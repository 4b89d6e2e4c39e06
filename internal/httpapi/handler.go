package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"orgstructure/internal/apperror"
	"orgstructure/internal/service"
)

type Handler struct {
	service service.Manager
	logger  zerolog.Logger
}

func NewHandler(svc service.Manager, logger zerolog.Logger) *Handler {
	return &Handler{
		service: svc,
		logger:  logger,
	}
}

func (h *Handler) CreateDepartment(c *gin.Context) {
	var req createDepartmentRequest
	if !bindAndValidate(c, &req) {
		return
	}

	department, err := h.service.CreateDepartment(c.Request.Context(), service.CreateDepartmentInput{
		Name:     req.Name,
		ParentID: req.ParentID,
	})
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, department)
}

func (h *Handler) CreateEmployee(c *gin.Context) {
	departmentID, ok := bindDepartmentID(c)
	if !ok {
		return
	}

	var req createEmployeeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	hiredAt, err := parseDate(req.HiredAt)
	if err != nil {
		writeError(c, http.StatusBadRequest, "hired_at must be in YYYY-MM-DD format")
		return
	}

	employee, err := h.service.CreateEmployee(c.Request.Context(), departmentID, service.CreateEmployeeInput{
		FullName: req.FullName,
		Position: req.Position,
		HiredAt:  hiredAt,
	})
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, employee)
}

func (h *Handler) GetDepartment(c *gin.Context) {
	departmentID, ok := bindDepartmentID(c)
	if !ok {
		return
	}

	var query getDepartmentQuery
	if !bindQueryAndValidate(c, &query) {
		return
	}

	options := service.GetDepartmentOptions{
		Depth:            1,
		IncludeEmployees: true,
	}
	if query.Depth != nil {
		options.Depth = *query.Depth
	}
	if query.IncludeEmployees != nil {
		options.IncludeEmployees = *query.IncludeEmployees
	}

	subtree, err := h.service.GetDepartment(c.Request.Context(), departmentID, options)
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, subtree.Tree(options.IncludeEmployees))
}

func (h *Handler) UpdateDepartment(c *gin.Context) {
	departmentID, ok := bindDepartmentID(c)
	if !ok {
		return
	}

	var req updateDepartmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if req.ParentID.Value != nil && *req.ParentID.Value == 0 {
		writeError(c, http.StatusBadRequest, "parent_id must be a positive integer or null")
		return
	}

	department, err := h.service.UpdateDepartment(c.Request.Context(), departmentID, service.UpdateDepartmentInput{
		Name:        req.Name,
		ParentIDSet: req.ParentID.Set,
		ParentID:    req.ParentID.Value,
	})
	if err != nil {
		h.respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, department)
}

func (h *Handler) DeleteDepartment(c *gin.Context) {
	departmentID, ok := bindDepartmentID(c)
	if !ok {
		return
	}

	var query deleteDepartmentQuery
	if !bindQueryAndValidate(c, &query) {
		return
	}

	mode := service.DeleteMode(query.Mode)
	switch {
	case mode == service.DeleteModeCascade && query.ReassignToID != nil:
		writeError(c, http.StatusBadRequest, "reassign_to_department_id is not allowed when mode=cascade")
		return
	case mode == service.DeleteModeReassign && query.ReassignToID == nil:
		writeError(c, http.StatusBadRequest, "reassign_to_department_id is required when mode=reassign")
		return
	}

	if _, err := h.service.DeleteDepartment(c.Request.Context(), departmentID, service.DeleteDepartmentInput{
		Mode:         mode,
		ReassignToID: query.ReassignToID,
	}); err != nil {
		h.respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *Handler) respondWithError(c *gin.Context, err error) {
	switch apperror.GetCode(err) {
	case apperror.CodeValidation, apperror.CodeInvalidRequest:
		writeError(c, http.StatusBadRequest, err.Error())
	case apperror.CodeNotFound:
		writeError(c, http.StatusNotFound, err.Error())
	case apperror.CodeDuplicateName, apperror.CodeCycle:
		writeError(c, http.StatusConflict, err.Error())
	default:
		h.logger.Error().
			Err(err).
			Str("request_id", c.GetString(RequestIDKey)).
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Msg("unexpected error")
		writeError(c, http.StatusInternalServerError, "internal server error")
	}
}

func writeError(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, errorResponse{Error: message})
}
