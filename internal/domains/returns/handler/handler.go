package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"campus-market-backend/internal/domains/returns/model"
	"campus-market-backend/internal/domains/returns/service"
	"campus-market-backend/internal/shared/middleware"
	"campus-market-backend/internal/shared/response"
)

// =====================================================
// RETURN REQUEST HANDLER
// =====================================================

type ReturnHandler struct {
	returnService service.ReturnService
}

func NewReturnHandler(returnService service.ReturnService) *ReturnHandler {
	return &ReturnHandler{
		returnService: returnService,
	}
}

// =====================================================
// BUYER ENDPOINTS
// =====================================================

// CreateReturn opens a return request for one of the caller's orders
// POST /api/v1/returns
func (h *ReturnHandler) CreateReturn(c *gin.Context) {
	// Step 1: Get user ID from JWT
	buyerID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	// Step 2: Bind and validate body
	var req model.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		handleServiceError(c, validationError(err))
		return
	}

	// Step 3: Call service
	orderID := uuid.MustParse(req.OrderID)
	result, err := h.returnService.Create(c.Request.Context(), orderID, buyerID,
		req.RequestReasonDetail, model.ReasonCode(req.ReturnReasonCode))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Created(c, model.ReturnStateResponse{ID: result.ID, State: result.State})
}

// Intervene escalates a rejected request to an admin
// PUT /api/v1/returns/:id/intervene
func (h *ReturnHandler) Intervene(c *gin.Context) {
	buyerID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}

	var req model.InterveneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		handleServiceError(c, validationError(err))
		return
	}

	state, err := h.returnService.RequestIntervention(c.Request.Context(), requestID, buyerID, req.InterventionReason)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.ReturnStateResponse{ID: requestID, State: state})
}

// =====================================================
// SELLER ENDPOINTS
// =====================================================

// HandleReturn records the seller's agree/reject decision
// PUT /api/v1/returns/:id/handle
func (h *ReturnHandler) HandleReturn(c *gin.Context) {
	sellerID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}

	var req model.HandleReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		handleServiceError(c, validationError(err))
		return
	}

	state, err := h.returnService.Handle(c.Request.Context(), requestID, sellerID, *req.IsAgree, req.Notes)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.ReturnStateResponse{ID: requestID, State: state})
}

// =====================================================
// ADMIN ENDPOINTS
// =====================================================

// AdminResolve closes an escalated request
// PUT /api/v1/returns/:id/admin/resolve
func (h *ReturnHandler) AdminResolve(c *gin.Context) {
	adminID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}
	if !model.CanResolve(model.ParseRoles(middleware.CurrentRoles(c))) {
		handleServiceError(c, model.NewPermissionDeniedError("admin role required"))
		return
	}

	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}

	var req model.AdminResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if err := req.Validate(); err != nil {
		handleServiceError(c, validationError(err))
		return
	}

	state, err := h.returnService.AdminResolve(c.Request.Context(), requestID, adminID,
		model.ResolutionAction(req.ResolutionAction), req.AdminNotes)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, model.ReturnStateResponse{ID: requestID, State: state})
}

// ListAll is the paginated admin queue
// GET /api/v1/returns/admin?page=&page_size=&state=
func (h *ReturnHandler) ListAll(c *gin.Context) {
	var q model.AdminListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	filter := model.AdminListFilter{Page: q.Page, PageSize: q.PageSize}
	if q.State != "" {
		state := model.State(q.State)
		filter.State = &state
	}

	page, err := h.returnService.ListAll(c.Request.Context(), filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, model.ToListItems(page.Items), &response.Meta{
		Page:  page.Page,
		Limit: page.PageSize,
		Total: page.Total,
	})
}

// =====================================================
// SHARED READ ENDPOINTS
// =====================================================

// GetDetail returns one request to its buyer, its seller or an admin
// GET /api/v1/returns/:id
func (h *ReturnHandler) GetDetail(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	requestID, ok := parseRequestID(c)
	if !ok {
		return
	}

	roles := model.ParseRoles(middleware.CurrentRoles(c))
	detail, err := h.returnService.GetDetail(c.Request.Context(), requestID, userID, roles)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// ListMine lists requests where the caller is buyer or seller
// GET /api/v1/returns/me/requests
func (h *ReturnHandler) ListMine(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		response.Unauthorized(c, "Unauthorized")
		return
	}

	requests, err := h.returnService.ListForUser(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, model.ToListItems(requests), &response.Meta{Total: len(requests)})
}

// =====================================================
// HELPER FUNCTIONS
// =====================================================

func parseRequestID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		handleServiceError(c, model.NewInvalidInputError("Invalid return request ID", map[string]string{
			"id": "must be a UUID",
		}))
		return uuid.Nil, false
	}
	return id, true
}

func validationError(err error) error {
	return model.NewInvalidInputError("invalid input", model.FieldErrors(err))
}

// handleServiceError maps the five error kinds onto HTTP status codes.
func handleServiceError(c *gin.Context, err error) {
	var retErr *model.ReturnError
	if !errors.As(err, &retErr) {
		response.InternalServerError(c, "An unexpected error occurred")
		return
	}

	switch retErr.Kind {
	case model.KindInvalidInput:
		response.ErrorWithDetails(c, http.StatusBadRequest, retErr.Code, retErr.Message, fieldDetails(retErr.Fields))
	case model.KindNotFound:
		response.ErrorResponse(c, http.StatusNotFound, retErr.Code, retErr.Message)
	case model.KindPermissionDenied:
		response.ErrorResponse(c, http.StatusForbidden, retErr.Code, retErr.Message)
	case model.KindOperationConflict:
		response.ErrorResponse(c, http.StatusConflict, retErr.Code, retErr.Message)
	default:
		response.ErrorResponse(c, http.StatusInternalServerError, retErr.Code, retErr.Message)
	}
}

// fieldDetails keeps "details" absent rather than an empty object.
func fieldDetails(fields map[string]string) interface{} {
	if len(fields) == 0 {
		return nil
	}
	return fields
}
