package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	ordermodel "campus-market-backend/internal/domains/order/model"
	orderrepo "campus-market-backend/internal/domains/order/repository"
	"campus-market-backend/internal/domains/returns/model"
	"campus-market-backend/internal/domains/returns/repository"
	"campus-market-backend/internal/domains/returns/service"
	"campus-market-backend/internal/shared/middleware"
	"campus-market-backend/pkg/jwt"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details"`
	} `json:"error"`
	Meta *struct {
		Page  int `json:"page"`
		Limit int `json:"limit"`
		Total int `json:"total"`
	} `json:"meta"`
}

func newTestRouter(h *ReturnHandler, tokens *jwt.Manager, limiter *middleware.RateLimiter) *gin.Engine {
	r := gin.New()
	r.Use(middleware.ClientIP())
	RegisterRoutes(r.Group("/api/v1"), h, middleware.AuthMiddleware(tokens), limiter.Middleware())
	return r
}

type ReturnHandlerSuite struct {
	suite.Suite
	router *gin.Engine
	tokens *jwt.Manager
	cancel context.CancelFunc

	buyer, seller, stranger, admin uuid.UUID
	orderID                        uuid.UUID
}

func TestReturnHandlerSuite(t *testing.T) {
	suite.Run(t, new(ReturnHandlerSuite))
}

func (s *ReturnHandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.buyer, s.seller, s.stranger, s.admin = uuid.New(), uuid.New(), uuid.New(), uuid.New()
	s.orderID = uuid.New()

	orders := orderrepo.NewMemoryOrderLookup(ordermodel.OrderDetails{
		ID:          s.orderID,
		Status:      ordermodel.OrderStatusCompleted,
		BuyerID:     s.buyer,
		SellerID:    s.seller,
		ProductID:   uuid.New(),
		ProductName: "Bike helmet",
	})
	store := repository.NewMemoryStore(orders, []string{ordermodel.OrderStatusCompleted})
	store.AddUsers(s.stranger, s.admin)
	svc := service.NewReturnService(store, orders, service.Config{
		Limits:          model.Limits{MaxReasonLength: 50, MaxNotesLength: 50},
		DefaultPageSize: 20,
		MaxPageSize:     100,
	})

	var ctx context.Context
	ctx, s.cancel = context.WithCancel(context.Background())

	s.tokens = jwt.NewManager("handler-test-secret", time.Hour)
	s.router = newTestRouter(NewReturnHandler(svc), s.tokens, middleware.NewRateLimiter(ctx, 1000, 1000))
}

func (s *ReturnHandlerSuite) TearDownTest() {
	s.cancel()
}

func (s *ReturnHandlerSuite) token(userID uuid.UUID, roles ...string) string {
	tok, err := s.tokens.GenerateAccessToken(userID.String(), "someone@campus.test", roles)
	s.Require().NoError(err)
	return tok
}

func (s *ReturnHandlerSuite) do(method, path, token string, body interface{}) (int, envelope) {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

func (s *ReturnHandlerSuite) createReturn() uuid.UUID {
	code, env := s.do(http.MethodPost, "/api/v1/returns", s.token(s.buyer, "user"), gin.H{
		"order_id":              s.orderID.String(),
		"request_reason_detail": "cracked shell",
		"return_reason_code":    "DEFECTIVE",
	})
	s.Require().Equal(http.StatusCreated, code)

	var data model.ReturnStateResponse
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Equal(model.StateAwaitingSeller, data.State)
	return data.ID
}

func (s *ReturnHandlerSuite) Test_Unauthenticated() {
	code, env := s.do(http.MethodGet, "/api/v1/returns/me/requests", "", nil)
	s.Equal(http.StatusUnauthorized, code)
	s.False(env.Success)

	code, _ = s.do(http.MethodGet, "/api/v1/returns/me/requests", "not-a-jwt", nil)
	s.Equal(http.StatusUnauthorized, code)
}

func (s *ReturnHandlerSuite) Test_Create() {
	s.createReturn()

	code, env := s.do(http.MethodPost, "/api/v1/returns", s.token(s.buyer), gin.H{
		"order_id":              s.orderID.String(),
		"request_reason_detail": "second try",
		"return_reason_code":    "DEFECTIVE",
	})
	s.Equal(http.StatusConflict, code)
	s.Equal(model.ErrCodeOperationConflict, env.Error.Code)

	code, env = s.do(http.MethodPost, "/api/v1/returns", s.token(s.stranger), gin.H{
		"order_id":              s.orderID.String(),
		"request_reason_detail": "not mine",
		"return_reason_code":    "OTHER",
	})
	s.Equal(http.StatusNotFound, code)
	s.Equal(model.ErrCodeNotFound, env.Error.Code)
}

func (s *ReturnHandlerSuite) Test_Create_InvalidInput() {
	code, env := s.do(http.MethodPost, "/api/v1/returns", s.token(s.buyer), gin.H{
		"order_id":           "nope",
		"return_reason_code": "BORED",
	})
	s.Equal(http.StatusBadRequest, code)
	s.Equal(model.ErrCodeInvalidInput, env.Error.Code)
	s.Contains(env.Error.Details, "order_id")
	s.Contains(env.Error.Details, "request_reason_detail")
	s.Contains(env.Error.Details, "return_reason_code")

	// Length is enforced by the service with the configured limit.
	code, env = s.do(http.MethodPost, "/api/v1/returns", s.token(s.buyer), gin.H{
		"order_id":              s.orderID.String(),
		"request_reason_detail": "this reason is definitely longer than fifty characters in total",
		"return_reason_code":    "OTHER",
	})
	s.Equal(http.StatusBadRequest, code)
	s.Contains(env.Error.Details, "request_reason_detail")

	req := httptest.NewRequest(http.MethodPost, "/api/v1/returns", bytes.NewBufferString("{broken"))
	req.Header.Set("Authorization", "Bearer "+s.token(s.buyer))
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *ReturnHandlerSuite) Test_DisputeFlow() {
	id := s.createReturn()
	base := "/api/v1/returns/" + id.String()

	code, env := s.do(http.MethodPut, base+"/handle", s.token(s.buyer), gin.H{"is_agree": true})
	s.Equal(http.StatusForbidden, code)
	s.Equal(model.ErrCodePermissionDenied, env.Error.Code)

	code, env = s.do(http.MethodPut, base+"/handle", s.token(s.seller), gin.H{})
	s.Equal(http.StatusBadRequest, code)
	s.Contains(env.Error.Details, "is_agree")

	code, _ = s.do(http.MethodPut, base+"/handle", s.token(s.seller), gin.H{"is_agree": false, "notes": "no damage"})
	s.Equal(http.StatusOK, code)

	code, _ = s.do(http.MethodPut, base+"/intervene", s.token(s.buyer), gin.H{"intervention_reason": "it was damaged"})
	s.Equal(http.StatusOK, code)

	code, _ = s.do(http.MethodPut, base+"/admin/resolve", s.token(s.buyer), gin.H{"resolution_action": "CLOSED"})
	s.Equal(http.StatusForbidden, code)

	code, env = s.do(http.MethodPut, base+"/admin/resolve", s.token(s.admin, "admin"), gin.H{"resolution_action": "REFUND_APPROVED"})
	s.Require().Equal(http.StatusOK, code)
	var data model.ReturnStateResponse
	s.Require().NoError(json.Unmarshal(env.Data, &data))
	s.Equal(model.StateResolvedRefundApproved, data.State)

	code, env = s.do(http.MethodPut, base+"/admin/resolve", s.token(s.admin, "admin"), gin.H{"resolution_action": "CLOSED"})
	s.Equal(http.StatusConflict, code)
	s.Equal(model.ErrCodeOperationConflict, env.Error.Code)
}

func (s *ReturnHandlerSuite) Test_GetDetail() {
	id := s.createReturn()
	path := "/api/v1/returns/" + id.String()

	code, env := s.do(http.MethodGet, path, s.token(s.seller), nil)
	s.Require().Equal(http.StatusOK, code)
	var detail map[string]interface{}
	s.Require().NoError(json.Unmarshal(env.Data, &detail))
	s.Equal(id.String(), detail["id"])
	s.Equal("awaiting_seller", detail["state"])
	s.Contains(detail, "order")

	code, _ = s.do(http.MethodGet, path, s.token(s.stranger), nil)
	s.Equal(http.StatusForbidden, code)

	code, _ = s.do(http.MethodGet, path, s.token(s.stranger, "admin"), nil)
	s.Equal(http.StatusOK, code)

	code, _ = s.do(http.MethodGet, "/api/v1/returns/"+uuid.NewString(), s.token(s.buyer), nil)
	s.Equal(http.StatusNotFound, code)

	code, env = s.do(http.MethodGet, "/api/v1/returns/not-an-id", s.token(s.buyer), nil)
	s.Equal(http.StatusBadRequest, code)
	s.Contains(env.Error.Details, "id")
}

func (s *ReturnHandlerSuite) Test_ListMine() {
	s.createReturn()

	code, env := s.do(http.MethodGet, "/api/v1/returns/me/requests", s.token(s.seller), nil)
	s.Require().Equal(http.StatusOK, code)
	s.Require().NotNil(env.Meta)
	s.Equal(1, env.Meta.Total)

	code, env = s.do(http.MethodGet, "/api/v1/returns/me/requests", s.token(s.stranger), nil)
	s.Equal(http.StatusOK, code)
	s.Equal(0, env.Meta.Total)

	code, _ = s.do(http.MethodGet, "/api/v1/returns/me/requests", s.token(uuid.New()), nil)
	s.Equal(http.StatusNotFound, code)
}

func (s *ReturnHandlerSuite) Test_ListAll() {
	s.createReturn()

	code, _ := s.do(http.MethodGet, "/api/v1/returns/admin", s.token(s.buyer), nil)
	s.Equal(http.StatusForbidden, code)

	code, env := s.do(http.MethodGet, "/api/v1/returns/admin?page_size=5", s.token(s.admin, "admin"), nil)
	s.Require().Equal(http.StatusOK, code)
	s.Equal(1, env.Meta.Page)
	s.Equal(5, env.Meta.Limit)
	s.Equal(1, env.Meta.Total)

	var items []model.ReturnListItem
	s.Require().NoError(json.Unmarshal(env.Data, &items))
	s.Len(items, 1)

	code, env = s.do(http.MethodGet, "/api/v1/returns/admin?state=lost", s.token(s.admin, "admin"), nil)
	s.Equal(http.StatusBadRequest, code)
	s.Contains(env.Error.Details, "state")

	code, _ = s.do(http.MethodGet, "/api/v1/returns/admin?page=abc", s.token(s.admin, "admin"), nil)
	s.Equal(http.StatusBadRequest, code)

	code, env = s.do(http.MethodGet, "/api/v1/returns/admin?page=92233720368547758&page_size=100", s.token(s.admin, "admin"), nil)
	s.Equal(http.StatusBadRequest, code)
	s.Contains(env.Error.Details, "page")
}

func (s *ReturnHandlerSuite) Test_AdminPathIsNotADetailLookup() {
	// a detail lookup would answer 400 for the non-uuid id
	code, env := s.do(http.MethodGet, "/api/v1/returns/admin", s.token(s.stranger), nil)
	s.Equal(http.StatusForbidden, code)
	s.False(env.Success)

	code, env = s.do(http.MethodGet, "/api/v1/returns/admin", s.token(s.stranger, "admin"), nil)
	s.Require().Equal(http.StatusOK, code)
	s.NotNil(env.Meta)
}

func TestReturnHandler_AdminResolveChecksRole(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := jwt.NewManager("handler-test-secret", time.Hour)

	// mounted without the admin group to exercise the handler's own check
	r := gin.New()
	r.PUT("/returns/:id/admin/resolve", middleware.AuthMiddleware(tokens), NewReturnHandler(failingService{}).AdminResolve)

	tok, err := tokens.GenerateAccessToken(uuid.NewString(), "x@campus.test", []string{"seller"})
	require.NoError(t, err)

	body := bytes.NewBufferString(`{"resolution_action":"CLOSED"}`)
	req := httptest.NewRequest(http.MethodPut, "/returns/"+uuid.NewString()+"/admin/resolve", body)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRegisterRoutes_RateLimitsWritesOnly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	userID := uuid.New()
	orders := orderrepo.NewMemoryOrderLookup()
	store := repository.NewMemoryStore(orders, []string{ordermodel.OrderStatusCompleted})
	store.AddUsers(userID)
	svc := service.NewReturnService(store, orders, service.Config{
		Limits:          model.Limits{MaxReasonLength: 50, MaxNotesLength: 50},
		DefaultPageSize: 20,
		MaxPageSize:     100,
	})

	tokens := jwt.NewManager("handler-test-secret", time.Hour)
	r := newTestRouter(NewReturnHandler(svc), tokens, middleware.NewRateLimiter(ctx, 0.001, 1))

	tok, err := tokens.GenerateAccessToken(userID.String(), "x@campus.test", nil)
	require.NoError(t, err)

	send := func(method, path string) int {
		req := httptest.NewRequest(method, path, bytes.NewBufferString(`{}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusBadRequest, send(http.MethodPost, "/api/v1/returns"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPost, "/api/v1/returns"))
	assert.Equal(t, http.StatusTooManyRequests, send(http.MethodPut, "/api/v1/returns/"+uuid.NewString()+"/handle"))

	for i := 0; i < 3; i++ {
		assert.Equal(t, http.StatusOK, send(http.MethodGet, "/api/v1/returns/me/requests"))
	}
}

// failingService answers every call with an unexpected store failure.
type failingService struct {
	service.ReturnService
}

func (failingService) ListForUser(context.Context, uuid.UUID) ([]model.ReturnRequest, error) {
	return nil, model.NewOperationError("failed to list return requests", errors.New("pool closed"))
}

func (failingService) GetDetail(context.Context, uuid.UUID, uuid.UUID, []model.Role) (*model.ReturnDetail, error) {
	return nil, errors.New("not a return error")
}

func TestReturnHandler_InternalErrors(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tokens := jwt.NewManager("handler-test-secret", time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := newTestRouter(NewReturnHandler(failingService{}), tokens, middleware.NewRateLimiter(ctx, 1000, 1000))

	tok, err := tokens.GenerateAccessToken(uuid.NewString(), "x@campus.test", nil)
	require.NoError(t, err)

	for _, path := range []string{"/api/v1/returns/me/requests", "/api/v1/returns/" + uuid.NewString()} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+tok)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusInternalServerError, w.Code, path)
		assert.NotContains(t, w.Body.String(), "pool closed")
	}
}
