package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	ordermodel "campus-market-backend/internal/domains/order/model"
	orderrepo "campus-market-backend/internal/domains/order/repository"
	"campus-market-backend/internal/domains/returns/model"
	"campus-market-backend/internal/domains/returns/repository"
	"campus-market-backend/pkg/logger"
)

type returnService struct {
	store  repository.Store
	orders orderrepo.OrderLookup
	cfg    Config
}

// NewReturnService wires the workflow to a store and an order lookup.
func NewReturnService(store repository.Store, orders orderrepo.OrderLookup, cfg Config) ReturnService {
	return &returnService{
		store:  store,
		orders: orders,
		cfg:    cfg,
	}
}

// =====================================================
// TRANSITIONS
// =====================================================

func (s *returnService) Create(ctx context.Context, orderID, buyerID uuid.UUID, reasonDetail string, reasonCode model.ReasonCode) (*CreateResult, error) {
	const op = "create"
	lg := opLogger(ctx, op).With().Str("order_id", orderID.String()).Str("actor_id", buyerID.String()).Logger()
	lg.Info().Str("reason_code", string(reasonCode)).Msg("return request submitted")

	reasonDetail = strings.TrimSpace(reasonDetail)
	if err := model.ValidateCreate(orderID, buyerID, reasonDetail, reasonCode, s.cfg.Limits); err != nil {
		return nil, invalidInput(&lg, err)
	}

	outcome, err := s.store.Create(ctx, model.NewReturnRequest{
		OrderID:             orderID,
		BuyerID:             buyerID,
		RequestReasonDetail: reasonDetail,
		ReturnReasonCode:    reasonCode,
	})
	if err != nil {
		return nil, operationError(&lg, "failed to create return request", err)
	}
	if err := outcomeError(&lg, outcome); err != nil {
		return nil, err
	}

	lg.Info().Str("return_request_id", outcome.ID.String()).Msg("return request created")
	return &CreateResult{ID: outcome.ID, State: outcome.State}, nil
}

func (s *returnService) Handle(ctx context.Context, requestID, sellerID uuid.UUID, agree bool, notes *string) (model.State, error) {
	const op = "handle"
	lg := transitionLogger(ctx, op, requestID, sellerID)
	lg.Info().Bool("agree", agree).Msg("seller decision submitted")

	notes = normalizeOptional(notes)
	if err := model.ValidateHandle(requestID, sellerID, notes, s.cfg.Limits); err != nil {
		return "", invalidInput(&lg, err)
	}

	outcome, err := s.store.Handle(ctx, requestID, sellerID, agree, notes)
	if err != nil {
		return "", operationError(&lg, "failed to handle return request", err)
	}
	if err := outcomeError(&lg, outcome); err != nil {
		return "", err
	}

	lg.Info().Str("state", string(outcome.State)).Msg("return request handled")
	return outcome.State, nil
}

func (s *returnService) RequestIntervention(ctx context.Context, requestID, buyerID uuid.UUID, reason string) (model.State, error) {
	const op = "request_intervention"
	lg := transitionLogger(ctx, op, requestID, buyerID)
	lg.Info().Msg("admin intervention requested")

	reason = strings.TrimSpace(reason)
	if err := model.ValidateIntervention(requestID, buyerID, reason, s.cfg.Limits); err != nil {
		return "", invalidInput(&lg, err)
	}

	outcome, err := s.store.RequestIntervention(ctx, requestID, buyerID, reason)
	if err != nil {
		return "", operationError(&lg, "failed to request intervention", err)
	}
	if err := outcomeError(&lg, outcome); err != nil {
		return "", err
	}

	lg.Info().Str("state", string(outcome.State)).Msg("return request escalated")
	return outcome.State, nil
}

func (s *returnService) AdminResolve(ctx context.Context, requestID, adminID uuid.UUID, action model.ResolutionAction, notes *string) (model.State, error) {
	const op = "admin_resolve"
	lg := transitionLogger(ctx, op, requestID, adminID)
	lg.Info().Str("action", string(action)).Msg("admin resolution submitted")

	notes = normalizeOptional(notes)
	if err := model.ValidateResolve(requestID, adminID, action, notes, s.cfg.Limits); err != nil {
		return "", invalidInput(&lg, err)
	}

	outcome, err := s.store.AdminResolve(ctx, requestID, adminID, action, notes)
	if err != nil {
		return "", operationError(&lg, "failed to resolve return request", err)
	}
	if err := outcomeError(&lg, outcome); err != nil {
		return "", err
	}

	lg.Info().Str("state", string(outcome.State)).Msg("return request resolved")
	return outcome.State, nil
}

// =====================================================
// READS
// =====================================================

func (s *returnService) GetDetail(ctx context.Context, requestID, requesterID uuid.UUID, requesterRoles []model.Role) (*model.ReturnDetail, error) {
	lg := transitionLogger(ctx, "get_detail", requestID, requesterID)

	fields := map[string]string{}
	if requestID == uuid.Nil {
		fields["request_id"] = "must be a valid id"
	}
	if requesterID == uuid.Nil {
		fields["requester_id"] = "must be a valid id"
	}
	if len(fields) > 0 {
		return nil, model.NewInvalidInputError("invalid input", fields)
	}

	req, err := s.store.GetByID(ctx, requestID)
	if err != nil {
		return nil, operationError(&lg, "failed to load return request", err)
	}
	if req == nil {
		return nil, model.NewNotFoundError("return request not found")
	}

	if !model.CanView(requesterRoles, req.BuyerID == requesterID, req.SellerID == requesterID) {
		lg.Warn().Msg("return request detail denied")
		return nil, model.NewPermissionDeniedError("you are not allowed to view this return request")
	}

	detail := &model.ReturnDetail{ReturnRequest: req}
	order, err := s.orders.GetOrderDetails(ctx, req.OrderID)
	switch {
	case err == nil:
		detail.Order = &model.OrderSummary{
			Status:      order.Status,
			ProductName: order.ProductName,
			TotalAmount: order.TotalAmount,
		}
	case errors.Is(err, ordermodel.ErrOrderNotFound):
		lg.Warn().Str("order_id", req.OrderID.String()).Msg("order of return request is missing")
	default:
		lg.Warn().Err(err).Str("order_id", req.OrderID.String()).Msg("order summary unavailable")
	}

	return detail, nil
}

func (s *returnService) ListForUser(ctx context.Context, userID uuid.UUID) ([]model.ReturnRequest, error) {
	lg := opLogger(ctx, "list_for_user").With().Str("actor_id", userID.String()).Logger()

	if userID == uuid.Nil {
		return nil, model.NewInvalidInputError("user id is required", map[string]string{"user_id": "must be a valid id"})
	}

	requests, exists, err := s.store.GetByUserID(ctx, userID)
	if err != nil {
		return nil, operationError(&lg, "failed to list return requests", err)
	}
	if !exists {
		return nil, model.NewNotFoundError("user not found")
	}
	return requests, nil
}

func (s *returnService) ListAll(ctx context.Context, filter model.AdminListFilter) (*ListPage, error) {
	lg := opLogger(ctx, "list_all")

	if filter.Page == 0 {
		filter.Page = 1
	}
	if filter.PageSize == 0 {
		filter.PageSize = s.cfg.DefaultPageSize
	}

	fields := map[string]string{}
	if filter.Page < 1 {
		fields["page"] = "must be >= 1"
	}
	if filter.PageSize < 1 || filter.PageSize > s.cfg.MaxPageSize {
		fields["page_size"] = fmt.Sprintf("must be between 1 and %d", s.cfg.MaxPageSize)
	} else if filter.Page > 1 && filter.Page-1 > math.MaxInt/filter.PageSize {
		fields["page"] = "is too large"
	}
	if filter.State != nil && !filter.State.IsValid() {
		fields["state"] = "is not a known return state"
	}
	if len(fields) > 0 {
		return nil, model.NewInvalidInputError("invalid listing parameters", fields)
	}

	requests, total, err := s.store.ListAll(ctx, filter)
	if err != nil {
		return nil, operationError(&lg, "failed to list return requests", err)
	}
	return &ListPage{Items: requests, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

// =====================================================
// HELPERS
// =====================================================

func opLogger(ctx context.Context, op string) zerolog.Logger {
	return logger.FromContext(ctx).With().Str("component", "returns").Str("op", op).Logger()
}

func transitionLogger(ctx context.Context, op string, requestID, actorID uuid.UUID) zerolog.Logger {
	return opLogger(ctx, op).With().
		Str("return_request_id", requestID.String()).
		Str("actor_id", actorID.String()).
		Logger()
}

func invalidInput(lg *zerolog.Logger, err error) error {
	fields := model.FieldErrors(err)
	lg.Warn().Interface("fields", fields).Msg("return request input rejected")
	return model.NewInvalidInputError("invalid input", fields)
}

func operationError(lg *zerolog.Logger, message string, cause error) error {
	lg.Error().Err(cause).Msg(message)
	return model.NewOperationError(message, cause)
}

// outcomeError maps a store outcome onto the error taxonomy. nil on success.
func outcomeError(lg *zerolog.Logger, o model.Outcome) error {
	if o.Kind == model.OutcomeSuccess {
		return nil
	}
	lg.Warn().Str("outcome", o.Kind.String()).Str("reason", o.Reason).Msg("return request transition rejected")

	switch o.Kind {
	case model.OutcomeNotFound:
		return model.NewNotFoundError(o.Reason)
	case model.OutcomeForbidden:
		return model.NewPermissionDeniedError(o.Reason)
	case model.OutcomeConflict:
		return model.NewConflictError(o.Reason)
	case model.OutcomeInvalid:
		return model.NewInvalidInputError(o.Reason, nil)
	default:
		return operationError(lg, "unexpected store outcome", fmt.Errorf("unmapped outcome %s", o.Kind))
	}
}

// normalizeOptional trims optional text; blank becomes nil.
func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
