package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"campus-market-backend/internal/domains/returns/model"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Create(ctx context.Context, in model.NewReturnRequest) (model.Outcome, error) {
	args := m.Called(ctx, in)
	return args.Get(0).(model.Outcome), args.Error(1)
}

func (m *MockStore) Handle(ctx context.Context, id, sellerID uuid.UUID, agree bool, notes *string) (model.Outcome, error) {
	args := m.Called(ctx, id, sellerID, agree, notes)
	return args.Get(0).(model.Outcome), args.Error(1)
}

func (m *MockStore) RequestIntervention(ctx context.Context, id, buyerID uuid.UUID, reason string) (model.Outcome, error) {
	args := m.Called(ctx, id, buyerID, reason)
	return args.Get(0).(model.Outcome), args.Error(1)
}

func (m *MockStore) AdminResolve(ctx context.Context, id, adminID uuid.UUID, action model.ResolutionAction, notes *string) (model.Outcome, error) {
	args := m.Called(ctx, id, adminID, action, notes)
	return args.Get(0).(model.Outcome), args.Error(1)
}

func (m *MockStore) GetByID(ctx context.Context, id uuid.UUID) (*model.ReturnRequest, error) {
	args := m.Called(ctx, id)
	var req *model.ReturnRequest
	if args.Get(0) != nil {
		req = args.Get(0).(*model.ReturnRequest)
	}
	return req, args.Error(1)
}

func (m *MockStore) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.ReturnRequest, bool, error) {
	args := m.Called(ctx, userID)
	var reqs []model.ReturnRequest
	if args.Get(0) != nil {
		reqs = args.Get(0).([]model.ReturnRequest)
	}
	return reqs, args.Bool(1), args.Error(2)
}

func (m *MockStore) ListAll(ctx context.Context, filter model.AdminListFilter) ([]model.ReturnRequest, int, error) {
	args := m.Called(ctx, filter)
	var reqs []model.ReturnRequest
	if args.Get(0) != nil {
		reqs = args.Get(0).([]model.ReturnRequest)
	}
	return reqs, args.Int(1), args.Error(2)
}
