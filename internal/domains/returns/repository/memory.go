package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	ordermodel "campus-market-backend/internal/domains/order/model"
	orderrepo "campus-market-backend/internal/domains/order/repository"
	"campus-market-backend/internal/domains/returns/model"
)

// MemoryStore is a Store held in process memory. One mutex guards the map,
// so every write is a compare-and-swap with the same outcomes as the
// Postgres store.
type MemoryStore struct {
	mu         sync.Mutex
	orders     orderrepo.OrderLookup
	returnable map[string]struct{}
	users      map[uuid.UUID]struct{}
	requests   map[uuid.UUID]*model.ReturnRequest
	now        func() time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore builds an in-process Store. Buyers and sellers of created
// requests become known users; AddUsers registers others.
func NewMemoryStore(orders orderrepo.OrderLookup, returnableStatuses []string) *MemoryStore {
	return &MemoryStore{
		orders:     orders,
		returnable: statusSet(returnableStatuses),
		users:      make(map[uuid.UUID]struct{}),
		requests:   make(map[uuid.UUID]*model.ReturnRequest),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// AddUsers makes users known to GetByUserID.
func (s *MemoryStore) AddUsers(ids ...uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		s.users[id] = struct{}{}
	}
}

// Count returns how many requests exist for an order, optionally only active ones.
func (s *MemoryStore) Count(orderID uuid.UUID, activeOnly bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.OrderID == orderID && (!activeOnly || r.State.IsActive()) {
			n++
		}
	}
	return n
}

func (s *MemoryStore) Create(ctx context.Context, in model.NewReturnRequest) (model.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, err := s.orders.GetOrderDetails(ctx, in.OrderID)
	if errors.Is(err, ordermodel.ErrOrderNotFound) {
		return classifyCreate(nil, "", in.BuyerID, s.returnable), nil
	}
	if err != nil {
		return model.Outcome{}, fmt.Errorf("failed to load order: %w", err)
	}

	eligible := order.BuyerID == in.BuyerID
	if _, ok := s.returnable[order.Status]; !ok {
		eligible = false
	}
	for _, r := range s.requests {
		if r.OrderID == in.OrderID && r.State.IsActive() {
			eligible = false
			break
		}
	}
	if !eligible {
		return classifyCreate(&order.BuyerID, order.Status, in.BuyerID, s.returnable), nil
	}

	now := s.now()
	req := &model.ReturnRequest{
		ID:                  uuid.New(),
		OrderID:             order.ID,
		BuyerID:             order.BuyerID,
		SellerID:            order.SellerID,
		ProductID:           order.ProductID,
		ProductName:         order.ProductName,
		RequestReasonDetail: in.RequestReasonDetail,
		ReturnReasonCode:    in.ReturnReasonCode,
		State:               model.StateAwaitingSeller,
		ResolutionDetails: []model.AuditEntry{{
			ActorID:   in.BuyerID,
			ActorRole: model.RoleBuyer,
			Action:    model.AuditActionCreated,
			ToState:   model.StateAwaitingSeller,
			At:        now,
		}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.requests[req.ID] = req
	s.users[order.BuyerID] = struct{}{}
	s.users[order.SellerID] = struct{}{}

	return model.SuccessOutcome(req.ID, req.State), nil
}

func (s *MemoryStore) Handle(_ context.Context, id, sellerID uuid.UUID, agree bool, notes *string) (model.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, snap := s.lookup(id)
	if !handlePermitted(snap, sellerID) || snap.State != model.StateAwaitingSeller {
		return classifyTransition(snap, handlePermitted(snap, sellerID), model.StateAwaitingSeller), nil
	}

	next, action := model.StateSellerRejected, model.AuditActionSellerRejected
	if agree {
		next, action = model.StateSellerApproved, model.AuditActionSellerApproved
	}

	now := s.now()
	req.SellerNotes = copyString(notes)
	req.SellerActionTime = &now
	s.advance(req, next, model.AuditEntry{
		ActorID:   sellerID,
		ActorRole: model.RoleSeller,
		Action:    action,
		Note:      derefOr(notes),
		At:        now,
	})
	return model.SuccessOutcome(id, next), nil
}

func (s *MemoryStore) RequestIntervention(_ context.Context, id, buyerID uuid.UUID, reason string) (model.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, snap := s.lookup(id)
	if !escalatePermitted(snap, buyerID) || snap.State != model.StateSellerRejected {
		return classifyTransition(snap, escalatePermitted(snap, buyerID), model.StateSellerRejected), nil
	}

	now := s.now()
	req.InterventionReason = &reason
	req.InterventionTime = &now
	s.advance(req, model.StateAwaitingAdminResolution, model.AuditEntry{
		ActorID:   buyerID,
		ActorRole: model.RoleBuyer,
		Action:    model.AuditActionInterventionRequested,
		Note:      reason,
		At:        now,
	})
	return model.SuccessOutcome(id, model.StateAwaitingAdminResolution), nil
}

func (s *MemoryStore) AdminResolve(_ context.Context, id, adminID uuid.UUID, action model.ResolutionAction, notes *string) (model.Outcome, error) {
	next, ok := action.TargetState()
	if !ok {
		return model.InvalidOutcome(fmt.Sprintf("unknown resolution action %q", action)), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req, snap := s.lookup(id)
	if snap == nil || snap.State != model.StateAwaitingAdminResolution {
		return classifyTransition(snap, true, model.StateAwaitingAdminResolution), nil
	}

	now := s.now()
	a := action
	admin := adminID
	req.ResolutionAction = &a
	req.AdminID = &admin
	req.AdminNotes = copyString(notes)
	req.ResolutionTime = &now
	s.advance(req, next, model.AuditEntry{
		ActorID:   adminID,
		ActorRole: model.RoleAdmin,
		Action:    model.AuditActionAdminResolved,
		Note:      derefOr(notes),
		At:        now,
	})
	return model.SuccessOutcome(id, next), nil
}

func (s *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (*model.ReturnRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	req, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	return cloneRequest(req), nil
}

func (s *MemoryStore) GetByUserID(_ context.Context, userID uuid.UUID) ([]model.ReturnRequest, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return nil, false, nil
	}

	out := make([]model.ReturnRequest, 0)
	for _, r := range s.requests {
		if r.IsParty(userID) {
			out = append(out, *cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, true, nil
}

func (s *MemoryStore) ListAll(_ context.Context, filter model.AdminListFilter) ([]model.ReturnRequest, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	matched := make([]model.ReturnRequest, 0)
	for _, r := range s.requests {
		if filter.State == nil || r.State == *filter.State {
			matched = append(matched, *cloneRequest(r))
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := len(matched)
	start := filter.Offset()
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := total
	if filter.PageSize > 0 && filter.PageSize < total-start {
		end = start + filter.PageSize
	}
	return matched[start:end], total, nil
}

// lookup must be called with mu held.
func (s *MemoryStore) lookup(id uuid.UUID) (*model.ReturnRequest, *snapshot) {
	req, ok := s.requests[id]
	if !ok {
		return nil, nil
	}
	return req, &snapshot{BuyerID: req.BuyerID, SellerID: req.SellerID, State: req.State}
}

// advance moves req along one edge and appends the audit entry. mu must be held.
func (s *MemoryStore) advance(req *model.ReturnRequest, next model.State, entry model.AuditEntry) {
	if !model.CanTransition(req.State, next) {
		panic(fmt.Sprintf("return request %s: illegal transition %s -> %s", req.ID, req.State, next))
	}
	entry.FromState = req.State
	entry.ToState = next
	req.ResolutionDetails = append(req.ResolutionDetails, entry)
	req.State = next
	req.UpdatedAt = entry.At
}

func cloneRequest(r *model.ReturnRequest) *model.ReturnRequest {
	c := *r
	c.SellerNotes = copyString(r.SellerNotes)
	c.InterventionReason = copyString(r.InterventionReason)
	c.AdminNotes = copyString(r.AdminNotes)
	c.ResolutionDetails = append([]model.AuditEntry(nil), r.ResolutionDetails...)
	if r.ResolutionAction != nil {
		a := *r.ResolutionAction
		c.ResolutionAction = &a
	}
	if r.AdminID != nil {
		id := *r.AdminID
		c.AdminID = &id
	}
	return &c
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
