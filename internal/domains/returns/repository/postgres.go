package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"campus-market-backend/internal/domains/returns/model"
	"campus-market-backend/pkg/database"
)

const (
	pgUniqueViolation        = "23505"
	activeOrderConstraint    = "uq_return_requests_active_order"
	activeStatesSQL          = `('awaiting_seller', 'seller_rejected', 'awaiting_admin_resolution')`
	selectReturnRequestQuery = `
		SELECT
			r.id, r.order_id, r.buyer_id, r.seller_id, r.product_id,
			r.request_reason_detail, r.return_reason_code, r.state,
			r.seller_notes, r.seller_action_time,
			r.intervention_reason, r.intervention_time,
			r.resolution_action, r.admin_id, r.admin_notes, r.resolution_time,
			r.resolution_details, r.created_at, r.updated_at,
			COALESCE(p.name, '')
		FROM return_requests r
		LEFT JOIN products p ON p.id = r.product_id
	`
)

// =====================================================
// POSTGRES STORE
// =====================================================
type postgresStore struct {
	pool       *pgxpool.Pool
	returnable []string
}

// NewPostgresStore returns a Store over pgx. returnableStatuses are the order
// statuses that may be returned.
func NewPostgresStore(pool *pgxpool.Pool, returnableStatuses []string) Store {
	return &postgresStore{
		pool:       pool,
		returnable: returnableStatuses,
	}
}

// =====================================================
// WRITES
// =====================================================

// Create is a single INSERT ... SELECT: ownership and returnable status are
// checked in the WHERE clause and the partial unique index arbitrates the
// one-active-request rule, so there is no window between check and insert.
func (s *postgresStore) Create(ctx context.Context, in model.NewReturnRequest) (model.Outcome, error) {
	now := time.Now().UTC()
	audit, err := auditJSON(model.AuditEntry{
		ActorID:   in.BuyerID,
		ActorRole: model.RoleBuyer,
		Action:    model.AuditActionCreated,
		ToState:   model.StateAwaitingSeller,
		At:        now,
	})
	if err != nil {
		return model.Outcome{}, err
	}

	query := `
		INSERT INTO return_requests (
			order_id, buyer_id, seller_id, product_id,
			request_reason_detail, return_reason_code, state,
			resolution_details, created_at, updated_at
		)
		SELECT o.id, o.buyer_id, p.seller_id, p.id, $3, $4, $5, $6::jsonb, $7, $7
		FROM orders o
		JOIN products p ON p.id = o.product_id
		WHERE o.id = $1 AND o.buyer_id = $2 AND o.status = ANY($8)
		ON CONFLICT (order_id) WHERE state IN ` + activeStatesSQL + ` DO NOTHING
		RETURNING id
	`

	var id uuid.UUID
	err = s.pool.QueryRow(ctx, query,
		in.OrderID,
		in.BuyerID,
		in.RequestReasonDetail,
		string(in.ReturnReasonCode),
		string(model.StateAwaitingSeller),
		audit,
		now,
		s.returnable,
	).Scan(&id)

	switch {
	case err == nil:
		return model.SuccessOutcome(id, model.StateAwaitingSeller), nil
	case isActiveOrderViolation(err):
		return model.ConflictOutcome("an active return request already exists for this order"), nil
	case !errors.Is(err, pgx.ErrNoRows):
		return model.Outcome{}, fmt.Errorf("failed to create return request: %w", err)
	}

	// Nothing inserted: find out why.
	var (
		buyerID uuid.UUID
		status  string
	)
	err = s.pool.QueryRow(ctx, `SELECT buyer_id, status FROM orders WHERE id = $1`, in.OrderID).Scan(&buyerID, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return classifyCreate(nil, "", in.BuyerID, nil), nil
	}
	if err != nil {
		return model.Outcome{}, fmt.Errorf("failed to classify create: %w", err)
	}
	return classifyCreate(&buyerID, status, in.BuyerID, statusSet(s.returnable)), nil
}

func (s *postgresStore) Handle(ctx context.Context, id, sellerID uuid.UUID, agree bool, notes *string) (model.Outcome, error) {
	next, action := model.StateSellerRejected, model.AuditActionSellerRejected
	if agree {
		next, action = model.StateSellerApproved, model.AuditActionSellerApproved
	}

	return database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (model.Outcome, error) {
		now := time.Now().UTC()
		audit, err := auditJSON(model.AuditEntry{
			ActorID:   sellerID,
			ActorRole: model.RoleSeller,
			Action:    action,
			FromState: model.StateAwaitingSeller,
			ToState:   next,
			Note:      derefOr(notes),
			At:        now,
		})
		if err != nil {
			return model.Outcome{}, err
		}

		query := `
			UPDATE return_requests
			SET state = $3,
			    seller_notes = $4,
			    seller_action_time = $5,
			    resolution_details = resolution_details || $6::jsonb,
			    updated_at = $5
			WHERE id = $1 AND seller_id = $2 AND state = $7
		`
		tag, err := tx.Exec(ctx, query, id, sellerID, string(next), notes, now, audit, string(model.StateAwaitingSeller))
		if err != nil {
			return model.Outcome{}, fmt.Errorf("failed to handle return request: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return model.SuccessOutcome(id, next), nil
		}

		current, err := s.snapshot(ctx, tx, id)
		if err != nil {
			return model.Outcome{}, err
		}
		return classifyTransition(current, handlePermitted(current, sellerID), model.StateAwaitingSeller), nil
	})
}

func (s *postgresStore) RequestIntervention(ctx context.Context, id, buyerID uuid.UUID, reason string) (model.Outcome, error) {
	next := model.StateAwaitingAdminResolution

	return database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (model.Outcome, error) {
		now := time.Now().UTC()
		audit, err := auditJSON(model.AuditEntry{
			ActorID:   buyerID,
			ActorRole: model.RoleBuyer,
			Action:    model.AuditActionInterventionRequested,
			FromState: model.StateSellerRejected,
			ToState:   next,
			Note:      reason,
			At:        now,
		})
		if err != nil {
			return model.Outcome{}, err
		}

		query := `
			UPDATE return_requests
			SET state = $3,
			    intervention_reason = $4,
			    intervention_time = $5,
			    resolution_details = resolution_details || $6::jsonb,
			    updated_at = $5
			WHERE id = $1 AND buyer_id = $2 AND state = $7
		`
		tag, err := tx.Exec(ctx, query, id, buyerID, string(next), reason, now, audit, string(model.StateSellerRejected))
		if err != nil {
			return model.Outcome{}, fmt.Errorf("failed to request intervention: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return model.SuccessOutcome(id, next), nil
		}

		current, err := s.snapshot(ctx, tx, id)
		if err != nil {
			return model.Outcome{}, err
		}
		return classifyTransition(current, escalatePermitted(current, buyerID), model.StateSellerRejected), nil
	})
}

func (s *postgresStore) AdminResolve(ctx context.Context, id, adminID uuid.UUID, action model.ResolutionAction, notes *string) (model.Outcome, error) {
	next, ok := action.TargetState()
	if !ok {
		return model.InvalidOutcome(fmt.Sprintf("unknown resolution action %q", action)), nil
	}

	return database.WithTransactionResult(ctx, s.pool, func(tx pgx.Tx) (model.Outcome, error) {
		now := time.Now().UTC()
		audit, err := auditJSON(model.AuditEntry{
			ActorID:   adminID,
			ActorRole: model.RoleAdmin,
			Action:    model.AuditActionAdminResolved,
			FromState: model.StateAwaitingAdminResolution,
			ToState:   next,
			Note:      derefOr(notes),
			At:        now,
		})
		if err != nil {
			return model.Outcome{}, err
		}

		query := `
			UPDATE return_requests
			SET state = $2,
			    resolution_action = $3,
			    admin_id = $4,
			    admin_notes = $5,
			    resolution_time = $6,
			    resolution_details = resolution_details || $7::jsonb,
			    updated_at = $6
			WHERE id = $1 AND state = $8
		`
		tag, err := tx.Exec(ctx, query, id, string(next), string(action), adminID, notes, now, audit,
			string(model.StateAwaitingAdminResolution))
		if err != nil {
			return model.Outcome{}, fmt.Errorf("failed to resolve return request: %w", err)
		}
		if tag.RowsAffected() == 1 {
			return model.SuccessOutcome(id, next), nil
		}

		current, err := s.snapshot(ctx, tx, id)
		if err != nil {
			return model.Outcome{}, err
		}
		return classifyTransition(current, true, model.StateAwaitingAdminResolution), nil
	})
}

// snapshot re-reads the row inside the failed write's transaction.
func (s *postgresStore) snapshot(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*snapshot, error) {
	var (
		snap  snapshot
		state string
	)
	err := tx.QueryRow(ctx,
		`SELECT buyer_id, seller_id, state FROM return_requests WHERE id = $1`, id,
	).Scan(&snap.BuyerID, &snap.SellerID, &state)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to re-read return request: %w", err)
	}
	snap.State = model.State(state)
	return &snap, nil
}

// =====================================================
// READS
// =====================================================

func (s *postgresStore) GetByID(ctx context.Context, id uuid.UUID) (*model.ReturnRequest, error) {
	row := s.pool.QueryRow(ctx, selectReturnRequestQuery+` WHERE r.id = $1`, id)

	req, err := scanReturnRequest(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get return request: %w", err)
	}
	return req, nil
}

func (s *postgresStore) GetByUserID(ctx context.Context, userID uuid.UUID) ([]model.ReturnRequest, bool, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists); err != nil {
		return nil, false, fmt.Errorf("failed to check user: %w", err)
	}
	if !exists {
		return nil, false, nil
	}

	rows, err := s.pool.Query(ctx,
		selectReturnRequestQuery+` WHERE r.buyer_id = $1 OR r.seller_id = $1 ORDER BY r.created_at DESC, r.id`,
		userID,
	)
	if err != nil {
		return nil, true, fmt.Errorf("failed to list return requests: %w", err)
	}
	defer rows.Close()

	requests, err := collectReturnRequests(rows)
	if err != nil {
		return nil, true, err
	}
	return requests, true, nil
}

func (s *postgresStore) ListAll(ctx context.Context, filter model.AdminListFilter) ([]model.ReturnRequest, int, error) {
	var state *string
	if filter.State != nil {
		v := string(*filter.State)
		state = &v
	}

	var total int
	if err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM return_requests r WHERE ($1::text IS NULL OR r.state = $1::text)`, state,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count return requests: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		selectReturnRequestQuery+`
		WHERE ($1::text IS NULL OR r.state = $1::text)
		ORDER BY r.created_at ASC, r.id
		LIMIT $2 OFFSET $3`,
		state, filter.PageSize, filter.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list return requests: %w", err)
	}
	defer rows.Close()

	requests, err := collectReturnRequests(rows)
	if err != nil {
		return nil, 0, err
	}
	return requests, total, nil
}

// =====================================================
// HELPERS
// =====================================================

func scanReturnRequest(row pgx.Row) (*model.ReturnRequest, error) {
	var (
		r                model.ReturnRequest
		reasonCode       string
		state            string
		resolutionAction *string
	)
	err := row.Scan(
		&r.ID,
		&r.OrderID,
		&r.BuyerID,
		&r.SellerID,
		&r.ProductID,
		&r.RequestReasonDetail,
		&reasonCode,
		&state,
		&r.SellerNotes,
		&r.SellerActionTime,
		&r.InterventionReason,
		&r.InterventionTime,
		&resolutionAction,
		&r.AdminID,
		&r.AdminNotes,
		&r.ResolutionTime,
		&r.ResolutionDetails,
		&r.CreatedAt,
		&r.UpdatedAt,
		&r.ProductName,
	)
	if err != nil {
		return nil, err
	}

	r.ReturnReasonCode = model.ReasonCode(reasonCode)
	r.State = model.State(state)
	if resolutionAction != nil {
		a := model.ResolutionAction(*resolutionAction)
		r.ResolutionAction = &a
	}
	if r.ResolutionDetails == nil {
		r.ResolutionDetails = []model.AuditEntry{}
	}
	return &r, nil
}

func collectReturnRequests(rows pgx.Rows) ([]model.ReturnRequest, error) {
	requests := make([]model.ReturnRequest, 0)
	for rows.Next() {
		r, err := scanReturnRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan return request: %w", err)
		}
		requests = append(requests, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate return requests: %w", err)
	}
	return requests, nil
}

// auditJSON encodes one entry as a one element JSON array, ready for jsonb ||.
func auditJSON(entry model.AuditEntry) (string, error) {
	raw, err := json.Marshal([]model.AuditEntry{entry})
	if err != nil {
		return "", fmt.Errorf("failed to encode audit entry: %w", err)
	}
	return string(raw), nil
}

func isActiveOrderViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation && pgErr.ConstraintName == activeOrderConstraint
}
