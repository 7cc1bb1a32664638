package repository

import (
	"context"

	"hostdash/internal/domain/grant"
	"hostdash/internal/domain/payment"
	"hostdash/internal/infra"
	"hostdash/internal/infra/db"
	"hostdash/internal/pkg/pgconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const paymentColumns = `id, provider, provider_order_id, provider_capture_id, user_id, plan_id,
	amount, currency, status, billing_cycle, coupon_code, failure_reason, created_at, updated_at`

type PaymentRepository struct {
	db db.DBTX
}

func NewPaymentRepository(db db.DBTX) *PaymentRepository {
	return &PaymentRepository{db: db}
}

func (r *PaymentRepository) Create(ctx context.Context, p *payment.Payment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO payments (`+paymentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID(), p.Provider(), pgconv.StringPtrToPgtype(p.ProviderOrderID()), pgconv.StringPtrToPgtype(p.ProviderCaptureID()),
		p.UserID(), p.PlanID(), pgconv.DecimalToNumeric(p.Amount()), p.Currency(), p.Status().String(),
		p.BillingCycle().String(), pgconv.StringPtrToPgtype(p.CouponCode()), pgconv.StringPtrToPgtype(p.FailureReason()),
		p.CreatedAt(), p.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to create payment", err)
	}
	return nil
}

func (r *PaymentRepository) Update(ctx context.Context, p *payment.Payment) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE payments SET
			provider_order_id = $2, provider_capture_id = $3,
			status = $4, failure_reason = $5, updated_at = $6
		WHERE id = $1`,
		p.ID(), pgconv.StringPtrToPgtype(p.ProviderOrderID()), pgconv.StringPtrToPgtype(p.ProviderCaptureID()),
		p.Status().String(), pgconv.StringPtrToPgtype(p.FailureReason()), p.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update payment", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.NotFound("payment not found")
	}
	return nil
}

func (r *PaymentRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	p, err := scanPayment(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find payment by id", err)
	}
	return p, nil
}

func (r *PaymentRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*payment.Payment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
	p, err := scanPayment(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to lock payment", err)
	}
	return p, nil
}

func (r *PaymentRepository) FindByProviderOrderID(ctx context.Context, provider, orderID string) (*payment.Payment, error) {
	row := r.db.QueryRow(ctx, `
		SELECT `+paymentColumns+` FROM payments
		WHERE provider = $1 AND provider_order_id = $2`, provider, orderID)
	p, err := scanPayment(row)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to find payment by order id", err)
	}
	return p, nil
}

func scanPayment(row pgx.Row) (*payment.Payment, error) {
	var (
		p         payment.ReconstructParams
		orderID   pgtype.Text
		captureID pgtype.Text
		amount    pgtype.Numeric
		status    string
		cycle     string
		coupon    pgtype.Text
		failure   pgtype.Text
	)
	err := row.Scan(
		&p.ID, &p.Provider, &orderID, &captureID, &p.UserID, &p.PlanID,
		&amount, &p.Currency, &status, &cycle, &coupon, &failure, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.Amount, err = pgconv.DecimalFromNumeric(amount); err != nil {
		return nil, err
	}
	p.ProviderOrderID = pgconv.StringPtrFromPgtype(orderID)
	p.ProviderCaptureID = pgconv.StringPtrFromPgtype(captureID)
	p.Status = payment.Status(status)
	p.BillingCycle = grant.BillingCycle(cycle)
	p.CouponCode = pgconv.StringPtrFromPgtype(coupon)
	p.FailureReason = pgconv.StringPtrFromPgtype(failure)
	return payment.Reconstruct(p), nil
}
