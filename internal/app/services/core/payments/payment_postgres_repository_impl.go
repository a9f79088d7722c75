package payments

import (
	"context"
	"database/sql"
	"time"

	"clinic-service/internal/app/contracts"
	"clinic-service/internal/app/models"
	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/exceptions"
	"clinic-service/internal/pkg/queries"
)

type paymentPostgresRepository struct {
	DB *sql.DB
}

func NewPaymentPostgresRepository(db *sql.DB) contracts.PaymentRepository {
	return &paymentPostgresRepository{
		DB: db,
	}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPayment(row rowScanner) (*models.Payment, error) {
	var payment models.Payment
	var appointmentID sql.NullString
	err := row.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.Provider,
		&payment.ProviderTransactionID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.CustomerEmail,
		&payment.Metadata,
		&appointmentID,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if appointmentID.Valid && appointmentID.String != "" {
		payment.AppointmentID = &appointmentID.String
	}
	return &payment, nil
}

func (repo *paymentPostgresRepository) FindByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	payment, err := scanPayment(repo.DB.QueryRowContext(ctx, queries.GetPaymentByID, paymentID))
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return payment, nil
}

// FindByProviderTransactionID returns every payment carrying reference, oldest
// first. The reference is only unique per provider.
func (repo *paymentPostgresRepository) FindByProviderTransactionID(ctx context.Context, reference string) ([]models.Payment, error) {
	rows, err := repo.DB.QueryContext(ctx, queries.GetPaymentsByProviderTransactionID, reference)
	if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return collectPayments(rows)
}

func (repo *paymentPostgresRepository) FindStalePendingPayments(ctx context.Context, createdBefore time.Time, limit int) ([]models.Payment, error) {
	rows, err := repo.DB.QueryContext(ctx, queries.GetStalePendingPayments, createdBefore, limit)
	if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return collectPayments(rows)
}

func collectPayments(rows *sql.Rows) ([]models.Payment, error) {
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, exceptions.ErrPostgresDBFindData(err)
		}
		payments = append(payments, *payment)
	}

	if err := rows.Err(); err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return payments, nil
}

func (repo *paymentPostgresRepository) CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error) {
	err := repo.DB.QueryRowContext(ctx, queries.InsertPayment,
		payment.ID,
		payment.UserID,
		payment.Provider,
		payment.ProviderTransactionID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.CustomerEmail,
		payment.Metadata,
	).Scan(
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		return nil, exceptions.ErrPostgresDBInsertData(err)
	}
	return payment, nil
}

func (repo *paymentPostgresRepository) SetProviderTransactionID(ctx context.Context, paymentID, reference string, patch models.Metadata) error {
	_, err := repo.DB.ExecContext(ctx, queries.UpdatePaymentProviderTransactionID, paymentID, reference, patch)
	if err != nil {
		return exceptions.ErrPostgresDBUpdateData(err)
	}
	return nil
}

func (repo *paymentPostgresRepository) MergeMetadata(ctx context.Context, paymentID string, patch models.Metadata) error {
	_, err := repo.DB.ExecContext(ctx, queries.UpdatePaymentMetadata, paymentID, patch)
	if err != nil {
		return exceptions.ErrPostgresDBUpdateData(err)
	}
	return nil
}

func (repo *paymentPostgresRepository) HasEvent(ctx context.Context, paymentID, eventID string) (bool, error) {
	var exists bool
	err := repo.DB.QueryRowContext(ctx, queries.CheckPaymentEventExists, paymentID, eventID).Scan(&exists)
	if err != nil {
		return false, exceptions.ErrPostgresDBFindData(err)
	}
	return exists, nil
}

// ApplyPaymentEvent locks the payment row, claims the event id in the ledger
// and writes the status and metadata in the same transaction. A conflicting
// ledger insert means another delivery already claimed the event.
func (repo *paymentPostgresRepository) ApplyPaymentEvent(ctx context.Context, input *contracts.ApplyPaymentEventInput) (*contracts.ApplyPaymentEventResult, error) {
	tx, err := repo.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, exceptions.ErrPostgresDBTransaction(err)
	}
	defer tx.Rollback()

	payment, err := scanPayment(tx.QueryRowContext(ctx, queries.GetPaymentByIDForUpdate, input.Event.PaymentID))
	if err == sql.ErrNoRows {
		return nil, exceptions.ErrPaymentNotFound(err)
	} else if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}

	result, err := tx.ExecContext(ctx, queries.InsertPaymentEventIfAbsent,
		input.Event.PaymentID,
		input.Event.EventID,
		input.Event.EventType,
		input.Event.Provider,
	)
	if err != nil {
		return nil, exceptions.ErrPostgresDBInsertData(err)
	}
	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, exceptions.ErrPostgresDBInsertData(err)
	}
	if inserted == 0 {
		return &contracts.ApplyPaymentEventResult{Duplicate: true, Payment: payment}, nil
	}

	metadata := payment.Metadata.
		Merge(input.MetadataPatch).
		WithProcessedEvent(constvars.MetadataKeyProcessedEvents, input.Event.EventID, constvars.ProcessedEventsLedgerCap)

	transitioned := input.NewStatus != "" && input.NewStatus != payment.Status && payment.Status.IsOpen()
	status := payment.Status
	if transitioned {
		status = input.NewStatus
	}

	if _, err := tx.ExecContext(ctx, queries.ReplacePaymentStatusAndMetadata, payment.ID, status, metadata); err != nil {
		return nil, exceptions.ErrPostgresDBUpdateData(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, exceptions.ErrPostgresDBTransaction(err)
	}

	payment.Status = status
	payment.Metadata = metadata
	return &contracts.ApplyPaymentEventResult{Transitioned: transitioned, Payment: payment}, nil
}

func (repo *paymentPostgresRepository) UpdateStatusIfPending(ctx context.Context, paymentID string, status models.PaymentStatus, patch models.Metadata) (bool, error) {
	result, err := repo.DB.ExecContext(ctx, queries.UpdatePaymentStatusIfPending, paymentID, status, patch)
	if err != nil {
		return false, exceptions.ErrPostgresDBUpdateData(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, exceptions.ErrPostgresDBUpdateData(err)
	}
	return affected == 1, nil
}

func (repo *paymentPostgresRepository) LinkAppointment(ctx context.Context, paymentID, appointmentID string) (bool, error) {
	result, err := repo.DB.ExecContext(ctx, queries.LinkPaymentAppointment, paymentID, appointmentID)
	if err != nil {
		return false, exceptions.ErrPostgresDBUpdateData(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, exceptions.ErrPostgresDBUpdateData(err)
	}
	return affected == 1, nil
}
