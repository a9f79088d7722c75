package payments

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"clinic-service/internal/app/contracts"
	"clinic-service/internal/app/models"
	"clinic-service/internal/pkg/constvars"
	"clinic-service/internal/pkg/queries"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var paymentRowColumns = []string{
	"id", "user_id", "provider", "provider_transaction_id", "amount", "currency", "status",
	"customer_email", "metadata", "appointment_id", "created_at", "updated_at",
}

func newMockPaymentRepository(t *testing.T) (*paymentPostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &paymentPostgresRepository{DB: db}, mock
}

func paymentRow(rows *sqlmock.Rows, id string, provider models.PaymentProvider, status models.PaymentStatus, metadata string) *sqlmock.Rows {
	return rows.AddRow(id, "user-1", string(provider), "ref123", "15000.00", "NGN", string(status),
		"patient@example.com", []byte(metadata), nil, testNow, testNow)
}

// metadataArg matches the JSON document written to payments.metadata.
type metadataArg func(models.Metadata) bool

func (m metadataArg) Match(v driver.Value) bool {
	var decoded models.Metadata
	if err := decoded.Scan(v); err != nil {
		return false
	}
	return m(decoded)
}

func chargeSuccessInput(newStatus models.PaymentStatus) *contracts.ApplyPaymentEventInput {
	return &contracts.ApplyPaymentEventInput{
		Event: models.PaymentEvent{
			PaymentID: "p1",
			EventID:   "paystack:charge.success:ref123",
			EventType: "charge.success",
			Provider:  models.PaymentProviderPaystack,
		},
		NewStatus:     newStatus,
		MetadataPatch: models.Metadata{constvars.MetadataKeyLastSeenStatus: "success"},
	}
}

func TestApplyPaymentEvent_RecordsAndTransitionsOpenPayment(t *testing.T) {
	repo, mock := newMockPaymentRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(queries.GetPaymentByIDForUpdate).
		WithArgs("p1").
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentRowColumns), "p1", models.PaymentProviderPaystack, models.PaymentStatusPending, `{"processed_events":["older"]}`))
	mock.ExpectExec(queries.InsertPaymentEventIfAbsent).
		WithArgs("p1", "paystack:charge.success:ref123", "charge.success", "paystack").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(queries.ReplacePaymentStatusAndMetadata).
		WithArgs("p1", "completed", metadataArg(func(m models.Metadata) bool {
			events := m.ProcessedEvents(constvars.MetadataKeyProcessedEvents)
			return len(events) == 2 && events[1] == "paystack:charge.success:ref123" &&
				m.String(constvars.MetadataKeyLastSeenStatus) == "success"
		})).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.ApplyPaymentEvent(context.Background(), chargeSuccessInput(models.PaymentStatusCompleted))
	require.NoError(t, err)
	assert.True(t, result.Transitioned)
	assert.False(t, result.Duplicate)
	assert.Equal(t, models.PaymentStatusCompleted, result.Payment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPaymentEvent_ConflictingInsertIsDuplicate(t *testing.T) {
	repo, mock := newMockPaymentRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(queries.GetPaymentByIDForUpdate).
		WithArgs("p1").
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentRowColumns), "p1", models.PaymentProviderPaystack, models.PaymentStatusPending, `{}`))
	mock.ExpectExec(queries.InsertPaymentEventIfAbsent).
		WithArgs("p1", "paystack:charge.success:ref123", "charge.success", "paystack").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	result, err := repo.ApplyPaymentEvent(context.Background(), chargeSuccessInput(models.PaymentStatusCompleted))
	require.NoError(t, err)
	assert.True(t, result.Duplicate)
	assert.False(t, result.Transitioned)
	assert.Equal(t, models.PaymentStatusPending, result.Payment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPaymentEvent_TerminalPaymentKeepsStatus(t *testing.T) {
	repo, mock := newMockPaymentRepository(t)

	mock.ExpectBegin()
	mock.ExpectQuery(queries.GetPaymentByIDForUpdate).
		WithArgs("p1").
		WillReturnRows(paymentRow(sqlmock.NewRows(paymentRowColumns), "p1", models.PaymentProviderPaystack, models.PaymentStatusExpired, `{}`))
	mock.ExpectExec(queries.InsertPaymentEventIfAbsent).
		WithArgs("p1", "paystack:charge.success:ref123", "charge.success", "paystack").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(queries.ReplacePaymentStatusAndMetadata).
		WithArgs("p1", "expired", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.ApplyPaymentEvent(context.Background(), chargeSuccessInput(models.PaymentStatusCompleted))
	require.NoError(t, err)
	assert.False(t, result.Transitioned)
	assert.Equal(t, models.PaymentStatusExpired, result.Payment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestApplyPaymentEvent_Errors(t *testing.T) {
	tests := []struct {
		name       string
		setup      func(mock sqlmock.Sqlmock)
		wantStatus int
	}{
		{
			name: "payment missing",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(queries.GetPaymentByIDForUpdate).WithArgs("p1").WillReturnError(sql.ErrNoRows)
			},
			wantStatus: 404,
		},
		{
			name: "ledger insert fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(queries.GetPaymentByIDForUpdate).
					WithArgs("p1").
					WillReturnRows(paymentRow(sqlmock.NewRows(paymentRowColumns), "p1", models.PaymentProviderPaystack, models.PaymentStatusPending, `{}`))
				mock.ExpectExec(queries.InsertPaymentEventIfAbsent).WillReturnError(errors.New("connection reset"))
			},
			wantStatus: 500,
		},
		{
			name: "status write fails",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(queries.GetPaymentByIDForUpdate).
					WithArgs("p1").
					WillReturnRows(paymentRow(sqlmock.NewRows(paymentRowColumns), "p1", models.PaymentProviderPaystack, models.PaymentStatusPending, `{}`))
				mock.ExpectExec(queries.InsertPaymentEventIfAbsent).WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectExec(queries.ReplacePaymentStatusAndMetadata).WillReturnError(errors.New("connection reset"))
			},
			wantStatus: 500,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockPaymentRepository(t)
			mock.ExpectBegin()
			tt.setup(mock)
			mock.ExpectRollback()

			result, err := repo.ApplyPaymentEvent(context.Background(), chargeSuccessInput(models.PaymentStatusCompleted))
			assert.Nil(t, result)
			assertCustomError(t, err, tt.wantStatus)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestFindByProviderTransactionID_ReturnsEveryProvider(t *testing.T) {
	repo, mock := newMockPaymentRepository(t)

	rows := sqlmock.NewRows(paymentRowColumns)
	paymentRow(rows, "p-flw", models.PaymentProviderFlutterwave, models.PaymentStatusPending, `{}`)
	paymentRow(rows, "p-pstk", models.PaymentProviderPaystack, models.PaymentStatusPending, `{}`)
	mock.ExpectQuery(queries.GetPaymentsByProviderTransactionID).WithArgs("ref123").WillReturnRows(rows)

	payments, err := repo.FindByProviderTransactionID(context.Background(), "ref123")
	require.NoError(t, err)
	require.Len(t, payments, 2)
	assert.Equal(t, models.PaymentProviderFlutterwave, payments[0].Provider)
	assert.Equal(t, models.PaymentProviderPaystack, payments[1].Provider)
	assert.True(t, payments[1].Amount.Equal(payments[0].Amount))
	assert.NoError(t, mock.ExpectationsWereMet())
}
