package appointments

import (
	"context"
	"database/sql"

	"clinic-service/internal/app/contracts"
	"clinic-service/internal/app/models"
	"clinic-service/internal/pkg/exceptions"
	"clinic-service/internal/pkg/queries"
)

type appointmentPostgresRepository struct {
	DB *sql.DB
}

func NewAppointmentPostgresRepository(db *sql.DB) contracts.AppointmentRepository {
	return &appointmentPostgresRepository{
		DB: db,
	}
}

func (repo *appointmentPostgresRepository) FindByID(ctx context.Context, appointmentID string) (*models.Appointment, error) {
	var appointment models.Appointment
	err := repo.DB.QueryRowContext(ctx, queries.GetAppointmentByID, appointmentID).Scan(
		&appointment.ID,
		&appointment.UserID,
		&appointment.BranchID,
		&appointment.AppointmentDate,
		&appointment.AppointmentTime,
		&appointment.TreatmentType,
		&appointment.Notes,
		&appointment.Status,
		&appointment.PaymentID,
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	} else if err != nil {
		return nil, exceptions.ErrPostgresDBFindData(err)
	}
	return &appointment, nil
}

func (repo *appointmentPostgresRepository) CreateAppointment(ctx context.Context, appointment *models.Appointment) (*models.Appointment, error) {
	err := repo.DB.QueryRowContext(ctx, queries.InsertAppointment,
		appointment.ID,
		appointment.UserID,
		appointment.BranchID,
		appointment.AppointmentDate,
		appointment.AppointmentTime,
		appointment.TreatmentType,
		appointment.Notes,
		appointment.Status,
		appointment.PaymentID,
	).Scan(
		&appointment.CreatedAt,
		&appointment.UpdatedAt,
	)
	if err != nil {
		return nil, exceptions.ErrPostgresDBInsertData(err)
	}
	return appointment, nil
}

func (repo *appointmentPostgresRepository) DeleteAppointment(ctx context.Context, appointmentID string) error {
	_, err := repo.DB.ExecContext(ctx, queries.DeleteAppointmentByID, appointmentID)
	if err != nil {
		return exceptions.ErrPostgresDBDeleteData(err)
	}
	return nil
}
