package contracts

import (
	"context"

	"clinic-service/internal/app/models"
)

type AppointmentRepository interface {
	FindByID(ctx context.Context, appointmentID string) (*models.Appointment, error)
	CreateAppointment(ctx context.Context, appointment *models.Appointment) (*models.Appointment, error)
	DeleteAppointment(ctx context.Context, appointmentID string) error
}
