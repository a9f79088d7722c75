package queries

const (
	GetAppointmentByID = `
		SELECT
			id,
			user_id,
			branch_id,
			appointment_date::text,
			to_char(appointment_time, 'HH24:MI'),
			treatment_type,
			COALESCE(notes, ''),
			status,
			payment_id,
			created_at,
			updated_at
		FROM appointments
		WHERE id = $1
	`

	InsertAppointment = `
		INSERT INTO appointments (
			id,
			user_id,
			branch_id,
			appointment_date,
			appointment_time,
			treatment_type,
			notes,
			status,
			payment_id,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	DeleteAppointmentByID = `
		DELETE FROM appointments
		WHERE id = $1
	`
)
