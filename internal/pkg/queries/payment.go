package queries

const paymentColumns = `
			id,
			user_id,
			provider,
			COALESCE(provider_transaction_id, ''),
			amount,
			currency,
			status,
			customer_email,
			metadata,
			appointment_id,
			created_at,
			updated_at
`

const (
	GetPaymentByID = `
		SELECT` + paymentColumns + `
		FROM payments
		WHERE id = $1
	`

	GetPaymentByIDForUpdate = `
		SELECT` + paymentColumns + `
		FROM payments
		WHERE id = $1
		FOR UPDATE
	`

	GetPaymentsByProviderTransactionID = `
		SELECT` + paymentColumns + `
		FROM payments
		WHERE provider_transaction_id = $1
		ORDER BY created_at ASC
	`

	GetStalePendingPayments = `
		SELECT` + paymentColumns + `
		FROM payments
		WHERE status = 'pending'
			AND created_at < $1
			AND provider_transaction_id IS NOT NULL
			AND provider_transaction_id <> ''
		ORDER BY created_at ASC
		LIMIT $2
	`

	InsertPayment = `
		INSERT INTO payments (
			id,
			user_id,
			provider,
			provider_transaction_id,
			amount,
			currency,
			status,
			customer_email,
			metadata,
			created_at,
			updated_at
		) VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9, NOW(), NOW())
		RETURNING created_at, updated_at
	`

	UpdatePaymentProviderTransactionID = `
		UPDATE payments
		SET provider_transaction_id = $2,
			metadata = COALESCE(metadata, '{}'::jsonb) || $3::jsonb,
			updated_at = NOW()
		WHERE id = $1
	`

	UpdatePaymentMetadata = `
		UPDATE payments
		SET metadata = COALESCE(metadata, '{}'::jsonb) || $2::jsonb,
			updated_at = NOW()
		WHERE id = $1
	`

	// Only payments that are still open may transition.
	UpdatePaymentStatusIfPending = `
		UPDATE payments
		SET status = $2,
			metadata = COALESCE(metadata, '{}'::jsonb) || $3::jsonb,
			updated_at = NOW()
		WHERE id = $1
			AND status IN ('pending', 'processing')
	`

	ReplacePaymentStatusAndMetadata = `
		UPDATE payments
		SET status = $2,
			metadata = $3::jsonb,
			updated_at = NOW()
		WHERE id = $1
	`

	LinkPaymentAppointment = `
		UPDATE payments
		SET appointment_id = $2,
			updated_at = NOW()
		WHERE id = $1
			AND appointment_id IS NULL
	`
)
