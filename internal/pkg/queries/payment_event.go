package queries

const (
	CheckPaymentEventExists = `
		SELECT EXISTS (
			SELECT 1
			FROM payment_events
			WHERE payment_id = $1
				AND event_id = $2
		)
	`

	InsertPaymentEventIfAbsent = `
		INSERT INTO payment_events (
			payment_id,
			event_id,
			event_type,
			provider,
			created_at
		) VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (payment_id, event_id) DO NOTHING
	`
)
