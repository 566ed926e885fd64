package gestureRepository

const (
	queryCreateGesture = `
		INSERT INTO gestures (
			id, user_id, gesture_type, raw_data, features,
			intention, confidence_score, generated_text, audio_url,
			processing_time_ms, created_at
		) VALUES (
			:id, :user_id, :gesture_type, :raw_data, :features,
			:intention, :confidence_score, :generated_text, :audio_url,
			:processing_time_ms, :created_at
		)
	`

	queryGetGestureByID = `
		SELECT
			id, user_id, gesture_type, raw_data, features,
			intention, confidence_score, generated_text, audio_url,
			processing_time_ms, created_at
		FROM gestures
		WHERE id = :id
	`

	queryGetGesturesByUserID = `
		SELECT
			id, user_id, gesture_type, raw_data, features,
			intention, confidence_score, generated_text, audio_url,
			processing_time_ms, created_at
		FROM gestures
		WHERE user_id = :user_id
		ORDER BY created_at DESC
		LIMIT :limit OFFSET :offset
	`

	queryCountGesturesByUserID = `
		SELECT COUNT(*)
		FROM gestures
		WHERE user_id = :user_id
	`

	queryDeleteGesture = `
		DELETE FROM gestures
		WHERE id = :id
	`
)
