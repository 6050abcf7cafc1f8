package database

// SQL used by the repository. Column lists match the scan order in
// supabase.DatabaseClient.
const (
	eventColumns    = `id, user_id, name, logo_path, created_at, updated_at`
	sessionColumns  = `id, event_id, user_id, created_at, updated_at`
	artifactColumns = `id, session_id, style, storage_path, created_at, updated_at`
	shareColumns    = `id, session_id, user_id, token, expires_at, created_at`
)

const (
	InsertEvent = `
		INSERT INTO events (user_id, name)
		VALUES ($1, $2)
		RETURNING ` + eventColumns

	SelectEventsByUser = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE user_id = $1
		ORDER BY created_at DESC`

	SelectEvent = `
		SELECT ` + eventColumns + `
		FROM events
		WHERE id = $1 AND user_id = $2`

	UpdateEventLogo = `
		UPDATE events
		SET logo_path = $1, updated_at = NOW()
		WHERE id = $2 AND user_id = $3`

	DeleteEvent = `
		DELETE FROM events
		WHERE id = $1 AND user_id = $2`
)

const (
	InsertSession = `
		INSERT INTO sessions (event_id, user_id)
		VALUES ($1, $2)
		RETURNING ` + sessionColumns

	SelectSession = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE id = $1 AND user_id = $2`

	SelectSessionsByEvent = `
		SELECT ` + sessionColumns + `
		FROM sessions
		WHERE event_id = $1 AND user_id = $2
		ORDER BY created_at DESC`
)

const (
	InsertStyledImage = `
		INSERT INTO styled_images (session_id, style)
		VALUES ($1, $2)
		RETURNING id`

	// the empty-path guard makes the path transition happen at most once
	UpdateStyledImagePath = `
		UPDATE styled_images
		SET storage_path = $1, updated_at = NOW()
		WHERE id = $2 AND storage_path = ''`

	SelectStyledImagesBySession = `
		SELECT ` + artifactColumns + `
		FROM styled_images
		WHERE session_id = $1
		ORDER BY created_at ASC`
)

const (
	InsertShare = `
		INSERT INTO shares (session_id, user_id, token, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + shareColumns

	SelectShareByToken = `
		SELECT ` + shareColumns + `
		FROM shares
		WHERE token = $1`
)
