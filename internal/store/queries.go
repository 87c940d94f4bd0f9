package store

const (
	// One row per document, seq keeps the insertion order for listings.
	qCreateDocuments = `
		CREATE TABLE IF NOT EXISTS documents (
			seq        BIGSERIAL,
			collection TEXT NOT NULL,
			key        TEXT NOT NULL,
			body       JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (collection, key)
		);
	`

	qGetDocument = `
		SELECT body FROM documents
		WHERE collection = $1 AND key = $2;
	`

	// Same as qGetDocument, but holds the row until the transaction ends.
	qGetDocumentForUpdate = `
		SELECT body FROM documents
		WHERE collection = $1 AND key = $2
		FOR UPDATE;
	`

	qUpsertDocument = `
		INSERT INTO documents (collection, key, body)
		VALUES ($1, $2, $3)
		ON CONFLICT (collection, key)
		DO UPDATE SET body = EXCLUDED.body, updated_at = NOW();
	`

	qReplaceDocument = `
		UPDATE documents SET body = $3, updated_at = NOW()
		WHERE collection = $1 AND key = $2;
	`

	// jsonb_set does not create missing intermediate objects, the path
	// must exist up to its last segment.
	qSetDocumentField = `
		UPDATE documents
		SET   body       = jsonb_set(body, $3::text[], $4::jsonb, true), updated_at = NOW()
		WHERE collection = $1 AND key = $2;
	`

	qListDocuments = `
		SELECT body FROM documents
		WHERE collection = $1
		ORDER BY seq;
	`
)
