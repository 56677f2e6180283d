package source

import "context"

// EnsureSchema creates the snapshot tables if they don't exist. Production
// databases are owned by the persistence service; this is for development
// and integration tests.
func (s *PGSource) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS investigations (
		id TEXT PRIMARY KEY,
		captured_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);

	CREATE TABLE IF NOT EXISTS properties (
		investigation_id TEXT NOT NULL REFERENCES investigations(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		registry_code TEXT NOT NULL DEFAULT '',
		area_hectares DOUBLE PRECISION NOT NULL DEFAULT 0,
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		owner_company_id TEXT NOT NULL DEFAULT '',
		owner_person_id TEXT NOT NULL DEFAULT '',
		registered_at TIMESTAMPTZ,
		attributes JSONB,
		PRIMARY KEY (investigation_id, id)
	);

	CREATE TABLE IF NOT EXISTS companies (
		investigation_id TEXT NOT NULL REFERENCES investigations(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		cnpj TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		capital DOUBLE PRECISION NOT NULL DEFAULT 0,
		open_date TIMESTAMPTZ,
		address TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		primary_activity TEXT NOT NULL DEFAULT '',
		partners JSONB,
		attributes JSONB,
		PRIMARY KEY (investigation_id, id)
	);

	CREATE TABLE IF NOT EXISTS persons (
		investigation_id TEXT NOT NULL REFERENCES investigations(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		cpf TEXT NOT NULL DEFAULT '',
		city TEXT NOT NULL DEFAULT '',
		state TEXT NOT NULL DEFAULT '',
		attributes JSONB,
		PRIMARY KEY (investigation_id, id)
	);

	CREATE TABLE IF NOT EXISTS legal_queries (
		investigation_id TEXT NOT NULL REFERENCES investigations(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		provider TEXT NOT NULL DEFAULT '',
		query_type TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL DEFAULT '',
		active_lawsuits INTEGER NOT NULL DEFAULT 0,
		text TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (investigation_id, id)
	);

	CREATE TABLE IF NOT EXISTS lease_contracts (
		investigation_id TEXT NOT NULL REFERENCES investigations(id) ON DELETE CASCADE,
		id TEXT NOT NULL,
		property_id TEXT NOT NULL DEFAULT '',
		company_id TEXT NOT NULL DEFAULT '',
		value DOUBLE PRECISION NOT NULL DEFAULT 0,
		start_date TIMESTAMPTZ,
		PRIMARY KEY (investigation_id, id)
	);

	CREATE TABLE IF NOT EXISTS relations (
		seq BIGSERIAL PRIMARY KEY,
		investigation_id TEXT NOT NULL REFERENCES investigations(id) ON DELETE CASCADE,
		source_type TEXT NOT NULL,
		source_id TEXT NOT NULL,
		target_type TEXT NOT NULL,
		target_id TEXT NOT NULL,
		type TEXT NOT NULL,
		weight DOUBLE PRECISION NOT NULL DEFAULT 1
	);

	CREATE INDEX IF NOT EXISTS idx_relations_investigation ON relations(investigation_id);
	`

	_, err := s.pool.Exec(ctx, schema)
	return err
}
