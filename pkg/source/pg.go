package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dd0wney/agrorisk/pkg/entities"
)

// PGConfig configures the Postgres connection pool.
type PGConfig struct {
	DatabaseURL     string
	MaxConns        int32
	MinConns        int32
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// PGSource reads snapshots from PostgreSQL.
type PGSource struct {
	pool *pgxpool.Pool
}

// NewPGSource connects to the database and verifies it is reachable.
func NewPGSource(ctx context.Context, cfg PGConfig) (*PGSource, error) {
	config, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// Connection pooling configuration
	config.MaxConns = 25
	config.MinConns = 2
	config.MaxConnLifetime = 5 * time.Minute
	config.MaxConnIdleTime = 1 * time.Minute
	if cfg.MaxConns > 0 {
		config.MaxConns = cfg.MaxConns
	}
	if cfg.MinConns > 0 {
		config.MinConns = cfg.MinConns
	}
	if cfg.MaxConnLifetime > 0 {
		config.MaxConnLifetime = cfg.MaxConnLifetime
	}
	if cfg.MaxConnIdleTime > 0 {
		config.MaxConnIdleTime = cfg.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	return &PGSource{pool: pool}, nil
}

// Ping checks database connectivity
func (s *PGSource) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *PGSource) Name() string { return "postgres" }

// Close closes the database connection pool
func (s *PGSource) Close() error {
	s.pool.Close()
	return nil
}

// Snapshot reads every record of one investigation inside a single
// read-only repeatable-read transaction, so all tables are seen at the same
// point in time.
func (s *PGSource) Snapshot(ctx context.Context, id string) (snap *entities.Snapshot, err error) {
	if err := checkID(id); err != nil {
		return nil, err
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{
		IsoLevel:   pgx.RepeatableRead,
		AccessMode: pgx.ReadOnly,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin snapshot transaction: %w", err)
	}
	defer func() {
		// Read-only: rollback and commit are equivalent
		_ = tx.Rollback(ctx)
	}()

	snap = &entities.Snapshot{InvestigationID: id}
	err = tx.QueryRow(ctx, `SELECT captured_at FROM investigations WHERE id = $1`, id).Scan(&snap.CapturedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get investigation: %w", err)
	}

	loaders := []struct {
		table string
		load  func(context.Context, pgx.Tx, *entities.Snapshot) error
	}{
		{"properties", loadProperties},
		{"companies", loadCompanies},
		{"persons", loadPersons},
		{"legal_queries", loadLegalQueries},
		{"lease_contracts", loadLeaseContracts},
		{"relations", loadRelations},
	}
	for _, l := range loaders {
		if err := l.load(ctx, tx, snap); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", l.table, err)
		}
	}
	return snap, nil
}

func loadProperties(ctx context.Context, tx pgx.Tx, snap *entities.Snapshot) error {
	rows, err := tx.Query(ctx, `
		SELECT id, name, registry_code, area_hectares, city, state,
		       owner_company_id, owner_person_id, registered_at, attributes
		FROM properties
		WHERE investigation_id = $1
		ORDER BY id
	`, snap.InvestigationID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p entities.Property
		var attributes []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.RegistryCode, &p.AreaHectares, &p.City, &p.State,
			&p.OwnerCompanyID, &p.OwnerPersonID, &p.RegisteredAt, &attributes); err != nil {
			return err
		}
		if err := unmarshalJSONB(attributes, &p.Attributes); err != nil {
			return fmt.Errorf("property %s attributes: %w", p.ID, err)
		}
		snap.Properties = append(snap.Properties, p)
	}
	return rows.Err()
}

func loadCompanies(ctx context.Context, tx pgx.Tx, snap *entities.Snapshot) error {
	rows, err := tx.Query(ctx, `
		SELECT id, cnpj, name, status, capital, open_date, address, city, state,
		       primary_activity, partners, attributes
		FROM companies
		WHERE investigation_id = $1
		ORDER BY id
	`, snap.InvestigationID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var c entities.Company
		var partners, attributes []byte
		if err := rows.Scan(&c.ID, &c.CNPJ, &c.Name, &c.Status, &c.Capital, &c.OpenDate, &c.Address,
			&c.City, &c.State, &c.PrimaryActivity, &partners, &attributes); err != nil {
			return err
		}
		if err := unmarshalJSONB(partners, &c.Partners); err != nil {
			return fmt.Errorf("company %s partners: %w", c.ID, err)
		}
		if err := unmarshalJSONB(attributes, &c.Attributes); err != nil {
			return fmt.Errorf("company %s attributes: %w", c.ID, err)
		}
		snap.Companies = append(snap.Companies, c)
	}
	return rows.Err()
}

func loadPersons(ctx context.Context, tx pgx.Tx, snap *entities.Snapshot) error {
	rows, err := tx.Query(ctx, `
		SELECT id, name, cpf, city, state, attributes
		FROM persons
		WHERE investigation_id = $1
		ORDER BY id
	`, snap.InvestigationID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var p entities.Person
		var attributes []byte
		if err := rows.Scan(&p.ID, &p.Name, &p.CPF, &p.City, &p.State, &attributes); err != nil {
			return err
		}
		if err := unmarshalJSONB(attributes, &p.Attributes); err != nil {
			return fmt.Errorf("person %s attributes: %w", p.ID, err)
		}
		snap.Persons = append(snap.Persons, p)
	}
	return rows.Err()
}

func loadLegalQueries(ctx context.Context, tx pgx.Tx, snap *entities.Snapshot) error {
	rows, err := tx.Query(ctx, `
		SELECT id, provider, query_type, status, active_lawsuits, text
		FROM legal_queries
		WHERE investigation_id = $1
		ORDER BY id
	`, snap.InvestigationID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var q entities.LegalQuery
		if err := rows.Scan(&q.ID, &q.Provider, &q.QueryType, &q.Status, &q.ActiveLawsuits, &q.Text); err != nil {
			return err
		}
		snap.LegalQueries = append(snap.LegalQueries, q)
	}
	return rows.Err()
}

func loadLeaseContracts(ctx context.Context, tx pgx.Tx, snap *entities.Snapshot) error {
	rows, err := tx.Query(ctx, `
		SELECT id, property_id, company_id, value, start_date
		FROM lease_contracts
		WHERE investigation_id = $1
		ORDER BY id
	`, snap.InvestigationID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var l entities.LeaseContract
		if err := rows.Scan(&l.ID, &l.PropertyID, &l.CompanyID, &l.Value, &l.StartDate); err != nil {
			return err
		}
		snap.LeaseContracts = append(snap.LeaseContracts, l)
	}
	return rows.Err()
}

func loadRelations(ctx context.Context, tx pgx.Tx, snap *entities.Snapshot) error {
	rows, err := tx.Query(ctx, `
		SELECT source_type, source_id, target_type, target_id, type, weight
		FROM relations
		WHERE investigation_id = $1
		ORDER BY seq
	`, snap.InvestigationID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r entities.Relation
		if err := rows.Scan(&r.SourceType, &r.SourceID, &r.TargetType, &r.TargetID, &r.Type, &r.Weight); err != nil {
			return err
		}
		snap.Relations = append(snap.Relations, r)
	}
	return rows.Err()
}

func unmarshalJSONB(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
