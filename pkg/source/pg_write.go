package source

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/dd0wney/agrorisk/pkg/entities"
)

// Save replaces the stored snapshot of snap.InvestigationID in one
// transaction. It seeds development databases and integration tests.
func (s *PGSource) Save(ctx context.Context, snap *entities.Snapshot) error {
	if err := checkID(snap.InvestigationID); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		id := snap.InvestigationID
		if _, err := tx.Exec(ctx, `DELETE FROM investigations WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to clear investigation: %w", err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO investigations (id, captured_at) VALUES ($1, $2)`, id, snap.CapturedAt); err != nil {
			return fmt.Errorf("failed to create investigation: %w", err)
		}

		batch := &pgx.Batch{}
		for _, p := range snap.Properties {
			attributes, err := json.Marshal(p.Attributes)
			if err != nil {
				return err
			}
			batch.Queue(`
				INSERT INTO properties (investigation_id, id, name, registry_code, area_hectares, city, state,
				                        owner_company_id, owner_person_id, registered_at, attributes)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
			`, id, p.ID, p.Name, p.RegistryCode, p.AreaHectares, p.City, p.State,
				p.OwnerCompanyID, p.OwnerPersonID, p.RegisteredAt, attributes)
		}
		for _, c := range snap.Companies {
			partners, err := json.Marshal(c.Partners)
			if err != nil {
				return err
			}
			attributes, err := json.Marshal(c.Attributes)
			if err != nil {
				return err
			}
			batch.Queue(`
				INSERT INTO companies (investigation_id, id, cnpj, name, status, capital, open_date, address,
				                       city, state, primary_activity, partners, attributes)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
			`, id, c.ID, c.CNPJ, c.Name, c.Status, c.Capital, c.OpenDate, c.Address,
				c.City, c.State, c.PrimaryActivity, partners, attributes)
		}
		for _, p := range snap.Persons {
			attributes, err := json.Marshal(p.Attributes)
			if err != nil {
				return err
			}
			batch.Queue(`
				INSERT INTO persons (investigation_id, id, name, cpf, city, state, attributes)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, id, p.ID, p.Name, p.CPF, p.City, p.State, attributes)
		}
		for _, q := range snap.LegalQueries {
			batch.Queue(`
				INSERT INTO legal_queries (investigation_id, id, provider, query_type, status, active_lawsuits, text)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, id, q.ID, q.Provider, q.QueryType, q.Status, q.ActiveLawsuits, q.Text)
		}
		for _, l := range snap.LeaseContracts {
			batch.Queue(`
				INSERT INTO lease_contracts (investigation_id, id, property_id, company_id, value, start_date)
				VALUES ($1, $2, $3, $4, $5, $6)
			`, id, l.ID, l.PropertyID, l.CompanyID, l.Value, l.StartDate)
		}
		for _, r := range snap.Relations {
			batch.Queue(`
				INSERT INTO relations (investigation_id, source_type, source_id, target_type, target_id, type, weight)
				VALUES ($1, $2, $3, $4, $5, $6, $7)
			`, id, string(r.SourceType), r.SourceID, string(r.TargetType), r.TargetID, string(r.Type), r.Weight)
		}

		if batch.Len() == 0 {
			return nil
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}
