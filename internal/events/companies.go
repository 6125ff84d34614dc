package events

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/database"
)

const companyColumns = `ticker, name, sector, cik, active`

// CompanyRepository implements contracts.CompanyRepository over
// radar.companies, the directory the normalizer resolves names and sectors
// through.
type CompanyRepository struct {
	pool database.Pool
}

// NewCompanyRepository creates the company directory repository.
func NewCompanyRepository(pool database.Pool) *CompanyRepository {
	return &CompanyRepository{pool: pool}
}

// GetByTicker returns the directory row, nil when the ticker is unknown.
func (r *CompanyRepository) GetByTicker(ctx context.Context, ticker string) (*contracts.Company, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM radar.companies WHERE ticker = $1`,
		strings.ToUpper(strings.TrimSpace(ticker)))

	company, err := scanCompany(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get company %s: %w", ticker, err)
	}
	return company, nil
}

// FindByName resolves a company by case-insensitive name match. Upstreams
// quote legal names with varying suffixes, so an exact match is tried first
// and a prefix match second; ambiguous prefixes resolve to nil.
func (r *CompanyRepository) FindByName(ctx context.Context, name string) (*contracts.Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, nil
	}

	row := r.pool.QueryRow(ctx,
		`SELECT `+companyColumns+` FROM radar.companies WHERE LOWER(name) = LOWER($1)`,
		name)

	company, err := scanCompany(row)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("find company by name: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+companyColumns+` FROM radar.companies
		 WHERE LOWER(name) LIKE LOWER($1) LIMIT 2`,
		name+"%")
	if err != nil {
		return nil, fmt.Errorf("find company by name prefix: %w", err)
	}
	defer rows.Close()

	var matches []*contracts.Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company row: %w", err)
		}
		matches = append(matches, company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate company rows: %w", err)
	}

	if len(matches) != 1 {
		return nil, nil
	}
	return matches[0], nil
}

// ListActive returns all active directory rows in ticker order.
func (r *CompanyRepository) ListActive(ctx context.Context) ([]*contracts.Company, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+companyColumns+` FROM radar.companies WHERE active ORDER BY ticker`)
	if err != nil {
		return nil, fmt.Errorf("list active companies: %w", err)
	}
	defer rows.Close()

	var companies []*contracts.Company
	for rows.Next() {
		company, err := scanCompany(rows)
		if err != nil {
			return nil, fmt.Errorf("scan company row: %w", err)
		}
		companies = append(companies, company)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate company rows: %w", err)
	}

	return companies, nil
}

// Upsert inserts or refreshes a directory row. Scanners call this when an
// upstream provides richer metadata than the stored row.
func (r *CompanyRepository) Upsert(ctx context.Context, company *contracts.Company) error {
	query := `
		INSERT INTO radar.companies (ticker, name, sector, cik, active)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (ticker) DO UPDATE SET
			name = EXCLUDED.name,
			sector = EXCLUDED.sector,
			cik = EXCLUDED.cik,
			active = EXCLUDED.active
	`

	_, err := r.pool.Exec(ctx, query,
		strings.ToUpper(strings.TrimSpace(company.Ticker)),
		company.Name, company.Sector, company.CIK, company.Active)
	if err != nil {
		return fmt.Errorf("upsert company %s: %w", company.Ticker, err)
	}
	return nil
}

func scanCompany(row rowScanner) (*contracts.Company, error) {
	var company contracts.Company
	err := row.Scan(&company.Ticker, &company.Name, &company.Sector,
		&company.CIK, &company.Active)
	if err != nil {
		return nil, err
	}
	return &company, nil
}
