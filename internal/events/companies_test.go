package events

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
)

func newMockCompanies(t *testing.T) (*CompanyRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return NewCompanyRepository(mock), mock
}

func companyRow() *pgxmock.Rows {
	return pgxmock.NewRows([]string{"ticker", "name", "sector", "cik", "active"}).
		AddRow("ACME", "Acme Pharmaceuticals Inc", "biotech", "0001234567", true)
}

func TestGetByTickerNormalizesInput(t *testing.T) {
	repo, mock := newMockCompanies(t)

	mock.ExpectQuery(`FROM radar.companies WHERE ticker = \$1`).
		WithArgs("ACME").
		WillReturnRows(companyRow())

	company, err := repo.GetByTicker(context.Background(), " acme ")
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, "Acme Pharmaceuticals Inc", company.Name)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByTickerUnknown(t *testing.T) {
	repo, mock := newMockCompanies(t)

	mock.ExpectQuery(`FROM radar.companies WHERE ticker = \$1`).
		WithArgs("ZZZZ").
		WillReturnError(pgx.ErrNoRows)

	company, err := repo.GetByTicker(context.Background(), "ZZZZ")
	require.NoError(t, err)
	assert.Nil(t, company)
}

func TestFindByNameExactMatch(t *testing.T) {
	repo, mock := newMockCompanies(t)

	mock.ExpectQuery(`WHERE LOWER\(name\) = LOWER\(\$1\)`).
		WithArgs("acme pharmaceuticals inc").
		WillReturnRows(companyRow())

	company, err := repo.FindByName(context.Background(), "acme pharmaceuticals inc")
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, "ACME", company.Ticker)
}

func TestFindByNameFallsBackToPrefix(t *testing.T) {
	repo, mock := newMockCompanies(t)

	mock.ExpectQuery(`WHERE LOWER\(name\) = LOWER\(\$1\)`).
		WithArgs("Acme Pharmaceuticals").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`WHERE LOWER\(name\) LIKE LOWER\(\$1\) LIMIT 2`).
		WithArgs("Acme Pharmaceuticals%").
		WillReturnRows(companyRow())

	company, err := repo.FindByName(context.Background(), "Acme Pharmaceuticals")
	require.NoError(t, err)
	require.NotNil(t, company)
	assert.Equal(t, "ACME", company.Ticker)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByNameAmbiguousPrefix(t *testing.T) {
	repo, mock := newMockCompanies(t)

	mock.ExpectQuery(`WHERE LOWER\(name\) = LOWER\(\$1\)`).
		WithArgs("Acme").
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectQuery(`WHERE LOWER\(name\) LIKE LOWER\(\$1\) LIMIT 2`).
		WithArgs("Acme%").
		WillReturnRows(pgxmock.NewRows([]string{"ticker", "name", "sector", "cik", "active"}).
			AddRow("ACME", "Acme Pharmaceuticals Inc", "biotech", "0001234567", true).
			AddRow("ACMW", "Acme Widgets Corp", "industrial", "0007654321", true))

	company, err := repo.FindByName(context.Background(), "Acme")
	require.NoError(t, err)
	assert.Nil(t, company, "ambiguous prefix must not guess")
}

func TestFindByNameEmpty(t *testing.T) {
	repo, _ := newMockCompanies(t)

	company, err := repo.FindByName(context.Background(), "   ")
	require.NoError(t, err)
	assert.Nil(t, company)
}

func TestListActive(t *testing.T) {
	repo, mock := newMockCompanies(t)

	mock.ExpectQuery(`WHERE active ORDER BY ticker`).
		WillReturnRows(pgxmock.NewRows([]string{"ticker", "name", "sector", "cik", "active"}).
			AddRow("ACME", "Acme Pharmaceuticals Inc", "biotech", "0001234567", true).
			AddRow("BETA", "Beta Industries Ltd", "industrial", "", true))

	companies, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 2)
	assert.Equal(t, "BETA", companies[1].Ticker)
}

func TestUpsertCompany(t *testing.T) {
	repo, mock := newMockCompanies(t)

	mock.ExpectExec(`INSERT INTO radar.companies`).
		WithArgs("ACME", "Acme Pharmaceuticals Inc", "biotech", "0001234567", true).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err := repo.Upsert(context.Background(), &contracts.Company{
		Ticker: "acme",
		Name:   "Acme Pharmaceuticals Inc",
		Sector: "biotech",
		CIK:    "0001234567",
		Active: true,
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
