package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(&config.Config{Env: "test", LogLevel: "fatal", LogFormat: "json"})
}

type stubJobRepo struct {
	enqueueErr   error
	lastJob      *contracts.ScanJob
	lastCooldown time.Duration
}

func (s *stubJobRepo) EnqueueWithCooldown(_ context.Context, job *contracts.ScanJob, cooldown time.Duration) error {
	s.lastJob = job
	s.lastCooldown = cooldown
	if s.enqueueErr != nil {
		return s.enqueueErr
	}
	job.Status = contracts.JobQueued
	job.CreatedAt = time.Now()
	return nil
}

func (s *stubJobRepo) ClaimNext(context.Context) (*contracts.ScanJob, error) { return nil, nil }

func (s *stubJobRepo) MarkSuccess(context.Context, uuid.UUID, int, int) error { return nil }

func (s *stubJobRepo) MarkError(context.Context, uuid.UUID, string) error { return nil }

func (s *stubJobRepo) GetByID(context.Context, uuid.UUID) (*contracts.ScanJob, error) {
	return nil, nil
}

func (s *stubJobRepo) List(context.Context, contracts.JobFilter) ([]*contracts.ScanJob, error) {
	return nil, nil
}

func (s *stubJobRepo) FailStale(context.Context, time.Duration) (int, error) { return 0, nil }

type memAudit struct {
	entries []*contracts.AuditEntry
	err     error
}

func (m *memAudit) Record(_ context.Context, entry *contracts.AuditEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *memAudit) ListRecent(context.Context, int) ([]*contracts.AuditEntry, error) {
	return m.entries, nil
}

func newTestService(repo contracts.JobRepository, audit contracts.AuditRepository) *Service {
	cfg := &config.Config{Scan: config.ScanConfig{
		CompanyCooldown: time.Minute,
		ScannerCooldown: 2 * time.Minute,
	}}
	return NewService(repo, audit, cfg, testLogger())
}

func adminCaller() contracts.Caller {
	return contracts.Caller{UserID: 7, Email: "ops@example.com", IsAdmin: true, Plan: contracts.PlanEnterprise}
}

func TestEnqueueRequiresAdmin(t *testing.T) {
	repo := &stubJobRepo{}
	audit := &memAudit{}
	svc := newTestService(repo, audit)

	viewer := contracts.Caller{UserID: 9, Email: "viewer@example.com", Plan: contracts.PlanPro}
	job, err := svc.Enqueue(context.Background(), viewer, contracts.ScopeCompany, "ACME")

	assert.ErrorIs(t, err, ErrForbidden)
	assert.Nil(t, job)
	assert.Nil(t, repo.lastJob, "repository must not be touched for non-admins")

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "viewer@example.com", audit.entries[0].Actor)
	assert.Equal(t, "scan.enqueue", audit.entries[0].Action)
	assert.Equal(t, "forbidden", audit.entries[0].Decision)
}

func TestEnqueueNormalizesCompanyKey(t *testing.T) {
	repo := &stubJobRepo{}
	audit := &memAudit{}
	svc := newTestService(repo, audit)

	job, err := svc.Enqueue(context.Background(), adminCaller(), contracts.ScopeCompany, "  acme ")
	require.NoError(t, err)
	require.NotNil(t, job)

	assert.Equal(t, "ACME", job.ScopeKey)
	assert.Equal(t, time.Minute, repo.lastCooldown)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "accepted", audit.entries[0].Decision)
	assert.Equal(t, "ACME", audit.entries[0].ScopeKey)
}

func TestEnqueueScannerUsesLongerCooldown(t *testing.T) {
	repo := &stubJobRepo{}
	svc := newTestService(repo, &memAudit{})

	job, err := svc.Enqueue(context.Background(), adminCaller(), contracts.ScopeScanner, "edgar")
	require.NoError(t, err)

	assert.Equal(t, "edgar", job.ScopeKey)
	assert.Equal(t, 2*time.Minute, repo.lastCooldown)
}

func TestEnqueueRejectsInvalidTicker(t *testing.T) {
	repo := &stubJobRepo{}
	audit := &memAudit{}
	svc := newTestService(repo, audit)

	_, err := svc.Enqueue(context.Background(), adminCaller(), contracts.ScopeCompany, "NOT A TICKER")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "invalid ticker")
	assert.Nil(t, repo.lastJob)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "rejected", audit.entries[0].Decision)
}

func TestEnqueueRejectsEmptyScannerKey(t *testing.T) {
	svc := newTestService(&stubJobRepo{}, &memAudit{})

	_, err := svc.Enqueue(context.Background(), adminCaller(), contracts.ScopeScanner, "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanner key required")
}

func TestEnqueueRejectsUnknownScope(t *testing.T) {
	svc := newTestService(&stubJobRepo{}, &memAudit{})

	_, err := svc.Enqueue(context.Background(), adminCaller(), contracts.JobScope("galaxy"), "x")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidRequest)
	assert.Contains(t, err.Error(), "unknown job scope")
}

func TestEnqueuePropagatesCooldown(t *testing.T) {
	repo := &stubJobRepo{enqueueErr: &CooldownError{
		Scope:      contracts.ScopeCompany,
		Key:        "ACME",
		RetryAfter: 42 * time.Second,
	}}
	audit := &memAudit{}
	svc := newTestService(repo, audit)

	_, err := svc.Enqueue(context.Background(), adminCaller(), contracts.ScopeCompany, "ACME")
	require.Error(t, err)

	var cooldownErr *CooldownError
	require.ErrorAs(t, err, &cooldownErr)
	assert.Equal(t, 42*time.Second, cooldownErr.RetryAfter)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "rejected", audit.entries[0].Decision)
	assert.Contains(t, audit.entries[0].Detail, "retry in 42s")
}

func TestEnqueueWrapsRepositoryError(t *testing.T) {
	repo := &stubJobRepo{enqueueErr: errors.New("connection refused")}
	audit := &memAudit{}
	svc := newTestService(repo, audit)

	_, err := svc.Enqueue(context.Background(), adminCaller(), contracts.ScopeScanner, "edgar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enqueue scan job")
	assert.Empty(t, audit.entries, "infrastructure failures are not admission decisions")
}

func TestEnqueueAcceptsSystemCaller(t *testing.T) {
	audit := &memAudit{}
	svc := newTestService(&stubJobRepo{}, audit)

	job, err := svc.Enqueue(context.Background(), contracts.SystemCaller(), contracts.ScopeScanner, "earnings")
	require.NoError(t, err)
	require.NotNil(t, job)

	require.Len(t, audit.entries, 1)
	assert.Equal(t, "system", audit.entries[0].Actor)
	assert.Equal(t, "accepted", audit.entries[0].Decision)
}

func TestEnqueueSurvivesAuditFailure(t *testing.T) {
	svc := newTestService(&stubJobRepo{}, &memAudit{err: errors.New("audit store down")})

	job, err := svc.Enqueue(context.Background(), adminCaller(), contracts.ScopeCompany, "ACME")
	require.NoError(t, err)
	assert.NotNil(t, job)
}
