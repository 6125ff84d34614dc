package jobs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/internal/contracts"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/config"
	"github.com/Dizzy2Dizzy/ImpactRadarV2-sub002/pkg/logger"
)

// Service is the single admission path for scan jobs. Both the API and the
// scheduler enqueue through it, so the admin gate, cooldown, and audit trail
// apply uniformly.
type Service struct {
	jobs  contracts.JobRepository
	audit contracts.AuditRepository

	companyCooldown time.Duration
	scannerCooldown time.Duration

	logger *logger.Logger
}

// NewService wires the admission service.
func NewService(jobRepo contracts.JobRepository, auditRepo contracts.AuditRepository, cfg *config.Config, log *logger.Logger) *Service {
	return &Service{
		jobs:            jobRepo,
		audit:           auditRepo,
		companyCooldown: cfg.Scan.CompanyCooldown,
		scannerCooldown: cfg.Scan.ScannerCooldown,
		logger:          log.WithField("module", "jobs"),
	}
}

// Enqueue admits one scan job. The admin flag on the caller comes from
// authoritative user state; a non-admin is refused regardless of what their
// request claims. Every decision lands in the audit log.
func (s *Service) Enqueue(ctx context.Context, caller contracts.Caller, scope contracts.JobScope, key string) (*contracts.ScanJob, error) {
	if !caller.IsAdmin {
		s.recordDecision(ctx, caller, scope, key, "forbidden", "caller is not an admin")
		return nil, ErrForbidden
	}

	key, cooldown, err := s.admissionParams(scope, key)
	if err != nil {
		s.recordDecision(ctx, caller, scope, key, "rejected", err.Error())
		return nil, err
	}

	job := contracts.NewScanJob(scope, key)
	if err := s.jobs.EnqueueWithCooldown(ctx, job, cooldown); err != nil {
		var cooldownErr *CooldownError
		if errors.As(err, &cooldownErr) {
			s.recordDecision(ctx, caller, scope, key, "rejected",
				fmt.Sprintf("cooldown, retry in %s", cooldownErr.RetryAfter))
			return nil, err
		}
		return nil, fmt.Errorf("enqueue scan job: %w", err)
	}

	s.recordDecision(ctx, caller, scope, key, "accepted", "")
	s.logger.WithFields(map[string]interface{}{
		"job_id":    job.ID.String(),
		"scope":     string(scope),
		"scope_key": key,
		"actor":     caller.Actor(),
	}).Info("Scan job enqueued")

	return job, nil
}

// admissionParams validates the scope key and selects the cooldown window.
func (s *Service) admissionParams(scope contracts.JobScope, key string) (string, time.Duration, error) {
	switch scope {
	case contracts.ScopeCompany:
		key = strings.ToUpper(strings.TrimSpace(key))
		if !contracts.ValidTicker(key) {
			return key, 0, fmt.Errorf("%w: invalid ticker %q", ErrInvalidRequest, key)
		}
		return key, s.companyCooldown, nil
	case contracts.ScopeScanner:
		key = strings.TrimSpace(key)
		if key == "" {
			return key, 0, fmt.Errorf("%w: scanner key required", ErrInvalidRequest)
		}
		return key, s.scannerCooldown, nil
	default:
		return key, 0, fmt.Errorf("%w: unknown job scope %q", ErrInvalidRequest, scope)
	}
}

// recordDecision appends to the audit log. Audit failures are logged and do
// not block the admission outcome.
func (s *Service) recordDecision(ctx context.Context, caller contracts.Caller, scope contracts.JobScope, key, decision, detail string) {
	entry := &contracts.AuditEntry{
		Actor:    caller.Actor(),
		Action:   "scan.enqueue",
		Scope:    string(scope),
		ScopeKey: key,
		Decision: decision,
		Detail:   detail,
	}
	if err := s.audit.Record(ctx, entry); err != nil {
		s.logger.WithError(err).Warn("Failed to record admission decision")
	}
}
