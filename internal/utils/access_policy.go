package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/PNdlovu/WriteCareNotes-sub007/internal/models"
	"github.com/PNdlovu/WriteCareNotes-sub007/internal/websocket"
)

const decisionCacheTTL = time.Second

// AccessPolicyService orchestrates policy evaluation: it loads the policy and
// subject, evaluates, updates metrics, writes the audit event and feeds the
// attempt back into the subject's history. Identical checks arriving in quick
// succession (device bridges re-asking) are absorbed by a short-TTL decision
// cache.
type AccessPolicyService struct {
	db        *gorm.DB
	wsHandler *websocket.WebSocketHandler
	wsEnabled bool
	decisions *ristretto.Cache
}

func NewAccessPolicyService(db *gorm.DB) *AccessPolicyService {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		cache = nil
	}

	return &AccessPolicyService{
		db:        db,
		decisions: cache,
		wsEnabled: false,
	}
}

func (s *AccessPolicyService) SetWebSocketHandler(wsHandler *websocket.WebSocketHandler) {
	s.wsHandler = wsHandler
	s.wsEnabled = (wsHandler != nil)
}

// EvaluateAccess evaluates one policy against the supplied context, updates
// the policy's metrics and records an audit event. Denial is a normal result,
// not an error; errors are reserved for load/persist failures.
func (s *AccessPolicyService) EvaluateAccess(policyID uint, ctx models.EvalContext) (models.EvalResult, error) {
	var policy models.SecurityPolicy
	if err := s.db.First(&policy, policyID).Error; err != nil {
		return models.EvalResult{}, err
	}

	key := decisionKey(&policy, ctx)
	if s.decisions != nil {
		if cached, ok := s.decisions.Get(key); ok {
			if result, ok := cached.(models.EvalResult); ok {
				// Cached decisions skip re-evaluation and metrics, never the
				// audit trail.
				s.recordEvent(&policy, ctx, result)
				return result, nil
			}
		}
	}

	start := time.Now()
	result := policy.EvaluateAccess(ctx, start)
	elapsed := time.Since(start)

	// UpdateColumn keeps UpdatedAt untouched: the decision key is bound to it
	// and only semantic policy changes should rotate the key.
	policy.UpdateMetrics(result, elapsed)
	if err := s.db.Model(&policy).UpdateColumn("metrics", policy.Metrics).Error; err != nil {
		return result, err
	}

	if s.decisions != nil {
		s.decisions.SetWithTTL(key, result, 1, decisionCacheTTL)
	}

	s.recordEvent(&policy, ctx, result)

	if s.wsEnabled && containsAction(result.Actions, "sendAlert") {
		s.wsHandler.NotifySecurityAlert(ctx.UserID, policy.Name, result, ctx.Resource)
	}

	return result, nil
}

// CheckSubjectAccess runs the full decision path for a subject: lockout and
// schedule gates first, then policy evaluation, then attempt bookkeeping.
func (s *AccessPolicyService) CheckSubjectAccess(subjectRef string, policyID uint, ctx models.EvalContext) (models.EvalResult, error) {
	var subject models.AccessControlUser
	if err := s.db.First(&subject, "subject_ref = ?", subjectRef).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.EvalResult{
				Allowed: false,
				Actions: []string{"deny"},
				Reason:  "Unknown subject",
			}, nil
		}
		return models.EvalResult{}, err
	}

	now := time.Now()

	if !subject.Active {
		return s.denySubject(&subject, ctx, "Subject is inactive", now)
	}

	if subject.IsAccountLocked(now) {
		return s.denySubject(&subject, ctx, "Account is locked", now)
	}

	if len(subject.AccessSchedule) > 0 && !subject.CanAccessAtTime(now) {
		return s.denySubject(&subject, ctx, "Outside access schedule", now)
	}

	if ctx.UserID == "" {
		ctx.UserID = subject.SubjectRef
	}
	if ctx.SecurityClearance == "" {
		ctx.SecurityClearance = subject.SecurityClearance.Level
	}

	result, err := s.EvaluateAccess(policyID, ctx)
	if err != nil {
		return models.EvalResult{}, err
	}

	if err := s.recordAttempt(&subject, ctx, result.Allowed, result.Reason, now); err != nil {
		return result, err
	}

	return result, nil
}

// RecordAttempt folds an externally observed attempt (for example a door
// controller event) into a subject's history.
func (s *AccessPolicyService) RecordAttempt(subjectRef string, attempt models.AccessAttempt) (*models.AccessControlUser, error) {
	var subject models.AccessControlUser
	if err := s.db.First(&subject, "subject_ref = ?", subjectRef).Error; err != nil {
		return nil, err
	}

	if attempt.AttemptTime.IsZero() {
		attempt.AttemptTime = time.Now()
	}

	wasLocked := subject.IsAccountLocked(time.Now())
	subject.AddAccessAttempt(attempt, time.Now())

	if err := s.db.Save(&subject).Error; err != nil {
		return nil, err
	}

	if s.wsEnabled && !wasLocked && subject.IsAccountLocked(time.Now()) {
		s.wsHandler.NotifyLockout(subject)
	}

	return &subject, nil
}

func (s *AccessPolicyService) denySubject(subject *models.AccessControlUser, ctx models.EvalContext, reason string, now time.Time) (models.EvalResult, error) {
	if ctx.UserID == "" {
		ctx.UserID = subject.SubjectRef
	}

	result := models.EvalResult{
		Allowed: false,
		Actions: []string{"deny"},
		Reason:  reason,
	}

	if err := s.recordAttempt(subject, ctx, false, reason, now); err != nil {
		return result, err
	}

	s.recordEvent(nil, ctx, result)

	return result, nil
}

func (s *AccessPolicyService) recordAttempt(subject *models.AccessControlUser, ctx models.EvalContext, success bool, reason string, now time.Time) error {
	wasLocked := subject.IsAccountLocked(now)

	subject.AddAccessAttempt(models.AccessAttempt{
		AttemptTime: now,
		Success:     success,
		Resource:    ctx.Resource,
		Location:    ctx.Country,
		IPAddress:   ctx.IPAddress,
		DeviceUID:   ctx.DeviceType,
		Reason:      reason,
	}, now)

	if err := s.db.Save(subject).Error; err != nil {
		return err
	}

	if s.wsEnabled && !wasLocked && subject.IsAccountLocked(now) {
		s.wsHandler.NotifyLockout(*subject)
	}

	return nil
}

func (s *AccessPolicyService) recordEvent(policy *models.SecurityPolicy, ctx models.EvalContext, result models.EvalResult) {
	event := models.AccessEvent{
		SubjectRef:    ctx.UserID,
		Resource:      ctx.Resource,
		Decision:      models.AccessDecisionDenied,
		Reason:        result.Reason,
		Actions:       result.Actions,
		CorrelationID: uuid.NewString(),
		Timestamp:     time.Now(),
		IPAddress:     ctx.IPAddress,
		DeviceUID:     ctx.DeviceType,
	}

	if result.Allowed {
		event.Decision = models.AccessDecisionGranted
	}

	if policy != nil {
		policyID := policy.ID
		event.PolicyID = &policyID
		event.OrganisationID = policy.OrganisationID
	}

	s.db.Create(&event)
}

// decisionKey binds a cached decision to the exact policy revision and
// context, so any policy update naturally invalidates prior entries.
func decisionKey(policy *models.SecurityPolicy, ctx models.EvalContext) string {
	payload, err := json.Marshal(ctx)
	if err != nil {
		payload = []byte(ctx.UserID + ctx.Resource)
	}

	digest := sha256.Sum256(payload)
	return fmt.Sprintf("%d:%d:%s", policy.ID, policy.UpdatedAt.UnixNano(), hex.EncodeToString(digest[:]))
}

func containsAction(actions []string, action string) bool {
	for _, a := range actions {
		if a == action {
			return true
		}
	}
	return false
}
