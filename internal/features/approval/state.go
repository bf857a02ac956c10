package approval

import (
	"context"
	"fmt"
	"sort"
	"time"

	common_models "go-shareguard/internal/common/models"
	"go-shareguard/internal/features/chain"
	"go-shareguard/internal/features/link"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// StateService owns the per-link approval rows: seeding, decision recording
// and outcome computation. The orchestrator is its only writer.
type StateService interface {
	Seed(ctx context.Context, l *link.ShareLink, c chain.Chain, dlpEnabled bool) error
	// RecordDecision is an idempotent upsert: replaying the same decision is
	// a no-op, a conflicting decision returns ErrAlreadyDecided and keeps
	// the original.
	RecordDecision(ctx context.Context, linkID primitive.ObjectID, identity string,
		decision common_models.Status, msg string, vtime time.Time) error
	Rows(ctx context.Context, linkID primitive.ObjectID) ([]ApprovalStatus, error)
	Outcome(ctx context.Context, linkID primitive.ObjectID) (common_models.Outcome, string, error)
}

type StateServiceImpl struct {
	Repo   StatusRepository
	Logger *zap.Logger
}

func NewStateService(repo StatusRepository, logger *zap.Logger) StateService {
	return &StateServiceImpl{Repo: repo, Logger: logger}
}

func (s *StateServiceImpl) Seed(ctx context.Context, l *link.ShareLink, c chain.Chain, dlpEnabled bool) error {
	count, err := s.Repo.CountByLink(ctx, l.ID)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: link %s", ErrDuplicateSeed, l.Token)
	}

	rows := make([]ApprovalStatus, 0, len(c)+1)

	// The chain is flattened here: one row per reviewer, carrying the step
	// index and group operator, so the outcome function can evaluate group
	// satisfaction without re-reading the (possibly edited) chain.
	for i, step := range c {
		for _, reviewer := range step.Reviewers() {
			row := ApprovalStatus{
				LinkID:    l.ID,
				Identity:  reviewer,
				Status:    common_models.StatusVerifying,
				StepIndex: i,
			}
			if step.IsGroup() {
				row.StepOp = step.Op
			}
			rows = append(rows, row)
		}
	}

	dlpRow := ApprovalStatus{
		LinkID:    l.ID,
		Identity:  common_models.DLPIdentity,
		Status:    common_models.StatusVerifying,
		StepIndex: -1,
	}
	if !dlpEnabled {
		now := time.Now()
		dlpRow.Status = common_models.StatusPass
		dlpRow.Vtime = &now
	}
	rows = append(rows, dlpRow)

	return s.Repo.InsertRows(ctx, rows)
}

func (s *StateServiceImpl) RecordDecision(ctx context.Context, linkID primitive.ObjectID, identity string,
	decision common_models.Status, msg string, vtime time.Time) error {

	row, err := s.Repo.GetRow(ctx, linkID, identity)
	if err != nil {
		return err
	}
	if row == nil {
		return fmt.Errorf("%w: %s", ErrUnknownReviewer, identity)
	}

	if row.Status.Terminal() {
		if row.Status == decision {
			// At-least-once delivery from the poll jobs; nothing new.
			return nil
		}
		return fmt.Errorf("%w: %s has %s, got %s", ErrAlreadyDecided,
			identity, row.Status, decision)
	}

	updated, err := s.Repo.RecordVerdict(ctx, linkID, identity, decision, msg, vtime)
	if err != nil {
		return err
	}
	if !updated {
		// Lost a race with a concurrent writer. Re-read and apply the
		// terminal-row contract.
		return s.RecordDecision(ctx, linkID, identity, decision, msg, vtime)
	}
	return nil
}

func (s *StateServiceImpl) Rows(ctx context.Context, linkID primitive.ObjectID) ([]ApprovalStatus, error) {
	return s.Repo.ListByLink(ctx, linkID)
}

func (s *StateServiceImpl) Outcome(ctx context.Context, linkID primitive.ObjectID) (common_models.Outcome, string, error) {
	rows, err := s.Repo.ListByLink(ctx, linkID)
	if err != nil {
		return common_models.OutcomePending, "", err
	}
	outcome, attribution := ComputeOutcome(rows)
	return outcome, attribution, nil
}

// ComputeOutcome derives the authoritative link outcome from the stored
// rows. It is a pure function and is recomputed on every read; the outcome
// is never stored, so it cannot diverge from the rows.
//
// Rules: a DLP veto or high-risk block rejects immediately, short-circuiting
// all human steps. Any reviewer veto rejects. Otherwise DLP must have passed
// before human steps count, and every step must be cleared for approval:
// single steps by their reviewer's pass, any-of groups by one pass with no
// veto, all-of groups by passes from every member. Rejection is monotonic; a
// pass recorded after a rejection is kept but has no effect.
func ComputeOutcome(rows []ApprovalStatus) (common_models.Outcome, string) {
	var dlp *ApprovalStatus
	steps := make(map[int][]ApprovalStatus)
	for i := range rows {
		if rows[i].IsDLP() {
			dlp = &rows[i]
			continue
		}
		steps[rows[i].StepIndex] = append(steps[rows[i].StepIndex], rows[i])
	}

	if dlp != nil &&
		(dlp.Status == common_models.StatusVeto || dlp.Status == common_models.StatusBlockHighRisk) {
		return common_models.OutcomeRejected, common_models.DLPIdentity
	}

	// A reviewer veto anywhere rejects the chain, regardless of the state
	// of earlier or later steps.
	for _, stepRows := range steps {
		for _, row := range stepRows {
			if row.Status == common_models.StatusVeto || row.Status == common_models.StatusBlockHighRisk {
				return common_models.OutcomeRejected, row.Identity
			}
		}
	}

	if dlp == nil || dlp.Status != common_models.StatusPass {
		return common_models.OutcomePending, ""
	}

	if len(steps) == 0 {
		return common_models.OutcomeApproved, ""
	}

	indexes := make([]int, 0, len(steps))
	for i := range steps {
		indexes = append(indexes, i)
	}
	sort.Ints(indexes)

	// Approval needs every step cleared; there is no short-circuit approve.
	for _, i := range indexes {
		if !stepCleared(steps[i]) {
			return common_models.OutcomePending, ""
		}
	}
	return common_models.OutcomeApproved, ""
}

func stepCleared(stepRows []ApprovalStatus) bool {
	if len(stepRows) == 1 && stepRows[0].StepOp == "" {
		return stepRows[0].Status == common_models.StatusPass
	}

	if stepRows[0].StepOp == common_models.OpAnd {
		for _, row := range stepRows {
			if row.Status != common_models.StatusPass {
				return false
			}
		}
		return true
	}

	// any-of
	for _, row := range stepRows {
		if row.Status == common_models.StatusPass {
			return true
		}
	}
	return false
}
