package ita

import (
	"context"

	"go-shareguard/internal/features/approval"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// PollService pulls decisions made on the audit platform back into the
// approval workflow. It runs from the cron scheduler.
type PollService interface {
	Poll(ctx context.Context) error
}

type PollServiceImpl struct {
	Bridge   Bridge
	Statuses approval.StatusRepository
	Approval approval.ApprovalService
	Logger   *zap.Logger
}

func NewPollService(bridge Bridge, statuses approval.StatusRepository,
	approvals approval.ApprovalService, logger *zap.Logger) PollService {
	return &PollServiceImpl{
		Bridge:   bridge,
		Statuses: statuses,
		Approval: approvals,
		Logger:   logger,
	}
}

// Poll queries each submitted event once and applies the decisions of the
// reviewers that still have a verifying row here. The audit platform delivers
// at least once; RecordDecision absorbs replays.
func (s *PollServiceImpl) Poll(ctx context.Context) error {
	rows, err := s.Statuses.ListVerifyingWithToken(ctx)
	if err != nil {
		return err
	}

	type event struct {
		linkID primitive.ObjectID
		code   string
	}
	pending := make(map[event]map[string]bool)
	for _, row := range rows {
		key := event{linkID: row.LinkID, code: row.CorrelationToken}
		if pending[key] == nil {
			pending[key] = make(map[string]bool)
		}
		pending[key][row.Identity] = true
	}

	for ev, waiting := range pending {
		decisions, err := s.Bridge.Poll(ctx, ev.code)
		if err != nil {
			s.Logger.Error("audit poll failed",
				zap.String("event_code", ev.code), zap.Error(err))
			continue
		}

		for _, d := range decisions {
			if !waiting[d.Identity] {
				continue
			}
			err := s.Approval.OnReviewerDecision(ctx, ev.linkID, d.Identity, d.Status, d.Msg, d.Vtime)
			if err != nil {
				s.Logger.Error("audit poll: failed to record decision",
					zap.String("event_code", ev.code),
					zap.String("identity", d.Identity),
					zap.Error(err))
			}
		}
	}
	return nil
}
