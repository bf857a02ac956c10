package link

import (
	"context"
	"errors"
	"time"

	common_models "go-shareguard/internal/common/models"
	"go-shareguard/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ApprovalTrigger seeds the approval workflow when a link is created. The
// orchestrator satisfies this; the indirection avoids an import cycle.
type ApprovalTrigger interface {
	OnLinkCreated(ctx context.Context, l *ShareLink) error
}

// OutcomeChecker exposes the authoritative approval outcome of a link.
type OutcomeChecker interface {
	Outcome(ctx context.Context, l *ShareLink) (common_models.Outcome, string, error)
}

// ReviserChecker reports whether an identity reviews any chain; revisers may
// view a link that has not cleared approval yet.
type ReviserChecker interface {
	IsReviser(ctx context.Context, identity string) (bool, error)
}

var ErrLinkNotFound = errors.New("share link not found")

type LinkService interface {
	CreateLink(ctx context.Context, repoID, filePath, owner string, expireAt time.Time, receivers []string, note string) (*ShareLink, error)
	GetByToken(ctx context.Context, token string) (*ShareLink, error)
	// CheckAccess decides whether requester may download through the link
	// right now. The string is a human-readable denial reason.
	CheckAccess(ctx context.Context, token, requester string) (bool, string, error)
	RecordDownload(ctx context.Context, token string) error
}

type LinkServiceImpl struct {
	Repo      LinkRepository
	Approval  ApprovalTrigger
	Outcomes  OutcomeChecker
	Revisers  ReviserChecker
	Config    *config.Config
	Logger    *zap.Logger
}

func NewLinkService(repo LinkRepository, approval ApprovalTrigger, outcomes OutcomeChecker,
	revisers ReviserChecker, cfg *config.Config, logger *zap.Logger) LinkService {
	return &LinkServiceImpl{
		Repo:     repo,
		Approval: approval,
		Outcomes: outcomes,
		Revisers: revisers,
		Config:   cfg,
		Logger:   logger,
	}
}

func (s *LinkServiceImpl) CreateLink(ctx context.Context, repoID, filePath, owner string,
	expireAt time.Time, receivers []string, note string) (*ShareLink, error) {

	l := &ShareLink{
		Token:     uuid.NewString(),
		RepoID:    repoID,
		Path:      filePath,
		Owner:     owner,
		Ctime:     time.Now(),
		ExpireAt:  expireAt,
		Receivers: receivers,
		Note:      note,
	}
	if err := s.Repo.Create(ctx, l); err != nil {
		return nil, err
	}

	if err := s.Approval.OnLinkCreated(ctx, l); err != nil {
		// The link exists; its approval rows were not seeded. This is a
		// data-integrity problem that must be visible, not swallowed.
		s.Logger.Error("failed to seed approval for new link",
			zap.String("token", l.Token), zap.Error(err))
		return nil, err
	}
	return l, nil
}

func (s *LinkServiceImpl) GetByToken(ctx context.Context, token string) (*ShareLink, error) {
	l, err := s.Repo.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, ErrLinkNotFound
	}
	return l, nil
}

func (s *LinkServiceImpl) CheckAccess(ctx context.Context, token, requester string) (bool, string, error) {
	l, err := s.GetByToken(ctx, token)
	if err != nil {
		return false, "", err
	}

	outcome, _, err := s.Outcomes.Outcome(ctx, l)
	if err != nil {
		return false, "", err
	}

	switch outcome {
	case common_models.OutcomeApproved:
		if l.Expired(time.Now()) {
			return false, "link expired", nil
		}
		return true, "", nil
	case common_models.OutcomeRejected:
		return false, "approval rejected", nil
	}

	// Pending. Only revisers may view the file, so they can judge it;
	// everyone else waits. Owners never leak internal detail beyond
	// "pending".
	if requester != "" {
		isReviser, err := s.Revisers.IsReviser(ctx, requester)
		if err != nil {
			return false, "", err
		}
		if isReviser {
			return true, "", nil
		}
	}
	return false, "approval pending", nil
}

func (s *LinkServiceImpl) RecordDownload(ctx context.Context, token string) error {
	l, err := s.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	return s.Repo.RecordDownload(ctx, l.ID, time.Now())
}
