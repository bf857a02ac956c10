package scan

import (
	"context"

	"go-shareguard/internal/config"
	"go-shareguard/internal/features/approval"
	"go-shareguard/internal/features/link"
	"go-shareguard/internal/features/storage"

	"go.uber.org/zap"
)

// Submitter hands newly shared files to the scanner by exporting them to its
// pickup point. It satisfies the orchestrator's ScanSubmitter.
type Submitter struct {
	Storage storage.FileStorage
	Logger  *zap.Logger
}

func NewSubmitter(store storage.FileStorage, logger *zap.Logger) *Submitter {
	return &Submitter{Storage: store, Logger: logger}
}

func (s *Submitter) Submit(ctx context.Context, l *link.ShareLink) error {
	exported, err := s.Storage.ExportForScan(ctx, l.RepoID, l.Path)
	if err != nil {
		return err
	}
	s.Logger.Info("file exported for content scan",
		zap.String("token", l.Token), zap.String("exported", exported))
	return nil
}

// PollService drains the scanner's incident database into the approval
// workflow. It runs from the cron scheduler.
type PollService interface {
	Poll(ctx context.Context) error
}

type PollServiceImpl struct {
	Source   VerdictSource
	Statuses approval.StatusRepository
	Links    link.LinkRepository
	Approval approval.ApprovalService
	Config   *config.Config
	Logger   *zap.Logger
}

func NewPollService(source VerdictSource, statuses approval.StatusRepository,
	links link.LinkRepository, approvals approval.ApprovalService,
	cfg *config.Config, logger *zap.Logger) PollService {
	return &PollServiceImpl{
		Source:   source,
		Statuses: statuses,
		Links:    links,
		Approval: approvals,
		Config:   cfg,
		Logger:   logger,
	}
}

// Poll checks every link still awaiting a scanner verdict. One bad link
// never blocks the rest of the batch.
func (s *PollServiceImpl) Poll(ctx context.Context) error {
	rows, err := s.Statuses.ListVerifyingDLP(ctx)
	if err != nil {
		return err
	}

	for _, row := range rows {
		l, err := s.Links.GetByID(ctx, row.LinkID)
		if err != nil {
			s.Logger.Error("scan poll: failed to load link",
				zap.String("link_id", row.LinkID.Hex()), zap.Error(err))
			continue
		}
		if l == nil {
			// Row outlived its link; nothing to decide on.
			continue
		}

		verdict, err := s.Source.Lookup(ctx, storage.ScanExportName(l.RepoID, l.Path))
		if err != nil {
			s.Logger.Error("scan poll: verdict lookup failed",
				zap.String("token", l.Token), zap.Error(err))
			continue
		}
		if verdict == nil {
			continue
		}

		if err := s.Approval.OnDlpVerdict(ctx, l.ID, verdict.Status, verdict.Msg, verdict.Vtime); err != nil {
			s.Logger.Error("scan poll: failed to record verdict",
				zap.String("token", l.Token), zap.Error(err))
		}
	}
	return nil
}
