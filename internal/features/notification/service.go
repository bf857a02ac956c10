package notification

import (
	"context"
	"fmt"

	common_models "go-shareguard/internal/common/models"
	"go-shareguard/internal/config"
	"go-shareguard/internal/features/email"
	"go-shareguard/internal/features/link"
	"go-shareguard/internal/features/user"

	"go.uber.org/zap"
)

// NotificationService persists workflow notices and mails them out. The
// workflow-facing methods are fire-and-forget: a dead mail server must never
// stall an approval transition.
type NotificationService interface {
	NotifyReviewers(ctx context.Context, l *link.ShareLink, reviewers []string)
	NotifyOwner(ctx context.Context, l *link.ShareLink, outcome common_models.Outcome, attribution string)

	List(ctx context.Context, recipient string, page, limit int64) ([]Notification, int64, error)
	UnreadCount(ctx context.Context, recipient string) (int64, error)
	MarkAsRead(ctx context.Context, id string, recipient string) error
	MarkAllAsRead(ctx context.Context, recipient string) error
}

type NotificationServiceImpl struct {
	Repo      NotificationRepository
	Email     email.EmailService
	Directory user.Directory
	Config    *config.Config
	Logger    *zap.Logger
}

func NewNotificationService(repo NotificationRepository, emailService email.EmailService,
	directory user.Directory, cfg *config.Config, logger *zap.Logger) NotificationService {
	return &NotificationServiceImpl{
		Repo:      repo,
		Email:     emailService,
		Directory: directory,
		Config:    cfg,
		Logger:    logger,
	}
}

func (s *NotificationServiceImpl) NotifyReviewers(ctx context.Context, l *link.ShareLink, reviewers []string) {
	owner := s.displayName(ctx, l.Owner)
	title := "Share link awaiting your review"
	message := fmt.Sprintf("%s shared %q externally. The link needs your approval.", owner, l.FileName())

	for _, reviewer := range reviewers {
		s.store(ctx, &Notification{
			Recipient: reviewer,
			Title:     title,
			Message:   message,
			Type:      NotificationTypeReview,
			LinkToken: l.Token,
		})
	}

	go s.mail(reviewers, title, message+"\n\n"+l.URL(s.Config.ServiceURL))
}

func (s *NotificationServiceImpl) NotifyOwner(ctx context.Context, l *link.ShareLink,
	outcome common_models.Outcome, attribution string) {

	var n *Notification
	switch outcome {
	case common_models.OutcomeApproved:
		n = &Notification{
			Recipient: l.Owner,
			Title:     "Share link approved",
			Message:   fmt.Sprintf("Your share link for %q was approved. The link is now active.", l.FileName()),
			Type:      NotificationTypeApproved,
			LinkToken: l.Token,
		}
	case common_models.OutcomeRejected:
		by := "the content scan"
		if attribution != "" && attribution != common_models.DLPIdentity {
			by = s.displayName(ctx, attribution)
		}
		n = &Notification{
			Recipient: l.Owner,
			Title:     "Share link rejected",
			Message:   fmt.Sprintf("Your share link for %q was rejected by %s.", l.FileName(), by),
			Type:      NotificationTypeRejected,
			LinkToken: l.Token,
		}
	default:
		return
	}

	s.store(ctx, n)
	go s.mail([]string{l.Owner}, n.Title, n.Message)

	// The people the file was shared with only hear about it once the link
	// actually works.
	if outcome == common_models.OutcomeApproved && len(l.Receivers) > 0 {
		body := fmt.Sprintf("%s shared %q with you:\n\n%s",
			s.displayName(ctx, l.Owner), l.FileName(), l.URL(s.Config.ServiceURL))
		go s.mail(l.Receivers, fmt.Sprintf("File shared with you: %s", l.FileName()), body)
	}
}

func (s *NotificationServiceImpl) store(ctx context.Context, n *Notification) {
	if err := s.Repo.Create(ctx, n); err != nil {
		s.Logger.Error("failed to store notification",
			zap.String("recipient", n.Recipient), zap.Error(err))
	}
}

func (s *NotificationServiceImpl) mail(to []string, subject, body string) {
	if err := s.Email.Send(context.Background(), to, subject, body); err != nil {
		s.Logger.Warn("failed to send notification email",
			zap.Strings("to", to), zap.Error(err))
	}
}

func (s *NotificationServiceImpl) displayName(ctx context.Context, identity string) string {
	if name := s.Directory.DisplayName(ctx, identity); name != "" {
		return name
	}
	return identity
}

func (s *NotificationServiceImpl) List(ctx context.Context, recipient string, page, limit int64) ([]Notification, int64, error) {
	return s.Repo.List(ctx, recipient, page, limit)
}

func (s *NotificationServiceImpl) UnreadCount(ctx context.Context, recipient string) (int64, error) {
	return s.Repo.CountUnread(ctx, recipient)
}

func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, id string, recipient string) error {
	return s.Repo.MarkAsRead(ctx, id, recipient)
}

func (s *NotificationServiceImpl) MarkAllAsRead(ctx context.Context, recipient string) error {
	return s.Repo.MarkAllAsRead(ctx, recipient)
}
