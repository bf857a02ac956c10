package report

import (
	"context"
	"strings"
	"testing"
	"time"

	common_models "go-shareguard/internal/common/models"
	"go-shareguard/internal/features/approval"

	"go.uber.org/zap"
)

type fakeDirectory struct{}

func (fakeDirectory) IsActive(ctx context.Context, email string) (bool, error) { return true, nil }
func (fakeDirectory) DisplayName(ctx context.Context, email string) string {
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}
func (fakeDirectory) SecurityReviewers(ctx context.Context, email string) ([]string, error) {
	return nil, nil
}
func (fakeDirectory) Department(ctx context.Context, email string) (string, error) {
	return "", nil
}

func TestApprovalDetailOrdering(t *testing.T) {
	s := &ReportServiceImpl{Directory: fakeDirectory{}, Logger: zap.NewNop()}
	at := time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC)

	// Rows arrive in storage order, not chain order.
	rows := []approval.ApprovalStatus{
		{Identity: "b@corp.com", Status: common_models.StatusVerifying, StepIndex: 1},
		{Identity: common_models.DLPIdentity, Status: common_models.StatusPass, StepIndex: -1, Vtime: &at},
		{Identity: "a@corp.com", Status: common_models.StatusPass, StepIndex: 0, Vtime: &at},
	}

	got := s.approvalDetail(context.Background(), rows)
	want := "content scan: pass (2026-08-01 10:00:00); " +
		"a: pass (2026-08-01 10:00:00); " +
		"b: verifying"
	if got != want {
		t.Errorf("approvalDetail() = %q, want %q", got, want)
	}
}
