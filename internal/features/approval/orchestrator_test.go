package approval

import (
	"context"
	"sync"
	"testing"
	"time"

	common_models "go-shareguard/internal/common/models"
	"go-shareguard/internal/config"
	"go-shareguard/internal/features/chain"
	"go-shareguard/internal/features/link"
	"go-shareguard/internal/features/policy"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// In-memory fakes. They implement just enough behavior for the workflow to
// run end to end without a database or network.

type memStatusRepo struct {
	mu   sync.Mutex
	rows []ApprovalStatus
}

func (m *memStatusRepo) InsertRows(ctx context.Context, rows []ApprovalStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range rows {
		if rows[i].ID.IsZero() {
			rows[i].ID = primitive.NewObjectID()
		}
		m.rows = append(m.rows, rows[i])
	}
	return nil
}

func (m *memStatusRepo) CountByLink(ctx context.Context, linkID primitive.ObjectID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, r := range m.rows {
		if r.LinkID == linkID {
			n++
		}
	}
	return n, nil
}

func (m *memStatusRepo) ListByLink(ctx context.Context, linkID primitive.ObjectID) ([]ApprovalStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ApprovalStatus
	for _, r := range m.rows {
		if r.LinkID == linkID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStatusRepo) GetRow(ctx context.Context, linkID primitive.ObjectID, identity string) (*ApprovalStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].LinkID == linkID && m.rows[i].Identity == identity {
			row := m.rows[i]
			return &row, nil
		}
	}
	return nil, nil
}

func (m *memStatusRepo) RecordVerdict(ctx context.Context, linkID primitive.ObjectID, identity string,
	status common_models.Status, msg string, vtime time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		r := &m.rows[i]
		if r.LinkID == linkID && r.Identity == identity && r.Status == common_models.StatusVerifying {
			r.Status = status
			if msg != "" {
				r.Msg = msg
			}
			t := vtime
			r.Vtime = &t
			return true, nil
		}
	}
	return false, nil
}

func (m *memStatusRepo) SetCorrelationToken(ctx context.Context, linkID primitive.ObjectID, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.rows {
		if m.rows[i].LinkID == linkID && m.rows[i].Identity != common_models.DLPIdentity {
			m.rows[i].CorrelationToken = token
		}
	}
	return nil
}

func (m *memStatusRepo) ListVerifyingDLP(ctx context.Context) ([]ApprovalStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ApprovalStatus
	for _, r := range m.rows {
		if r.Identity == common_models.DLPIdentity && r.Status == common_models.StatusVerifying {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStatusRepo) ListVerifyingWithToken(ctx context.Context) ([]ApprovalStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []ApprovalStatus
	for _, r := range m.rows {
		if r.Identity != common_models.DLPIdentity &&
			r.Status == common_models.StatusVerifying && r.CorrelationToken != "" {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memStatusRepo) EnsureIndexes(ctx context.Context) error { return nil }

type memLinkRepo struct {
	mu    sync.Mutex
	links map[primitive.ObjectID]*link.ShareLink
}

func newMemLinkRepo() *memLinkRepo {
	return &memLinkRepo{links: make(map[primitive.ObjectID]*link.ShareLink)}
}

func (m *memLinkRepo) Create(ctx context.Context, l *link.ShareLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l.ID.IsZero() {
		l.ID = primitive.NewObjectID()
	}
	cp := *l
	m.links[l.ID] = &cp
	return nil
}

func (m *memLinkRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*link.ShareLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.links[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (m *memLinkRepo) GetByToken(ctx context.Context, token string) (*link.ShareLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.links {
		if l.Token == token {
			cp := *l
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memLinkRepo) ListCreatedBetween(ctx context.Context, start, end time.Time) ([]link.ShareLink, error) {
	return nil, nil
}

func (m *memLinkRepo) SetExpiry(ctx context.Context, id primitive.ObjectID, expireAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[id].ExpireAt = expireAt
	return nil
}

func (m *memLinkRepo) SetBackupDone(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[id].BackupDone = true
	return nil
}

func (m *memLinkRepo) SetResultNotified(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.links[id].ResultNotified = true
	return nil
}

func (m *memLinkRepo) RecordDownload(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.links[id]
	l.DownloadCount++
	if l.FirstDownloadAt == nil {
		t := at
		l.FirstDownloadAt = &t
	}
	return nil
}

func (m *memLinkRepo) ResetDownloads(ctx context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l := m.links[id]
	l.DownloadCount = 0
	l.FirstDownloadAt = nil
	return nil
}

type stubChainService struct {
	chain chain.Chain
}

func (s *stubChainService) ReplaceDepartmentChains(ctx context.Context, entries []string) ([]string, []string) {
	return nil, nil
}
func (s *stubChainService) ReplaceUserChains(ctx context.Context, entries []string) ([]string, []string) {
	return nil, nil
}
func (s *stubChainService) ReplaceUserChain(ctx context.Context, userEmail, chainText string) (chain.Chain, error) {
	return nil, nil
}
func (s *stubChainService) GetUserChain(ctx context.Context, userEmail string) (*chain.UserApprovalChain, error) {
	return nil, nil
}
func (s *stubChainService) DeleteUserChain(ctx context.Context, userEmail string) error { return nil }
func (s *stubChainService) CountDepartments(ctx context.Context) (int64, error)        { return 0, nil }
func (s *stubChainService) CountUsers(ctx context.Context) (int64, error)              { return 0, nil }
func (s *stubChainService) ResolveForOwner(ctx context.Context, owner string) (chain.Chain, error) {
	return s.chain, nil
}
func (s *stubChainService) IsReviser(ctx context.Context, identity string) (bool, error) {
	return s.chain.Contains(identity), nil
}
func (s *stubChainService) SecurityGroupChanged(ctx context.Context, company string, oldGroup []string) error {
	return nil
}

type stubPolicy struct {
	directives policy.Directives
}

func (p *stubPolicy) Evaluate(ctx context.Context, l *link.ShareLink) (policy.Directives, error) {
	return p.directives, nil
}

type fakeStorage struct {
	mu      sync.Mutex
	backups []string
}

func (f *fakeStorage) Stat(ctx context.Context, repoID, path string) (int64, error) {
	return 42, nil
}
func (f *fakeStorage) ExportForScan(ctx context.Context, repoID, path string) (string, error) {
	return "/scan/" + repoID, nil
}
func (f *fakeStorage) CopyToBackup(ctx context.Context, repoID, path, backupName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.backups = append(f.backups, backupName)
	return nil
}

type fakeScanner struct {
	mu      sync.Mutex
	submits int
}

func (f *fakeScanner) Submit(ctx context.Context, l *link.ShareLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	return nil
}

type fakeAudit struct {
	mu      sync.Mutex
	submits int
	steps   []common_models.AuditStep
}

func (f *fakeAudit) Submit(ctx context.Context, l *link.ShareLink, steps []common_models.AuditStep) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.submits++
	f.steps = steps
	return "EVT-1", nil
}

type fakeNotify struct {
	mu            sync.Mutex
	reviewerCalls [][]string
	ownerOutcomes []common_models.Outcome
	attributions  []string
}

func (f *fakeNotify) NotifyReviewers(ctx context.Context, l *link.ShareLink, reviewers []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviewerCalls = append(f.reviewerCalls, reviewers)
}

func (f *fakeNotify) NotifyOwner(ctx context.Context, l *link.ShareLink, outcome common_models.Outcome, attribution string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ownerOutcomes = append(f.ownerOutcomes, outcome)
	f.attributions = append(f.attributions, attribution)
}

type fakeEvents struct {
	mu     sync.Mutex
	events []common_models.ApprovalEvent
}

func (f *fakeEvents) Publish(event common_models.ApprovalEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

type workflowFixture struct {
	orchestrator ApprovalService
	statuses     *memStatusRepo
	links        *memLinkRepo
	chains       *stubChainService
	storage      *fakeStorage
	scanner      *fakeScanner
	audit        *fakeAudit
	notify       *fakeNotify
	events       *fakeEvents
}

func newWorkflow(t *testing.T, c chain.Chain, cfg *config.Config) *workflowFixture {
	t.Helper()
	logger := zap.NewNop()

	statuses := &memStatusRepo{}
	links := newMemLinkRepo()
	chains := &stubChainService{chain: c}
	store := &fakeStorage{}
	scanner := &fakeScanner{}
	audit := &fakeAudit{}
	notify := &fakeNotify{}
	events := &fakeEvents{}

	state := NewStateService(statuses, logger)
	orch := NewOrchestrator(state, statuses, links, chains,
		&stubPolicy{}, store, scanner, audit, notify, events, cfg, logger)

	return &workflowFixture{
		orchestrator: orch,
		statuses:     statuses,
		links:        links,
		chains:       chains,
		storage:      store,
		scanner:      scanner,
		audit:        audit,
		notify:       notify,
		events:       events,
	}
}

func newTestLink(t *testing.T, f *workflowFixture) *link.ShareLink {
	t.Helper()
	l := &link.ShareLink{
		Token:    "tok-1",
		RepoID:   "repo-1",
		Path:     "/docs/plan.pdf",
		Owner:    "owner@corp.com",
		Ctime:    time.Now().Add(-time.Hour),
		ExpireAt: time.Now().Add(6 * 24 * time.Hour),
	}
	if err := f.links.Create(context.Background(), l); err != nil {
		t.Fatal(err)
	}
	return l
}

func TestOnLinkCreatedSeedsWorkflow(t *testing.T) {
	ctx := context.Background()
	c, _ := chain.Parse("a@corp.com->b@corp.com|c@corp.com")
	f := newWorkflow(t, c, &config.Config{EnableDLPCheck: true})
	l := newTestLink(t, f)

	if err := f.orchestrator.OnLinkCreated(ctx, l); err != nil {
		t.Fatal(err)
	}

	rows, _ := f.statuses.ListByLink(ctx, l.ID)
	if len(rows) != 4 {
		t.Fatalf("got %d rows, want 4 (3 reviewers + scanner)", len(rows))
	}
	if f.scanner.submits != 1 {
		t.Errorf("scanner submits = %d, want 1", f.scanner.submits)
	}
	// The chain-of-custody waits for the scanner verdict.
	if f.audit.submits != 0 {
		t.Errorf("audit submits = %d, want 0 before DLP pass", f.audit.submits)
	}
	if len(f.notify.reviewerCalls) != 1 || len(f.notify.reviewerCalls[0]) != 3 {
		t.Errorf("reviewer notifications = %v, want one call with 3 reviewers", f.notify.reviewerCalls)
	}

	// Seeding twice must fail.
	if err := f.orchestrator.OnLinkCreated(ctx, l); err == nil {
		t.Error("second seed succeeded, want ErrDuplicateSeed")
	}
}

func TestDlpPassSubmitsAuditExactlyOnce(t *testing.T) {
	ctx := context.Background()
	c, _ := chain.Parse("a@corp.com->b@corp.com")
	f := newWorkflow(t, c, &config.Config{EnableDLPCheck: true})
	l := newTestLink(t, f)

	if err := f.orchestrator.OnLinkCreated(ctx, l); err != nil {
		t.Fatal(err)
	}
	if err := f.orchestrator.OnDlpVerdict(ctx, l.ID, common_models.StatusPass, "", time.Now()); err != nil {
		t.Fatal(err)
	}

	if f.audit.submits != 1 {
		t.Fatalf("audit submits = %d, want 1", f.audit.submits)
	}
	if len(f.audit.steps) != 2 {
		t.Fatalf("submitted %d steps, want 2", len(f.audit.steps))
	}
	if f.audit.steps[0].Type != common_models.AuditStepSingle {
		t.Errorf("step type = %s, want single", f.audit.steps[0].Type)
	}

	rows, _ := f.statuses.ListByLink(ctx, l.ID)
	for _, r := range rows {
		if r.IsDLP() {
			continue
		}
		if r.CorrelationToken != "EVT-1" {
			t.Errorf("row %s correlation token = %q, want EVT-1", r.Identity, r.CorrelationToken)
		}
	}

	// Replaying the same verdict is a no-op and must not resubmit.
	if err := f.orchestrator.OnDlpVerdict(ctx, l.ID, common_models.StatusPass, "", time.Now()); err != nil {
		t.Fatal(err)
	}
	if f.audit.submits != 1 {
		t.Errorf("audit submits after replay = %d, want 1", f.audit.submits)
	}
}

func TestDlpVetoRejects(t *testing.T) {
	ctx := context.Background()
	c, _ := chain.Parse("a@corp.com")
	f := newWorkflow(t, c, &config.Config{EnableDLPCheck: true})
	l := newTestLink(t, f)

	if err := f.orchestrator.OnLinkCreated(ctx, l); err != nil {
		t.Fatal(err)
	}
	if err := f.orchestrator.OnDlpVerdict(ctx, l.ID, common_models.StatusBlockHighRisk,
		`{"policy_categories":"PII"}`, time.Now()); err != nil {
		t.Fatal(err)
	}

	stored, _ := f.links.GetByID(ctx, l.ID)
	outcome, attribution, err := f.orchestrator.Outcome(ctx, stored)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != common_models.OutcomeRejected || attribution != common_models.DLPIdentity {
		t.Errorf("outcome = %v by %q, want rejected by scanner", outcome, attribution)
	}

	if len(f.notify.ownerOutcomes) != 1 || f.notify.ownerOutcomes[0] != common_models.OutcomeRejected {
		t.Fatalf("owner notifications = %v, want one rejection", f.notify.ownerOutcomes)
	}
	if !stored.ResultNotified {
		t.Error("ResultNotified not set")
	}
	// Blocked links are still mirrored to the audit platform for compliance.
	if f.audit.submits != 1 {
		t.Errorf("audit submits = %d, want 1", f.audit.submits)
	}
}

func TestDlpBlockStillRegistersAudit(t *testing.T) {
	ctx := context.Background()
	c, _ := chain.Parse("a@corp.com->b@corp.com")
	f := newWorkflow(t, c, &config.Config{EnableDLPCheck: true})
	l := newTestLink(t, f)

	if err := f.orchestrator.OnLinkCreated(ctx, l); err != nil {
		t.Fatal(err)
	}
	if err := f.orchestrator.OnDlpVerdict(ctx, l.ID, common_models.StatusBlockHighRisk,
		`{"policy_categories":"PII"}`, time.Now()); err != nil {
		t.Fatal(err)
	}

	if f.audit.submits != 1 {
		t.Fatalf("audit submits after high-risk block = %d, want 1", f.audit.submits)
	}
	if len(f.audit.steps) != 2 {
		t.Errorf("submitted %d steps, want the full chain", len(f.audit.steps))
	}

	stored, _ := f.links.GetByID(ctx, l.ID)
	outcome, _, err := f.orchestrator.Outcome(ctx, stored)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != common_models.OutcomeRejected {
		t.Errorf("outcome = %v, want rejected", outcome)
	}
}

func TestApprovalSideEffectsRunOnce(t *testing.T) {
	ctx := context.Background()
	c, _ := chain.Parse("a@corp.com->b@corp.com")
	f := newWorkflow(t, c, &config.Config{EnableDLPCheck: true})
	l := newTestLink(t, f)
	window := l.ExpireAt.Sub(l.Ctime)

	if err := f.orchestrator.OnLinkCreated(ctx, l); err != nil {
		t.Fatal(err)
	}
	_ = f.links.RecordDownload(ctx, l.ID, time.Now())

	if err := f.orchestrator.OnDlpVerdict(ctx, l.ID, common_models.StatusPass, "", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := f.orchestrator.OnReviewerDecision(ctx, l.ID, "a@corp.com",
		common_models.StatusPass, "", time.Now()); err != nil {
		t.Fatal(err)
	}

	// Not approved yet: no side effects.
	mid, _ := f.links.GetByID(ctx, l.ID)
	if mid.BackupDone || mid.ResultNotified {
		t.Fatal("side effects ran before the chain cleared")
	}

	if err := f.orchestrator.OnReviewerDecision(ctx, l.ID, "b@corp.com",
		common_models.StatusPass, "", time.Now()); err != nil {
		t.Fatal(err)
	}

	stored, _ := f.links.GetByID(ctx, l.ID)
	if !stored.BackupDone || !stored.ResultNotified {
		t.Fatal("approval side effects did not run")
	}
	if len(f.storage.backups) != 1 {
		t.Fatalf("backups = %d, want 1", len(f.storage.backups))
	}
	if stored.DownloadCount != 0 || stored.FirstDownloadAt != nil {
		t.Error("download counters were not reset")
	}

	// The validity window restarts at approval time.
	expectedExpiry := time.Now().Add(window)
	if d := stored.ExpireAt.Sub(expectedExpiry); d < -time.Minute || d > time.Minute {
		t.Errorf("new expiry %v not close to %v", stored.ExpireAt, expectedExpiry)
	}

	// A replayed decision must not rerun anything.
	if err := f.orchestrator.OnReviewerDecision(ctx, l.ID, "b@corp.com",
		common_models.StatusPass, "", time.Now()); err != nil {
		t.Fatal(err)
	}
	if len(f.storage.backups) != 1 {
		t.Errorf("backups after replay = %d, want 1", len(f.storage.backups))
	}
	if len(f.notify.ownerOutcomes) != 1 {
		t.Errorf("owner notifications after replay = %d, want 1", len(f.notify.ownerOutcomes))
	}
}

func TestEmptyChainWithoutDlpApprovesImmediately(t *testing.T) {
	ctx := context.Background()
	f := newWorkflow(t, chain.Chain{}, &config.Config{EnableDLPCheck: false})
	l := newTestLink(t, f)

	if err := f.orchestrator.OnLinkCreated(ctx, l); err != nil {
		t.Fatal(err)
	}

	stored, _ := f.links.GetByID(ctx, l.ID)
	outcome, _, err := f.orchestrator.Outcome(ctx, stored)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != common_models.OutcomeApproved {
		t.Fatalf("outcome = %v, want approved", outcome)
	}
	if !stored.BackupDone || !stored.ResultNotified {
		t.Error("approval side effects did not run")
	}
	if f.scanner.submits != 0 {
		t.Errorf("scanner submits = %d, want 0 with DLP disabled", f.scanner.submits)
	}
}

func TestConflictingDecisionKeepsOriginal(t *testing.T) {
	ctx := context.Background()
	c, _ := chain.Parse("a@corp.com")
	f := newWorkflow(t, c, &config.Config{EnableDLPCheck: true})
	l := newTestLink(t, f)

	if err := f.orchestrator.OnLinkCreated(ctx, l); err != nil {
		t.Fatal(err)
	}
	if err := f.orchestrator.OnDlpVerdict(ctx, l.ID, common_models.StatusPass, "", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := f.orchestrator.OnReviewerDecision(ctx, l.ID, "a@corp.com",
		common_models.StatusPass, "", time.Now()); err != nil {
		t.Fatal(err)
	}

	err := f.orchestrator.OnReviewerDecision(ctx, l.ID, "a@corp.com",
		common_models.StatusVeto, "changed my mind", time.Now())
	if err == nil {
		t.Fatal("conflicting decision succeeded, want ErrAlreadyDecided")
	}

	stored, _ := f.links.GetByID(ctx, l.ID)
	outcome, _, _ := f.orchestrator.Outcome(ctx, stored)
	if outcome != common_models.OutcomeApproved {
		t.Errorf("outcome = %v, want the original approval to stand", outcome)
	}
}

func TestChainEditDoesNotAffectPendingLink(t *testing.T) {
	ctx := context.Background()
	c, _ := chain.Parse("a@corp.com->b@corp.com|c@corp.com")
	f := newWorkflow(t, c, &config.Config{EnableDLPCheck: true})
	l := newTestLink(t, f)

	if err := f.orchestrator.OnLinkCreated(ctx, l); err != nil {
		t.Fatal(err)
	}

	// The admin rewrites the owner's chain while the link is still pending.
	// The rows snapshotted at creation govern this link, not the new chain.
	edited, _ := chain.Parse("x@corp.com&y@corp.com")
	f.chains.chain = edited

	if err := f.orchestrator.OnDlpVerdict(ctx, l.ID, common_models.StatusPass, "", time.Now()); err != nil {
		t.Fatal(err)
	}

	if len(f.audit.steps) != 2 {
		t.Fatalf("submitted %d audit steps, want the 2 seed-time steps", len(f.audit.steps))
	}
	if f.audit.steps[0].Reviewers[0] != "a@corp.com" {
		t.Errorf("step 1 reviewers = %v, want the seed-time chain", f.audit.steps[0].Reviewers)
	}
	if f.audit.steps[1].Type != common_models.AuditStepAnyOf ||
		len(f.audit.steps[1].Reviewers) != 2 {
		t.Errorf("step 2 = %+v, want the seed-time any-of group", f.audit.steps[1])
	}

	// The new chain's reviewers have no say over this link.
	err := f.orchestrator.OnReviewerDecision(ctx, l.ID, "x@corp.com",
		common_models.StatusPass, "", time.Now())
	if err == nil {
		t.Fatal("reviewer from the edited chain was accepted")
	}

	// The seed-time reviewers still clear it.
	if err := f.orchestrator.OnReviewerDecision(ctx, l.ID, "a@corp.com",
		common_models.StatusPass, "", time.Now()); err != nil {
		t.Fatal(err)
	}
	if err := f.orchestrator.OnReviewerDecision(ctx, l.ID, "b@corp.com",
		common_models.StatusPass, "", time.Now()); err != nil {
		t.Fatal(err)
	}

	stored, _ := f.links.GetByID(ctx, l.ID)
	outcome, _, err := f.orchestrator.Outcome(ctx, stored)
	if err != nil {
		t.Fatal(err)
	}
	if outcome != common_models.OutcomeApproved {
		t.Errorf("outcome = %v, want approved by the seed-time chain", outcome)
	}
}

func TestDecisionFromUnknownReviewer(t *testing.T) {
	ctx := context.Background()
	c, _ := chain.Parse("a@corp.com")
	f := newWorkflow(t, c, &config.Config{EnableDLPCheck: true})
	l := newTestLink(t, f)

	if err := f.orchestrator.OnLinkCreated(ctx, l); err != nil {
		t.Fatal(err)
	}

	err := f.orchestrator.OnReviewerDecision(ctx, l.ID, "stranger@corp.com",
		common_models.StatusPass, "", time.Now())
	if err == nil {
		t.Fatal("decision from a non-reviewer succeeded")
	}
}
