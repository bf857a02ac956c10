package approval

import (
	"context"
	"fmt"
	"sync"
	"time"

	common_models "go-shareguard/internal/common/models"
	"go-shareguard/internal/config"
	"go-shareguard/internal/features/chain"
	"go-shareguard/internal/features/link"
	"go-shareguard/internal/features/policy"
	"go-shareguard/internal/features/storage"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ScanSubmitter hands a newly shared file to the content scanner. The
// verdict arrives later through the poll job.
type ScanSubmitter interface {
	Submit(ctx context.Context, l *link.ShareLink) error
}

// AuditBridge talks to the external audit system. Submit registers the
// chain-of-custody and returns the audit system's event code, which becomes
// the correlation token on the human rows.
type AuditBridge interface {
	Submit(ctx context.Context, l *link.ShareLink, steps []common_models.AuditStep) (string, error)
}

// NotificationGateway delivers workflow notices. Implementations are
// fire-and-forget; a failed notice never fails the workflow.
type NotificationGateway interface {
	NotifyReviewers(ctx context.Context, l *link.ShareLink, reviewers []string)
	NotifyOwner(ctx context.Context, l *link.ShareLink, outcome common_models.Outcome, attribution string)
}

// EventPublisher broadcasts state changes to live subscribers.
type EventPublisher interface {
	Publish(event common_models.ApprovalEvent)
}

// ApprovalInfo is the full approval picture of one link, served to the
// reviewer UI.
type ApprovalInfo struct {
	Link        *link.ShareLink       `json:"link"`
	Outcome     common_models.Outcome `json:"-"`
	OutcomeText string                `json:"outcome"`
	Attribution string                `json:"attribution,omitempty"`
	Rows        []ApprovalStatus      `json:"rows"`
}

// ApprovalService drives every approval transition. All writes to the
// per-link rows and all terminal side effects run through it, serialized per
// link, so each side effect fires exactly once.
type ApprovalService interface {
	// OnLinkCreated seeds the workflow for a fresh link: resolves the chain,
	// applies policy, inserts the rows and kicks off the content scan.
	OnLinkCreated(ctx context.Context, l *link.ShareLink) error
	// OnDlpVerdict records the scanner verdict and, once the verdict is
	// terminal, registers the human chain with the audit system.
	OnDlpVerdict(ctx context.Context, linkID primitive.ObjectID,
		status common_models.Status, msg string, vtime time.Time) error
	// OnReviewerDecision records one reviewer's decision.
	OnReviewerDecision(ctx context.Context, linkID primitive.ObjectID, identity string,
		status common_models.Status, msg string, vtime time.Time) error
	// Decide is OnReviewerDecision keyed by link token, for the HTTP surface.
	Decide(ctx context.Context, token, identity string, decision common_models.Status, msg string) error
	Info(ctx context.Context, token string) (*ApprovalInfo, error)
	Outcome(ctx context.Context, l *link.ShareLink) (common_models.Outcome, string, error)
}

type OrchestratorImpl struct {
	State    StateService
	Statuses StatusRepository
	Links    link.LinkRepository
	Chains   chain.ChainService
	Policy   policy.Policy
	Storage  storage.FileStorage
	Scanner  ScanSubmitter
	Audit    AuditBridge
	Notify   NotificationGateway
	Events   EventPublisher
	Config   *config.Config
	Logger   *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewOrchestrator(state StateService, statuses StatusRepository, links link.LinkRepository,
	chains chain.ChainService, pol policy.Policy, store storage.FileStorage,
	scanner ScanSubmitter, audit AuditBridge, notify NotificationGateway,
	events EventPublisher, cfg *config.Config, logger *zap.Logger) ApprovalService {
	return &OrchestratorImpl{
		State:    state,
		Statuses: statuses,
		Links:    links,
		Chains:   chains,
		Policy:   pol,
		Storage:  store,
		Scanner:  scanner,
		Audit:    audit,
		Notify:   notify,
		Events:   events,
		Config:   cfg,
		Logger:   logger,
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor returns the mutex serializing all transitions of one link. Locks
// are never released from the map; links are few enough that this does not
// matter.
func (o *OrchestratorImpl) lockFor(linkID primitive.ObjectID) *sync.Mutex {
	o.mu.Lock()
	defer o.mu.Unlock()
	key := linkID.Hex()
	l, ok := o.locks[key]
	if !ok {
		l = &sync.Mutex{}
		o.locks[key] = l
	}
	return l
}

func (o *OrchestratorImpl) OnLinkCreated(ctx context.Context, l *link.ShareLink) error {
	directives, err := o.Policy.Evaluate(ctx, l)
	if err != nil {
		return err
	}

	var c chain.Chain
	if !directives.SkipHumanChain {
		c, err = o.Chains.ResolveForOwner(ctx, l.Owner)
		if err != nil {
			return err
		}
	}
	dlpEnabled := o.Config.EnableDLPCheck && !directives.SkipDLPCheck

	mu := o.lockFor(l.ID)
	mu.Lock()
	err = o.State.Seed(ctx, l, c, dlpEnabled)
	mu.Unlock()
	if err != nil {
		return err
	}

	o.Logger.Info("approval workflow seeded",
		zap.String("token", l.Token),
		zap.String("owner", l.Owner),
		zap.Int("chain_steps", len(c)),
		zap.Bool("dlp_enabled", dlpEnabled))

	if dlpEnabled {
		if err := o.Scanner.Submit(ctx, l); err != nil {
			// The scan poll job finds the still-verifying DLP row; the file can
			// be resubmitted by hand. Creation must not fail here.
			o.Logger.Error("failed to submit file for content scan",
				zap.String("token", l.Token), zap.Error(err))
		}
	} else if len(c) > 0 {
		// DLP auto-passed at seed time, so the audit registration that
		// normally follows the scanner verdict happens now.
		if err := o.submitAudit(ctx, l, c); err != nil {
			o.Logger.Error("failed to register chain with audit system",
				zap.String("token", l.Token), zap.Error(err))
		}
	}

	if len(c) > 0 {
		o.Notify.NotifyReviewers(ctx, l, c.Emails())
	}

	return o.evaluate(ctx, l.ID, "", common_models.StatusVerifying)
}

func (o *OrchestratorImpl) OnDlpVerdict(ctx context.Context, linkID primitive.ObjectID,
	status common_models.Status, msg string, vtime time.Time) error {

	l, err := o.Links.GetByID(ctx, linkID)
	if err != nil {
		return err
	}
	if l == nil {
		return link.ErrLinkNotFound
	}

	mu := o.lockFor(linkID)
	mu.Lock()
	err = o.State.RecordDecision(ctx, linkID, common_models.DLPIdentity, status, msg, vtime)
	mu.Unlock()
	if err != nil {
		return err
	}

	o.Logger.Info("scanner verdict recorded",
		zap.String("token", l.Token), zap.String("verdict", status.String()))

	// The audit system mirrors every resolved link, rejected ones included;
	// compliance wants the blocked shares on record there too.
	if status.Terminal() {
		rows, err := o.State.Rows(ctx, linkID)
		if err != nil {
			return err
		}
		if c := humanChain(rows); len(c) > 0 {
			if err := o.submitAudit(ctx, l, c); err != nil {
				o.Logger.Error("failed to register chain with audit system",
					zap.String("token", l.Token), zap.Error(err))
			}
		}
	}

	return o.evaluate(ctx, linkID, common_models.DLPIdentity, status)
}

func (o *OrchestratorImpl) OnReviewerDecision(ctx context.Context, linkID primitive.ObjectID,
	identity string, status common_models.Status, msg string, vtime time.Time) error {

	mu := o.lockFor(linkID)
	mu.Lock()
	err := o.State.RecordDecision(ctx, linkID, identity, status, msg, vtime)
	mu.Unlock()
	if err != nil {
		return err
	}
	return o.evaluate(ctx, linkID, identity, status)
}

func (o *OrchestratorImpl) Decide(ctx context.Context, token, identity string,
	decision common_models.Status, msg string) error {

	l, err := o.Links.GetByToken(ctx, token)
	if err != nil {
		return err
	}
	if l == nil {
		return link.ErrLinkNotFound
	}
	return o.OnReviewerDecision(ctx, l.ID, identity, decision, msg, time.Now())
}

func (o *OrchestratorImpl) Info(ctx context.Context, token string) (*ApprovalInfo, error) {
	l, err := o.Links.GetByToken(ctx, token)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, link.ErrLinkNotFound
	}
	rows, err := o.State.Rows(ctx, l.ID)
	if err != nil {
		return nil, err
	}
	outcome, attribution := ComputeOutcome(rows)
	return &ApprovalInfo{
		Link:        l,
		Outcome:     outcome,
		OutcomeText: outcome.String(),
		Attribution: attribution,
		Rows:        rows,
	}, nil
}

func (o *OrchestratorImpl) Outcome(ctx context.Context, l *link.ShareLink) (common_models.Outcome, string, error) {
	return o.State.Outcome(ctx, l.ID)
}

// submitAudit registers the chain-of-custody with the audit system exactly
// once. The remote call runs outside the link lock; the returned event code
// is only stored if no concurrent submission won the race.
func (o *OrchestratorImpl) submitAudit(ctx context.Context, l *link.ShareLink, c chain.Chain) error {
	rows, err := o.State.Rows(ctx, l.ID)
	if err != nil {
		return err
	}
	if hasCorrelationToken(rows) {
		return nil
	}

	token, err := o.Audit.Submit(ctx, l, auditSteps(c))
	if err != nil {
		return err
	}

	mu := o.lockFor(l.ID)
	mu.Lock()
	defer mu.Unlock()

	rows, err = o.State.Rows(ctx, l.ID)
	if err != nil {
		return err
	}
	if hasCorrelationToken(rows) {
		// A concurrent submission won; its event code stands. The audit
		// system tolerates the orphaned duplicate.
		o.Logger.Warn("duplicate audit submission discarded",
			zap.String("token", l.Token), zap.String("event_code", token))
		return nil
	}
	return o.Statuses.SetCorrelationToken(ctx, l.ID, token)
}

// evaluate recomputes the outcome and, on a terminal transition, runs the
// side effects. The persisted BackupDone and ResultNotified flags make the
// effects idempotent across poll-job reruns and restarts.
func (o *OrchestratorImpl) evaluate(ctx context.Context, linkID primitive.ObjectID,
	identity string, status common_models.Status) error {

	mu := o.lockFor(linkID)
	mu.Lock()
	defer mu.Unlock()

	l, err := o.Links.GetByID(ctx, linkID)
	if err != nil {
		return err
	}
	if l == nil {
		return link.ErrLinkNotFound
	}

	outcome, attribution, err := o.State.Outcome(ctx, linkID)
	if err != nil {
		return err
	}

	o.Events.Publish(common_models.ApprovalEvent{
		LinkToken: l.Token,
		Identity:  identity,
		Status:    status.String(),
		Outcome:   outcome.String(),
		Time:      time.Now(),
	})

	switch outcome {
	case common_models.OutcomeApproved:
		return o.onApproved(ctx, l)
	case common_models.OutcomeRejected:
		return o.onRejected(ctx, l, attribution)
	}
	return nil
}

// onApproved runs the approval side effects: retain a copy of the file,
// restart the expiry clock and tell the owner and receivers.
func (o *OrchestratorImpl) onApproved(ctx context.Context, l *link.ShareLink) error {
	if !l.BackupDone {
		name := storage.BackupName(l.Owner, time.Now(), l.FileName(), l.Token)
		if err := o.Storage.CopyToBackup(ctx, l.RepoID, l.Path, name); err != nil {
			return fmt.Errorf("backup copy for link %s: %w", l.Token, err)
		}
		if err := o.Links.SetBackupDone(ctx, l.ID); err != nil {
			return err
		}
		o.Logger.Info("approved file copied to retention",
			zap.String("token", l.Token), zap.String("backup_name", name))
	}

	if !l.ResultNotified {
		// The validity window the owner asked for starts over at approval
		// time, so review latency never eats into it.
		newExpire := time.Now().Add(l.ExpireAt.Sub(l.Ctime))
		if err := o.Links.SetExpiry(ctx, l.ID, newExpire); err != nil {
			return err
		}
		if err := o.Links.ResetDownloads(ctx, l.ID); err != nil {
			return err
		}
		o.Notify.NotifyOwner(ctx, l, common_models.OutcomeApproved, "")
		if err := o.Links.SetResultNotified(ctx, l.ID); err != nil {
			return err
		}
		o.Logger.Info("link approved",
			zap.String("token", l.Token), zap.Time("new_expire", newExpire))
	}
	return nil
}

func (o *OrchestratorImpl) onRejected(ctx context.Context, l *link.ShareLink, attribution string) error {
	if l.ResultNotified {
		return nil
	}
	o.Notify.NotifyOwner(ctx, l, common_models.OutcomeRejected, attribution)
	if err := o.Links.SetResultNotified(ctx, l.ID); err != nil {
		return err
	}
	o.Logger.Info("link rejected",
		zap.String("token", l.Token), zap.String("rejected_by", attribution))
	return nil
}

// humanChain rebuilds the snapshotted chain from the stored rows, preserving
// step order and group operators.
func humanChain(rows []ApprovalStatus) chain.Chain {
	byStep := make(map[int][]ApprovalStatus)
	maxStep := -1
	for _, row := range rows {
		if row.IsDLP() {
			continue
		}
		byStep[row.StepIndex] = append(byStep[row.StepIndex], row)
		if row.StepIndex > maxStep {
			maxStep = row.StepIndex
		}
	}

	c := make(chain.Chain, 0, len(byStep))
	for i := 0; i <= maxStep; i++ {
		stepRows := byStep[i]
		if len(stepRows) == 0 {
			continue
		}
		if len(stepRows) == 1 && stepRows[0].StepOp == "" {
			c = append(c, chain.Step{Single: stepRows[0].Identity})
			continue
		}
		step := chain.Step{Op: stepRows[0].StepOp}
		for _, row := range stepRows {
			step.Members = append(step.Members, row.Identity)
		}
		c = append(c, step)
	}
	return c
}

func hasCorrelationToken(rows []ApprovalStatus) bool {
	for _, row := range rows {
		if !row.IsDLP() && row.CorrelationToken != "" {
			return true
		}
	}
	return false
}

// auditSteps encodes the chain in the form the audit system expects.
func auditSteps(c chain.Chain) []common_models.AuditStep {
	steps := make([]common_models.AuditStep, 0, len(c))
	for i, step := range c {
		s := common_models.AuditStep{
			Label:     fmt.Sprintf("step-%d", i+1),
			Reviewers: step.Reviewers(),
		}
		switch {
		case !step.IsGroup():
			s.Type = common_models.AuditStepSingle
		case step.Op == common_models.OpAnd:
			s.Type = common_models.AuditStepAllOf
		default:
			s.Type = common_models.AuditStepAnyOf
		}
		steps = append(steps, s)
	}
	return steps
}
