package models

import "time"

// Status codes of a single approval row. The integer values are shared with
// the external audit exports and must not be renumbered.
type Status int

const (
	StatusVerifying     Status = 0
	StatusPass          Status = 1
	StatusVeto          Status = 2
	StatusBlockHighRisk Status = 3
)

func (s Status) String() string {
	switch s {
	case StatusVerifying:
		return "verifying"
	case StatusPass:
		return "pass"
	case StatusVeto:
		return "veto"
	case StatusBlockHighRisk:
		return "block_high_risk"
	default:
		return "unknown"
	}
}

// Terminal returns true once a row can no longer change.
func (s Status) Terminal() bool {
	return s != StatusVerifying
}

// Outcome is the aggregate state of one share link, always recomputed from
// the stored rows, never persisted.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeApproved
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApproved:
		return "approved"
	case OutcomeRejected:
		return "rejected"
	default:
		return "pending"
	}
}

// ChainOp joins the members of a group step.
type ChainOp string

const (
	OpAnd ChainOp = "op_and"
	OpOr  ChainOp = "op_or" // legacy marker, kept for stored chains
)

// DLPIdentity is the reserved reviewer identity of the content scanner. It
// never collides with a directory user.
const DLPIdentity = "dlp@system"

// HighRiskDetail is the scanner payload attached to a BlockHighRisk verdict.
// Stored verbatim on the DLP row and forwarded unchanged to the audit system.
type HighRiskDetail struct {
	FileName         string `bson:"file_name" json:"file_name"`
	PolicyCategories string `bson:"policy_categories" json:"policy_categories"`
	TotalMatches     int    `bson:"total_matches" json:"total_matches"`
	BreachContent    string `bson:"breach_content" json:"breach_content"`
}

// AuditStepType is the step encoding understood by the external audit
// system.
type AuditStepType string

const (
	AuditStepSingle AuditStepType = "single"
	AuditStepAnyOf  AuditStepType = "any-of"
	AuditStepAllOf  AuditStepType = "all-of"
)

// AuditStep is one step of the chain-of-custody submitted to the audit
// system. Order and group membership are preserved exactly.
type AuditStep struct {
	Label     string        `json:"label"`
	Type      AuditStepType `json:"type"`
	Reviewers []string      `json:"reviewers"`
}

// ApprovalEvent is pushed to websocket subscribers whenever a link changes
// state.
type ApprovalEvent struct {
	LinkToken string    `json:"link_token"`
	Identity  string    `json:"identity"`
	Status    string    `json:"status"`
	Outcome   string    `json:"outcome"`
	Time      time.Time `json:"time"`
}
