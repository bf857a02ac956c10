package approval

import (
	"errors"
	"time"

	common_models "go-shareguard/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrDuplicateSeed means approval rows already exist for the link.
	// Seeding is exactly-once; hitting this is a replay or programming bug.
	ErrDuplicateSeed = errors.New("approval state already seeded for link")

	// ErrAlreadyDecided means a conflicting decision arrived for a row that
	// is already terminal. The original decision is kept.
	ErrAlreadyDecided = errors.New("reviewer already decided differently")

	// ErrUnknownReviewer means the identity has no seeded row for the link.
	ErrUnknownReviewer = errors.New("identity is not a reviewer of this link")
)

// ApprovalStatus is one reviewer's sub-status for one share link. The
// reserved DLP identity gets a row like any human reviewer. The chain is
// snapshotted into these rows at seed time, so later chain edits never touch
// in-flight links.
type ApprovalStatus struct {
	ID       primitive.ObjectID    `bson:"_id,omitempty" json:"id"`
	LinkID   primitive.ObjectID    `bson:"link_id" json:"link_id"`
	Identity string                `bson:"identity" json:"identity"`
	Status   common_models.Status  `bson:"status" json:"status"`

	// Position in the snapshotted chain. -1 for the DLP row. Op is set for
	// group steps only.
	StepIndex int                   `bson:"step_index" json:"step_index"`
	StepOp    common_models.ChainOp `bson:"step_op,omitempty" json:"step_op,omitempty"`

	// Msg carries the verdict payload: the scanner's high-risk detail JSON
	// on the DLP row, free-form comments on human rows. Stored verbatim.
	Msg   string     `bson:"msg,omitempty" json:"msg,omitempty"`
	Vtime *time.Time `bson:"vtime,omitempty" json:"vtime,omitempty"`

	// CorrelationToken is the audit system's event code, set on every human
	// row once the chain-of-custody was submitted. Its presence is the
	// exactly-once guard for submission.
	CorrelationToken string `bson:"correlation_token,omitempty" json:"correlation_token,omitempty"`
}

// IsDLP reports whether this is the content-scanner row.
func (a *ApprovalStatus) IsDLP() bool {
	return a.Identity == common_models.DLPIdentity
}
