package approval

import (
	"testing"

	common_models "go-shareguard/internal/common/models"
)

func row(identity string, status common_models.Status, stepIndex int, op common_models.ChainOp) ApprovalStatus {
	return ApprovalStatus{
		Identity:  identity,
		Status:    status,
		StepIndex: stepIndex,
		StepOp:    op,
	}
}

func dlpRow(status common_models.Status) ApprovalStatus {
	return row(common_models.DLPIdentity, status, -1, "")
}

func TestComputeOutcome(t *testing.T) {
	tests := []struct {
		name        string
		rows        []ApprovalStatus
		want        common_models.Outcome
		attribution string
	}{
		{
			name: "Everything verifying stays pending",
			rows: []ApprovalStatus{
				dlpRow(common_models.StatusVerifying),
				row("a@corp.com", common_models.StatusVerifying, 0, ""),
			},
			want: common_models.OutcomePending,
		},
		{
			name: "DLP veto rejects immediately",
			rows: []ApprovalStatus{
				dlpRow(common_models.StatusVeto),
				row("a@corp.com", common_models.StatusVerifying, 0, ""),
			},
			want:        common_models.OutcomeRejected,
			attribution: common_models.DLPIdentity,
		},
		{
			name: "DLP high-risk block rejects even after all reviewers passed",
			rows: []ApprovalStatus{
				dlpRow(common_models.StatusBlockHighRisk),
				row("a@corp.com", common_models.StatusPass, 0, ""),
				row("b@corp.com", common_models.StatusPass, 1, ""),
			},
			want:        common_models.OutcomeRejected,
			attribution: common_models.DLPIdentity,
		},
		{
			name: "Reviewer veto rejects regardless of other steps",
			rows: []ApprovalStatus{
				dlpRow(common_models.StatusPass),
				row("a@corp.com", common_models.StatusPass, 0, ""),
				row("b@corp.com", common_models.StatusVeto, 1, ""),
				row("c@corp.com", common_models.StatusVerifying, 2, ""),
			},
			want:        common_models.OutcomeRejected,
			attribution: "b@corp.com",
		},
		{
			name: "Human passes do not count until DLP passes",
			rows: []ApprovalStatus{
				dlpRow(common_models.StatusVerifying),
				row("a@corp.com", common_models.StatusPass, 0, ""),
			},
			want: common_models.OutcomePending,
		},
		{
			name: "All singles passed approves",
			rows: []ApprovalStatus{
				dlpRow(common_models.StatusPass),
				row("a@corp.com", common_models.StatusPass, 0, ""),
				row("b@corp.com", common_models.StatusPass, 1, ""),
			},
			want: common_models.OutcomeApproved,
		},
		{
			name: "One single still verifying stays pending",
			rows: []ApprovalStatus{
				dlpRow(common_models.StatusPass),
				row("a@corp.com", common_models.StatusPass, 0, ""),
				row("b@corp.com", common_models.StatusVerifying, 1, ""),
			},
			want: common_models.OutcomePending,
		},
		{
			name: "Any-of group cleared by one pass",
			rows: []ApprovalStatus{
				dlpRow(common_models.StatusPass),
				row("a@corp.com", common_models.StatusPass, 0, common_models.ChainOp("op_or")),
				row("b@corp.com", common_models.StatusVerifying, 0, common_models.ChainOp("op_or")),
			},
			want: common_models.OutcomeApproved,
		},
		{
			name: "All-of group needs every member",
			rows: []ApprovalStatus{
				dlpRow(common_models.StatusPass),
				row("a@corp.com", common_models.StatusPass, 0, common_models.OpAnd),
				row("b@corp.com", common_models.StatusVerifying, 0, common_models.OpAnd),
			},
			want: common_models.OutcomePending,
		},
		{
			name: "All-of group fully passed approves",
			rows: []ApprovalStatus{
				dlpRow(common_models.StatusPass),
				row("a@corp.com", common_models.StatusPass, 0, common_models.OpAnd),
				row("b@corp.com", common_models.StatusPass, 0, common_models.OpAnd),
			},
			want: common_models.OutcomeApproved,
		},
		{
			name: "Veto inside a group rejects even with a sibling pass",
			rows: []ApprovalStatus{
				dlpRow(common_models.StatusPass),
				row("a@corp.com", common_models.StatusPass, 0, common_models.ChainOp("op_or")),
				row("b@corp.com", common_models.StatusVeto, 0, common_models.ChainOp("op_or")),
			},
			want:        common_models.OutcomeRejected,
			attribution: "b@corp.com",
		},
		{
			name: "Empty chain with DLP pass approves",
			rows: []ApprovalStatus{
				dlpRow(common_models.StatusPass),
			},
			want: common_models.OutcomeApproved,
		},
		{
			name: "Rejection is monotonic over later passes",
			rows: []ApprovalStatus{
				dlpRow(common_models.StatusPass),
				row("a@corp.com", common_models.StatusVeto, 0, ""),
				row("b@corp.com", common_models.StatusPass, 1, ""),
			},
			want:        common_models.OutcomeRejected,
			attribution: "a@corp.com",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, attribution := ComputeOutcome(tt.rows)
			if got != tt.want {
				t.Errorf("ComputeOutcome() = %v, want %v", got, tt.want)
			}
			if tt.want == common_models.OutcomeRejected && attribution != tt.attribution {
				t.Errorf("attribution = %q, want %q", attribution, tt.attribution)
			}
		})
	}
}

func TestComputeOutcomeIsPure(t *testing.T) {
	rows := []ApprovalStatus{
		dlpRow(common_models.StatusPass),
		row("a@corp.com", common_models.StatusPass, 0, ""),
	}
	first, _ := ComputeOutcome(rows)
	second, _ := ComputeOutcome(rows)
	if first != second {
		t.Errorf("two computations over the same rows disagree: %v vs %v", first, second)
	}
}
