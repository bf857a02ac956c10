package chain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	common_models "go-shareguard/internal/common/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	// ErrMalformedChain is returned when a chain string cannot be parsed:
	// empty step, invalid identity, bad separators.
	ErrMalformedChain = errors.New("malformed approval chain")

	// ErrUnresolvedChain is returned when an identity in a chain does not
	// resolve to an active directory user.
	ErrUnresolvedChain = errors.New("chain identity does not resolve to an active user")
)

// Step is one element of an approval chain: either a single reviewer or a
// group of reviewers joined by an operator. Exactly one representation is
// used per step; a group always has Op set and at least one member.
type Step struct {
	Single  string                `bson:"single,omitempty" json:"single,omitempty"`
	Op      common_models.ChainOp `bson:"op,omitempty" json:"op,omitempty"`
	Members []string              `bson:"members,omitempty" json:"members,omitempty"`
}

// IsGroup reports whether the step is a reviewer group.
func (s Step) IsGroup() bool {
	return len(s.Members) > 0
}

// Reviewers returns every identity of the step in order.
func (s Step) Reviewers() []string {
	if s.IsGroup() {
		return s.Members
	}
	return []string{s.Single}
}

// Chain is an ordered sequence of steps. An empty chain is valid and means
// "no approval required".
type Chain []Step

// ApprovalChain is the department-scoped chain record. Rows are replaced
// wholesale on admin writes, never mutated in place.
type ApprovalChain struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Department string             `bson:"department" json:"department"`
	Steps      Chain              `bson:"steps" json:"steps"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// UserApprovalChain overrides the department chain for a single user.
type UserApprovalChain struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	User      string             `bson:"user" json:"user"`
	Steps     Chain              `bson:"steps" json:"steps"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

const (
	stepSeparator     = "->"
	orSeparator       = "|"
	andSeparator      = "&"
	subjectSeparator  = "<->" // joins the subject and the chain in admin input
	legacyGroupMarker = "op_or"
)

func isValidEmail(s string) bool {
	at := strings.Index(s, "@")
	return at > 0 && at < len(s)-1 && !strings.ContainsAny(s, " \t")
}

// Parse turns the admin wire format into a Chain. Steps are joined by "->";
// group members by "|" (any-of) or "&" (all-of). A leading legacy "op_or"
// member marker inside a group is tolerated and skipped.
func Parse(text string) (Chain, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Chain{}, nil
	}

	var out Chain
	for _, raw := range strings.Split(text, stepSeparator) {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil, fmt.Errorf("%w: empty step in %q", ErrMalformedChain, text)
		}

		op := common_models.OpOr
		sep := orSeparator
		if strings.Contains(raw, andSeparator) {
			if strings.Contains(raw, orSeparator) {
				return nil, fmt.Errorf("%w: step %q mixes operators", ErrMalformedChain, raw)
			}
			op = common_models.OpAnd
			sep = andSeparator
		}

		parts := strings.Split(raw, sep)
		members := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.ToLower(strings.TrimSpace(p))
			if p == legacyGroupMarker {
				continue
			}
			if !isValidEmail(p) {
				return nil, fmt.Errorf("%w: invalid identity %q", ErrMalformedChain, p)
			}
			members = append(members, p)
		}
		if len(members) == 0 {
			return nil, fmt.Errorf("%w: empty step in %q", ErrMalformedChain, text)
		}

		if len(members) == 1 {
			out = append(out, Step{Single: members[0]})
		} else {
			out = append(out, Step{Op: op, Members: members})
		}
	}
	return out, nil
}

// String serializes the chain back to the wire format. It round-trips with
// Parse. The display variant produced by Format is lossy and must not be
// persisted.
func (c Chain) String() string {
	steps := make([]string, 0, len(c))
	for _, s := range c {
		if !s.IsGroup() {
			steps = append(steps, s.Single)
			continue
		}
		sep := orSeparator
		if s.Op == common_models.OpAnd {
			sep = andSeparator
		}
		steps = append(steps, strings.Join(s.Members, sep))
	}
	return strings.Join(steps, stepSeparator)
}

// Format renders the chain for humans, mapping each identity through
// nameOf. Lossy: not parseable back.
func (c Chain) Format(nameOf func(string) string) string {
	steps := make([]string, 0, len(c))
	for _, s := range c {
		names := make([]string, 0, len(s.Reviewers()))
		for _, r := range s.Reviewers() {
			names = append(names, nameOf(r))
		}
		if !s.IsGroup() {
			steps = append(steps, names[0])
			continue
		}
		joiner := " or "
		if s.Op == common_models.OpAnd {
			joiner = " and "
		}
		steps = append(steps, "("+strings.Join(names, joiner)+")")
	}
	return strings.Join(steps, " -> ")
}

// Contains reports whether identity appears anywhere in the chain, as a bare
// step or inside a group.
func (c Chain) Contains(identity string) bool {
	identity = strings.ToLower(identity)
	for _, s := range c {
		for _, r := range s.Reviewers() {
			if strings.ToLower(r) == identity {
				return true
			}
		}
	}
	return false
}

// Emails returns every identity of the chain, in step order.
func (c Chain) Emails() []string {
	var out []string
	for _, s := range c {
		out = append(out, s.Reviewers()...)
	}
	return out
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	set := make(map[string]struct{}, len(a))
	for _, x := range a {
		set[strings.ToLower(x)] = struct{}{}
	}
	for _, x := range b {
		if _, ok := set[strings.ToLower(x)]; !ok {
			return false
		}
	}
	return true
}

// AppendSecurityStep appends a final any-of step of the company security
// reviewers. Idempotent by set equality: when the last step is already that
// group the chain is returned unchanged.
func (c Chain) AppendSecurityStep(securityGroup []string) Chain {
	if len(securityGroup) == 0 {
		return c
	}
	if n := len(c); n > 0 {
		last := c[n-1]
		if last.IsGroup() && sameSet(last.Members, securityGroup) {
			return c
		}
		if !last.IsGroup() && len(securityGroup) == 1 &&
			strings.EqualFold(last.Single, securityGroup[0]) {
			return c
		}
	}
	if len(securityGroup) == 1 {
		return append(c, Step{Single: securityGroup[0]})
	}
	return append(c, Step{Op: common_models.OpOr, Members: securityGroup})
}

// RemoveSecurityStep drops the last step iff it is exactly the given group.
func (c Chain) RemoveSecurityStep(securityGroup []string) Chain {
	n := len(c)
	if n == 0 || len(securityGroup) == 0 {
		return c
	}
	last := c[n-1]
	if sameSet(last.Reviewers(), securityGroup) {
		return c[:n-1]
	}
	return c
}
