package policy

import (
	"context"
	"fmt"

	"go-shareguard/internal/config"
	"go-shareguard/internal/features/link"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"go.uber.org/zap"
)

// Directives are the per-client approval policy decisions taken when a link
// is created. The defaults mean "run the full workflow".
type Directives struct {
	SkipHumanChain bool // approve without human reviewers (e.g. DMZ deployments)
	SkipDLPCheck   bool // treat the content scan as passed
}

// Policy evaluates deployment-specific rules for a new share link. Client
// branches (DMZ bypass, watermark-only tenants) are configured here instead
// of being scattered through the orchestrator.
type Policy interface {
	Evaluate(ctx context.Context, l *link.ShareLink) (Directives, error)
}

// ScriptPolicy runs a small configured script against link attributes. The
// script sees `owner`, `repo_id`, `path` and `dmz_mode`, and sets
// `skip_human_chain` / `skip_dlp_check`.
type ScriptPolicy struct {
	script  string
	dmzMode bool
	logger  *zap.Logger
}

func NewScriptPolicy(cfg *config.Config, logger *zap.Logger) Policy {
	return &ScriptPolicy{
		script:  cfg.PolicyScript,
		dmzMode: cfg.DMZMode,
		logger:  logger,
	}
}

func (p *ScriptPolicy) Evaluate(ctx context.Context, l *link.ShareLink) (Directives, error) {
	d := Directives{}

	// DMZ servers gate downloads on the audit system alone; the local human
	// chain is skipped there.
	if p.dmzMode {
		d.SkipHumanChain = true
	}

	if p.script == "" {
		return d, nil
	}

	script := tengo.NewScript([]byte(p.script))
	script.SetImports(stdlib.GetModuleMap("text", "times"))

	_ = script.Add("owner", l.Owner)
	_ = script.Add("repo_id", l.RepoID)
	_ = script.Add("path", l.Path)
	_ = script.Add("dmz_mode", p.dmzMode)
	_ = script.Add("skip_human_chain", d.SkipHumanChain)
	_ = script.Add("skip_dlp_check", d.SkipDLPCheck)

	compiled, err := script.RunContext(ctx)
	if err != nil {
		// A broken policy script must not block link creation; fall back to
		// the full workflow and make noise.
		p.logger.Error("policy script failed, using defaults",
			zap.String("token", l.Token), zap.Error(err))
		return Directives{SkipHumanChain: p.dmzMode}, nil
	}

	d.SkipHumanChain = boolVar(compiled, "skip_human_chain", d.SkipHumanChain)
	d.SkipDLPCheck = boolVar(compiled, "skip_dlp_check", d.SkipDLPCheck)
	return d, nil
}

func boolVar(c *tengo.Compiled, name string, fallback bool) bool {
	v := c.Get(name)
	if v == nil || v.IsUndefined() {
		return fallback
	}
	return v.Bool()
}

// String implements fmt.Stringer for log output.
func (d Directives) String() string {
	return fmt.Sprintf("skip_human_chain=%t skip_dlp_check=%t", d.SkipHumanChain, d.SkipDLPCheck)
}
