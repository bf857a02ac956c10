package scan

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	common_models "go-shareguard/internal/common/models"
	"go-shareguard/internal/config"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

// Verdict is one scanner result for an exported file. Msg carries the
// high-risk detail JSON when the scanner blocked on a high-risk match.
type Verdict struct {
	Status common_models.Status
	Msg    string
	Vtime  time.Time
}

// VerdictSource looks up the scanner's result for an exported file. The
// scanner writes incidents into its own database; we only ever read it.
type VerdictSource interface {
	// Lookup returns the newest verdict for the exported file, or nil while
	// the scanner has not finished.
	Lookup(ctx context.Context, exportedName string) (*Verdict, error)
	Close() error
}

// Scanner policy actions as stored in the incident table.
const (
	actionPermit        = "permit"
	actionBlock         = "block"
	actionBlockHighRisk = "block_high_risk"
)

// PostgresVerdictSource reads the scanner's incident database over a
// read-only connection.
type PostgresVerdictSource struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewPostgresVerdictSource(cfg *config.Config, logger *zap.Logger) (VerdictSource, error) {
	db, err := sql.Open("postgres", cfg.DLPPostgresDSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	return &PostgresVerdictSource{db: db, logger: logger}, nil
}

// escapeLike escapes the LIKE metacharacters in a filename so the lookup
// matches the name literally.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func (p *PostgresVerdictSource) Lookup(ctx context.Context, exportedName string) (*Verdict, error) {
	// The scanner records the full pickup path; match on the exported name
	// and take the newest incident.
	row := p.db.QueryRowContext(ctx, `
		SELECT policy_action, policy_categories, breach_content, total_matches, detected_at
		FROM dlp_incidents
		WHERE file_name LIKE '%' || $1
		ORDER BY detected_at DESC
		LIMIT 1`, escapeLike(exportedName))

	var (
		action     string
		categories sql.NullString
		breach     sql.NullString
		matches    sql.NullInt64
		detectedAt time.Time
	)
	err := row.Scan(&action, &categories, &breach, &matches, &detectedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	v := &Verdict{Vtime: detectedAt}
	switch action {
	case actionPermit:
		v.Status = common_models.StatusPass
	case actionBlock:
		v.Status = common_models.StatusVeto
	case actionBlockHighRisk:
		v.Status = common_models.StatusBlockHighRisk
		detail := common_models.HighRiskDetail{
			FileName:         exportedName,
			PolicyCategories: categories.String,
			TotalMatches:     int(matches.Int64),
			BreachContent:    breach.String,
		}
		payload, err := json.Marshal(detail)
		if err != nil {
			return nil, err
		}
		v.Msg = string(payload)
	default:
		p.logger.Warn("unknown scanner policy action, treating as block",
			zap.String("action", action), zap.String("file", exportedName))
		v.Status = common_models.StatusVeto
	}
	return v, nil
}

func (p *PostgresVerdictSource) Close() error {
	return p.db.Close()
}
