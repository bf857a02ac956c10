package ita

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	common_models "go-shareguard/internal/common/models"
	"go-shareguard/internal/config"
	"go-shareguard/internal/features/link"

	"go.uber.org/zap"
)

// Wire formats of the audit platform. The step and flag encodings are fixed
// by the remote side; do not rename them.
type auditUserVo struct {
	UserCode string `json:"userCode"`
}

type auditFlowStep struct {
	StepName  string        `json:"stepName"`
	StepOrder int           `json:"stepOrder"`
	StepType  string        `json:"stepType"`
	TypeFlag  string        `json:"typeFlag"` // S single, O any-of, A all-of
	AuditUser []auditUserVo `json:"auditUserVo"`
}

type reportEventRequest struct {
	AppID           string          `json:"appId"`
	ChannelID       string          `json:"channelId"`
	ChannelName     string          `json:"channelName"`
	EventName       string          `json:"eventName"`
	EventTitle      string          `json:"eventTitle"`
	Creator         string          `json:"creator"`
	ResourceURL     string          `json:"resourceUrl"`
	AuditFlowDetail []auditFlowStep `json:"auditFlowDetail"`
}

type reportEventResponse struct {
	ResultCode string `json:"resultCode"`
	ResultMsg  string `json:"resultMsg"`
	EventCode  string `json:"eventCode"`
}

type eventDetailRequest struct {
	AppID     string `json:"appId"`
	EventCode string `json:"eventCode"`
}

type auditDetailEntry struct {
	UserCode    string `json:"userCode"`
	AuditResult string `json:"auditResult"` // "y", "n" or "" while pending
	AuditIdea   string `json:"auditIdea"`
	AuditTime   string `json:"auditTime"`
}

type eventDetailResponse struct {
	ResultCode  string             `json:"resultCode"`
	ResultMsg   string             `json:"resultMsg"`
	AuditDetail []auditDetailEntry `json:"auditDetail"`
}

const auditTimeLayout = "2006-01-02 15:04:05"

// Decision is one reviewer decision pulled from the audit platform.
type Decision struct {
	Identity string
	Status   common_models.Status
	Msg      string
	Vtime    time.Time
}

// Bridge is the client side of the audit platform integration. Submit
// registers a chain-of-custody; Poll fetches the decisions made there.
type Bridge interface {
	Submit(ctx context.Context, l *link.ShareLink, steps []common_models.AuditStep) (string, error)
	Poll(ctx context.Context, eventCode string) ([]Decision, error)
}

type HttpBridge struct {
	Config     *config.Config
	Logger     *zap.Logger
	HttpClient *http.Client
}

func NewBridge(cfg *config.Config, logger *zap.Logger) Bridge {
	return &HttpBridge{
		Config: cfg,
		Logger: logger,
		HttpClient: &http.Client{
			Timeout: time.Duration(cfg.ITATimeoutSecs) * time.Second,
		},
	}
}

func (b *HttpBridge) post(ctx context.Context, url string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", b.Config.ITAAuthKey)

	resp, err := b.HttpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("audit platform returned %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (b *HttpBridge) Submit(ctx context.Context, l *link.ShareLink, steps []common_models.AuditStep) (string, error) {
	req := reportEventRequest{
		AppID:           b.Config.AppId,
		ChannelID:       b.Config.ITAChannelID,
		ChannelName:     b.Config.ITAChannelName,
		EventName:       b.Config.ITAEventName,
		EventTitle:      l.FileName(),
		Creator:         l.Owner,
		ResourceURL:     l.URL(b.Config.ServiceURL),
		AuditFlowDetail: flowSteps(steps),
	}

	var resp reportEventResponse
	if err := b.post(ctx, b.Config.ITAReportEventURL, req, &resp); err != nil {
		return "", err
	}
	if resp.ResultCode != "0" {
		return "", fmt.Errorf("audit platform rejected event: %s (%s)", resp.ResultMsg, resp.ResultCode)
	}
	if resp.EventCode == "" {
		return "", fmt.Errorf("audit platform returned empty event code")
	}

	b.Logger.Info("chain-of-custody registered with audit platform",
		zap.String("token", l.Token), zap.String("event_code", resp.EventCode))
	return resp.EventCode, nil
}

func (b *HttpBridge) Poll(ctx context.Context, eventCode string) ([]Decision, error) {
	var resp eventDetailResponse
	req := eventDetailRequest{AppID: b.Config.AppId, EventCode: eventCode}
	if err := b.post(ctx, b.Config.ITAEventDetailURL, req, &resp); err != nil {
		return nil, err
	}
	if resp.ResultCode != "0" {
		return nil, fmt.Errorf("audit platform detail query failed: %s (%s)", resp.ResultMsg, resp.ResultCode)
	}

	decisions := make([]Decision, 0, len(resp.AuditDetail))
	for _, entry := range resp.AuditDetail {
		d := Decision{Identity: entry.UserCode, Msg: entry.AuditIdea}
		switch entry.AuditResult {
		case "y":
			d.Status = common_models.StatusPass
		case "n":
			d.Status = common_models.StatusVeto
		default:
			continue
		}

		d.Vtime = time.Now()
		if entry.AuditTime != "" {
			if t, err := time.ParseInLocation(auditTimeLayout, entry.AuditTime, time.Local); err == nil {
				d.Vtime = t
			}
		}
		decisions = append(decisions, d)
	}
	return decisions, nil
}

func flowSteps(steps []common_models.AuditStep) []auditFlowStep {
	out := make([]auditFlowStep, 0, len(steps))
	for i, step := range steps {
		fs := auditFlowStep{
			StepName:  step.Label,
			StepOrder: i + 1,
			StepType:  "audit",
		}
		switch step.Type {
		case common_models.AuditStepAllOf:
			fs.TypeFlag = "A"
		case common_models.AuditStepAnyOf:
			fs.TypeFlag = "O"
		default:
			fs.TypeFlag = "S"
		}
		for _, reviewer := range step.Reviewers {
			fs.AuditUser = append(fs.AuditUser, auditUserVo{UserCode: reviewer})
		}
		out = append(out, fs)
	}
	return out
}
