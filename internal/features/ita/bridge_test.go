package ita

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	common_models "go-shareguard/internal/common/models"
	"go-shareguard/internal/config"
	"go-shareguard/internal/features/link"

	"go.uber.org/zap"
)

func testBridge(cfg *config.Config) *HttpBridge {
	return &HttpBridge{
		Config:     cfg,
		Logger:     zap.NewNop(),
		HttpClient: &http.Client{Timeout: 5 * time.Second},
	}
}

func TestSubmitEncodesChainOfCustody(t *testing.T) {
	var got reportEventRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "secret-key" {
			t.Errorf("Authorization = %q, want secret-key", r.Header.Get("Authorization"))
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatal(err)
		}
		json.NewEncoder(w).Encode(reportEventResponse{ResultCode: "0", EventCode: "EVT-42"})
	}))
	defer srv.Close()

	b := testBridge(&config.Config{
		AppId:             "shareguard",
		ITAChannelID:      "ch-1",
		ITAChannelName:    "File Sharing",
		ITAEventName:      "external-share",
		ITAAuthKey:        "secret-key",
		ITAReportEventURL: srv.URL,
		ServiceURL:        "https://share.corp.com",
	})

	l := &link.ShareLink{Token: "tok-1", Path: "/docs/plan.pdf", Owner: "owner@corp.com"}
	steps := []common_models.AuditStep{
		{Label: "step-1", Type: common_models.AuditStepSingle, Reviewers: []string{"a@corp.com"}},
		{Label: "step-2", Type: common_models.AuditStepAnyOf, Reviewers: []string{"b@corp.com", "c@corp.com"}},
		{Label: "step-3", Type: common_models.AuditStepAllOf, Reviewers: []string{"d@corp.com", "e@corp.com"}},
	}

	code, err := b.Submit(context.Background(), l, steps)
	if err != nil {
		t.Fatal(err)
	}
	if code != "EVT-42" {
		t.Errorf("event code = %q, want EVT-42", code)
	}

	if got.AppID != "shareguard" || got.Creator != "owner@corp.com" {
		t.Errorf("request header fields = %+v", got)
	}
	if got.EventTitle != "plan.pdf" {
		t.Errorf("event title = %q, want plan.pdf", got.EventTitle)
	}
	if len(got.AuditFlowDetail) != 3 {
		t.Fatalf("got %d flow steps, want 3", len(got.AuditFlowDetail))
	}

	wantFlags := []string{"S", "O", "A"}
	for i, fs := range got.AuditFlowDetail {
		if fs.TypeFlag != wantFlags[i] {
			t.Errorf("step %d type flag = %q, want %q", i, fs.TypeFlag, wantFlags[i])
		}
		if fs.StepOrder != i+1 {
			t.Errorf("step %d order = %d, want %d", i, fs.StepOrder, i+1)
		}
		if fs.StepType != "audit" {
			t.Errorf("step %d type = %q, want audit", i, fs.StepType)
		}
	}
	if got.AuditFlowDetail[1].AuditUser[1].UserCode != "c@corp.com" {
		t.Errorf("any-of members = %+v", got.AuditFlowDetail[1].AuditUser)
	}
}

func TestSubmitRejectedByPlatform(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(reportEventResponse{ResultCode: "500", ResultMsg: "duplicate event"})
	}))
	defer srv.Close()

	b := testBridge(&config.Config{ITAReportEventURL: srv.URL})
	_, err := b.Submit(context.Background(), &link.ShareLink{Token: "tok"}, nil)
	if err == nil {
		t.Fatal("Submit succeeded, want error on non-zero result code")
	}
}

func TestSubmitEmptyEventCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(reportEventResponse{ResultCode: "0"})
	}))
	defer srv.Close()

	b := testBridge(&config.Config{ITAReportEventURL: srv.URL})
	_, err := b.Submit(context.Background(), &link.ShareLink{Token: "tok"}, nil)
	if err == nil {
		t.Fatal("Submit succeeded, want error on empty event code")
	}
}

func TestPollTranslatesDecisions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req eventDetailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if req.EventCode != "EVT-42" {
			t.Errorf("event code = %q, want EVT-42", req.EventCode)
		}
		json.NewEncoder(w).Encode(eventDetailResponse{
			ResultCode: "0",
			AuditDetail: []auditDetailEntry{
				{UserCode: "a@corp.com", AuditResult: "y", AuditTime: "2026-08-01 10:30:00"},
				{UserCode: "b@corp.com", AuditResult: "n", AuditIdea: "too sensitive"},
				{UserCode: "c@corp.com", AuditResult: ""},
			},
		})
	}))
	defer srv.Close()

	b := testBridge(&config.Config{ITAEventDetailURL: srv.URL})
	decisions, err := b.Poll(context.Background(), "EVT-42")
	if err != nil {
		t.Fatal(err)
	}

	// The pending entry is skipped.
	if len(decisions) != 2 {
		t.Fatalf("got %d decisions, want 2", len(decisions))
	}
	if decisions[0].Status != common_models.StatusPass {
		t.Errorf("decision[0] = %v, want pass", decisions[0].Status)
	}
	want := time.Date(2026, 8, 1, 10, 30, 0, 0, time.Local)
	if !decisions[0].Vtime.Equal(want) {
		t.Errorf("decision[0] time = %v, want %v", decisions[0].Vtime, want)
	}
	if decisions[1].Status != common_models.StatusVeto || decisions[1].Msg != "too sensitive" {
		t.Errorf("decision[1] = %+v, want veto with message", decisions[1])
	}
}

func TestPollHttpFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	b := testBridge(&config.Config{ITAEventDetailURL: srv.URL})
	if _, err := b.Poll(context.Background(), "EVT-42"); err == nil {
		t.Fatal("Poll succeeded, want error on HTTP 502")
	}
}
