package service_test

import (
	"context"
	"sync"

	"basegraph.app/intake/internal/intake"
	"basegraph.app/intake/internal/model"
	"basegraph.app/intake/internal/service"
	"basegraph.app/intake/internal/service/archive"
	"basegraph.app/intake/internal/service/issue_tracker"
)

type mockProcessor struct {
	processFn func(ctx context.Context, in intake.TurnInput) intake.TurnResult
	calls     []intake.TurnInput
}

func (m *mockProcessor) ProcessTurn(ctx context.Context, in intake.TurnInput) intake.TurnResult {
	m.calls = append(m.calls, in)
	if m.processFn != nil {
		return m.processFn(ctx, in)
	}
	return intake.TurnResult{Reply: "ok", Record: in.Record.Clone()}
}

type mockDispatcher struct {
	dispatchFn func(ctx context.Context, req service.DispatchRequest) service.DispatchResult
	calls      []service.DispatchRequest
}

func (m *mockDispatcher) Dispatch(ctx context.Context, req service.DispatchRequest) service.DispatchResult {
	m.calls = append(m.calls, req)
	if m.dispatchFn != nil {
		return m.dispatchFn(ctx, req)
	}
	return service.DispatchResult{ReportID: "bug_test"}
}

type mockArchiver struct {
	mu    sync.Mutex
	putFn func(ctx context.Context, reportID string, obj archive.Object) (string, error)
	puts  []archive.Object
}

func (m *mockArchiver) Put(ctx context.Context, reportID string, obj archive.Object) (string, error) {
	m.mu.Lock()
	m.puts = append(m.puts, obj)
	m.mu.Unlock()
	if m.putFn != nil {
		return m.putFn(ctx, reportID, obj)
	}
	return "mem://" + reportID + "/" + obj.Filename, nil
}

func (m *mockArchiver) Backend() string { return "mock" }

type mockResolver struct {
	resolveFn func(creds issue_tracker.Credentials) (issue_tracker.IssueTracker, error)
	lastCreds issue_tracker.Credentials
}

func (m *mockResolver) Resolve(creds issue_tracker.Credentials) (issue_tracker.IssueTracker, error) {
	m.lastCreds = creds
	if m.resolveFn != nil {
		return m.resolveFn(creds)
	}
	return nil, nil
}

type mockTracker struct {
	createFn func(ctx context.Context, params issue_tracker.CreateIssueParams) (*model.Ticket, error)
	calls    []issue_tracker.CreateIssueParams
}

func (m *mockTracker) CreateIssue(ctx context.Context, params issue_tracker.CreateIssueParams) (*model.Ticket, error) {
	m.calls = append(m.calls, params)
	if m.createFn != nil {
		return m.createFn(ctx, params)
	}
	return &model.Ticket{Provider: "mock", Key: "BUG-1", Summary: params.Summary}, nil
}

func (m *mockTracker) Provider() string { return "mock" }

type mockLedger struct {
	appendFn func(ctx context.Context, report *model.Report) error
	reports  []*model.Report
}

func (m *mockLedger) Append(ctx context.Context, report *model.Report) error {
	m.reports = append(m.reports, report)
	if m.appendFn != nil {
		return m.appendFn(ctx, report)
	}
	return nil
}

type fixedIDs struct{ id string }

func (f fixedIDs) NewString() string { return f.id }
