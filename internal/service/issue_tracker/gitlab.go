package issue_tracker

import (
	"context"
	"fmt"
	"strings"

	"basegraph.app/intake/core/config"
	"basegraph.app/intake/internal/model"
	gitlab "gitlab.com/gitlab-org/api/client-go"
)

type gitLabTracker struct {
	client    *gitlab.Client
	projectID string
}

// NewGitLabTracker opens issues in a single project using a personal or
// project access token from configuration.
func NewGitLabTracker(cfg config.GitLabConfig) (IssueTracker, error) {
	if !cfg.Enabled() {
		return nil, ErrIncompleteCredentials
	}

	client, err := newClient(cfg.BaseURL, cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab client: %w", err)
	}

	return &gitLabTracker{client: client, projectID: cfg.ProjectID}, nil
}

func newClient(baseURL string, token string) (*gitlab.Client, error) {
	if baseURL == "" {
		return gitlab.NewClient(token)
	}
	apiURL := strings.TrimSuffix(baseURL, "/") + "/api/v4"
	return gitlab.NewClient(token, gitlab.WithBaseURL(apiURL))
}

func (t *gitLabTracker) Provider() string { return ProviderGitLab }

// CreateIssue has no native priority or issue type to set, so both travel as
// scoped labels. Assignee lookup is not supported.
func (t *gitLabTracker) CreateIssue(ctx context.Context, params CreateIssueParams) (*model.Ticket, error) {
	labels := gitlab.LabelOptions(append([]string{}, params.Labels...))
	if params.IssueType != "" {
		labels = append(labels, strings.ToLower(params.IssueType))
	}
	if params.Priority != "" {
		labels = append(labels, "priority::"+params.Priority)
	}

	issue, _, err := t.client.Issues.CreateIssue(
		t.projectID,
		&gitlab.CreateIssueOptions{
			Title:       gitlab.Ptr(params.Summary),
			Description: gitlab.Ptr(params.Description),
			Labels:      &labels,
		},
		gitlab.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("creating gitlab issue: %w", err)
	}

	return &model.Ticket{
		Provider: ProviderGitLab,
		Key:      fmt.Sprintf("#%d", issue.IID),
		ID:       fmt.Sprintf("%d", issue.ID),
		URL:      issue.WebURL,
		Summary:  issue.Title,
	}, nil
}
