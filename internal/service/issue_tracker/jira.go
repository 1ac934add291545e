package issue_tracker

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"basegraph.app/intake/internal/model"
	jira "github.com/andygrunwald/go-jira"
)

type jiraTracker struct {
	client     *jira.Client
	baseURL    string
	projectKey string
}

// NewJiraTracker builds a basic-auth Jira client. Without an email the API key
// may carry "email:token" itself.
func NewJiraTracker(creds Credentials) (IssueTracker, error) {
	if creds.APIKey == "" || creds.BaseURL == "" || creds.ProjectKey == "" {
		return nil, ErrIncompleteCredentials
	}

	username, password := creds.Email, creds.APIKey
	if username == "" {
		var ok bool
		username, password, ok = strings.Cut(creds.APIKey, ":")
		if !ok {
			return nil, fmt.Errorf("%w: jira email is required", ErrIncompleteCredentials)
		}
	}

	tp := jira.BasicAuthTransport{Username: username, Password: password}
	client, err := jira.NewClient(tp.Client(), creds.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("creating jira client: %w", err)
	}

	return &jiraTracker{
		client:     client,
		baseURL:    strings.TrimSuffix(creds.BaseURL, "/"),
		projectKey: creds.ProjectKey,
	}, nil
}

func (t *jiraTracker) Provider() string { return ProviderJira }

func (t *jiraTracker) CreateIssue(ctx context.Context, params CreateIssueParams) (*model.Ticket, error) {
	fields := &jira.IssueFields{
		Project:     jira.Project{Key: t.projectKey},
		Summary:     params.Summary,
		Description: params.Description,
		Type:        jira.IssueType{Name: params.IssueType},
		Labels:      params.Labels,
	}

	// Medium is the project default and not every scheme exposes the field.
	if params.Priority != "" && params.Priority != "Medium" {
		fields.Priority = &jira.Priority{Name: params.Priority}
	}

	if params.Assignee != "" {
		user, err := t.findUser(ctx, params.Assignee)
		if err != nil {
			slog.WarnContext(ctx, "jira assignee lookup failed", "assignee", params.Assignee, "error", err)
		} else if user != nil {
			fields.Assignee = &jira.User{AccountID: user.AccountID}
		}
	}

	issue, resp, err := t.client.Issue.CreateWithContext(ctx, &jira.Issue{Fields: fields})
	if err != nil {
		return nil, fmt.Errorf("creating jira issue: %w", jira.NewJiraError(resp, err))
	}

	return &model.Ticket{
		Provider: ProviderJira,
		Key:      issue.Key,
		ID:       issue.ID,
		URL:      fmt.Sprintf("%s/browse/%s", t.baseURL, issue.Key),
		Summary:  params.Summary,
	}, nil
}

// findUser matches by display name: exact (case-insensitive) first, then
// substring. It returns nil when nobody matches.
func (t *jiraTracker) findUser(ctx context.Context, name string) (*jira.User, error) {
	// go-jira puts the query into the URL as is.
	users, _, err := t.client.User.FindWithContext(ctx, url.QueryEscape(name))
	if err != nil {
		return nil, err
	}
	return matchUser(users, name), nil
}

func matchUser(users []jira.User, name string) *jira.User {
	want := strings.ToLower(strings.TrimSpace(name))
	for i := range users {
		if strings.ToLower(users[i].DisplayName) == want {
			return &users[i]
		}
	}
	for i := range users {
		if strings.Contains(strings.ToLower(users[i].DisplayName), want) {
			return &users[i]
		}
	}
	return nil
}
