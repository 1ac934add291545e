package issue_tracker

import (
	"context"
	"errors"
	"strings"

	"basegraph.app/intake/core/config"
	"basegraph.app/intake/internal/model"
)

const (
	ProviderJira   = "jira"
	ProviderGitLab = "gitlab"
)

var ErrIncompleteCredentials = errors.New("incomplete ticketing credentials")

type CreateIssueParams struct {
	Summary     string
	Description string
	IssueType   string
	Priority    string
	Labels      []string
	Assignee    string // display name, matched against the tracker's users
}

// IssueTracker opens tickets in one project of one tracker.
type IssueTracker interface {
	CreateIssue(ctx context.Context, params CreateIssueParams) (*model.Ticket, error)
	Provider() string
}

// Credentials are per-request Jira credentials. Any blank field falls back to
// process configuration.
type Credentials struct {
	APIKey     string
	BaseURL    string
	ProjectKey string
	Email      string
}

// Resolver picks the tracker for one dispatch, or nil when ticketing is not
// configured for it.
type Resolver interface {
	Resolve(creds Credentials) (IssueTracker, error)
}

type resolver struct {
	cfg config.TicketConfig
}

func NewResolver(cfg config.TicketConfig) Resolver {
	return &resolver{cfg: cfg}
}

// Resolve prefers Jira credentials supplied with the request. Otherwise the
// configured provider decides, with Jira filling blanks from configuration.
func (r *resolver) Resolve(creds Credentials) (IssueTracker, error) {
	requested := ResolveCredentials(creds, config.JiraConfig{})
	if requested.APIKey != "" && requested.BaseURL != "" && requested.ProjectKey != "" {
		if requested.Email == "" {
			requested.Email = strings.TrimSpace(r.cfg.Jira.Email)
		}
		return NewJiraTracker(requested)
	}

	if r.cfg.Provider == ProviderGitLab {
		if !r.cfg.GitLab.Enabled() {
			return nil, nil
		}
		return NewGitLabTracker(r.cfg.GitLab)
	}

	resolved := ResolveCredentials(creds, r.cfg.Jira)
	if resolved.APIKey == "" || resolved.BaseURL == "" || resolved.ProjectKey == "" {
		return nil, nil
	}
	return NewJiraTracker(resolved)
}

// ResolveCredentials takes each field from the request unless it is blank or
// the literal "undefined" some browser clients send, then from cfg.
func ResolveCredentials(req Credentials, cfg config.JiraConfig) Credentials {
	return Credentials{
		APIKey:     pick(req.APIKey, cfg.APIKey),
		BaseURL:    strings.TrimSuffix(pick(req.BaseURL, cfg.BaseURL), "/"),
		ProjectKey: pick(req.ProjectKey, cfg.ProjectKey),
		Email:      pick(req.Email, cfg.Email),
	}
}

func pick(value, fallback string) string {
	v := strings.TrimSpace(value)
	if v == "" || v == "undefined" {
		return strings.TrimSpace(fallback)
	}
	return v
}
