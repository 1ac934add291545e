package issue_tracker

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"basegraph.app/intake/core/config"
	jira "github.com/andygrunwald/go-jira"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ResolveCredentials", func() {
	cfg := config.JiraConfig{APIKey: "env-key", BaseURL: "https://env.atlassian.net/", ProjectKey: "ENV", Email: "env@example.com"}

	It("prefers request values", func() {
		got := ResolveCredentials(Credentials{APIKey: "req-key", BaseURL: "https://req.atlassian.net", ProjectKey: "REQ", Email: "req@example.com"}, cfg)
		Expect(got).To(Equal(Credentials{APIKey: "req-key", BaseURL: "https://req.atlassian.net", ProjectKey: "REQ", Email: "req@example.com"}))
	})

	It("falls back on blank and undefined values", func() {
		got := ResolveCredentials(Credentials{APIKey: "undefined", BaseURL: "  ", ProjectKey: "REQ"}, cfg)
		Expect(got).To(Equal(Credentials{APIKey: "env-key", BaseURL: "https://env.atlassian.net", ProjectKey: "REQ", Email: "env@example.com"}))
	})
})

var _ = Describe("Resolver", func() {
	It("returns no tracker without credentials", func() {
		tracker, err := NewResolver(config.TicketConfig{Provider: ProviderJira}).Resolve(Credentials{})
		Expect(err).NotTo(HaveOccurred())
		Expect(tracker).To(BeNil())
	})

	It("builds a jira tracker from request credentials", func() {
		tracker, err := NewResolver(config.TicketConfig{Provider: ProviderJira}).Resolve(Credentials{
			APIKey: "k", BaseURL: "https://x.atlassian.net", ProjectKey: "BUG", Email: "a@b.c",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(tracker.Provider()).To(Equal(ProviderJira))
	})

	It("builds a gitlab tracker from config when request credentials are incomplete", func() {
		r := NewResolver(config.TicketConfig{Provider: ProviderGitLab, GitLab: config.GitLabConfig{Token: "t", ProjectID: "42"}})
		tracker, err := r.Resolve(Credentials{APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())
		Expect(tracker.Provider()).To(Equal(ProviderGitLab))
	})

	It("prefers complete request jira credentials over a configured gitlab provider", func() {
		r := NewResolver(config.TicketConfig{Provider: ProviderGitLab})
		tracker, err := r.Resolve(Credentials{
			APIKey: "a@b.c:tok", BaseURL: "https://x.atlassian.net", ProjectKey: "BUG", Email: "a@b.c",
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(tracker).NotTo(BeNil())
		Expect(tracker.Provider()).To(Equal(ProviderJira))
	})

	It("returns no tracker for gitlab without gitlab config or request credentials", func() {
		tracker, err := NewResolver(config.TicketConfig{Provider: ProviderGitLab}).Resolve(Credentials{APIKey: "k"})
		Expect(err).NotTo(HaveOccurred())
		Expect(tracker).To(BeNil())
	})

	It("reports a missing jira email", func() {
		_, err := NewResolver(config.TicketConfig{}).Resolve(Credentials{APIKey: "k", BaseURL: "https://x", ProjectKey: "BUG"})
		Expect(err).To(MatchError(ErrIncompleteCredentials))
	})
})

var _ = Describe("matchUser", func() {
	users := []jira.User{
		{AccountID: "1", DisplayName: "Ada Lovelace-Byron"},
		{AccountID: "2", DisplayName: "Ada Lovelace"},
	}

	It("prefers an exact match", func() {
		Expect(matchUser(users, "ada lovelace").AccountID).To(Equal("2"))
	})

	It("falls back to a substring match", func() {
		Expect(matchUser(users, "Byron").AccountID).To(Equal("1"))
	})

	It("returns nil when nobody matches", func() {
		Expect(matchUser(users, "Grace")).To(BeNil())
	})
})

var _ = Describe("jiraTracker", func() {
	var (
		server   *httptest.Server
		created  map[string]any
		status   int
		searched []string
	)

	BeforeEach(func() {
		created = nil
		searched = nil
		status = http.StatusCreated
		mux := http.NewServeMux()
		mux.HandleFunc("/rest/api/2/user/search", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			searched = append(searched, r.URL.Query().Get("query"))
			_ = json.NewEncoder(w).Encode([]map[string]any{
				{"accountId": "acc-1", "displayName": "Ada Lovelace"},
			})
		})
		mux.HandleFunc("/rest/api/2/issue", func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPost))
			user, pass, ok := r.BasicAuth()
			Expect(ok).To(BeTrue())
			Expect(user).To(Equal("bot@example.com"))
			Expect(pass).To(Equal("secret"))

			body, _ := io.ReadAll(r.Body)
			Expect(json.Unmarshal(body, &created)).To(Succeed())

			w.WriteHeader(status)
			if status == http.StatusCreated {
				_, _ = w.Write([]byte(`{"id":"10001","key":"BUG-7","self":"x"}`))
			} else {
				_, _ = w.Write([]byte(`{"errorMessages":["project does not exist"]}`))
			}
		})
		server = httptest.NewServer(mux)
		DeferCleanup(server.Close)
	})

	newTracker := func() IssueTracker {
		tracker, err := NewJiraTracker(Credentials{APIKey: "secret", BaseURL: server.URL, ProjectKey: "BUG", Email: "bot@example.com"})
		Expect(err).NotTo(HaveOccurred())
		return tracker
	}

	It("creates the issue and returns a browse URL", func() {
		ticket, err := newTracker().CreateIssue(context.Background(), CreateIssueParams{
			Summary:     "Save crash",
			Description: "Description:\ncrash",
			IssueType:   "Bug",
			Priority:    "High",
			Labels:      []string{"bug-report"},
			Assignee:    "ada lovelace",
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(ticket.Key).To(Equal("BUG-7"))
		Expect(ticket.ID).To(Equal("10001"))
		Expect(ticket.URL).To(Equal(server.URL + "/browse/BUG-7"))

		fields := created["fields"].(map[string]any)
		Expect(fields["summary"]).To(Equal("Save crash"))
		Expect(fields["project"]).To(HaveKeyWithValue("key", "BUG"))
		Expect(fields["issuetype"]).To(HaveKeyWithValue("name", "Bug"))
		Expect(fields["priority"]).To(HaveKeyWithValue("name", "High"))
		Expect(searched).To(Equal([]string{"ada lovelace"}))
		Expect(fields["assignee"]).To(HaveKeyWithValue("accountId", "acc-1"))
		Expect(fields["labels"]).To(ConsistOf("bug-report"))
	})

	It("leaves Medium priority to the project default", func() {
		_, err := newTracker().CreateIssue(context.Background(), CreateIssueParams{Summary: "s", IssueType: "Bug", Priority: "Medium"})

		Expect(err).NotTo(HaveOccurred())
		Expect(created["fields"]).NotTo(HaveKey("priority"))
	})

	It("surfaces remote rejections", func() {
		status = http.StatusBadRequest

		_, err := newTracker().CreateIssue(context.Background(), CreateIssueParams{Summary: "s", IssueType: "Bug"})

		Expect(err).To(MatchError(ContainSubstring("creating jira issue")))
	})

	It("accepts email:token packed into the key", func() {
		_, err := NewJiraTracker(Credentials{APIKey: "bot@example.com:secret", BaseURL: server.URL, ProjectKey: "BUG"})
		Expect(err).NotTo(HaveOccurred())
	})
})

var _ = Describe("gitLabTracker", func() {
	It("creates an issue with labels for type and priority", func() {
		var got map[string]any
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer GinkgoRecover()
			Expect(r.Method).To(Equal(http.MethodPost))
			Expect(r.URL.Path).To(Equal("/api/v4/projects/42/issues"))
			Expect(r.Header.Get("Private-Token")).To(Equal("glpat"))
			body, _ := io.ReadAll(r.Body)
			Expect(json.Unmarshal(body, &got)).To(Succeed())

			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":900,"iid":7,"title":"Save crash","web_url":"https://gitlab.example.com/g/p/-/issues/7"}`))
		}))
		DeferCleanup(server.Close)

		tracker, err := NewGitLabTracker(config.GitLabConfig{Token: "glpat", BaseURL: server.URL, ProjectID: "42"})
		Expect(err).NotTo(HaveOccurred())

		ticket, err := tracker.CreateIssue(context.Background(), CreateIssueParams{
			Summary:     "Save crash",
			Description: "Description:\ncrash",
			IssueType:   "Bug",
			Priority:    "High",
			Labels:      []string{"bug-report"},
		})

		Expect(err).NotTo(HaveOccurred())
		Expect(ticket.Provider).To(Equal(ProviderGitLab))
		Expect(ticket.Key).To(Equal("#7"))
		Expect(ticket.ID).To(Equal("900"))
		Expect(ticket.URL).To(Equal("https://gitlab.example.com/g/p/-/issues/7"))
		Expect(got["title"]).To(Equal("Save crash"))
		Expect(got["labels"]).To(Equal("bug-report,bug,priority::High"))
	})
})
