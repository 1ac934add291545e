package config_test

import (
	"os"
	"time"

	"basegraph.app/intake/core/config"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func setenv(key, value string) {
	prev, had := os.LookupEnv(key)
	Expect(os.Setenv(key, value)).To(Succeed())
	DeferCleanup(func() {
		if had {
			_ = os.Setenv(key, prev)
		} else {
			_ = os.Unsetenv(key)
		}
	})
}

func unsetenv(key string) {
	prev, had := os.LookupEnv(key)
	Expect(os.Unsetenv(key)).To(Succeed())
	DeferCleanup(func() {
		if had {
			_ = os.Setenv(key, prev)
		}
	})
}

var _ = Describe("Load", func() {
	BeforeEach(func() {
		setenv("INTAKE_ENV", "test")
		for _, k := range []string{
			"LLM_API_KEY", "OPENAI_API_KEY", "LLM_PROVIDER", "SESSION_BACKEND",
			"INTAKE_MAX_QUESTIONS", "INTAKE_COMPLETION_GUARD", "SESSION_TTL", "JIRA_API_KEY",
			"JIRA_BASE_URL", "JIRA_PROJECT_KEY", "CORS_ALLOWED_ORIGINS",
		} {
			unsetenv(k)
		}
	})

	It("requires an LLM key", func() {
		_, err := config.Load(config.ServiceTypeServer)
		Expect(err).To(MatchError(ContainSubstring("LLM_API_KEY")))
	})

	It("falls back to OPENAI_API_KEY and applies defaults", func() {
		setenv("OPENAI_API_KEY", "sk-test")

		cfg, err := config.Load(config.ServiceTypeServer)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.APIKey).To(Equal("sk-test"))
		Expect(cfg.LLM.Provider).To(Equal("openai"))
		Expect(cfg.Intake.MaxQuestions).To(Equal(2))
		Expect(cfg.Intake.HistoryWindow).To(Equal(10))
		Expect(cfg.Intake.LogPreviewChars).To(Equal(500))
		Expect(cfg.Intake.CompletionGuard).To(BeFalse())
		Expect(cfg.Sessions.Backend).To(Equal("memory"))
		Expect(cfg.Sessions.TTL).To(Equal(24 * time.Hour))
		Expect(cfg.Tickets.Jira.Enabled()).To(BeFalse())
		Expect(cfg.DB.Enabled()).To(BeFalse())
		Expect(cfg.CORSOrigins).To(BeEmpty())
	})

	It("splits CORS origins and treats a wildcard as allow-all", func() {
		setenv("LLM_API_KEY", "key")
		setenv("CORS_ALLOWED_ORIGINS", " https://app.example.com, *,https://admin.example.com ")

		cfg, err := config.Load(config.ServiceTypeServer)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.CORSOrigins).To(Equal([]string{"https://app.example.com", "https://admin.example.com"}))
	})

	It("reads overrides", func() {
		setenv("LLM_API_KEY", "key")
		setenv("LLM_PROVIDER", "anthropic")
		setenv("INTAKE_MAX_QUESTIONS", "4")
		setenv("INTAKE_COMPLETION_GUARD", "true")
		setenv("SESSION_BACKEND", "redis")
		setenv("SESSION_TTL", "90m")
		setenv("JIRA_API_KEY", "jk")
		setenv("JIRA_BASE_URL", "https://example.atlassian.net")
		setenv("JIRA_PROJECT_KEY", "BUG")

		cfg, err := config.Load(config.ServiceTypeServer)
		Expect(err).NotTo(HaveOccurred())
		Expect(cfg.LLM.Provider).To(Equal("anthropic"))
		Expect(cfg.Intake.MaxQuestions).To(Equal(4))
		Expect(cfg.Intake.CompletionGuard).To(BeTrue())
		Expect(cfg.Sessions.Backend).To(Equal("redis"))
		Expect(cfg.Sessions.TTL).To(Equal(90 * time.Minute))
		Expect(cfg.Tickets.Jira.Enabled()).To(BeTrue())
	})

	It("rejects unknown session backends", func() {
		setenv("LLM_API_KEY", "key")
		setenv("SESSION_BACKEND", "etcd")

		_, err := config.Load(config.ServiceTypeServer)
		Expect(err).To(MatchError(ContainSubstring("SESSION_BACKEND")))
	})
})
