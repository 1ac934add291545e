package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	"basegraph.app/intake/internal/http/router"
	"basegraph.app/intake/internal/intake"
	"basegraph.app/intake/internal/service"
	"basegraph.app/intake/internal/store"
	"github.com/gin-gonic/gin"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type scriptedExtractor struct {
	replies []string
	calls   int
}

func (s *scriptedExtractor) Extract(context.Context, intake.ExtractionRequest) (string, error) {
	reply := s.replies[s.calls%len(s.replies)]
	s.calls++
	return reply, nil
}

type fixedIDs struct{}

func (fixedIDs) NewString() string { return "abc123" }

var _ = Describe("SetupRoutes", func() {
	var (
		engine    *gin.Engine
		sessions  *store.MemorySessionStore
		extractor *scriptedExtractor
	)

	BeforeEach(func() {
		gin.SetMode(gin.TestMode)
		sessions = store.NewMemorySessionStore()
		extractor = &scriptedExtractor{}
		processor := intake.NewProcessor(extractor, intake.TrustExtractor{}, intake.DefaultConfig())
		dispatcher := service.NewDispatcher(nil, nil, nil, fixedIDs{}, "",
			service.WithDispatchClock(func() time.Time { return time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC) }))

		engine = gin.New()
		router.SetupRoutes(engine, service.NewServices(sessions, processor, dispatcher), router.RouterConfig{
			ServiceName: "intake",
			Version:     "1.0.0",
		})
	})

	do := func(method, path string, body any) (int, map[string]any) {
		var buf bytes.Buffer
		if body != nil {
			Expect(json.NewEncoder(&buf).Encode(body)).To(Succeed())
		}
		req := httptest.NewRequest(method, path, &buf)
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)

		var resp map[string]any
		Expect(json.Unmarshal(w.Body.Bytes(), &resp)).To(Succeed())
		return w.Code, resp
	}

	It("serves health and root", func() {
		code, resp := do(http.MethodGet, "/health", nil)
		Expect(code).To(Equal(http.StatusOK))
		Expect(resp).To(HaveKeyWithValue("status", "healthy"))
		Expect(resp).To(HaveKeyWithValue("service", "intake"))

		code, resp = do(http.MethodGet, "/", nil)
		Expect(code).To(Equal(http.StatusOK))
		Expect(resp).To(HaveKeyWithValue("version", "1.0.0"))
	})

	It("runs a conversation to completion and forgets the session", func() {
		extractor.replies = []string{
			`{"user_response":"Q1: What did you expect?","bug_report_data":{"title":"Save crash","description":"App crashes on save"},"is_complete":false,"questions_to_ask":["What did you expect?"]}`,
			"```json\n" + `{"user_response":"Thanks, filed it.","bug_report_data":{"expected_behavior":"file saves"},"is_complete":true,"questions_to_ask":[]}` + "\n```",
		}

		code, first := do(http.MethodPost, "/api/v1/bug-report-chat", map[string]any{
			"session_id": "s1",
			"user_id":    "Jane Doe",
			"transcript": "the app crashes when I save",
		})
		Expect(code).To(Equal(http.StatusOK))
		Expect(first["bug_report_complete"]).To(BeFalse())
		Expect(first["follow_up_questions"]).To(ConsistOf("Q1: What did you expect?"))
		Expect(sessions.Len()).To(Equal(1))

		code, second := do(http.MethodPost, "/api/v1/bug-report-chat", map[string]any{
			"session_id": "s1",
			"user_id":    "Jane Doe",
			"transcript": "I expected it to save",
		})
		Expect(code).To(Equal(http.StatusOK))
		Expect(second["bug_report_complete"]).To(BeTrue())
		Expect(second["user_response"]).To(Equal("Thanks, filed it."))
		Expect(second["collected_info"]).To(HaveKeyWithValue("title", "Save crash"))
		Expect(second["collected_info"]).To(HaveKeyWithValue("expected_behavior", "file saves"))
		Expect(second["report_id"]).To(Equal("bug_20260314_093000_jane-doe_abc123"))
		Expect(second["archive_urls"]).To(HaveKeyWithValue("transcription", BeNil()))
		Expect(second["status_message"]).To(Equal("Bug report submitted successfully!"))
		Expect(sessions.Len()).To(Equal(0))
	})

	It("resets a live session once", func() {
		extractor.replies = []string{`{"user_response":"Q1: Which page?","bug_report_data":{},"is_complete":false,"questions_to_ask":["Which page?"]}`}

		code, _ := do(http.MethodPost, "/api/v1/bug-report-chat", map[string]any{"session_id": "s2", "transcript": "broken"})
		Expect(code).To(Equal(http.StatusOK))

		_, resp := do(http.MethodPost, "/api/v1/bug-report-chat/reset", map[string]any{"session_id": "s2"})
		Expect(resp).To(HaveKeyWithValue("success", true))

		_, resp = do(http.MethodPost, "/api/v1/bug-report-chat/reset", map[string]any{"session_id": "s2"})
		Expect(resp).To(HaveKeyWithValue("success", false))
	})
})
