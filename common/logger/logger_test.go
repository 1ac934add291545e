package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"

	"basegraph.app/intake/common/logger"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("LogFields", func() {
	It("merges newer non-empty values over older ones", func() {
		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			SessionID: logger.Ptr("s-1"),
			Component: "intake.http",
		})
		ctx = logger.WithLogFields(ctx, logger.LogFields{
			ReportID:  logger.Ptr("bug_1"),
			Component: "intake.dispatcher",
		})

		fields := logger.GetLogFields(ctx)
		Expect(*fields.SessionID).To(Equal("s-1"))
		Expect(*fields.ReportID).To(Equal("bug_1"))
		Expect(fields.Component).To(Equal("intake.dispatcher"))
	})

	It("returns empty fields for a bare context", func() {
		Expect(logger.GetLogFields(context.Background())).To(Equal(logger.LogFields{}))
	})
})

var _ = Describe("TraceHandler", func() {
	It("adds context fields to every record", func() {
		var buf bytes.Buffer
		log := slog.New(logger.NewTraceHandler(slog.NewJSONHandler(&buf, nil)))

		ctx := logger.WithLogFields(context.Background(), logger.LogFields{
			SessionID: logger.Ptr("abc"),
			Component: "intake.processor",
		})
		log.InfoContext(ctx, "turn processed")

		var entry map[string]any
		Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())
		Expect(entry["session_id"]).To(Equal("abc"))
		Expect(entry["component"]).To(Equal("intake.processor"))
		Expect(entry).NotTo(HaveKey("report_id"))
	})
})

var _ = Describe("Truncate", func() {
	It("leaves short strings alone", func() {
		Expect(logger.Truncate("short", 10)).To(Equal("short"))
	})

	It("cuts long strings and marks them", func() {
		Expect(logger.Truncate("abcdefghij", 4)).To(Equal("abcd..."))
	})
})
