package issue_tracker

import (
	"basegraph.app/intake/internal/model"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func loc(s string) *string { return &s }

var _ = Describe("PriorityForSeverity", func() {
	DescribeTable("maps severity",
		func(severity, want string) {
			Expect(PriorityForSeverity(severity)).To(Equal(want))
		},
		Entry("critical", "critical", "Highest"),
		Entry("case-insensitive", "HIGH", "High"),
		Entry("medium", "medium", "Medium"),
		Entry("low", " low ", "Low"),
		Entry("lowest", "lowest", "Lowest"),
		Entry("unknown", "urgent", "Medium"),
		Entry("blank", "", "Medium"),
	)
})

var _ = Describe("BuildDescription", func() {
	It("orders sections and skips blanks", func() {
		record := model.Record{
			model.FieldAdditionalNotes:  "happens daily",
			model.FieldDescription:      "crash on save",
			model.FieldActualBehavior:   "app closes",
			model.FieldStepsToReproduce: "  ",
			model.FieldTitle:            "Save crash",
		}

		Expect(BuildDescription(record, nil)).To(Equal(
			"Description:\ncrash on save\nActual Behavior:\napp closes\nAdditional Notes:\nhappens daily"))
	})

	It("lists archived attachments last and skips failed ones", func() {
		record := model.Record{model.FieldDescription: "crash"}
		locations := model.ArchivedLocations{
			model.AttachmentScreenRecording: loc("s3://b/r/screen_recording.webm"),
			model.AttachmentConsoleLogs:     nil,
			model.AttachmentTranscript:      loc("s3://b/r/transcription.txt"),
		}

		Expect(BuildDescription(record, locations)).To(Equal(
			"Description:\ncrash\n\nAttachments:\n" +
				"- Full conversation transcript: s3://b/r/transcription.txt\n" +
				"- Screen recording: s3://b/r/screen_recording.webm"))
	})

	It("has a placeholder for an empty record", func() {
		Expect(BuildDescription(model.Record{}, nil)).To(Equal("No description provided."))
	})
})

var _ = Describe("BuildCreateParams", func() {
	It("fills defaults", func() {
		params := BuildCreateParams(model.Record{}, nil, "")

		Expect(params.Summary).To(Equal("Bug Report"))
		Expect(params.IssueType).To(Equal("Bug"))
		Expect(params.Priority).To(Equal("Medium"))
		Expect(params.Labels).To(Equal([]string{"bug-report"}))
	})

	It("uses title, severity and label from the record", func() {
		params := BuildCreateParams(model.Record{
			model.FieldTitle:    "Save crash",
			model.FieldSeverity: "Critical",
			model.FieldLabel:    "Checkout Flow",
		}, nil, " Ada Lovelace ")

		Expect(params.Summary).To(Equal("Save crash"))
		Expect(params.Priority).To(Equal("Highest"))
		Expect(params.Labels).To(Equal([]string{"bug-report", "checkout-flow"}))
		Expect(params.Assignee).To(Equal("Ada Lovelace"))
	})
})
