package issue_tracker

import (
	"fmt"
	"strings"

	"basegraph.app/intake/common"
	"basegraph.app/intake/internal/model"
)

const (
	DefaultSummary   = "Bug Report"
	DefaultIssueType = "Bug"
	ReportLabel      = "bug-report"
	noDescription    = "No description provided."
)

var descriptionSections = []struct {
	field string
	title string
}{
	{model.FieldDescription, "Description"},
	{model.FieldStepsToReproduce, "Steps to Reproduce"},
	{model.FieldExpectedBehavior, "Expected Behavior"},
	{model.FieldActualBehavior, "Actual Behavior"},
	{model.FieldEnvironment, "Environment"},
	{model.FieldAdditionalNotes, "Additional Notes"},
}

var attachmentLines = []struct {
	name  string
	title string
}{
	{model.AttachmentTranscript, "Full conversation transcript"},
	{model.AttachmentConsoleLogs, "Console logs"},
	{model.AttachmentScreenRecording, "Screen recording"},
}

var severityPriority = map[string]string{
	"critical": "Highest",
	"high":     "High",
	"medium":   "Medium",
	"low":      "Low",
	"lowest":   "Lowest",
}

// PriorityForSeverity maps a free-text severity to a tracker priority name.
// Unknown or blank severities are Medium.
func PriorityForSeverity(severity string) string {
	if p, ok := severityPriority[strings.ToLower(strings.TrimSpace(severity))]; ok {
		return p
	}
	return "Medium"
}

// BuildDescription renders the ticket body. Sections appear in a fixed order
// and are skipped when blank; archived attachments are listed last.
func BuildDescription(record model.Record, locations model.ArchivedLocations) string {
	var parts []string
	for _, s := range descriptionSections {
		if v := record.Get(s.field); v != "" {
			parts = append(parts, fmt.Sprintf("%s:\n%s", s.title, v))
		}
	}

	var attachments []string
	for _, a := range attachmentLines {
		if loc := locations[a.name]; loc != nil && *loc != "" {
			attachments = append(attachments, fmt.Sprintf("- %s: %s", a.title, *loc))
		}
	}
	if len(attachments) > 0 {
		parts = append(parts, "\nAttachments:")
		parts = append(parts, attachments...)
	}

	if len(parts) == 0 {
		return noDescription
	}
	return strings.Join(parts, "\n")
}

// BuildCreateParams turns a finished record into a ticket request.
func BuildCreateParams(record model.Record, locations model.ArchivedLocations, assignee string) CreateIssueParams {
	summary := record.Get(model.FieldTitle)
	if summary == "" {
		summary = DefaultSummary
	}

	labels := []string{ReportLabel}
	if label, err := common.Slugify(record.Get(model.FieldLabel), ""); err == nil && label != ReportLabel {
		labels = append(labels, label)
	}

	return CreateIssueParams{
		Summary:     summary,
		Description: BuildDescription(record, locations),
		IssueType:   DefaultIssueType,
		Priority:    PriorityForSeverity(record.Get(model.FieldSeverity)),
		Labels:      labels,
		Assignee:    strings.TrimSpace(assignee),
	}
}
