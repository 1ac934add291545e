package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"basegraph.app/intake/common"
	"basegraph.app/intake/common/id"
	"basegraph.app/intake/common/logger"
	"basegraph.app/intake/internal/model"
	"basegraph.app/intake/internal/service/archive"
	"basegraph.app/intake/internal/service/issue_tracker"
	"basegraph.app/intake/internal/store"
	"github.com/hashicorp/go-multierror"
	"go.opentelemetry.io/otel/attribute"
)

type DispatchRequest struct {
	SessionID       string
	UserID          string
	Record          model.Record
	Transcript      string
	ConsoleLogs     string
	ScreenRecording string // data URL or bare base64
	Credentials     issue_tracker.Credentials
}

// DispatchResult never signals failure of the dispatch as a whole.
// ArchiveErr and TicketErr are diagnostics for partial failures.
type DispatchResult struct {
	ReportID   string
	Locations  model.ArchivedLocations
	Ticket     *model.Ticket
	TicketErr  error
	ArchiveErr error
}

// Dispatcher hands a completed record to archival and ticketing.
type Dispatcher interface {
	Dispatch(ctx context.Context, req DispatchRequest) DispatchResult
}

type dispatcher struct {
	archiver archive.Archiver
	trackers issue_tracker.Resolver
	ledger   store.ReportLedger
	ids      id.Generator
	assignee string
	now      func() time.Time
}

type DispatcherOption func(*dispatcher)

// WithDispatchClock overrides the clock used for report ids and ledger rows.
func WithDispatchClock(now func() time.Time) DispatcherOption {
	return func(d *dispatcher) {
		d.now = now
	}
}

// NewDispatcher wires the collaborators. archiver, trackers and ledger may be
// nil, in which case that step is skipped.
func NewDispatcher(
	archiver archive.Archiver,
	trackers issue_tracker.Resolver,
	ledger store.ReportLedger,
	ids id.Generator,
	assignee string,
	opts ...DispatcherOption,
) Dispatcher {
	if ids == nil {
		ids = id.SnowflakeGenerator{}
	}
	d := &dispatcher{
		archiver: archiver,
		trackers: trackers,
		ledger:   ledger,
		ids:      ids,
		assignee: assignee,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *dispatcher) Dispatch(ctx context.Context, req DispatchRequest) DispatchResult {
	reportID := d.newReportID(req.UserID)
	ctx = logger.WithLogFields(ctx, logger.LogFields{
		ReportID:  &reportID,
		Component: "intake.dispatcher",
	})
	sc := logger.StartSpan(ctx, "intake.dispatch")
	defer sc.End()
	ctx = sc.Context()

	result := DispatchResult{ReportID: reportID}
	result.Locations, result.ArchiveErr = d.archive(ctx, reportID, req)
	if result.ArchiveErr != nil {
		sc.RecordError(result.ArchiveErr)
		slog.WarnContext(ctx, "some attachments were not archived", "error", result.ArchiveErr)
	}

	result.Ticket, result.TicketErr = d.openTicket(ctx, req, result.Locations)
	if result.TicketErr != nil {
		sc.RecordError(result.TicketErr)
		slog.ErrorContext(ctx, "ticket creation failed", "error", result.TicketErr)
	}

	if d.ledger != nil {
		report := &model.Report{
			CreatedAt: d.now().UTC(),
			ID:        reportID,
			SessionID: req.SessionID,
			UserID:    req.UserID,
			Record:    req.Record,
			Locations: result.Locations,
			Ticket:    result.Ticket,
		}
		if err := d.ledger.Append(ctx, report); err != nil {
			slog.ErrorContext(ctx, "failed to record report", "error", err)
		}
	}

	sc.SetAttributes(
		attribute.Int("intake.archived", countArchived(result.Locations)),
		attribute.Bool("intake.ticket_opened", result.Ticket != nil),
	)
	slog.InfoContext(ctx, "bug report dispatched",
		"archived", countArchived(result.Locations),
		"ticket", ticketKey(result.Ticket))

	return result
}

// newReportID renders bug_<YYYYMMDD_HHMMSS>_<user>_<unique>.
func (d *dispatcher) newReportID(userID string) string {
	user, err := common.Slugify(userID, "anonymous")
	if err != nil {
		user = "anonymous"
	}
	return fmt.Sprintf("bug_%s_%s_%s", d.now().Format("20060102_150405"), user, d.ids.NewString())
}

type attachment struct {
	name string
	obj  func() (archive.Object, error)
}

// archive stores each supplied attachment concurrently. A failed attachment
// gets a nil location and does not affect the others.
func (d *dispatcher) archive(ctx context.Context, reportID string, req DispatchRequest) (model.ArchivedLocations, error) {
	var attachments []attachment
	if req.Transcript != "" {
		attachments = append(attachments, attachment{model.AttachmentTranscript, func() (archive.Object, error) {
			return archive.Object{Filename: "transcription.txt", ContentType: "text/plain", Body: []byte(req.Transcript)}, nil
		}})
	}
	if req.ConsoleLogs != "" {
		attachments = append(attachments, attachment{model.AttachmentConsoleLogs, func() (archive.Object, error) {
			return archive.Object{Filename: "console_logs.txt", ContentType: "text/plain", Body: []byte(req.ConsoleLogs)}, nil
		}})
	}
	if req.ScreenRecording != "" {
		attachments = append(attachments, attachment{model.AttachmentScreenRecording, func() (archive.Object, error) {
			body, err := archive.DecodeRecording(req.ScreenRecording)
			if err != nil {
				return archive.Object{}, err
			}
			return archive.Object{Filename: "screen_recording.webm", ContentType: "video/webm", Body: body}, nil
		}})
	}

	locations := make(model.ArchivedLocations, len(attachments))
	for _, a := range attachments {
		locations[a.name] = nil
	}
	if d.archiver == nil {
		if len(attachments) > 0 {
			slog.InfoContext(ctx, "archival not configured, attachments dropped", "count", len(attachments))
		}
		return locations, nil
	}

	var (
		mu   sync.Mutex
		errs *multierror.Error
		wg   sync.WaitGroup
	)
	for _, a := range attachments {
		wg.Add(1)
		go func(a attachment) {
			defer wg.Done()

			location, err := d.put(ctx, reportID, a)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = multierror.Append(errs, fmt.Errorf("%s: %w", a.name, err))
				return
			}
			locations[a.name] = &location
		}(a)
	}
	wg.Wait()

	return locations, errs.ErrorOrNil()
}

func (d *dispatcher) put(ctx context.Context, reportID string, a attachment) (string, error) {
	obj, err := a.obj()
	if err != nil {
		return "", err
	}
	return d.archiver.Put(ctx, reportID, obj)
}

func (d *dispatcher) openTicket(ctx context.Context, req DispatchRequest, locations model.ArchivedLocations) (*model.Ticket, error) {
	if d.trackers == nil {
		return nil, nil
	}

	tracker, err := d.trackers.Resolve(req.Credentials)
	if err != nil {
		return nil, fmt.Errorf("resolving issue tracker: %w", err)
	}
	if tracker == nil {
		slog.InfoContext(ctx, "no ticketing credentials, skipping ticket")
		return nil, nil
	}

	params := issue_tracker.BuildCreateParams(req.Record, locations, d.assignee)
	ticket, err := tracker.CreateIssue(ctx, params)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func countArchived(locations model.ArchivedLocations) int {
	n := 0
	for _, loc := range locations {
		if loc != nil {
			n++
		}
	}
	return n
}

func ticketKey(t *model.Ticket) string {
	if t == nil {
		return ""
	}
	return t.Key
}
