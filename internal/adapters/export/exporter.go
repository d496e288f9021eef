// Package export publishes merged day documents as wire-format metadata
// files in the blob archive, and re-imports previously exported files.
package export

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"sessioncore/internal/blob"
	"sessioncore/internal/core"
	"sessioncore/internal/wire"
	"sessioncore/pkg/domain"
)

// Status describes the lifecycle stage of an export request.
type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Record tracks an export request and its resulting artifact.
type Record struct {
	ID          string     `json:"id"`
	DayID       string     `json:"day_id"`
	SessionID   string     `json:"session_id,omitempty"`
	Status      Status     `json:"status"`
	Error       string     `json:"error,omitempty"`
	Artifact    *blob.Info `json:"artifact,omitempty"`
	RequestedBy string     `json:"requested_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// AuditEntry captures audit trail metadata for exports and imports.
type AuditEntry struct {
	ID         string            `json:"id"`
	Action     string            `json:"action"`
	Actor      string            `json:"actor"`
	DayID      string            `json:"day_id,omitempty"`
	Status     Status            `json:"status"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// AuditLogger records export audit entries.
type AuditLogger interface {
	Record(ctx context.Context, entry AuditEntry)
}

// Input represents an enqueue request for the worker.
type Input struct {
	DayID       string
	RequestedBy string
}

// Filename derives the archive key for a merged document:
// the session date with dashes stripped, an underscore, and the subject ID.
func Filename(doc domain.EffectiveDay) string {
	return fmt.Sprintf("%s_%s.yml", strings.ReplaceAll(doc.Date, "-", ""), doc.Subject.SubjectID)
}

// Worker publishes day documents asynchronously. Each job resolves the day,
// validates it, and archives the encoded file only when no export-blocking
// findings remain.
type Worker struct {
	service *core.Service
	store   blob.Store
	audit   AuditLogger

	queue chan task
	mu    sync.RWMutex
	jobs  map[string]*Record

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type task struct {
	id    string
	input Input
}

// NewWorker constructs an export worker over the given service and archive.
func NewWorker(service *core.Service, store blob.Store, audit AuditLogger) *Worker {
	ctx, cancel := context.WithCancel(context.Background())
	return &Worker{
		service: service,
		store:   store,
		audit:   audit,
		queue:   make(chan task, 32),
		jobs:    make(map[string]*Record),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start begins processing export requests.
func (w *Worker) Start() {
	w.wg.Add(1)
	go w.loop()
}

// Stop signals the worker to halt and waits for completion.
func (w *Worker) Stop(ctx context.Context) error {
	w.cancel()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (w *Worker) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case t := <-w.queue:
			w.process(t)
		}
	}
}

// Enqueue schedules an export job and returns the queued record.
func (w *Worker) Enqueue(ctx context.Context, input Input) (Record, error) {
	if strings.TrimSpace(input.DayID) == "" {
		return Record{}, fmt.Errorf("day id required")
	}
	if _, ok := w.service.Store().GetDay(input.DayID); !ok {
		return Record{}, domain.UnknownDayError{ID: input.DayID}
	}

	id := newID()
	now := time.Now().UTC()
	record := Record{
		ID:          id,
		DayID:       input.DayID,
		Status:      StatusQueued,
		RequestedBy: input.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	w.mu.Lock()
	w.jobs[id] = &record
	queued := record
	w.mu.Unlock()

	w.record(ctx, AuditEntry{
		ID:         newID(),
		Action:     "metadata_export",
		Actor:      input.RequestedBy,
		DayID:      input.DayID,
		Status:     StatusQueued,
		OccurredAt: now,
	})

	select {
	case w.queue <- task{id: id, input: input}:
	default:
		w.fail(id, "export queue full")
		return Record{}, fmt.Errorf("export queue full")
	}
	return queued, nil
}

// Get returns a snapshot of the export record.
func (w *Worker) Get(id string) (Record, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	record, ok := w.jobs[id]
	if !ok {
		return Record{}, false
	}
	return *record, true
}

// ExportDay runs one export synchronously, outside the queue. The exported
// record is not tracked in the worker's job table.
func (w *Worker) ExportDay(ctx context.Context, dayID string) (blob.Info, error) {
	doc, result, err := w.resolveAndValidate(ctx, dayID)
	if err != nil {
		return blob.Info{}, err
	}
	if result.BlocksExport() {
		return blob.Info{}, fmt.Errorf("day %s has unresolved findings blocking export", dayID)
	}
	return w.publish(ctx, dayID, doc)
}

func (w *Worker) process(t task) {
	w.updateStatus(t.id, StatusRunning, "")

	doc, result, err := w.resolveAndValidate(w.ctx, t.input.DayID)
	if err != nil {
		w.fail(t.id, err.Error())
		return
	}
	if result.BlocksExport() {
		w.fail(t.id, fmt.Sprintf("day %s has unresolved findings blocking export", t.input.DayID))
		return
	}
	info, err := w.publish(w.ctx, t.input.DayID, doc)
	if err != nil {
		w.fail(t.id, err.Error())
		return
	}
	w.complete(t.id, doc.SessionID, info)
}

func (w *Worker) resolveAndValidate(ctx context.Context, dayID string) (domain.EffectiveDay, domain.ValidationResult, error) {
	doc, err := w.service.ResolveDay(ctx, dayID)
	if err != nil {
		return domain.EffectiveDay{}, domain.ValidationResult{}, err
	}
	result, err := w.service.ValidateDay(ctx, dayID)
	if err != nil {
		return domain.EffectiveDay{}, domain.ValidationResult{}, err
	}
	return doc, result, nil
}

func (w *Worker) publish(ctx context.Context, dayID string, doc domain.EffectiveDay) (blob.Info, error) {
	payload, err := wire.Encode(doc)
	if err != nil {
		return blob.Info{}, err
	}
	info, err := w.store.Put(ctx, Filename(doc), bytes.NewReader(payload), blob.PutOptions{
		ContentType: "application/x-yaml",
		Metadata: map[string]string{
			"day_id":     dayID,
			"subject_id": doc.Subject.SubjectID,
			"session_id": doc.SessionID,
		},
	})
	if err != nil {
		return blob.Info{}, err
	}
	_, err = w.service.UpdateDay(ctx, dayID, func(d *domain.Day) error {
		d.State = domain.DayStateExported
		return nil
	})
	if err != nil {
		return blob.Info{}, err
	}
	return info, nil
}

func (w *Worker) updateStatus(id string, status Status, message string) {
	now := time.Now().UTC()
	w.mu.Lock()
	record, ok := w.jobs[id]
	var dayID string
	if ok {
		record.Status = status
		record.Error = message
		record.UpdatedAt = now
		dayID = record.DayID
	}
	w.mu.Unlock()
	if !ok {
		return
	}
	w.record(w.ctx, AuditEntry{
		ID:         newID(),
		Action:     "metadata_export",
		DayID:      dayID,
		Status:     status,
		OccurredAt: now,
	})
}

func (w *Worker) complete(id, sessionID string, info blob.Info) {
	now := time.Now().UTC()
	w.mu.Lock()
	record, ok := w.jobs[id]
	var dayID string
	if ok {
		record.Status = StatusSucceeded
		record.Error = ""
		record.SessionID = sessionID
		record.Artifact = &info
		record.UpdatedAt = now
		record.CompletedAt = &now
		dayID = record.DayID
	}
	w.mu.Unlock()
	if !ok {
		return
	}
	w.record(w.ctx, AuditEntry{
		ID:         newID(),
		Action:     "metadata_export",
		DayID:      dayID,
		Status:     StatusSucceeded,
		Metadata:   map[string]string{"key": info.Key},
		OccurredAt: now,
	})
}

func (w *Worker) fail(id, reason string) {
	now := time.Now().UTC()
	w.mu.Lock()
	record, ok := w.jobs[id]
	var dayID string
	if ok {
		record.Status = StatusFailed
		record.Error = reason
		record.UpdatedAt = now
		record.CompletedAt = &now
		dayID = record.DayID
	}
	w.mu.Unlock()
	if !ok {
		return
	}
	w.record(w.ctx, AuditEntry{
		ID:         newID(),
		Action:     "metadata_export",
		DayID:      dayID,
		Status:     StatusFailed,
		Metadata:   map[string]string{"note": reason},
		OccurredAt: now,
	})
}

func (w *Worker) record(ctx context.Context, entry AuditEntry) {
	if w.audit != nil {
		w.audit.Record(ctx, entry)
	}
}

func newID() string { return uuid.NewString() }
