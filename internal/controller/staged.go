package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ramen-directory/internal/media"
	"ramen-directory/internal/metrics"
	"ramen-directory/internal/models"
)

// Attachment limits per entity type.
const (
	EventMediaLimit  = 5
	ShopMediaLimit   = 10
	ReviewMediaLimit = 5
)

const deleteWorkers = 4

// StagedFile is a pending upload with its local preview.
type StagedFile struct {
	File    media.File
	Preview media.Preview
}

// Operations are the remote calls a submit is made of.
type Operations struct {
	// Upsert creates or updates the entity and returns its id.
	Upsert      func(ctx context.Context, payload any) (int64, error)
	DeleteMedia func(ctx context.Context, entityID, mediaID int64) error
	UploadMedia func(ctx context.Context, entityID int64, files []media.File) error
}

// MediaFailure is one attachment that could not be deleted.
type MediaFailure struct {
	MediaID int64  `json:"mediaId"`
	Err     error  `json:"-"`
	Message string `json:"message"`
}

// SubmitReport is the outcome of the media steps of a submit.
type SubmitReport struct {
	EntityID       int64          `json:"entityId"`
	UpsertSkipped  bool           `json:"upsertSkipped"`
	Deleted        []int64        `json:"deleted"`
	DeleteFailures []MediaFailure `json:"deleteFailures"`
	Uploaded       int            `json:"uploaded"`
	UploadErr      error          `json:"-"`
}

// Complete reports whether nothing is left pending.
func (r SubmitReport) Complete() bool {
	return len(r.DeleteFailures) == 0 && r.UploadErr == nil
}

// Err joins every partial failure, or returns nil.
func (r SubmitReport) Err() error {
	var errs []error
	for _, f := range r.DeleteFailures {
		errs = append(errs, fmt.Errorf("delete media %d: %w", f.MediaID, f.Err))
	}
	if r.UploadErr != nil {
		errs = append(errs, fmt.Errorf("upload media: %w", r.UploadErr))
	}
	return errors.Join(errs...)
}

// StagedEdit buffers attachment changes of one create/edit form until the
// form is submitted.
type StagedEdit struct {
	mu         sync.Mutex
	limit      int
	entityID   int64
	existing   []models.MediaRef
	files      []StagedFile
	deletions  map[int64]struct{}
	committed  []byte
	submitting bool
	closed     bool
	previews   *media.PreviewRegistry
	logger     *zap.Logger
}

// NewStagedEdit starts a buffer for an entity that already has existing
// attachments. entityID is 0 for a create form.
func NewStagedEdit(limit int, entityID int64, existing []models.MediaRef, previews *media.PreviewRegistry, logger *zap.Logger) *StagedEdit {
	if logger == nil {
		logger = zap.NewNop()
	}
	if previews == nil {
		previews = media.NewPreviewRegistry("/previews/")
	}
	return &StagedEdit{
		limit:     limit,
		entityID:  entityID,
		existing:  slices.Clone(existing),
		deletions: make(map[int64]struct{}),
		previews:  previews,
		logger:    logger,
	}
}

func (s *StagedEdit) Limit() int { return s.limit }

func (s *StagedEdit) EntityID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.entityID
}

// Existing returns the attachments already on the server.
func (s *StagedEdit) Existing() []models.MediaRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.existing)
}

// SetExisting replaces the server-side attachments, e.g. after a reload.
// Marks on ids that are gone are dropped.
func (s *StagedEdit) SetExisting(refs []models.MediaRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.existing = slices.Clone(refs)
	for id := range s.deletions {
		if !slices.ContainsFunc(refs, func(r models.MediaRef) bool { return r.ID == id }) {
			delete(s.deletions, id)
		}
	}
}

// AddFiles stages a batch. The batch is accepted whole or not at all.
func (s *StagedEdit) AddFiles(files []media.File) ([]media.Preview, error) {
	if len(files) == 0 {
		return nil, nil
	}
	if err := media.CheckBatch(files); err != nil {
		return nil, &ValidationError{Field: "files", Message: err.Error(), Err: err}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if total := s.countLocked() + len(files); total > s.limit {
		return nil, invalid("files", "at most %d attachments allowed, got %d", s.limit, total)
	}

	previews := make([]media.Preview, 0, len(files))
	for _, f := range files {
		p := s.previews.Acquire(f)
		s.files = append(s.files, StagedFile{File: f, Preview: p})
		previews = append(previews, p)
	}
	return previews, nil
}

// RemoveStagedFile drops the pending file at index and releases its preview.
func (s *StagedEdit) RemoveStagedFile(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.files) {
		return invalid("index", "no staged file at %d", index)
	}
	s.previews.Release(s.files[index].Preview)
	s.files = slices.Delete(s.files, index, index+1)
	return nil
}

// ToggleDeleteExisting marks or unmarks an existing attachment for
// deletion and reports whether it is now marked.
func (s *StagedEdit) ToggleDeleteExisting(mediaID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.ContainsFunc(s.existing, func(r models.MediaRef) bool { return r.ID == mediaID }) {
		return false, invalid("mediaId", "media %d is not attached", mediaID)
	}
	if _, ok := s.deletions[mediaID]; ok {
		if s.countLocked()+1 > s.limit {
			return true, invalid("mediaId", "at most %d attachments allowed", s.limit)
		}
		delete(s.deletions, mediaID)
		return false, nil
	}
	s.deletions[mediaID] = struct{}{}
	return true, nil
}

func (s *StagedEdit) PendingFiles() []StagedFile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.files)
}

// PendingDeletionIDs returns the marked ids in ascending order.
func (s *StagedEdit) PendingDeletionIDs() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deletionIDsLocked()
}

// Count is existing minus marked plus staged.
func (s *StagedEdit) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked()
}

// Cancel discards every pending change.
func (s *StagedEdit) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
	s.deletions = make(map[int64]struct{})
	s.committed = nil
}

// Close releases every preview; the buffer is unusable afterwards.
func (s *StagedEdit) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.releaseLocked()
	s.closed = true
}

// Submit runs upsert, then the deletions, then one batched upload. Only an
// upsert failure is returned as an error; media failures land in the report
// and leave the affected items pending for a later submit. An upsert of the
// same payload that already succeeded is not sent again.
func (s *StagedEdit) Submit(ctx context.Context, payload any, ops Operations) (SubmitReport, error) {
	fingerprint, err := json.Marshal(payload)
	if err != nil {
		return SubmitReport{}, fmt.Errorf("encoding payload: %w", err)
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return SubmitReport{}, ErrClosed
	}
	if s.submitting {
		s.mu.Unlock()
		return SubmitReport{}, ErrSubmitInProgress
	}
	s.submitting = true
	entityID := s.entityID
	skip := s.committed != nil && entityID != 0 && bytes.Equal(s.committed, fingerprint)
	deletions := s.deletionIDsLocked()
	staged := slices.Clone(s.files)
	files := make([]media.File, 0, len(staged))
	for _, f := range staged {
		files = append(files, f.File)
	}
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.submitting = false
		s.mu.Unlock()
	}()

	report := SubmitReport{Deleted: []int64{}, DeleteFailures: []MediaFailure{}, UpsertSkipped: skip}

	if !skip {
		id, err := ops.Upsert(ctx, payload)
		if err != nil {
			return report, err
		}
		if id != 0 {
			entityID = id
		}
		s.mu.Lock()
		s.entityID = entityID
		s.committed = fingerprint
		s.mu.Unlock()
	}
	report.EntityID = entityID

	if len(deletions) > 0 && ops.DeleteMedia != nil {
		report.Deleted, report.DeleteFailures = s.deleteAll(ctx, entityID, deletions, ops.DeleteMedia)
	}

	if len(files) > 0 && ops.UploadMedia != nil {
		if err := ops.UploadMedia(ctx, entityID, files); err != nil {
			metrics.MediaUploadFailed()
			s.logger.Warn("media upload failed",
				zap.Int64("entity_id", entityID),
				zap.Int("files", len(files)),
				zap.Error(err))
			report.UploadErr = err
		} else {
			report.Uploaded = len(files)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range report.Deleted {
		delete(s.deletions, id)
		s.existing = slices.DeleteFunc(s.existing, func(r models.MediaRef) bool { return r.ID == id })
	}
	if report.UploadErr == nil && report.Uploaded > 0 {
		// Files staged or removed while the upload ran are matched by preview.
		sent := make(map[string]struct{}, len(staged))
		for _, f := range staged {
			sent[f.Preview.ID] = struct{}{}
			s.previews.Release(f.Preview)
		}
		s.files = slices.DeleteFunc(s.files, func(f StagedFile) bool {
			_, ok := sent[f.Preview.ID]
			return ok
		})
	}
	if report.Complete() {
		s.committed = nil
	}
	return report, nil
}

// deleteAll deletes every id concurrently and waits for all of them.
func (s *StagedEdit) deleteAll(ctx context.Context, entityID int64, ids []int64, del func(context.Context, int64, int64) error) ([]int64, []MediaFailure) {
	errs := make([]error, len(ids))
	var g errgroup.Group
	g.SetLimit(deleteWorkers)
	for i, id := range ids {
		g.Go(func() error {
			errs[i] = del(ctx, entityID, id)
			return nil
		})
	}
	_ = g.Wait()

	deleted := []int64{}
	failures := []MediaFailure{}
	for i, id := range ids {
		if errs[i] == nil {
			deleted = append(deleted, id)
			continue
		}
		metrics.MediaDeleteFailed()
		s.logger.Warn("media delete failed",
			zap.Int64("entity_id", entityID),
			zap.Int64("media_id", id),
			zap.Error(errs[i]))
		failures = append(failures, MediaFailure{MediaID: id, Err: errs[i], Message: errs[i].Error()})
	}
	return deleted, failures
}

func (s *StagedEdit) countLocked() int {
	return len(s.existing) - len(s.deletions) + len(s.files)
}

func (s *StagedEdit) deletionIDsLocked() []int64 {
	ids := make([]int64, 0, len(s.deletions))
	for id := range s.deletions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (s *StagedEdit) releaseLocked() {
	for _, f := range s.files {
		s.previews.Release(f.Preview)
	}
	s.files = nil
}
