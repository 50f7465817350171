package controller

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ramen-directory/internal/apierror"
	"ramen-directory/internal/media"
	"ramen-directory/internal/models"
)

type recordedOps struct {
	mu        sync.Mutex
	upserts   int
	deletes   []int64
	uploads   [][]media.File
	upsertErr error
	deleteErr map[int64]error
	uploadErr error
}

func (r *recordedOps) ops() Operations {
	return Operations{
		Upsert: func(_ context.Context, _ any) (int64, error) {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.upserts++
			return 42, r.upsertErr
		},
		DeleteMedia: func(_ context.Context, _ int64, mediaID int64) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.deletes = append(r.deletes, mediaID)
			return r.deleteErr[mediaID]
		},
		UploadMedia: func(_ context.Context, _ int64, files []media.File) error {
			r.mu.Lock()
			defer r.mu.Unlock()
			r.uploads = append(r.uploads, files)
			return r.uploadErr
		},
	}
}

func image(name string) media.File {
	return media.File{Name: name, ContentType: "image/jpeg", Content: []byte{0xff, 0xd8, 0xff}}
}

func existing(ids ...int64) []models.MediaRef {
	refs := make([]models.MediaRef, 0, len(ids))
	for _, id := range ids {
		refs = append(refs, models.MediaRef{ID: id, URL: "a.jpg", Kind: models.MediaImage})
	}
	return refs
}

func TestStagedEdit_RejectsWholeBatchOnBadType(t *testing.T) {
	previews := media.NewPreviewRegistry("/previews/")
	s := NewStagedEdit(EventMediaLimit, 1, nil, previews, nil)

	_, err := s.AddFiles([]media.File{
		image("a.jpg"),
		{Name: "notes.txt", ContentType: "text/plain", Content: []byte("hi")},
		image("b.jpg"),
	})
	require.ErrorIs(t, err, ErrValidation)
	assert.ErrorIs(t, err, media.ErrUnsupportedType)
	assert.Empty(t, s.PendingFiles())
	assert.Zero(t, previews.Len())
}

func TestStagedEdit_EnforcesLimit(t *testing.T) {
	s := NewStagedEdit(ShopMediaLimit, 1, existing(1, 2, 3, 4, 5, 6, 7, 8), nil, nil)

	_, err := s.AddFiles([]media.File{image("a.jpg"), image("b.jpg"), image("c.jpg")})
	require.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, s.PendingFiles())

	marked, err := s.ToggleDeleteExisting(3)
	require.NoError(t, err)
	assert.True(t, marked)

	previews, err := s.AddFiles([]media.File{image("a.jpg"), image("b.jpg"), image("c.jpg")})
	require.NoError(t, err)
	assert.Len(t, previews, 3)
	assert.Equal(t, 10, s.Count())

	_, err = s.ToggleDeleteExisting(3)
	assert.ErrorIs(t, err, ErrValidation)
	assert.Equal(t, []int64{3}, s.PendingDeletionIDs())
}

func TestStagedEdit_RemoveStagedFileReleasesPreview(t *testing.T) {
	previews := media.NewPreviewRegistry("/previews/")
	s := NewStagedEdit(EventMediaLimit, 0, nil, previews, nil)
	ps, err := s.AddFiles([]media.File{image("a.jpg"), image("b.jpg")})
	require.NoError(t, err)
	require.Equal(t, 2, previews.Len())

	require.NoError(t, s.RemoveStagedFile(0))
	assert.Equal(t, 1, previews.Len())
	_, ok := previews.Lookup(ps[0].ID)
	assert.False(t, ok)
	assert.Equal(t, "b.jpg", s.PendingFiles()[0].File.Name)

	assert.ErrorIs(t, s.RemoveStagedFile(5), ErrValidation)

	s.Close()
	assert.Zero(t, previews.Len())
}

func TestStagedEdit_ScalarOnlySubmit(t *testing.T) {
	rec := &recordedOps{}
	s := NewStagedEdit(EventMediaLimit, 9, existing(1), nil, nil)

	report, err := s.Submit(context.Background(), models.EventInput{Title: "Noodle night"}, rec.ops())
	require.NoError(t, err)
	assert.True(t, report.Complete())
	assert.Equal(t, 1, rec.upserts)
	assert.Empty(t, rec.deletes)
	assert.Empty(t, rec.uploads)
}

func TestStagedEdit_UpsertFailureLeavesBufferUntouched(t *testing.T) {
	rec := &recordedOps{upsertErr: apierror.New(400, "title is required")}
	s := NewStagedEdit(EventMediaLimit, 9, existing(1, 2), nil, nil)
	_, err := s.AddFiles([]media.File{image("a.jpg")})
	require.NoError(t, err)
	_, err = s.ToggleDeleteExisting(2)
	require.NoError(t, err)

	_, err = s.Submit(context.Background(), models.EventInput{}, rec.ops())
	require.ErrorIs(t, err, apierror.ErrInvalid)

	assert.Len(t, s.PendingFiles(), 1)
	assert.Equal(t, []int64{2}, s.PendingDeletionIDs())
	assert.Empty(t, rec.deletes)
	assert.Empty(t, rec.uploads)
}

func TestStagedEdit_PartialFailures(t *testing.T) {
	ctx := context.Background()
	previews := media.NewPreviewRegistry("/previews/")
	rec := &recordedOps{
		deleteErr: map[int64]error{2: apierror.New(500, "disk")},
		uploadErr: apierror.Network(errors.New("reset")),
	}
	s := NewStagedEdit(EventMediaLimit, 9, existing(1, 2, 3), previews, nil)
	for _, id := range []int64{1, 2} {
		_, err := s.ToggleDeleteExisting(id)
		require.NoError(t, err)
	}
	_, err := s.AddFiles([]media.File{image("a.jpg"), image("b.jpg")})
	require.NoError(t, err)

	payload := models.EventInput{Title: "Tonkotsu week"}
	report, err := s.Submit(ctx, payload, rec.ops())
	require.NoError(t, err)
	assert.False(t, report.Complete())
	assert.Equal(t, []int64{1}, report.Deleted)
	require.Len(t, report.DeleteFailures, 1)
	assert.Equal(t, int64(2), report.DeleteFailures[0].MediaID)
	assert.Error(t, report.UploadErr)
	assert.Error(t, report.Err())
	assert.ElementsMatch(t, []int64{1, 2}, rec.deletes)
	require.Len(t, rec.uploads, 1)
	assert.Len(t, rec.uploads[0], 2)

	assert.Equal(t, []int64{2}, s.PendingDeletionIDs())
	assert.Len(t, s.PendingFiles(), 2)
	assert.Equal(t, 2, previews.Len())
	assert.Len(t, s.Existing(), 2)

	// resubmit: the scalar update is not repeated
	rec.deleteErr = nil
	rec.uploadErr = nil
	report, err = s.Submit(ctx, payload, rec.ops())
	require.NoError(t, err)
	assert.True(t, report.Complete())
	assert.True(t, report.UpsertSkipped)
	assert.Equal(t, 1, rec.upserts)
	assert.Equal(t, 2, report.Uploaded)
	assert.Empty(t, s.PendingFiles())
	assert.Empty(t, s.PendingDeletionIDs())
	assert.Zero(t, previews.Len())
}

func TestStagedEdit_ChangedPayloadIsSentAgain(t *testing.T) {
	ctx := context.Background()
	rec := &recordedOps{uploadErr: errors.New("timeout")}
	s := NewStagedEdit(EventMediaLimit, 0, nil, nil, nil)
	_, err := s.AddFiles([]media.File{image("a.jpg")})
	require.NoError(t, err)

	report, err := s.Submit(ctx, models.EventInput{Title: "a"}, rec.ops())
	require.NoError(t, err)
	assert.Equal(t, int64(42), report.EntityID)
	assert.Equal(t, int64(42), s.EntityID())

	_, err = s.Submit(ctx, models.EventInput{Title: "b"}, rec.ops())
	require.NoError(t, err)
	assert.Equal(t, 2, rec.upserts)
}

func TestStagedEdit_Cancel(t *testing.T) {
	previews := media.NewPreviewRegistry("/previews/")
	s := NewStagedEdit(EventMediaLimit, 1, existing(1), previews, nil)
	_, err := s.AddFiles([]media.File{image("a.jpg")})
	require.NoError(t, err)
	_, err = s.ToggleDeleteExisting(1)
	require.NoError(t, err)

	s.Cancel()
	assert.Empty(t, s.PendingFiles())
	assert.Empty(t, s.PendingDeletionIDs())
	assert.Zero(t, previews.Len())
}

func TestStagedEdit_EditsDuringUploadAreKept(t *testing.T) {
	ctx := context.Background()
	previews := media.NewPreviewRegistry("/previews/")
	s := NewStagedEdit(EventMediaLimit, 7, nil, previews, nil)
	_, err := s.AddFiles([]media.File{image("a.jpg")})
	require.NoError(t, err)

	started := make(chan struct{})
	release := make(chan struct{})
	var sent []media.File
	ops := Operations{
		Upsert: func(context.Context, any) (int64, error) { return 7, nil },
		UploadMedia: func(_ context.Context, _ int64, files []media.File) error {
			sent = files
			close(started)
			<-release
			return nil
		},
	}

	done := make(chan SubmitReport, 1)
	go func() {
		report, err := s.Submit(ctx, models.EventInput{Title: "a"}, ops)
		assert.NoError(t, err)
		done <- report
	}()
	<-started

	require.NoError(t, s.RemoveStagedFile(0))
	_, err = s.AddFiles([]media.File{image("b.jpg")})
	require.NoError(t, err)
	close(release)
	report := <-done

	assert.Equal(t, 1, report.Uploaded)
	require.Len(t, sent, 1)
	assert.Equal(t, "a.jpg", sent[0].Name)

	pending := s.PendingFiles()
	require.Len(t, pending, 1)
	assert.Equal(t, "b.jpg", pending[0].File.Name)
	assert.Equal(t, 1, previews.Len())
}
