package views

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"ramen-directory/internal/controller"
	"ramen-directory/internal/media"
	"ramen-directory/internal/models"
)

// ErrNoForm is returned for a form key that was never opened or is closed.
var ErrNoForm = errors.New("form not open")

// Forms holds the open staged edit forms of one workspace by key.
type Forms struct {
	mu       sync.Mutex
	open     map[string]*controller.StagedEdit
	previews *media.PreviewRegistry
	resolver media.Resolver
	logger   *zap.Logger
}

func NewForms(previews *media.PreviewRegistry, resolver media.Resolver, logger *zap.Logger) *Forms {
	if previews == nil {
		previews = media.NewPreviewRegistry("/previews/")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Forms{
		open:     make(map[string]*controller.StagedEdit),
		previews: previews,
		resolver: resolver,
		logger:   logger,
	}
}

// Open returns the form under key, creating it when absent. An open form
// keeps its staged files, so reopening after a partial failure resumes it.
func (f *Forms) Open(key string, limit int, entityID int64, existing []models.MediaRef) *controller.StagedEdit {
	f.mu.Lock()
	defer f.mu.Unlock()
	if form, ok := f.open[key]; ok {
		return form
	}
	form := controller.NewStagedEdit(limit, entityID, existing, f.previews, f.logger.With(zap.String("form", key)))
	f.open[key] = form
	return form
}

func (f *Forms) Get(key string) (*controller.StagedEdit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	form, ok := f.open[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoForm, key)
	}
	return form, nil
}

// Close discards the form and releases its previews.
func (f *Forms) Close(key string) {
	f.mu.Lock()
	form, ok := f.open[key]
	delete(f.open, key)
	f.mu.Unlock()
	if ok {
		form.Close()
	}
}

func (f *Forms) CloseAll() {
	f.mu.Lock()
	open := f.open
	f.open = make(map[string]*controller.StagedEdit)
	f.mu.Unlock()
	for _, form := range open {
		form.Close()
	}
}

func (f *Forms) View(key string) (FormView, error) {
	form, err := f.Get(key)
	if err != nil {
		return FormView{}, err
	}
	return presentForm(key, form, f.resolver), nil
}

func (f *Forms) Stage(key string, files []media.File) (FormView, error) {
	form, err := f.Get(key)
	if err != nil {
		return FormView{}, err
	}
	if _, err := form.AddFiles(files); err != nil {
		return FormView{}, err
	}
	return presentForm(key, form, f.resolver), nil
}

func (f *Forms) Unstage(key string, index int) (FormView, error) {
	form, err := f.Get(key)
	if err != nil {
		return FormView{}, err
	}
	if err := form.RemoveStagedFile(index); err != nil {
		return FormView{}, err
	}
	return presentForm(key, form, f.resolver), nil
}

func (f *Forms) ToggleDelete(key string, mediaID int64) (FormView, error) {
	form, err := f.Get(key)
	if err != nil {
		return FormView{}, err
	}
	if _, err := form.ToggleDeleteExisting(mediaID); err != nil {
		return FormView{}, err
	}
	return presentForm(key, form, f.resolver), nil
}

// Cancel drops the pending changes and closes the form.
func (f *Forms) Cancel(key string) {
	f.Close(key)
}

func (f *Forms) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.open)
}
