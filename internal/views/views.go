// Package views wires the generic controllers into the pages of the
// directory: public events, shop detail, the owner dashboard, event
// management, the activity feed and the home page.
package views

import (
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"ramen-directory/internal/content"
	"ramen-directory/internal/controller"
	"ramen-directory/internal/directory"
	"ramen-directory/internal/media"
	"ramen-directory/internal/models"
	"ramen-directory/internal/session"
)

var (
	ErrLoginRequired = errors.New("login required")
	ErrNoShop        = errors.New("account has no shop")
	ErrAdminOnly     = errors.New("admin only")
)

// Limits are the configurable bounds of every view.
type Limits struct {
	PageSizeMax    int
	EventMedia     int
	ShopMedia      int
	ReviewMedia    int
	SearchDebounce time.Duration
}

func DefaultLimits() Limits {
	return Limits{
		PageSizeMax:    controller.DefaultMaxPageSize,
		EventMedia:     controller.EventMediaLimit,
		ShopMedia:      controller.ShopMediaLimit,
		ReviewMedia:    controller.ReviewMediaLimit,
		SearchDebounce: 500 * time.Millisecond,
	}
}

// Deps are the collaborators shared by the views of one workspace.
type Deps struct {
	Shops      directory.ShopService
	Reviews    directory.ReviewService
	Events     directory.EventService
	Activities directory.ActivityService
	Session    *session.Store
	Resolver   media.Resolver
	Previews   *media.PreviewRegistry
	Forms      *Forms
	Limits     Limits
	Logger     *zap.Logger
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

func (d Deps) limits() Limits {
	l := d.Limits
	def := DefaultLimits()
	if l.PageSizeMax <= 0 {
		l.PageSizeMax = def.PageSizeMax
	}
	if l.EventMedia <= 0 {
		l.EventMedia = def.EventMedia
	}
	if l.ShopMedia <= 0 {
		l.ShopMedia = def.ShopMedia
	}
	if l.ReviewMedia <= 0 {
		l.ReviewMedia = def.ReviewMedia
	}
	if l.SearchDebounce <= 0 {
		l.SearchDebounce = def.SearchDebounce
	}
	return l
}

func (d Deps) forms() *Forms {
	if d.Forms == nil {
		return NewForms(d.Previews, d.Resolver, d.logger())
	}
	return d.Forms
}

// CommentView is a review or reply ready for display.
type CommentView struct {
	models.Comment
	Text string `json:"text"`
}

// EventView is an event ready for display.
type EventView struct {
	models.Event
	HTML string `json:"html"`
}

// ShopView is a shop with resolved media.
type ShopView struct {
	models.Shop
	DescriptionText string `json:"descriptionText,omitempty"`
}

// FormView describes a staged edit form.
type FormView struct {
	Key         string            `json:"key"`
	EntityID    int64             `json:"entityId"`
	Limit       int               `json:"limit"`
	Existing    []models.MediaRef `json:"existing"`
	PendingIDs  []int64           `json:"pendingDeletionIds"`
	StagedFiles []StagedFileView  `json:"stagedFiles"`
}

type StagedFileView struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
	PreviewURL  string `json:"previewUrl"`
}

func presentComment(c models.Comment, r media.Resolver) CommentView {
	c.Normalize()
	c.Media = r.ResolveAll(c.Media)
	return CommentView{Comment: c, Text: content.PlainText(c.Content)}
}

func presentComments(cs []models.Comment, r media.Resolver) []CommentView {
	out := make([]CommentView, 0, len(cs))
	for _, c := range cs {
		out = append(out, presentComment(c, r))
	}
	return out
}

func presentEvent(e models.Event, r media.Resolver) EventView {
	e.Media = r.ResolveAll(e.Media)
	return EventView{Event: e, HTML: content.EventHTML(e.Content)}
}

func presentEvents(es []models.Event, r media.Resolver) []EventView {
	out := make([]EventView, 0, len(es))
	for _, e := range es {
		out = append(out, presentEvent(e, r))
	}
	return out
}

func presentShop(s models.Shop, r media.Resolver) ShopView {
	s.Media = r.ResolveAll(s.Media)
	return ShopView{Shop: s, DescriptionText: content.PlainText(s.Description)}
}

func presentForm(key string, f *controller.StagedEdit, r media.Resolver) FormView {
	staged := f.PendingFiles()
	files := make([]StagedFileView, 0, len(staged))
	for _, s := range staged {
		files = append(files, StagedFileView{
			Name:        s.File.Name,
			ContentType: s.File.DetectContentType(),
			Size:        s.File.Size(),
			PreviewURL:  s.Preview.URL,
		})
	}
	return FormView{
		Key:         key,
		EntityID:    f.EntityID(),
		Limit:       f.Limit(),
		Existing:    r.ResolveAll(f.Existing()),
		PendingIDs:  f.PendingDeletionIDs(),
		StagedFiles: files,
	}
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &controller.ValidationError{Field: field, Message: "is required"}
	}
	return nil
}
