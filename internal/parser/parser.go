// Package parser decodes the ramen API envelope into typed values.
package parser

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ramen-directory/internal/apierror"
	"ramen-directory/internal/models"
)

// Envelope decodes the {success, data, message} wrapper. An envelope with
// success=false becomes an *apierror.Error.
func Envelope(data json.RawMessage) (models.Envelope, error) {
	var env models.Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return env, fmt.Errorf("parse envelope JSON: %w", err)
	}
	if !env.Success {
		return env, apierror.Rejected(http.StatusOK, env.Message)
	}
	return env, nil
}

// Entity decodes an envelope carrying a single entity.
func Entity[T any](data json.RawMessage) (T, error) {
	var out T
	env, err := Envelope(data)
	if err != nil {
		return out, err
	}
	if isNull(env.Data) {
		return out, apierror.Rejected(http.StatusOK, nonEmpty(env.Message, "response carried no data"))
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("parse entity JSON: %w", err)
	}
	return out, nil
}

// List decodes an envelope carrying a bare array. A null array is empty.
func List[T any](data json.RawMessage) ([]T, error) {
	env, err := Envelope(data)
	if err != nil {
		return nil, err
	}
	out := []T{}
	if isNull(env.Data) {
		return out, nil
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return nil, fmt.Errorf("parse list JSON: %w", err)
	}
	return out, nil
}

// Page decodes a paginated envelope. requestedSize is the page size the
// caller asked for; it wins over whatever the server echoed so that
// TotalPages is always ceil(TotalItems/PageSize).
func Page[T any](data json.RawMessage, requestedSize int) (models.ListPage[T], error) {
	env, err := Envelope(data)
	if err != nil {
		return models.ListPage[T]{}, err
	}

	var raw models.RawPage[T]
	if !isNull(env.Data) {
		if err := json.Unmarshal(env.Data, &raw); err != nil {
			return models.ListPage[T]{}, fmt.Errorf("parse page JSON: %w", err)
		}
	}

	size := requestedSize
	if size <= 0 {
		size = raw.PageSize
	}
	if size <= 0 {
		size = len(raw.Content)
	}

	items := raw.Content
	if items == nil {
		items = []T{}
	}
	if size > 0 && len(items) > size {
		items = items[:size]
	}

	total := int(raw.TotalElements)
	if total < 0 {
		total = 0
	}
	totalPages := raw.TotalPages
	if size > 0 {
		totalPages = (total + size - 1) / size
	}
	pageNo := raw.PageNo
	if pageNo < 0 {
		pageNo = 0
	}

	return models.ListPage[T]{
		Items:      items,
		PageIndex:  pageNo,
		PageSize:   size,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

// Comments normalises a decoded comment slice in place.
func Comments(comments []models.Comment) []models.Comment {
	for i := range comments {
		comments[i].Normalize()
	}
	return comments
}

func isNull(data json.RawMessage) bool {
	return len(data) == 0 || string(data) == "null"
}

func nonEmpty(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
