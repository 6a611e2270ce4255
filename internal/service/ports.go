package service

import (
	"context"
	"io"

	"auto-ria-clone/internal/core/mailer"
	"auto-ria-clone/internal/core/storage"
)

// Notifier delivers templated emails. Implementations swallow delivery errors.
type Notifier interface {
	Send(ctx context.Context, kind mailer.Kind, to []mailer.Recipient, data map[string]any)
}

// FileStore persists uploaded images and returns their object key.
type FileStore interface {
	Replace(ctx context.Context, kind storage.Kind, ownerID, filename, contentType string, r io.Reader, size int64, prevKey string) (string, error)
	Delete(ctx context.Context, key string) error
}

// Upload is a single file taken from a multipart request.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Page is the paginated list envelope.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

func NewPage[T any](items []T, total int64, page, size int) Page[T] {
	if items == nil {
		items = []T{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return Page[T]{Items: items, Total: total, Page: page, PageSize: size, TotalPages: pages}
}

// clampPage applies defaults and bounds to 1-based paging input.
func clampPage(page, size, def, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = def
	}
	if size > limit {
		size = limit
	}
	return page, size
}
