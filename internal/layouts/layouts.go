// Package layouts stores named snapshots of documents ("saved layouts")
// so a header, footer, section or whole page can be reused later.
package layouts

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/conneroisu/pagecraft/internal/errors"
)

// Kind classifies a saved layout.
type Kind string

const (
	KindHeader  Kind = "header"
	KindFooter  Kind = "footer"
	KindPage    Kind = "page"
	KindSection Kind = "section"
)

// Kinds lists every valid Kind.
func Kinds() []Kind {
	return []Kind{KindHeader, KindFooter, KindPage, KindSection}
}

// ParseKind validates s as a Kind.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if string(k) == s {
			return k, nil
		}
	}
	return "", errors.Newf(errors.ErrInvalidProps, "unknown layout type %q", s)
}

// Layout is one saved document.
type Layout struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Type      Kind            `json:"type"`
	CraftJSON json.RawMessage `json:"craftJson"`
	Thumbnail string          `json:"thumbnail,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// New builds a layout with a fresh id and timestamps.
func New(name string, kind Kind, craftJSON []byte) (*Layout, error) {
	now := time.Now().UTC()
	l := &Layout{
		ID:        "layout_" + uuid.NewString(),
		Name:      name,
		Type:      kind,
		CraftJSON: append(json.RawMessage(nil), craftJSON...),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

var validJSON = validation.By(func(value interface{}) error {
	raw, _ := value.(json.RawMessage)
	if !json.Valid(raw) {
		return fmt.Errorf("must be valid JSON")
	}
	return nil
})

// Validate checks the fields a store relies on.
func (l Layout) Validate() error {
	kinds := make([]interface{}, 0, len(Kinds()))
	for _, k := range Kinds() {
		kinds = append(kinds, k)
	}
	err := validation.ValidateStruct(&l,
		validation.Field(&l.ID, validation.Required),
		validation.Field(&l.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&l.Type, validation.Required, validation.In(kinds...)),
		validation.Field(&l.CraftJSON, validation.Required, validJSON),
	)
	if err != nil {
		return errors.New(errors.ErrInvalidProps, "invalid layout").WithCause(err)
	}
	return nil
}

// Store persists layouts. List and ListByType return layouts in the
// order they were first saved.
type Store interface {
	// Save inserts l or replaces the layout with the same id, refreshing
	// UpdatedAt.
	Save(ctx context.Context, l *Layout) error
	Get(ctx context.Context, id string) (*Layout, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]Layout, error)
	ListByType(ctx context.Context, kind Kind) ([]Layout, error)
	Close() error
}

func notFound(id string) error {
	return errors.Newf(errors.ErrLayoutNotFound, "layout %q not found", id)
}
