package backend

import (
	"encoding/json"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Status is a page's publication state.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

var (
	statuses    = []interface{}{StatusDraft, StatusPublished}
	slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// Page is a page as the backend returns it. Content holds the stored
// document.
type Page struct {
	ID        string          `json:"id"`
	Title     string          `json:"title"`
	Slug      string          `json:"slug"`
	Status    Status          `json:"status"`
	Content   json.RawMessage `json:"content,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// PageInput creates a page.
type PageInput struct {
	Title   string          `json:"title"`
	Slug    string          `json:"slug"`
	Content json.RawMessage `json:"content"`
	Status  Status          `json:"status,omitempty"`
}

// NewPageInput derives the slug from title.
func NewPageInput(title string, content []byte, status Status) PageInput {
	return PageInput{
		Title:   title,
		Slug:    Slugify(title),
		Content: append(json.RawMessage(nil), content...),
		Status:  status,
	}
}

func (in PageInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title, validation.Required, validation.Length(1, 200)),
		validation.Field(&in.Slug, validation.Required, validation.Match(slugPattern)),
		validation.Field(&in.Content, validation.Required, validJSON),
		validation.Field(&in.Status, validation.In(statuses...)),
	)
}

// PageUpdate changes a page. Nil fields are left untouched.
type PageUpdate struct {
	Title   *string         `json:"title,omitempty"`
	Slug    *string         `json:"slug,omitempty"`
	Content json.RawMessage `json:"content,omitempty"`
	Status  *Status         `json:"status,omitempty"`
}

func (u PageUpdate) Validate() error {
	return validation.ValidateStruct(&u,
		validation.Field(&u.Title, validation.NilOrNotEmpty, validation.Length(1, 200)),
		validation.Field(&u.Slug, validation.NilOrNotEmpty, validation.Match(slugPattern)),
		validation.Field(&u.Content, validJSON),
		validation.Field(&u.Status, validation.In(statuses...)),
	)
}

// PageQuery filters GetPages. Zero fields are omitted from the request.
type PageQuery struct {
	Search string
	Status Status
	Page   int
	Limit  int
}

func (q PageQuery) Validate() error {
	return validation.ValidateStruct(&q,
		validation.Field(&q.Status, validation.In(statuses...)),
		validation.Field(&q.Page, validation.Min(0)),
		validation.Field(&q.Limit, validation.Min(0), validation.Max(100)),
	)
}

// PageList is one page of GetPages results.
type PageList struct {
	Pages      []Page `json:"pages"`
	Total      int    `json:"total"`
	Page       int    `json:"page"`
	Limit      int    `json:"limit"`
	TotalPages int    `json:"totalPages"`
}

// MediaFile is an uploaded asset.
type MediaFile struct {
	ID           string    `json:"id"`
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalName"`
	Mimetype     string    `json:"mimetype"`
	Size         int64     `json:"size"`
	URL          string    `json:"url"`
	CreatedAt    time.Time `json:"createdAt"`
}

var validJSON = validation.By(func(value interface{}) error {
	raw, _ := value.(json.RawMessage)
	if len(raw) > 0 && !json.Valid(raw) {
		return validation.NewError("validation_is_json", "must be valid JSON")
	}
	return nil
})
