package backend

import (
	"context"

	"github.com/conneroisu/pagecraft/internal/logging"
)

// SaveRequest publishes a document. An empty PageID creates a page.
type SaveRequest struct {
	PageID  string
	Title   string
	Content []byte
	Status  Status
}

// SaveResult is delivered once per SaveAsync call.
type SaveResult struct {
	Page *Page
	Err  error
}

// Save creates or updates the page described by req. The slug is always
// derived from the title.
func Save(ctx context.Context, c Client, req SaveRequest) (*Page, error) {
	if req.PageID == "" {
		return c.CreatePage(ctx, NewPageInput(req.Title, req.Content, req.Status))
	}

	in := NewPageInput(req.Title, req.Content, req.Status)
	u := PageUpdate{Title: &in.Title, Slug: &in.Slug, Content: in.Content}
	if req.Status != "" {
		u.Status = &in.Status
	}
	return c.UpdatePage(ctx, req.PageID, u)
}

// SaveAsync runs Save in the background. If ctx is cancelled before the
// backend answers, the response is discarded and the result carries
// ctx.Err(), so a torn-down session never applies a stale save.
func SaveAsync(ctx context.Context, c Client, req SaveRequest, logger logging.Logger) <-chan SaveResult {
	log := logging.OrNop(logger).WithComponent("backend")
	out := make(chan SaveResult, 1)
	go func() {
		defer close(out)
		page, err := Save(ctx, c, req)
		if ctx.Err() != nil {
			log.Debug(ctx, "Discarding save response after cancellation", "page_id", req.PageID)
			out <- SaveResult{Err: ctx.Err()}
			return
		}
		if err != nil {
			log.Warn(ctx, err, "Save failed", "page_id", req.PageID)
		}
		out <- SaveResult{Page: page, Err: err}
	}()
	return out
}
