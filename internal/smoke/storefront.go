package smoke

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxHTMLBodyBytes = 1 << 20 // 1 MiB
)

// checkStorefront fetches the storefront page and requires a title or the SPA
// root element.
func (r *Runner) checkStorefront(ctx context.Context) (int, error) {
	resp, err := r.pages.Get(ctx, r.opts.StorefrontURL, map[string]string{"Accept": "text/html"})
	if err != nil {
		return 0, fmt.Errorf("http fetch: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return resp.StatusCode(), &AssertionError{
			Step:       StepStorefrontPage,
			Message:    "Storefront page unavailable",
			StatusCode: resp.StatusCode(),
			Body:       bodySnippet(resp.Body()),
		}
	}

	body := resp.Body()
	if len(body) > maxHTMLBodyBytes {
		body = body[:maxHTMLBodyBytes]
	}
	page, err := parsePage(body)
	if err != nil {
		return resp.StatusCode(), err
	}
	if page.Title == "" && !page.HasAppRoot {
		return resp.StatusCode(), &AssertionError{
			Step:       StepStorefrontPage,
			Message:    "Storefront page has neither a title nor an app root",
			StatusCode: resp.StatusCode(),
		}
	}

	r.log.DebugObj("storefront page ok", "storefront_page", map[string]any{
		"url":      r.opts.StorefrontURL,
		"title":    page.Title,
		"app_root": page.HasAppRoot,
	})
	return resp.StatusCode(), nil
}

type pageInfo struct {
	Title      string
	HasAppRoot bool
}

func parsePage(body []byte) (pageInfo, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return pageInfo{}, fmt.Errorf("parse html: %w", err)
	}
	return pageInfo{
		Title:      strings.TrimSpace(doc.Find("title").First().Text()),
		HasAppRoot: doc.Find("app-root").Length() > 0,
	}, nil
}

func bodySnippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > 1024 {
		s = s[:1024]
	}
	return s
}
