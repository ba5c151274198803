package snapshot

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/html/charset"

	"github.com/deepteams/snapshot/diff"
	"github.com/deepteams/snapshot/errs"
)

// MaxDocumentSize bounds the documents fetched by CaptureURL, in bytes
// after decoding to UTF-8.
const MaxDocumentSize = 8 << 20

// CaptureHTML renders html and writes the image to path.
func CaptureHTML(ctx context.Context, html, path string, opts *RenderOptions) error {
	data, err := Render(ctx, html, opts)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("snapshot: %w", err)
	}
	Logger().Debug("wrote image", zap.String("path", path), zap.Int("bytes", len(data)))
	return nil
}

// CaptureURL fetches an HTML document over HTTP or HTTPS, renders it and
// writes the image to path. Stylesheets and images referenced by the
// document are not fetched.
func CaptureURL(ctx context.Context, rawURL, path string, opts *RenderOptions) error {
	html, err := Fetch(ctx, rawURL)
	if err != nil {
		return err
	}
	return CaptureHTML(ctx, html, path, opts)
}

// Fetch downloads an HTML document over HTTP or HTTPS and returns it as
// UTF-8.
func Fetch(ctx context.Context, rawURL string) (string, error) {
	return fetch(ctx, http.DefaultClient, rawURL)
}

// fetch downloads a document and decodes it to UTF-8 using the charset
// from the Content-Type header or the document itself.
func fetch(ctx context.Context, client *http.Client, rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("snapshot: %w", errs.Wrap("fetch", errs.KindInvalidRequest, err, "bad url"))
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("snapshot: %w", errs.InvalidRequest("fetch", "unsupported url scheme %q", u.Scheme))
	}

	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return "", fmt.Errorf("snapshot: fetch %s: %w", u, err)
	}
	req.Header.Set("Accept", "text/html,*/*;q=0.8")
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("snapshot: fetch %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("snapshot: fetch %s: %s", u, resp.Status)
	}

	r, err := charset.NewReader(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", fmt.Errorf("snapshot: fetch %s: %w", u, err)
	}
	body, err := io.ReadAll(io.LimitReader(r, MaxDocumentSize+1))
	if err != nil {
		return "", fmt.Errorf("snapshot: fetch %s: %w", u, err)
	}
	if len(body) > MaxDocumentSize {
		return "", fmt.Errorf("snapshot: %w", errs.New("fetch", errs.KindInvalidRequest).
			Detail("document larger than %d bytes", MaxDocumentSize).
			Value(u.String()).
			Build())
	}
	Logger().Debug("fetched",
		zap.String("url", u.String()),
		zap.Int("bytes", len(body)),
		zap.Duration("took", time.Since(start)))
	return string(body), nil
}

// Compare compares two PNG images. A nil opts uses diff.DefaultOptions.
func Compare(ctx context.Context, a, b []byte, opts *diff.Options) (*diff.Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("snapshot: compare: %w", err)
	}
	start := time.Now()
	res, err := diff.Compare(a, b, opts)
	if err != nil {
		return nil, fmt.Errorf("snapshot: compare: %w", err)
	}
	Logger().Debug("compared",
		zap.Int("diffPixels", res.DiffPixels),
		zap.Float64("diffPercentage", res.DiffPercentage),
		zap.String("verdict", res.Verdict),
		zap.Duration("took", time.Since(start)))
	return res, nil
}
