package pdfrender

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/makao-africa/makao-backend/pkg/config"
	pkgerrors "github.com/makao-africa/makao-backend/pkg/errors"
	"github.com/makao-africa/makao-backend/pkg/logger"
)

const maxPDFBytes = 16 << 20

// Renderer turns an HTML document into PDF bytes.
type Renderer interface {
	RenderHTML(ctx context.Context, html string) ([]byte, error)
}

// Client talks to a Gotenberg-compatible render service over its chromium
// conversion route.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	contentTimeout time.Duration
	logger         *logger.Logger
}

func NewClient(cfg config.PDFRenderConfig, logg *logger.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("pdf render base url is required")
	}
	requestTimeout := cfg.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	contentTimeout := cfg.ContentTimeout
	if contentTimeout <= 0 {
		contentTimeout = 10 * time.Second
	}
	return &Client{
		httpClient:     &http.Client{Timeout: requestTimeout},
		baseURL:        base,
		contentTimeout: contentTimeout,
		logger:         logg,
	}, nil
}

// RenderHTML converts html into a PDF document. The render service is told
// to stop waiting for sub-resources after the configured content timeout so
// a slow asset cannot hold the request open.
func (c *Client) RenderHTML(ctx context.Context, html string) ([]byte, error) {
	if strings.TrimSpace(html) == "" {
		return nil, pkgerrors.New(pkgerrors.CodePDFGeneration, "html document is empty")
	}

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("files", "index.html")
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePDFGeneration, err, "building render request")
	}
	if _, err := io.WriteString(part, html); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePDFGeneration, err, "building render request")
	}
	if err := writer.WriteField("waitTimeout", fmt.Sprintf("%.0f", c.contentTimeout.Seconds())); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePDFGeneration, err, "building render request")
	}
	if err := writer.Close(); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePDFGeneration, err, "building render request")
	}

	u := c.baseURL + "/forms/chromium/convert/html"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, &body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePDFGeneration, err, "building render request")
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePDFGeneration, err, "render service unreachable")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		if c.logger != nil {
			c.logger.Warn(ctx, fmt.Sprintf("pdf render failed: %s", resp.Status))
		}
		return nil, pkgerrors.New(
			pkgerrors.CodePDFGeneration,
			fmt.Sprintf("render service returned %s: %s", resp.Status, strings.TrimSpace(string(snippet))),
		)
	}

	pdf, err := io.ReadAll(io.LimitReader(resp.Body, maxPDFBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodePDFGeneration, err, "reading rendered document")
	}
	if len(pdf) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodePDFGeneration, "render service returned an empty document")
	}
	return pdf, nil
}
