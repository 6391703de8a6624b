// Package pdftext talks to the PDF-to-text conversion service.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

const maxResponseBytes = 8 << 20

// Error is a failed conversion call.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("pdftext: status %d: %s", e.StatusCode, e.Message)
}

// Client posts raw PDF bytes to {baseURL}/extract and reads {"text": "..."}.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  *zap.Logger
}

func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ExtractText returns the plain text of a PDF document.
func (c *Client) ExtractText(ctx context.Context, pdf []byte) (string, error) {
	url := c.baseURL + "/extract"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(pdf))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/pdf")
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Warn("PDF text request failed", zap.Error(err))
		return "", fmt.Errorf("pdftext request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return "", fmt.Errorf("failed to read pdftext response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		message := gjson.GetBytes(body, "message").String()
		if message == "" {
			message = http.StatusText(resp.StatusCode)
		}
		return "", &Error{StatusCode: resp.StatusCode, Message: message}
	}

	text := gjson.GetBytes(body, "text")
	if !text.Exists() {
		return "", &Error{StatusCode: resp.StatusCode, Message: "response has no text"}
	}

	c.logger.Debug("PDF converted", zap.Int("pdf_bytes", len(pdf)), zap.Int("text_len", len(text.String())))
	return text.String(), nil
}
