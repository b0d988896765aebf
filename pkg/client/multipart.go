package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"go.uber.org/zap"
)

// FormFile is one file part of a multipart upload
type FormFile struct {
	Field       string
	Filename    string
	ContentType string
	Content     []byte
}

// uploadClient serves only the multipart endpoints. Those requests bypass
// the retry/breaker stack: re-sending a half-consumed multipart body after
// a transient failure is how uploads get corrupted, so they run once over
// a plain http.Client with a longer timeout.
var uploadClient = &http.Client{Timeout: 2 * time.Minute}

// UploadMultipart performs a single multipart/form-data POST and returns
// the raw response body. Errors are classified exactly like the main
// transport so callers cannot tell which path served the request.
func (c *HTTPClient) UploadMultipart(ctx context.Context, url string, headers map[string]string, fields map[string]string, files []FormFile) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	for field, value := range fields {
		if err := writer.WriteField(field, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", field, err)
		}
	}

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name=%q; filename=%q`, escapeQuotes(f.Field), escapeQuotes(f.Filename)))
		contentType := f.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		header.Set("Content-Type", contentType)

		part, err := writer.CreatePart(header)
		if err != nil {
			return nil, fmt.Errorf("failed to create form part %s: %w", f.Field, err)
		}
		if _, err := part.Write(f.Content); err != nil {
			return nil, fmt.Errorf("failed to write form part %s: %w", f.Field, err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, &TransportError{Attempts: 1, Err: err}
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := uploadClient.Do(req)
	if err != nil {
		return nil, &TransportError{Attempts: 1, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Attempts: 1, Err: err}
	}

	if resp.StatusCode >= 400 {
		c.logger.Debug("Provider rejected multipart upload",
			zap.String("provider", c.providerName),
			zap.String("url", url),
			zap.Int("status", resp.StatusCode),
			zap.String("body", truncate(string(body), 512)),
		)
		return nil, &VendorAPIError{
			Provider: c.providerName,
			Status:   resp.StatusCode,
			Path:     url,
		}
	}

	return body, nil
}

func escapeQuotes(s string) string {
	return strings.NewReplacer("\\", "\\\\", `"`, "\\\"").Replace(s)
}
