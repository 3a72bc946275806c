package ocr

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/fundtracker_backend/fraud"
)

// Extractor pulls structured fields and the line-item table out of an
// uploaded invoice document.
type Extractor interface {
	Extract(ctx context.Context, fileName string, data []byte) (fraud.OCRFields, [][]string, error)
}

type httpExtractor struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
}

// NewExtractor returns the HTTP extractor when OCR_API_BASE_URL is set and a
// no-op extractor otherwise. The no-op extractor reports every field as
// absent, which downstream reconciliation treats as a non-match.
func NewExtractor() Extractor {
	baseURL := strings.TrimSpace(os.Getenv("OCR_API_BASE_URL"))
	if baseURL == "" {
		return disabledExtractor{}
	}
	apiKeyHeader := strings.TrimSpace(os.Getenv("OCR_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	return &httpExtractor{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(os.Getenv("OCR_API_KEY")),
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

type extractResponse struct {
	InvoiceNumber *string    `json:"invoice_number"`
	VendorName    *string    `json:"vendor_name"`
	Amount        *string    `json:"amount"`
	Table         [][]string `json:"table"`
}

func (e *httpExtractor) Extract(ctx context.Context, fileName string, data []byte) (fraud.OCRFields, [][]string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", fileName)
	if err != nil {
		return fraud.OCRFields{}, nil, err
	}
	if _, err := part.Write(data); err != nil {
		return fraud.OCRFields{}, nil, err
	}
	if err := writer.Close(); err != nil {
		return fraud.OCRFields{}, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract", &body)
	if err != nil {
		return fraud.OCRFields{}, nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	if e.apiKey != "" {
		req.Header.Set(e.apiKeyHdr, e.apiKey)
	}

	resp, err := e.http.Do(req)
	if err != nil {
		return fraud.OCRFields{}, nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fraud.OCRFields{}, nil, fmt.Errorf("ocr api error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed extractResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return fraud.OCRFields{}, nil, err
	}

	fields := fraud.OCRFields{
		InvoiceNumber: parsed.InvoiceNumber,
		VendorName:    parsed.VendorName,
		Amount:        parsed.Amount,
	}
	return fields, parsed.Table, nil
}

type disabledExtractor struct{}

func (disabledExtractor) Extract(ctx context.Context, fileName string, data []byte) (fraud.OCRFields, [][]string, error) {
	return fraud.OCRFields{}, nil, nil
}
