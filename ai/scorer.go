package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/fundtracker_backend/fraud"
	"github.com/shopspring/decimal"
)

// ScoreInput carries everything the risk model sees for one invoice.
type ScoreInput struct {
	ProjectId     int             `json:"project_id"`
	InvoiceNumber string          `json:"invoice_number"`
	VendorName    string          `json:"vendor_name"`
	Amount        decimal.Decimal `json:"amount"`
	OCR           fraud.OCRFields `json:"ocr"`
}

// Assessment is the scoring result. Score drives every label scale; Level is
// the coarse bucket stored alongside it; FraudScore is the raw model output
// before mismatch adjustments.
type Assessment struct {
	Score                    int              `json:"score"`
	Level                    string           `json:"level"`
	FraudScore               int              `json:"fraud_score"`
	Category                 *string          `json:"category"`
	AmountMismatchPercentage *decimal.Decimal `json:"amount_mismatch_percentage"`
}

type Scorer interface {
	Score(ctx context.Context, input ScoreInput) (Assessment, error)
}

// NewScorer returns the HTTP scorer when RISK_API_BASE_URL is set and the
// built-in heuristic scorer otherwise.
func NewScorer() Scorer {
	baseURL := strings.TrimSpace(os.Getenv("RISK_API_BASE_URL"))
	if baseURL == "" {
		return localScorer{}
	}
	apiKeyHeader := strings.TrimSpace(os.Getenv("RISK_API_KEY_HEADER"))
	if apiKeyHeader == "" {
		apiKeyHeader = "X-API-Key"
	}
	return &httpScorer{
		baseURL:   strings.TrimRight(baseURL, "/"),
		apiKey:    strings.TrimSpace(os.Getenv("RISK_API_KEY")),
		apiKeyHdr: apiKeyHeader,
		http:      &http.Client{Timeout: 30 * time.Second},
	}
}

type httpScorer struct {
	baseURL   string
	apiKey    string
	apiKeyHdr string
	http      *http.Client
}

func (s *httpScorer) Score(ctx context.Context, input ScoreInput) (Assessment, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return Assessment{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/score", bytes.NewReader(payload))
	if err != nil {
		return Assessment{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.apiKey != "" {
		req.Header.Set(s.apiKeyHdr, s.apiKey)
	}

	resp, err := s.http.Do(req)
	if err != nil {
		return Assessment{}, err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Assessment{}, fmt.Errorf("risk api error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var assessment Assessment
	if err := json.Unmarshal(body, &assessment); err != nil {
		return Assessment{}, err
	}
	return normalize(assessment), nil
}

// localScorer is the deterministic heuristic used when no external model is
// configured. Larger amounts score higher; each OCR mismatch adds a penalty
// and tags the invoice with the first mismatch found.
type localScorer struct{}

func (localScorer) Score(ctx context.Context, input ScoreInput) (Assessment, error) {
	base := input.Amount.Div(decimal.NewFromInt(100000)).Mul(decimal.NewFromInt(100))
	score := int(base.IntPart())
	if score < 5 {
		score = 5
	}
	if score > 95 {
		score = 95
	}
	fraudScore := score

	var category *string
	var mismatchPct *decimal.Decimal

	if input.OCR.Amount != nil {
		if ocrAmount, err := decimal.NewFromString(strings.TrimSpace(*input.OCR.Amount)); err == nil {
			if !ocrAmount.Equal(input.Amount) && input.Amount.IsPositive() {
				pct := ocrAmount.Sub(input.Amount).Abs().
					Div(input.Amount).Mul(decimal.NewFromInt(100)).Round(2)
				mismatchPct = &pct
				score += 25
				tag := string(fraud.CategoryAmountMismatch)
				category = &tag
			}
		}
	}
	if category == nil && input.OCR.VendorName != nil &&
		!strings.EqualFold(strings.TrimSpace(*input.OCR.VendorName), strings.TrimSpace(input.VendorName)) {
		score += 20
		tag := string(fraud.CategoryVendorMismatch)
		category = &tag
	}
	if category == nil && input.OCR.InvoiceNumber != nil &&
		!strings.EqualFold(strings.TrimSpace(*input.OCR.InvoiceNumber), strings.TrimSpace(input.InvoiceNumber)) {
		score += 20
		tag := string(fraud.CategoryInvoiceMismatch)
		category = &tag
	}

	if score > 100 {
		score = 100
	}

	return normalize(Assessment{
		Score:                    score,
		FraudScore:               fraudScore,
		Category:                 category,
		AmountMismatchPercentage: mismatchPct,
	}), nil
}

// normalize clamps the score and derives the coarse level from it.
func normalize(a Assessment) Assessment {
	if a.Score < 0 {
		a.Score = 0
	}
	if a.Score > 100 {
		a.Score = 100
	}
	switch {
	case a.Score >= 75:
		a.Level = "high"
	case a.Score >= 40:
		a.Level = "medium"
	default:
		a.Level = "low"
	}
	if a.FraudScore == 0 {
		a.FraudScore = a.Score
	}
	return a
}
