package ai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"bitbucket.org/mmdatafocus/fundtracker_backend/fraud"
	"github.com/shopspring/decimal"
)

func strPtr(s string) *string { return &s }

func TestLocalScorer_AmountDrivesScore(t *testing.T) {
	cases := []struct {
		amount        int64
		expectedScore int
		expectedLevel string
	}{
		{1000, 5, "low"}, // clamped to the floor
		{50000, 50, "medium"},
		{200000, 95, "high"}, // clamped to the ceiling
	}
	for _, tc := range cases {
		got, err := localScorer{}.Score(context.Background(), ScoreInput{
			ProjectId:     1,
			InvoiceNumber: "INV-1",
			VendorName:    "V",
			Amount:        decimal.NewFromInt(tc.amount),
		})
		if err != nil {
			t.Fatalf("Score(%d): %v", tc.amount, err)
		}
		if got.Score != tc.expectedScore {
			t.Fatalf("amount %d expected score %d, got %d", tc.amount, tc.expectedScore, got.Score)
		}
		if got.Level != tc.expectedLevel {
			t.Fatalf("amount %d expected level %q, got %q", tc.amount, tc.expectedLevel, got.Level)
		}
		if got.Category != nil {
			t.Fatalf("no mismatches should leave the category empty, got %q", *got.Category)
		}
	}
}

func TestLocalScorer_Deterministic(t *testing.T) {
	input := ScoreInput{ProjectId: 1, InvoiceNumber: "INV-1", VendorName: "V", Amount: decimal.NewFromInt(60000)}
	first, _ := localScorer{}.Score(context.Background(), input)
	second, _ := localScorer{}.Score(context.Background(), input)
	if first.Score != second.Score {
		t.Fatalf("scoring must be deterministic: %d vs %d", first.Score, second.Score)
	}
}

func TestLocalScorer_AmountMismatchPenalty(t *testing.T) {
	got, err := localScorer{}.Score(context.Background(), ScoreInput{
		ProjectId:     1,
		InvoiceNumber: "INV-1",
		VendorName:    "V",
		Amount:        decimal.NewFromInt(50000),
		OCR:           fraud.OCRFields{Amount: strPtr("60000")},
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got.Score != 75 {
		t.Fatalf("expected base 50 + penalty 25 = 75, got %d", got.Score)
	}
	if got.Category == nil || *got.Category != string(fraud.CategoryAmountMismatch) {
		t.Fatalf("expected amount_mismatch tag, got %v", got.Category)
	}
	if got.AmountMismatchPercentage == nil || !got.AmountMismatchPercentage.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected 20%% mismatch, got %v", got.AmountMismatchPercentage)
	}
	if got.FraudScore != 50 {
		t.Fatalf("fraud score should be the pre-penalty base, got %d", got.FraudScore)
	}
}

func TestLocalScorer_VendorMismatchPenalty(t *testing.T) {
	got, err := localScorer{}.Score(context.Background(), ScoreInput{
		ProjectId:     1,
		InvoiceNumber: "INV-1",
		VendorName:    "ABC Co",
		Amount:        decimal.NewFromInt(50000),
		OCR: fraud.OCRFields{
			VendorName: strPtr("XYZ Traders"),
			Amount:     strPtr("50000"),
		},
	})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got.Category == nil || *got.Category != string(fraud.CategoryVendorMismatch) {
		t.Fatalf("expected vendor_mismatch tag, got %v", got.Category)
	}
	if got.Score != 70 {
		t.Fatalf("expected base 50 + penalty 20 = 70, got %d", got.Score)
	}
}

func TestHTTPScorer_ParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/score" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "secret" {
			t.Errorf("expected api key header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"score": 82, "fraud_score": 77, "category": "duplicate"}`))
	}))
	defer server.Close()

	scorer := &httpScorer{
		baseURL:   server.URL,
		apiKey:    "secret",
		apiKeyHdr: "X-API-Key",
		http:      server.Client(),
	}
	got, err := scorer.Score(context.Background(), ScoreInput{Amount: decimal.NewFromInt(1)})
	if err != nil {
		t.Fatalf("Score: %v", err)
	}
	if got.Score != 82 || got.Level != "high" || got.FraudScore != 77 {
		t.Fatalf("unexpected assessment %+v", got)
	}
	if got.Category == nil || *got.Category != "duplicate" {
		t.Fatalf("expected duplicate category, got %v", got.Category)
	}
}

func TestNormalize_LevelBoundaries(t *testing.T) {
	cases := []struct {
		score    int
		expected string
	}{
		{75, "high"},
		{74, "medium"},
		{40, "medium"},
		{39, "low"},
	}
	for _, tc := range cases {
		if got := normalize(Assessment{Score: tc.score}); got.Level != tc.expected {
			t.Fatalf("normalize(%d) expected level %q, got %q", tc.score, tc.expected, got.Level)
		}
	}
}
