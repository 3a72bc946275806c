package config

import (
	"os"
	"strings"
)

// AlertPublishingEnabled gates the high-risk alert outbox dispatcher.
// Disable in environments without Pub/Sub (local dev, CI).
//
// Set via env:
// - FRAUD_ALERTS_ENABLED=true
func AlertPublishingEnabled() bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("FRAUD_ALERTS_ENABLED")))
	return v == "1" || v == "true" || v == "yes" || v == "y"
}

// OCRServiceEnabled reports whether an external extraction service is
// configured. When false, uploads still succeed but every OCR field is
// reported as not found (and therefore unverified).
func OCRServiceEnabled() bool {
	return strings.TrimSpace(os.Getenv("OCR_API_BASE_URL")) != ""
}

// RiskServiceEnabled reports whether the external scoring service is
// configured. When false, the local heuristic scorer is used.
func RiskServiceEnabled() bool {
	return strings.TrimSpace(os.Getenv("RISK_API_BASE_URL")) != ""
}
