package main

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/fundtracker_backend/ai"
	"bitbucket.org/mmdatafocus/fundtracker_backend/config"
	"bitbucket.org/mmdatafocus/fundtracker_backend/fraud"
	"bitbucket.org/mmdatafocus/fundtracker_backend/models"
	"bitbucket.org/mmdatafocus/fundtracker_backend/ocr"
	"bitbucket.org/mmdatafocus/fundtracker_backend/utils"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

var tracer trace.Tracer = otel.Tracer("fundtracker-backend")

const maxUploadSizeBytes int64 = 10 * 1024 * 1024

var documentMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/png":       true,
}

type aiRiskResponse struct {
	Score      int    `json:"score"`
	Level      string `json:"level"`
	FraudScore int    `json:"fraud_score"`
}

type uploadInvoiceResponse struct {
	Invoice      *models.Invoice     `json:"invoice"`
	Verification models.Verification `json:"verification"`
	OCRFields    map[string]string   `json:"ocr_fields"`
	OCRTable     [][]string          `json:"ocr_table"`
	AIRisk       aiRiskResponse      `json:"ai_risk"`
}

func invoiceDetailResponse(invoice *models.Invoice) gin.H {
	var table [][]string
	if len(invoice.OCRTable) > 0 {
		_ = json.Unmarshal(invoice.OCRTable, &table)
	}
	return gin.H{
		"invoice":      invoice,
		"verification": invoice.VerificationView(),
		"ocr_fields":   invoice.OCRFieldsView(),
		"ocr_table":    table,
		"ai_risk": aiRiskResponse{
			Score:      invoice.RiskScore,
			Level:      string(invoice.RiskLevel),
			FraudScore: invoice.FraudScore,
		},
	}
}

// uploadInvoiceHandler runs the full intake pipeline: store the document,
// extract OCR fields, score the risk, then persist everything in one
// transaction. Extraction failure is not fatal; the invoice is stored with
// absent OCR fields, which reconciliation reports as non-matches.
func uploadInvoiceHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := config.GetLogger()
		ctx, span := tracer.Start(c.Request.Context(), "invoice.intake")
		defer span.End()

		projectId, err := strconv.Atoi(c.PostForm("project_id"))
		if err != nil || projectId <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "project_id is required"})
			return
		}
		invoiceNumber := strings.TrimSpace(c.PostForm("invoice_number"))
		vendorName := strings.TrimSpace(c.PostForm("vendor_name"))
		if invoiceNumber == "" || vendorName == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invoice_number and vendor_name are required"})
			return
		}
		amount, err := decimal.NewFromString(strings.TrimSpace(c.PostForm("amount")))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a decimal number"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invoice document is required"})
			return
		}
		if fileHeader.Size > maxUploadSizeBytes {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file size exceeds 10MB limit"})
			return
		}
		mimeType := fileHeader.Header.Get("Content-Type")
		if mimeType != "" && !documentMimeTypes[mimeType] {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported document type"})
			return
		}

		file, err := fileHeader.Open()
		if err != nil {
			config.LogError(logger, "uploads.go", "uploadInvoiceHandler", "open upload", fileHeader.Filename, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read document"})
			return
		}
		data, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			config.LogError(logger, "uploads.go", "uploadInvoiceHandler", "read upload", fileHeader.Filename, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read document"})
			return
		}

		documentPath, err := utils.SaveInvoiceDocument(ctx, fileHeader.Filename, data)
		if err != nil {
			config.LogError(logger, "uploads.go", "uploadInvoiceHandler", "store document", fileHeader.Filename, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store document"})
			return
		}

		var ocrFields fraud.OCRFields
		var ocrTable [][]string
		if config.OCRServiceEnabled() {
			prepared := ocr.PreprocessDocument(data)
			ocrFields, ocrTable, err = ocr.NewExtractor().Extract(ctx, fileHeader.Filename, prepared)
			if err != nil {
				// Degrade to absent fields rather than rejecting the upload.
				config.LogError(logger, "uploads.go", "uploadInvoiceHandler", "ocr extract", fileHeader.Filename, err)
				ocrFields = fraud.OCRFields{}
				ocrTable = nil
			}
		}

		assessment, err := ai.NewScorer().Score(ctx, ai.ScoreInput{
			ProjectId:     projectId,
			InvoiceNumber: invoiceNumber,
			VendorName:    vendorName,
			Amount:        amount,
			OCR:           ocrFields,
		})
		if err != nil {
			config.LogError(logger, "uploads.go", "uploadInvoiceHandler", "risk score", invoiceNumber, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": "risk scoring unavailable"})
			return
		}

		var tableJSON []byte
		if len(ocrTable) > 0 {
			tableJSON, _ = json.Marshal(ocrTable)
		}

		input := models.NewInvoice{
			ProjectId:     projectId,
			InvoiceNumber: invoiceNumber,
			VendorName:    vendorName,
			Amount:        amount,
		}
		invoice, err := models.CreateInvoice(ctx, &input, documentPath, tableJSON, ocrFields, models.RiskAssessment{
			Score:                    assessment.Score,
			Level:                    models.RiskLevel(assessment.Level),
			FraudScore:               assessment.FraudScore,
			Category:                 assessment.Category,
			AmountMismatchPercentage: assessment.AmountMismatchPercentage,
		})
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusCreated, uploadInvoiceResponse{
			Invoice:      invoice,
			Verification: invoice.VerificationView(),
			OCRFields:    invoice.OCRFieldsView(),
			OCRTable:     ocrTable,
			AIRisk: aiRiskResponse{
				Score:      invoice.RiskScore,
				Level:      string(invoice.RiskLevel),
				FraudScore: invoice.FraudScore,
			},
		})
	}
}
