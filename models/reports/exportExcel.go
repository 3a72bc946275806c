package reports

import (
	"context"
	"fmt"
	"net/http"

	"bitbucket.org/mmdatafocus/fundtracker_backend/fraud"
	"bitbucket.org/mmdatafocus/fundtracker_backend/models"
	"bitbucket.org/mmdatafocus/fundtracker_backend/utils"
	"github.com/xuri/excelize/v2"
)

// ExportHighRiskExcel streams the high-risk invoice population as an xlsx
// download for auditors.
func ExportHighRiskExcel(ctx context.Context, w http.ResponseWriter, minRisk int) {
	invoices, err := models.ListHighRiskInvoices(ctx, minRisk)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	f := excelize.NewFile()
	sheetName := "Sheet1"
	_, err = f.NewSheet(sheetName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Add headers
	f.SetCellValue(sheetName, "A1", "InvoiceNumber")
	f.SetCellValue(sheetName, "B1", "Vendor")
	f.SetCellValue(sheetName, "C1", "Amount")
	f.SetCellValue(sheetName, "D1", "RiskScore")
	f.SetCellValue(sheetName, "E1", "Badge")
	f.SetCellValue(sheetName, "F1", "Category")
	f.SetCellValue(sheetName, "G1", "ReviewStatus")
	f.SetCellValue(sheetName, "H1", "UploadedAt")

	// Add data
	for i, inv := range invoices {
		var tag *fraud.Category
		if inv.FraudCategory != nil {
			c := fraud.Category(*inv.FraudCategory)
			tag = &c
		}
		_ = tag
		row := fmt.Sprint(i + 2)
		f.SetCellValue(sheetName, "A"+row, inv.InvoiceNumber)
		f.SetCellValue(sheetName, "B"+row, inv.VendorName)
		f.SetCellValue(sheetName, "C"+row, inv.Amount.String())
		f.SetCellValue(sheetName, "D"+row, inv.RiskScore)
		f.SetCellValue(sheetName, "E"+row, fraud.BadgeLabel(inv.RiskScore))
		f.SetCellValue(sheetName, "F"+row, utils.DereferencePtr(inv.FraudCategory, ""))
		f.SetCellValue(sheetName, "G"+row, fraud.StatusLabel(inv.RiskScore))
		f.SetCellValue(sheetName, "H"+row, inv.CreatedAt.Format("2006-01-02 15:04"))
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename=high_risk_invoices.xlsx")
	if err := f.Write(w); err != nil {
		http.Error(w, "Failed to write file", http.StatusInternalServerError)
	}
}
