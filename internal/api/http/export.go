package apihttp

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"lcatricity/internal/apperr"
	impactapp "lcatricity/internal/impact/application"
	impact "lcatricity/internal/impact/domain"
)

const (
	formatJSON = "json"
	formatCSV  = "csv"
	formatXLSX = "xlsx"
	formatPDF  = "pdf"
)

var exportContentTypes = map[string]string{
	formatCSV:  "text/csv; charset=utf-8",
	formatXLSX: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	formatPDF:  "application/pdf",
}

var impactColumns = []string{
	"RegionCode",
	"DateStamp",
	"GenerationTypeId",
	"AggregatedGeneration",
	"GenerationUnit",
	"ImpactFactorId",
	"ImpactCategoryId",
	"ImpactCategoryName",
	"ImpactUnit",
	"ReferenceYear",
	"ImpactValue",
	"PerUnit",
	"ConversionFactor",
	"AggregatedGenerationConverted",
	"EnvironmentalImpact",
}

func parseFormat(value string) (string, error) {
	switch strings.ToLower(value) {
	case "", formatJSON:
		return formatJSON, nil
	case formatCSV:
		return formatCSV, nil
	case formatXLSX:
		return formatXLSX, nil
	case formatPDF:
		return formatPDF, nil
	default:
		return "", apperr.Validation("format must be one of json, csv, xlsx, pdf, got %q", value)
	}
}

func writeExport(w http.ResponseWriter, format string, req impactapp.Request, rows []impact.Row) error {
	var (
		body []byte
		err  error
	)
	switch format {
	case formatCSV:
		body, err = BuildImpactCSV(rows)
	case formatXLSX:
		body, err = BuildImpactXLSX(req, rows)
	case formatPDF:
		body, err = BuildImpactPDF(req, rows)
	default:
		return apperr.Validation("unsupported format %q", format)
	}
	if err != nil {
		return fmt.Errorf("build %s export: %w", format, err)
	}
	filename := fmt.Sprintf("impact_%s_%d_%s.%s", req.RegionCode, req.ImpactCategoryID, req.DateStart, format)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	writeBody(w, exportContentTypes[format], body)
	return nil
}

func impactRecord(row impact.Row) []string {
	return []string{
		row.RegionCode,
		row.DateStamp.UTC().Format(time.RFC3339),
		strconv.FormatInt(row.GenerationTypeID, 10),
		formatFloat(row.AggregatedGeneration),
		row.GenerationUnit,
		strconv.FormatInt(row.ImpactFactorID, 10),
		strconv.FormatInt(row.ImpactCategoryID, 10),
		row.ImpactCategoryName,
		row.ImpactUnit,
		strconv.Itoa(row.ReferenceYear),
		formatFloat(row.ImpactValue),
		row.PerUnit,
		formatFloat(row.ConversionFactor),
		formatFloat(row.AggregatedGenerationConverted),
		formatFloat(row.EnvironmentalImpact),
	}
}

// BuildImpactCSV renders impact rows as CSV with a header line.
func BuildImpactCSV(rows []impact.Row) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)
	if err := writer.Write(impactColumns); err != nil {
		return nil, err
	}
	for _, row := range rows {
		if err := writer.Write(impactRecord(row)); err != nil {
			return nil, err
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildImpactXLSX renders a summary sheet and a rows sheet.
func BuildImpactXLSX(req impactapp.Request, rows []impact.Row) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()
	summarySheet := "summary"
	rowsSheet := "rows"
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(rowsSheet); err != nil {
		return nil, err
	}

	category, unit := "", ""
	if len(rows) > 0 {
		category, unit = rows[0].ImpactCategoryName, rows[0].ImpactUnit
	}
	_ = f.SetCellValue(summarySheet, "A1", "Environmental impact of electricity generation")
	_ = f.SetCellValue(summarySheet, "A3", "Region")
	_ = f.SetCellValue(summarySheet, "B3", req.RegionCode)
	_ = f.SetCellValue(summarySheet, "A4", "Period start")
	_ = f.SetCellValue(summarySheet, "B4", req.DateStart)
	_ = f.SetCellValue(summarySheet, "A5", "Period end")
	_ = f.SetCellValue(summarySheet, "B5", req.DateEnd)
	_ = f.SetCellValue(summarySheet, "A6", "Impact category")
	_ = f.SetCellValue(summarySheet, "B6", category)
	_ = f.SetCellValue(summarySheet, "A7", "Total impact ("+unit+")")
	_ = f.SetCellValue(summarySheet, "B7", totalImpact(rows))
	_ = f.SetCellValue(summarySheet, "A8", "Rows")
	_ = f.SetCellValue(summarySheet, "B8", len(rows))

	for i, name := range impactColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		_ = f.SetCellValue(rowsSheet, cell, name)
	}
	for i, row := range rows {
		values := []any{
			row.RegionCode,
			row.DateStamp.UTC().Format(time.RFC3339),
			row.GenerationTypeID,
			row.AggregatedGeneration,
			row.GenerationUnit,
			row.ImpactFactorID,
			row.ImpactCategoryID,
			row.ImpactCategoryName,
			row.ImpactUnit,
			row.ReferenceYear,
			row.ImpactValue,
			row.PerUnit,
			row.ConversionFactor,
			row.AggregatedGenerationConverted,
			row.EnvironmentalImpact,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(rowsSheet, cell, &values); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildImpactPDF renders a minimal PDF report with one table line per row.
func BuildImpactPDF(req impactapp.Request, rows []impact.Row) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	category, unit := "", ""
	if len(rows) > 0 {
		category, unit = rows[0].ImpactCategoryName, rows[0].ImpactUnit
	}
	pdf.Cell(0, 8, "Environmental impact of electricity generation")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Region: %s", req.RegionCode))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s - %s", req.DateStart, req.DateEnd))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Impact category: %s", category))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total impact (%s): %.3f", unit, totalImpact(rows)))
	pdf.Ln(8)

	pdf.SetFont("Arial", "B", 9)
	pdf.CellFormat(45, 6, "Timestamp", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Type", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Generation", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Converted", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Factor year", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Impact", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, row := range rows {
		pdf.CellFormat(45, 6, row.DateStamp.UTC().Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(25, 6, strconv.FormatInt(row.GenerationTypeID, 10), "1", 0, "C", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.3f %s", row.AggregatedGeneration, row.GenerationUnit), "1", 0, "R", false, 0, "")
		pdf.CellFormat(40, 6, fmt.Sprintf("%.3f %s", row.AggregatedGenerationConverted, row.PerUnit), "1", 0, "R", false, 0, "")
		pdf.CellFormat(30, 6, strconv.Itoa(row.ReferenceYear), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, fmt.Sprintf("%.3f", row.EnvironmentalImpact), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func totalImpact(rows []impact.Row) float64 {
	var total float64
	for _, row := range rows {
		total += row.EnvironmentalImpact
	}
	return total
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
