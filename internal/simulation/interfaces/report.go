package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"railfleet-sim/internal/observability/metrics"
	simulation "railfleet-sim/internal/simulation/domain"
	wagon "railfleet-sim/internal/wagon/domain"
)

const reportDateLayout = "2006-01-02"

// PDFRenderer renders wagon documents with gofpdf.
type PDFRenderer struct{}

// NewPDFRenderer constructs a renderer.
func NewPDFRenderer() *PDFRenderer {
	return &PDFRenderer{}
}

// WagonSheet renders the static attributes of a wagon.
func (r *PDFRenderer) WagonSheet(w wagon.Wagon, now time.Time) ([]byte, error) {
	content, err := BuildWagonSheetPDF(w, now)
	observeReport("wagon_sheet", err)
	return content, err
}

// FailureReport renders the failure summary and detail of a wagon run.
func (r *PDFRenderer) FailureReport(w wagon.Wagon, result *simulation.Result) ([]byte, error) {
	content, err := BuildFailureReportPDF(w, result)
	observeReport("failure_report", err)
	return content, err
}

func observeReport(kind string, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.IncReport(kind, result)
}

// BuildWagonSheetPDF renders a one-page information sheet.
func BuildWagonSheetPDF(w wagon.Wagon, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, "Wagon Information Sheet")
	pdf.Ln(12)

	rows := [][2]string{
		{"Wagon ID", w.ID},
		{"Type", w.Type.Name},
		{"Capacity (tons)", fmt.Sprintf("%d", w.Dimensions.CapacityTons)},
		{"Dimensions (m)", fmt.Sprintf("%.2f x %.2f x %.2f", w.Dimensions.LengthM, w.Dimensions.WidthM, w.Dimensions.HeightM)},
		{"Operator", w.Operator},
		{"Owner", w.Owner},
		{"Manufacture Date", w.ManufactureDate.Format(reportDateLayout)},
		{"Age (years)", fmt.Sprintf("%d", w.AgeYears(now))},
		{"Sensor Installation", w.SensorInstallDate.Format(reportDateLayout)},
	}
	pdf.SetFont("Arial", "", 10)
	for _, row := range rows {
		pdf.SetFont("Arial", "B", 10)
		pdf.CellFormat(60, 7, row[0], "1", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 10)
		pdf.CellFormat(110, 7, row[1], "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 8)
	pdf.Cell(0, 5, fmt.Sprintf("Generated: %s", now.UTC().Format(time.RFC3339)))

	return output(pdf)
}

// BuildFailureReportPDF renders per-component statistics and the failure log.
func BuildFailureReportPDF(w wagon.Wagon, result *simulation.Result) ([]byte, error) {
	if result == nil {
		return nil, fmt.Errorf("failure report %s: nil result", w.ID)
	}
	summary := result.Summary()
	timeline := result.Timeline()

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "B", 14)
	pdf.AddPage()

	pdf.Cell(0, 8, fmt.Sprintf("Failure Report: %s", w.ID))
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Type: %s", w.Type.Name))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", timeline.Start.Format(reportDateLayout), timeline.End.Format(reportDateLayout)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Failures: %d", summary.Failures))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Total Downtime (h): %.1f", summary.TotalDowntime.Hours()))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Availability: %.2f%%", summary.Availability*100))
	pdf.Ln(10)

	if summary.Failures == 0 {
		pdf.Cell(0, 6, "No failures recorded.")
		return output(pdf)
	}

	// Component summary
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(45, 6, "Component", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Failures", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Downtime (h)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "MTBF (days)", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, c := range summary.Components {
		mtbf := "n/a"
		if c.HasMTBF() {
			mtbf = fmt.Sprintf("%.1f", c.MTBFDays())
		}
		pdf.CellFormat(45, 6, string(c.Component), "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%d", c.Failures), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, fmt.Sprintf("%.1f", c.TotalDowntime.Hours()), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, mtbf, "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(50, 6, "Failure Start", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Repair Time", "1", 0, "C", false, 0, "")
	pdf.CellFormat(30, 6, "Downtime (h)", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Cause", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 9)
	for _, event := range result.Failures() {
		pdf.CellFormat(50, 6, event.Start.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(50, 6, event.RepairTime.Format("2006-01-02 15:04"), "1", 0, "C", false, 0, "")
		pdf.CellFormat(30, 6, fmt.Sprintf("%.1f", event.Downtime.Hours()), "1", 0, "R", false, 0, "")
		pdf.CellFormat(45, 6, event.Cause, "1", 0, "L", false, 0, "")
		pdf.Ln(-1)
	}

	return output(pdf)
}

func output(pdf *gofpdf.Fpdf) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
