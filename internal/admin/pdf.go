package admin

import (
	"bytes"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/fossuok/qr-event-backend/internal/models"
)

// BuildAttendanceReport renders the participant attendance table as a
// PDF: name, email, role and a Present/Absent status derived from
// attended_at.
func BuildAttendanceReport(users []models.User, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	// Header
	pdf.SetFont("Arial", "B", 20)
	pdf.SetTextColor(75, 46, 131)
	pdf.CellFormat(0, 15, "Attendance Report", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetTextColor(100, 100, 100)
	pdf.CellFormat(0, 5, "Generated on: "+generatedAt.Format("2006-01-02 15:04:05")+" UTC", "", 1, "C", false, 0, "")
	pdf.Ln(10)

	// Table header
	pdf.SetFont("Arial", "B", 12)
	pdf.SetFillColor(75, 46, 131)
	pdf.SetTextColor(255, 255, 255)
	cols := []struct {
		name  string
		width float64
	}{
		{"Name", 60},
		{"Email", 70},
		{"Role", 30},
		{"Status", 30},
	}
	for _, col := range cols {
		pdf.CellFormat(col.width, 10, col.name, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	// Rows
	pdf.SetTextColor(0, 0, 0)
	fill := false
	for _, u := range users {
		pdf.SetFillColor(245, 245, 245)

		present := u.AttendedAt != nil
		status := "Absent"
		if present {
			status = "Present"
		}

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(60, 8, truncate(u.Name, 30), "1", 0, "", fill, 0, "")
		pdf.CellFormat(70, 8, truncate(u.Email, 35), "1", 0, "", fill, 0, "")
		pdf.CellFormat(30, 8, string(u.Role), "1", 0, "", fill, 0, "")

		if present {
			pdf.SetFont("Arial", "B", 10)
			pdf.SetTextColor(40, 167, 69)
		} else {
			pdf.SetTextColor(220, 53, 69)
		}
		pdf.CellFormat(30, 8, status, "1", 0, "C", fill, 0, "")

		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(-1)
		fill = !fill
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
