// Package certpdf renders certificates to PDF and signs their verification links.
package certpdf

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-pdf/fpdf"

	"meetdesk/internal/domain/certificate"
)

// Branding is the per-meet artwork and signatory printed on every certificate.
type Branding struct {
	MeetName        string
	InstitutionName string
	SignatoryName   string
	SignatoryTitle  string
	Template        []byte // full-page background, PNG or JPEG; optional
	Signature       []byte // PNG or JPEG; optional
}

// Render writes a one-page A4 certificate.
// PRE: f.Validate() == nil and l.Validate() == nil
func Render(w io.Writer, f certificate.Fields, l certificate.Layout, b Branding) error {
	pdf := fpdf.New(l.Orientation, "mm", "A4", "")
	pdf.SetTitle(f.Title(), true)
	pdf.SetAuthor(b.InstitutionName, true)
	pdf.SetCreationDate(f.Date)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	if len(b.Template) > 0 {
		if err := placeImage(pdf, "template", b.Template, 0, 0, pageW, pageH); err != nil {
			return err
		}
	} else {
		ar, ag, ab := certificate.ParseColor(l.AccentColor)
		pdf.SetDrawColor(ar, ag, ab)
		pdf.SetLineWidth(2)
		pdf.Rect(8, 8, pageW-16, pageH-16, "D")
		pdf.SetLineWidth(0.5)
		pdf.Rect(12, 12, pageW-24, pageH-24, "D")
	}

	tr0, tg0, tb0 := certificate.ParseColor(l.TextColor)
	ar, ag, ab := certificate.ParseColor(l.AccentColor)
	line := func(y float64, style string, size float64, r, g, bl int, text string) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetTextColor(r, g, bl)
		pdf.SetXY(0, y)
		pdf.CellFormat(pageW, size*0.5, tr(text), "", 0, "C", false, 0, "")
	}

	if b.InstitutionName != "" {
		line(l.TitleY-18, "", l.BodyFontSize, tr0, tg0, tb0, b.InstitutionName)
	}
	line(l.TitleY, "B", l.TitleFontSize, ar, ag, ab, f.Title())
	line(l.NameY-14, "I", l.BodyFontSize, tr0, tg0, tb0, "This is to certify that")
	line(l.NameY, "B", l.NameFontSize, tr0, tg0, tb0, f.ParticipantName)
	if f.RegisterNo != "" || f.Department != "" {
		line(l.NameY+12, "", l.BodyFontSize-2, tr0, tg0, tb0, joinNonEmpty(" | ", f.RegisterNo, f.Department))
	}
	line(l.BodyY, "", l.BodyFontSize, tr0, tg0, tb0, f.Body())

	footerSize := l.BodyFontSize - 3
	if !f.Date.IsZero() {
		pdf.SetFont("Helvetica", "", footerSize)
		pdf.SetXY(25, l.FooterY)
		pdf.CellFormat(80, 6, tr("Date: "+f.Date.Format("2 January 2006")), "", 0, "L", false, 0, "")
	}
	sigX := pageW - 95
	if len(b.Signature) > 0 {
		if err := placeImage(pdf, "signature", b.Signature, sigX+10, l.FooterY-22, 50, 0); err != nil {
			return err
		}
	}
	if b.SignatoryName != "" {
		pdf.SetDrawColor(tr0, tg0, tb0)
		pdf.Line(sigX, l.FooterY, sigX+70, l.FooterY)
		pdf.SetFont("Helvetica", "B", footerSize)
		pdf.SetXY(sigX, l.FooterY+1)
		pdf.CellFormat(70, 6, tr(b.SignatoryName), "", 2, "C", false, 0, "")
		pdf.SetFont("Helvetica", "", footerSize)
		pdf.CellFormat(70, 6, tr(b.SignatoryTitle), "", 0, "C", false, 0, "")
	}

	if f.Serial != "" {
		pdf.SetFont("Helvetica", "", 8)
		pdf.SetTextColor(tr0, tg0, tb0)
		pdf.SetXY(15, pageH-16)
		pdf.CellFormat(pageW-30, 4, tr("Serial "+f.Serial), "", 2, "L", false, 0, "")
		if f.VerifyURL != "" {
			pdf.SetTextColor(ar, ag, ab)
			pdf.CellFormat(pageW-30, 4, "Verify: "+truncate(f.VerifyURL, 110), "", 0, "L", false, 0, f.VerifyURL)
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render certificate: %w", err)
	}
	return pdf.Output(w)
}

// RenderBytes is Render into memory.
func RenderBytes(f certificate.Fields, l certificate.Layout, b Branding) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(&buf, f, l, b); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func placeImage(pdf *fpdf.Fpdf, name string, data []byte, x, y, w, h float64) error {
	var imgType string
	switch http.DetectContentType(data) {
	case "image/png":
		imgType = "PNG"
	case "image/jpeg":
		imgType = "JPG"
	default:
		return fmt.Errorf("%s image must be PNG or JPEG", name)
	}
	opts := fpdf.ImageOptions{ImageType: imgType}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
	pdf.ImageOptions(name, x, y, w, h, false, opts, 0, "")
	return pdf.Error()
}

func joinNonEmpty(sep string, parts ...string) string {
	out := ""
	for _, p := range parts {
		if p == "" {
			continue
		}
		if out != "" {
			out += sep
		}
		out += p
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

// PreviewDate is the date printed on previews that do not specify one.
func PreviewDate(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
}
