// Package cardrender renders farmer ID card artifacts: the QR PNG and the
// two-sided credit-card-size PDF.
package cardrender

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/agrimanage/farmreg/internal/core"
	apperrors "github.com/agrimanage/farmreg/internal/errors"
)

// ISO/IEC 7810 ID-1 card size in millimetres.
const (
	cardWidth  = 85.6
	cardHeight = 53.98
)

const qrPNGSize = 512

// Renderer implements core.CardRenderer.
type Renderer struct {
	issuer string
}

type Options struct {
	// Issuer is printed on the card back as the issuing authority line.
	Issuer string
}

func New(opts Options) *Renderer {
	issuer := opts.Issuer
	if issuer == "" {
		issuer = "Ministry of Agriculture"
	}
	return &Renderer{issuer: issuer}
}

func (r *Renderer) RenderQR(payload []byte) ([]byte, error) {
	png, err := qrcode.Encode(string(payload), qrcode.Medium, qrPNGSize)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "encode qr code")
	}
	return png, nil
}

// RenderCard produces a two-page PDF: page one carries the photo and
// demographics, page two the QR code, address block and issuer footer.
func (r *Renderer) RenderCard(input core.RenderCardInput) ([]byte, error) {
	if input.Farmer == nil {
		return nil, apperrors.Validation("farmer is required")
	}

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "mm",
		Size:    gofpdf.SizeType{Wd: cardWidth, Ht: cardHeight},
	})
	pdf.SetMargins(4, 4, 4)
	pdf.SetAutoPageBreak(false, 0)

	r.drawFront(pdf, input)
	r.drawBack(pdf, input)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "render card pdf")
	}
	return buf.Bytes(), nil
}

func (r *Renderer) drawFront(pdf *gofpdf.Fpdf, input core.RenderCardInput) {
	f := input.Farmer
	pdf.AddPage()

	// Header band.
	pdf.SetFillColor(27, 94, 32)
	pdf.Rect(0, 0, cardWidth, 9, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 7)
	pdf.SetXY(4, 2)
	pdf.CellFormat(cardWidth-8, 5, "FARMER IDENTITY CARD", "", 0, "C", false, 0, "")

	// Photo, or a bordered placeholder when none is on file.
	const photoX, photoY, photoW, photoH = 4.0, 12.0, 22.0, 28.0
	if len(input.Photo) > 0 {
		name := fmt.Sprintf("photo-%s", f.FarmerID)
		pdf.RegisterImageOptionsReader(name,
			gofpdf.ImageOptions{ImageType: "JPG"}, bytes.NewReader(input.Photo))
		pdf.ImageOptions(name, photoX, photoY, photoW, photoH, false,
			gofpdf.ImageOptions{ImageType: "JPG"}, 0, "")
	} else {
		pdf.SetDrawColor(150, 150, 150)
		pdf.Rect(photoX, photoY, photoW, photoH, "D")
		pdf.SetTextColor(150, 150, 150)
		pdf.SetFont("Helvetica", "", 5)
		pdf.SetXY(photoX, photoY+photoH/2-2)
		pdf.CellFormat(photoW, 4, "NO PHOTO", "", 0, "C", false, 0, "")
	}

	pdf.SetTextColor(0, 0, 0)
	labelValue := func(y float64, label, value string) {
		pdf.SetXY(29, y)
		pdf.SetFont("Helvetica", "", 5)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(14, 3, label, "", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 6)
		pdf.SetTextColor(0, 0, 0)
		pdf.CellFormat(cardWidth-47, 3, value, "", 0, "L", false, 0, "")
	}
	labelValue(12, "NAME", strings.ToUpper(f.FullName()))
	labelValue(17, "FARMER ID", f.FarmerID)
	labelValue(22, "NRC", f.NRC)
	labelValue(27, "DOB", f.DateOfBirth)
	labelValue(32, "GENDER", f.Gender)
	labelValue(37, "PHONE", f.Phone)

	pdf.SetFont("Helvetica", "I", 4.5)
	pdf.SetTextColor(100, 100, 100)
	pdf.SetXY(4, cardHeight-8)
	pdf.CellFormat(cardWidth-8, 3,
		"Issued "+input.IssuedAt.Format("2006-01-02"), "", 0, "L", false, 0, "")
}

func (r *Renderer) drawBack(pdf *gofpdf.Fpdf, input core.RenderCardInput) {
	f := input.Farmer
	pdf.AddPage()

	const qrSide = 30.0
	if len(input.QRPNG) > 0 {
		name := fmt.Sprintf("qr-%s", f.FarmerID)
		pdf.RegisterImageOptionsReader(name,
			gofpdf.ImageOptions{ImageType: "PNG"}, bytes.NewReader(input.QRPNG))
		pdf.ImageOptions(name, 4, 6, qrSide, qrSide, false,
			gofpdf.ImageOptions{ImageType: "PNG"}, 0, "")
	}

	pdf.SetXY(38, 8)
	pdf.SetFont("Helvetica", "B", 6)
	pdf.SetTextColor(0, 0, 0)
	pdf.CellFormat(cardWidth-42, 3, "ADDRESS", "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 5.5)
	for _, line := range []string{f.Village, f.District, f.Province} {
		if line == "" {
			continue
		}
		pdf.SetX(38)
		pdf.CellFormat(cardWidth-42, 3, line, "", 2, "L", false, 0, "")
	}

	if f.CreatedBy != "" {
		pdf.Ln(2)
		pdf.SetFont("Helvetica", "", 5)
		pdf.SetTextColor(100, 100, 100)
		pdf.SetX(38)
		pdf.CellFormat(cardWidth-42, 3, "Registered by "+f.CreatedBy, "", 2, "L", false, 0, "")
	}

	pdf.SetDrawColor(27, 94, 32)
	pdf.Line(4, cardHeight-10, cardWidth-4, cardHeight-10)
	pdf.SetFont("Helvetica", "I", 4.5)
	pdf.SetXY(4, cardHeight-8)
	pdf.MultiCell(cardWidth-8, 2.5,
		r.issuer+". This card remains property of the issuer. "+
			"Scan the QR code to verify authenticity.", "", "C", false)
}
