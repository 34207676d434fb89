package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"railbook/internal/domain"
	"railbook/internal/domain/models"
	"railbook/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders the e-ticket PDF for a booking. Cancelled bookings
// never get a ticket.
type DocsService struct {
	Bookings  PNRReader
	RequestID string
	Loader    func(ctx context.Context, pnr string, userID int64) (models.Booking, error)
}

func (s DocsService) GenerateETicket(ctx context.Context, pnr string, userID int64) ([]byte, string, error) {
	b, err := s.loadBooking(ctx, pnr, userID)
	if err != nil {
		return nil, "", err
	}
	if b.Status == models.StatusCancelled {
		return nil, "", domain.ConflictError{Resource: "booking", Msg: "cancelled bookings have no e-ticket"}
	}
	utils.LogEvent(s.RequestID, "docs", "generate_eticket", "pnr="+b.PNR)
	return buildETicketPDF(b)
}

func (s DocsService) loadBooking(ctx context.Context, pnr string, userID int64) (models.Booking, error) {
	if s.Loader != nil {
		return s.Loader(ctx, pnr, userID)
	}
	pnr = utils.TrimOrEmpty(pnr)
	if !utils.ValidPNR(pnr) {
		return models.Booking{}, domain.ValidationError{Field: "pnr", Msg: "must be 10 digits"}
	}
	b, err := s.Bookings.FindByPNR(ctx, pnr)
	if err != nil {
		return models.Booking{}, err
	}
	// Tickets are private to the booking owner.
	if b.UserID != userID {
		return models.Booking{}, domain.NotFoundError{Resource: "booking"}
	}
	return b, nil
}

func buildETicketPDF(b models.Booking) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("PNR          : %s", b.PNR),
		fmt.Sprintf("Train        : %s %s", safe(b.TrainNumber, "-"), safe(b.TrainName, "-")),
		fmt.Sprintf("Class        : %s %s", safe(b.ClassCode, "-"), safe(b.ClassName, "")),
		fmt.Sprintf("Route        : %s (%s) -> %s (%s)",
			safe(b.FromName, "-"), safe(b.FromCode, "-"),
			safe(b.ToName, "-"), safe(b.ToCode, "-")),
		fmt.Sprintf("Journey Date : %s", safe(b.JourneyDate, "-")),
		fmt.Sprintf("Status       : %s", b.Status),
		fmt.Sprintf("Total Fare   : %s", utils.FormatINR(b.TotalFare)),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 12)
	pdf.Cell(0, 7, "Passengers:")
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "", 11)
	for i, p := range b.Passengers {
		seat := p.SeatNumber
		switch {
		case p.Status == models.StatusWaiting:
			seat = fmt.Sprintf("WL/%d", p.WaitlistPosition)
		case p.Status == models.StatusRAC:
			seat = "RAC"
		case seat == "":
			seat = "-"
		}
		pdf.Cell(0, 6, fmt.Sprintf("%d) %s (%d/%s)  Seat: %s  [%s]",
			i+1, safe(p.Name, "-"), p.Age, safe(p.Gender, "-"), seat, p.Status))
		pdf.Ln(6)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Carry a valid photo ID for every passenger. Waitlisted passengers may board only after confirmation.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ETICKET_%s_%s.pdf", b.PNR, safeFilenamePart(b.TrainNumber))
	return buf.Bytes(), filename, nil
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
