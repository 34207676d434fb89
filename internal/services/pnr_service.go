package services

import (
	"context"

	"railbook/internal/domain"
	"railbook/internal/domain/models"
	"railbook/internal/utils"
)

// PNRReader is the lookup slice of the booking store.
type PNRReader interface {
	FindByPNR(ctx context.Context, pnr string) (models.Booking, error)
}

// PNRService is the PNR status read path. Format validation happens before
// any storage access; the read itself always reflects the latest committed
// state since users check status right after waitlist promotions.
type PNRService struct {
	Store     PNRReader
	RequestID string
}

func (s PNRService) Lookup(ctx context.Context, pnr string) (models.Booking, error) {
	pnr = utils.TrimOrEmpty(pnr)
	if !utils.ValidPNR(pnr) {
		return models.Booking{}, domain.ValidationError{Field: "pnr", Msg: "must be exactly 10 digits"}
	}
	return s.Store.FindByPNR(ctx, pnr)
}
