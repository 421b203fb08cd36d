package payouts

import (
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/google/uuid"
)

type WithdrawalDTO struct {
	ID            uuid.UUID              `json:"id"`
	VendorID      uuid.UUID              `json:"vendorId"`
	AmountMinor   int64                  `json:"amountMinor"`
	Currency      enums.Currency         `json:"currency"`
	Status        enums.WithdrawalStatus `json:"status"`
	Provider      enums.PayoutProvider   `json:"provider"`
	TransferID    string                 `json:"transferId"`
	PayeeStage    enums.PayeeStage       `json:"payeeStage"`
	FailureReason *string                `json:"failureReason,omitempty"`
	HoldReleased  bool                   `json:"holdReleased"`
	RequestedAt   time.Time              `json:"requestedAt"`
	ProcessedAt   *time.Time             `json:"processedAt,omitempty"`
}

func ToDTO(w *models.VendorWithdrawal) WithdrawalDTO {
	return WithdrawalDTO{
		ID:            w.ID,
		VendorID:      w.VendorID,
		AmountMinor:   w.AmountMinor,
		Currency:      w.Currency,
		Status:        w.Status,
		Provider:      w.Provider,
		TransferID:    w.TransferID,
		PayeeStage:    w.PayeeStage,
		FailureReason: w.FailureReason,
		HoldReleased:  w.HoldReleased,
		RequestedAt:   w.RequestedAt,
		ProcessedAt:   w.ProcessedAt,
	}
}

func ToListDTO(rows []models.VendorWithdrawal) []WithdrawalDTO {
	out := make([]WithdrawalDTO, 0, len(rows))
	for i := range rows {
		out = append(out, ToDTO(&rows[i]))
	}
	return out
}
