package earnings

import (
	"time"

	"github.com/angelmondragon/reelpass-backend/pkg/db/models"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/google/uuid"
)

type EntryDTO struct {
	ID              uuid.UUID              `json:"id"`
	EntryType       enums.EarningEntryType `json:"entryType"`
	SourceType      string                 `json:"sourceType"`
	SourceID        uuid.UUID              `json:"sourceId"`
	GrossMinor      int64                  `json:"grossMinor"`
	CommissionMinor int64                  `json:"commissionMinor"`
	NetMinor        int64                  `json:"netMinor"`
	Currency        enums.Currency         `json:"currency"`
	CreatedAt       time.Time              `json:"createdAt"`
}

type PageDTO struct {
	Entries      []EntryDTO `json:"entries"`
	BalanceMinor int64      `json:"balanceMinor"`
	NextCursor   string     `json:"nextCursor,omitempty"`
}

func ToPageDTO(r *ListResult) PageDTO {
	out := PageDTO{Entries: make([]EntryDTO, 0, len(r.Items)), BalanceMinor: r.BalanceMinor, NextCursor: r.Cursor}
	for _, e := range r.Items {
		out.Entries = append(out.Entries, toEntryDTO(e))
	}
	return out
}

func toEntryDTO(e models.VendorEarning) EntryDTO {
	return EntryDTO{
		ID:              e.ID,
		EntryType:       e.EntryType,
		SourceType:      e.SourceType,
		SourceID:        e.SourceID,
		GrossMinor:      e.GrossMinor,
		CommissionMinor: e.CommissionMinor,
		NetMinor:        e.NetMinor,
		Currency:        e.Currency,
		CreatedAt:       e.CreatedAt,
	}
}
