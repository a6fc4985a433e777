package audit

import (
	"time"

	"github.com/rafaelortiz/tradeyard-backend/pkg/db/models"
)

// EntryView is the API shape of a single audit log entry.
type EntryView struct {
	ID               string    `json:"id"`
	OrderID          string    `json:"orderId"`
	ReturnID         *string   `json:"returnId,omitempty"`
	Machine          string    `json:"machine"`
	Action           string    `json:"action"`
	ActorRole        string    `json:"actorRole"`
	ActorID          *string   `json:"actorId,omitempty"`
	FromState        string    `json:"fromState"`
	ToState          string    `json:"toState"`
	Outcome          string    `json:"outcome"`
	Reason           *string   `json:"reason,omitempty"`
	RejectionCode    *string   `json:"rejectionCode,omitempty"`
	ResultingVersion int       `json:"resultingVersion"`
	CreatedAt        time.Time `json:"createdAt"`
}

// ListView pairs a page of entries with the cursor for the next one.
type ListView struct {
	Entries    []EntryView `json:"entries"`
	NextCursor string      `json:"nextCursor,omitempty"`
}

// NewListView converts stored entries into their API view.
func NewListView(entries []models.AuditLogEntry, nextCursor string) ListView {
	views := make([]EntryView, 0, len(entries))
	for i := range entries {
		views = append(views, newEntryView(&entries[i]))
	}
	return ListView{Entries: views, NextCursor: nextCursor}
}

func newEntryView(entry *models.AuditLogEntry) EntryView {
	view := EntryView{
		ID:               entry.ID.String(),
		OrderID:          entry.OrderID.String(),
		Machine:          entry.Machine.String(),
		Action:           entry.Action,
		ActorRole:        entry.ActorRole.String(),
		FromState:        entry.FromState,
		ToState:          entry.ToState,
		Outcome:          entry.Outcome.String(),
		Reason:           entry.Reason,
		RejectionCode:    entry.RejectionCode,
		ResultingVersion: entry.ResultingVersion,
		CreatedAt:        entry.CreatedAt,
	}
	if entry.ReturnID != nil {
		s := entry.ReturnID.String()
		view.ReturnID = &s
	}
	if entry.ActorID != nil {
		s := entry.ActorID.String()
		view.ActorID = &s
	}
	return view
}
