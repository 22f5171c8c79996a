package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"cashflow/internal/core"
)

// SyncRequestMessage asks the worker to reconcile a window of provider
// transactions. Either an explicit start/end pair or a trailing day count;
// the worker fetches everything itself, so the message stays tiny.
type SyncRequestMessage struct {
	Days      int       `json:"days,omitempty"`
	Start     string    `json:"start,omitempty"`
	End       string    `json:"end,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSyncRequestMessage creates a trailing-window sync request.
func NewSyncRequestMessage(days int) *SyncRequestMessage {
	return &SyncRequestMessage{
		Days:      days,
		Timestamp: time.Now(),
	}
}

// NewSyncRangeMessage creates an explicit-range sync request.
func NewSyncRangeMessage(start, end core.Date) *SyncRequestMessage {
	return &SyncRequestMessage{
		Start:     start.String(),
		End:       end.String(),
		Timestamp: time.Now(),
	}
}

// Window resolves the message to a concrete [from, to] date range. An
// explicit start/end pair wins over the day count; an empty message means
// "today only".
func (m *SyncRequestMessage) Window(today core.Date) (from, to core.Date, err error) {
	if m.Start != "" || m.End != "" {
		from, err = core.ParseDate(m.Start)
		if err != nil {
			return from, to, fmt.Errorf("sync start %q: %w", m.Start, err)
		}
		to, err = core.ParseDate(m.End)
		if err != nil {
			return from, to, fmt.Errorf("sync end %q: %w", m.End, err)
		}
		if to.Before(from.Time) {
			return from, to, fmt.Errorf("sync range %s..%s is inverted", m.Start, m.End)
		}
		return from, to, nil
	}

	days := m.Days
	if days < 0 {
		days = 0
	}
	return core.DateOf(today.AddDate(0, 0, -days)), today, nil
}

func (m *SyncRequestMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SyncRequestMessageFromJSON(data []byte) (*SyncRequestMessage, error) {
	var msg SyncRequestMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
