package amqp

import (
	"testing"

	"cashflow/internal/core"
)

func TestSyncRequestWindow(t *testing.T) {
	today := core.NewDate(2026, 3, 15)

	tests := []struct {
		name     string
		msg      SyncRequestMessage
		wantFrom string
		wantTo   string
		wantErr  bool
	}{
		{
			name:     "trailing days",
			msg:      SyncRequestMessage{Days: 7},
			wantFrom: "2026-03-08",
			wantTo:   "2026-03-15",
		},
		{
			name:     "empty message means today",
			msg:      SyncRequestMessage{},
			wantFrom: "2026-03-15",
			wantTo:   "2026-03-15",
		},
		{
			name:     "explicit range wins over days",
			msg:      SyncRequestMessage{Days: 30, Start: "2026-01-01", End: "2026-01-31"},
			wantFrom: "2026-01-01",
			wantTo:   "2026-01-31",
		},
		{
			name:     "negative days clamp to today",
			msg:      SyncRequestMessage{Days: -3},
			wantFrom: "2026-03-15",
			wantTo:   "2026-03-15",
		},
		{
			name:    "start without end",
			msg:     SyncRequestMessage{Start: "2026-01-01"},
			wantErr: true,
		},
		{
			name:    "inverted range",
			msg:     SyncRequestMessage{Start: "2026-02-01", End: "2026-01-01"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			from, to, err := tt.msg.Window(today)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("window: %v", err)
			}
			if from.String() != tt.wantFrom || to.String() != tt.wantTo {
				t.Errorf("window = %s..%s, want %s..%s", from, to, tt.wantFrom, tt.wantTo)
			}
		})
	}
}

func TestSyncRequestRoundTrip(t *testing.T) {
	msg := NewSyncRangeMessage(core.NewDate(2026, 1, 1), core.NewDate(2026, 1, 31))
	body, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := SyncRequestMessageFromJSON(body)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Start != "2026-01-01" || got.End != "2026-01-31" {
		t.Errorf("round trip lost the range: %+v", got)
	}

	if _, err := SyncRequestMessageFromJSON([]byte("{ nope")); err == nil {
		t.Error("malformed body must fail")
	}
}
