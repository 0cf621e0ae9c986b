package ingestion_test

import (
	"testing"
	"time"

	"PerpIndexer/internal/event"
	fp "PerpIndexer/internal/fixedpoint"
	"PerpIndexer/internal/ingestion"
)

func rawEvent(subject string, payload string) ingestion.RawEvent {
	return ingestion.RawEvent{
		Subject:   subject,
		Data:      []byte(payload),
		Timestamp: time.Now(),
		AckFunc:   func() {},
		NakFunc:   func() {},
	}
}

func TestKindFromSubject(t *testing.T) {
	tests := []struct {
		subject string
		want    event.Kind
		wantErr bool
	}{
		{"perp.exchange.Deposited", event.KindDeposited, false},
		{"perp.market.0xabc.Swapped", event.KindSwapped, false},
		{"perp.exchange.", "", true},
		{"noseparator", "", true},
	}
	for _, tt := range tests {
		got, err := ingestion.KindFromSubject(tt.subject)
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error", tt.subject)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: unexpected error: %v", tt.subject, err)
			continue
		}
		if got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.subject, got, tt.want)
		}
	}
}

func TestParseDeposited(t *testing.T) {
	payload := `{
		"meta": {"blockNumber": 120, "logIndex": 3, "txHash": "0xdead", "timestamp": 1700000000, "address": "0xexchange"},
		"trader": "0xt1",
		"amount": "1000000"
	}`

	ev, err := ingestion.ParseRaw(rawEvent("perp.exchange.Deposited", payload))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	dep, ok := ev.(*event.Deposited)
	if !ok {
		t.Fatalf("expected *event.Deposited, got %T", ev)
	}
	if dep.Trader != "0xt1" {
		t.Errorf("trader: got %s, want 0xt1", dep.Trader)
	}
	if !dep.Amount.Equal(fp.New(1_000_000)) {
		t.Errorf("amount: got %s, want 1000000", dep.Amount)
	}
	if dep.BlockNumber != 120 || dep.LogIndex != 3 {
		t.Errorf("meta: got block %d log %d", dep.BlockNumber, dep.LogIndex)
	}
	if dep.Kind() != event.KindDeposited {
		t.Errorf("kind: got %s", dep.Kind())
	}
}

func TestParseSwappedOnMarketSubject(t *testing.T) {
	payload := `{
		"meta": {"blockNumber": 9, "logIndex": 0, "txHash": "0xbeef", "timestamp": 1700000100, "address": "0xmkt"},
		"isBaseToQuote": true,
		"isExactInput": false,
		"amount": "500",
		"oppositeAmount": "499"
	}`

	ev, err := ingestion.ParseRaw(rawEvent("perp.market.0xmkt.Swapped", payload))
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	sw, ok := ev.(*event.Swapped)
	if !ok {
		t.Fatalf("expected *event.Swapped, got %T", ev)
	}
	if !sw.IsBaseToQuote || sw.IsExactInput {
		t.Errorf("flags: isBaseToQuote=%v isExactInput=%v", sw.IsBaseToQuote, sw.IsExactInput)
	}
	if !sw.Amount.Equal(fp.New(500)) {
		t.Errorf("amount: got %s, want 500", sw.Amount)
	}
	if sw.EventMeta().Address != "0xmkt" {
		t.Errorf("address: got %s, want 0xmkt", sw.EventMeta().Address)
	}
}

func TestParseRejectsUnknownKind(t *testing.T) {
	_, err := ingestion.ParseRaw(rawEvent("perp.exchange.Bogus", `{}`))
	if err == nil {
		t.Fatal("expected error for unknown event kind")
	}
}

func TestParseRejectsInvalidMeta(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"empty txHash", `{"meta": {"blockNumber": 1, "logIndex": 0, "txHash": "", "timestamp": 1}, "trader": "0xt", "amount": "1"}`},
		{"negative block", `{"meta": {"blockNumber": -1, "logIndex": 0, "txHash": "0x1", "timestamp": 1}, "trader": "0xt", "amount": "1"}`},
		{"log index out of range", `{"meta": {"blockNumber": 1, "logIndex": 10000, "txHash": "0x1", "timestamp": 1}, "trader": "0xt", "amount": "1"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ingestion.ParseRaw(rawEvent("perp.exchange.Deposited", tt.payload)); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	_, err := ingestion.ParseRaw(rawEvent("perp.exchange.Withdrawn", `{"meta": `))
	if err == nil {
		t.Fatal("expected json error")
	}
}
