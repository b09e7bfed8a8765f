package storage

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"assetpool/internal/model"
)

func TestJournalAppendReadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal", "events.jsonl")
	j := NewJsonlJournal(path)

	events := []model.Event{
		{
			Sequence:          1,
			Operation:         "contribute",
			Caller:            "treasury",
			Timestamp:         time.Unix(1700000000, 0).UTC(),
			Amount:            "100",
			UnitsMinted:       "100",
			Custody:           "100",
			ExternalLiquidity: "0",
			UnitToAssetRatio:  "1",
			UnitSupply:        "100",
		},
		{
			Sequence:          2,
			Operation:         "flashloan",
			Caller:            "keeper",
			Timestamp:         time.Unix(1700000060, 0).UTC(),
			LoanAmount:        "200",
			FeeAmount:         "5",
			RepayAmount:       "210",
			Change:            "5",
			Custody:           "105",
			ExternalLiquidity: "0",
			UnitToAssetRatio:  "1",
			UnitSupply:        "100",
		},
	}
	for _, ev := range events {
		if err := j.Append(ev); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	var got []model.Event
	err := ReadJournal(path, func(ev model.Event) error {
		got = append(got, ev)
		return nil
	})
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != len(events) {
		t.Fatalf("expected %d events, got %d", len(events), len(got))
	}
	if got[0].Sequence != 1 || got[0].Amount != "100" {
		t.Fatalf("first event mangled: %+v", got[0])
	}
	if got[1].Operation != "flashloan" || got[1].Change != "5" {
		t.Fatalf("second event mangled: %+v", got[1])
	}
	if !got[1].Timestamp.Equal(events[1].Timestamp) {
		t.Fatalf("timestamp mangled: %v", got[1].Timestamp)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if n := bytes.Count(data, []byte("\n")); n != 2 {
		t.Fatalf("expected 2 lines, got %d", n)
	}
}

func TestAppendIsDurablePerEvent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	j := NewJsonlJournal(path)

	if err := j.Append(model.Event{Sequence: 1, Operation: "contribute"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read file: %v", err)
	}
	if n := bytes.Count(data, []byte("\n")); n != 1 {
		t.Fatalf("expected the event on disk before the next append, got %d lines", n)
	}

	if err := j.Append(model.Event{Sequence: 2, Operation: "redeem"}); err != nil {
		t.Fatalf("append: %v", err)
	}
	var got []model.Event
	if err := ReadJournal(path, func(ev model.Event) error {
		got = append(got, ev)
		return nil
	}); err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(got) != 2 || got[1].Sequence != 2 {
		t.Fatalf("journal mangled after second append: %+v", got)
	}
}

func TestReadJournalMalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	if err := os.WriteFile(path, []byte("{\"sequence\":1,\"operation\":\"contribute\"}\nnot json\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	if err := ReadJournal(path, func(model.Event) error { return nil }); err == nil {
		t.Fatalf("expected error on malformed line")
	}
}

func TestReadJournalStopsOnCallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	j := NewJsonlJournal(path)
	for i := 1; i <= 3; i++ {
		if err := j.Append(model.Event{Sequence: uint64(i), Operation: "contribute"}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	sentinel := errors.New("stop")
	seen := 0
	err := ReadJournal(path, func(model.Event) error {
		seen++
		if seen == 2 {
			return sentinel
		}
		return nil
	})
	if !errors.Is(err, sentinel) {
		t.Fatalf("expected callback error, got %v", err)
	}
	if seen != 2 {
		t.Fatalf("expected to stop after 2 events, saw %d", seen)
	}
}
