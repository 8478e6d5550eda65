package event_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/metasports/market-indexer/internal/event"
)

func TestParseAddress(t *testing.T) {
	mixed := "0x1F9840a85d5aF5bf1D1762F925BDADdC4201F984"
	got, err := event.ParseAddress(mixed)
	if err != nil {
		t.Fatalf("ParseAddress: %v", err)
	}
	if got != strings.ToLower(mixed) {
		t.Errorf("got %s, want lower-case form", got)
	}

	// Two casings of one address resolve to the same key.
	lower, _ := event.ParseAddress(strings.ToLower(mixed))
	if got != lower {
		t.Errorf("casings diverged: %s vs %s", got, lower)
	}
}

func TestParseAddressInvalid(t *testing.T) {
	bad := []string{
		"",
		"0x",
		"1f9840a85d5af5bf1d1762f925bdaddc4201f984",   // missing prefix
		"0x1f9840a85d5af5bf1d1762f925bdaddc4201f98",  // 39 chars
		"0x1f9840a85d5af5bf1d1762f925bdaddc4201f9840", // 41 chars
		"0xzz9840a85d5af5bf1d1762f925bdaddc4201f984",  // non-hex
	}
	for _, s := range bad {
		if _, err := event.ParseAddress(s); !errors.Is(err, event.ErrInvalidAddress) {
			t.Errorf("ParseAddress(%q) err = %v, want ErrInvalidAddress", s, err)
		}
	}
}

func TestParseHash(t *testing.T) {
	h := "0x" + strings.Repeat("AB", 32)
	got, err := event.ParseHash(h)
	if err != nil {
		t.Fatalf("ParseHash: %v", err)
	}
	if got != strings.ToLower(h) {
		t.Errorf("got %s, want lower-case form", got)
	}

	bad := []string{"", "0x1234", "0x" + strings.Repeat("g", 64)}
	for _, s := range bad {
		if _, err := event.ParseHash(s); !errors.Is(err, event.ErrInvalidHash) {
			t.Errorf("ParseHash(%q) err = %v, want ErrInvalidHash", s, err)
		}
	}
}

func TestEventTypes(t *testing.T) {
	tests := []struct {
		ev   event.Event
		want string
	}{
		{event.CollectionNew{}, event.TypeCollectionNew},
		{event.CollectionClose{}, event.TypeCollectionClose},
		{event.CollectionUpdate{}, event.TypeCollectionUpdate},
		{event.AskNew{}, event.TypeAskNew},
		{event.AskCancel{}, event.TypeAskCancel},
		{event.AskUpdate{}, event.TypeAskUpdate},
		{event.Trade{}, event.TypeTrade},
		{event.RevenueClaim{}, event.TypeRevenueClaim},
	}
	for _, tt := range tests {
		if got := tt.ev.Type(); got != tt.want {
			t.Errorf("Type() = %s, want %s", got, tt.want)
		}
	}
}
