package domain

import "testing"

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from, to DeliveryState
		ok       bool
	}{
		{StateSent, StateAcknowledged, true},
		{StateSent, StateSubmitted, true},
		{StateSent, StateExpired, true},
		{StateAcknowledged, StateSubmitted, true},
		{StateAcknowledged, StateExpired, true},

		// One-directional: never back to sent or acknowledged.
		{StateAcknowledged, StateSent, false},
		{StateSubmitted, StateSent, false},

		// Terminal states permit nothing.
		{StateSubmitted, StateExpired, false},
		{StateSubmitted, StateAcknowledged, false},
		{StateExpired, StateSubmitted, false},
		{StateExpired, StateAcknowledged, false},
		{StateDeliveryFailed, StateSent, false},
		{StateDeliveryFailed, StateSubmitted, false},
	}

	for _, c := range cases {
		if got := c.from.CanTransition(c.to); got != c.ok {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", c.from, c.to, got, c.ok)
		}
	}
}

func TestTerminal(t *testing.T) {
	for _, s := range []DeliveryState{StateSubmitted, StateExpired, StateDeliveryFailed} {
		if !s.Terminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}
	for _, s := range []DeliveryState{StateSent, StateAcknowledged} {
		if s.Terminal() {
			t.Errorf("expected %s to be non-terminal", s)
		}
	}
}

func TestEligible(t *testing.T) {
	if !(Recipient{ID: "U1", Name: "Ana"}).Eligible() {
		t.Fatal("active member should be eligible")
	}
	if (Recipient{ID: "U2", Deactivated: true}).Eligible() {
		t.Fatal("deactivated member should be excluded")
	}
	if (Recipient{ID: "U3", Bot: true}).Eligible() {
		t.Fatal("bot account should be excluded")
	}
	if (Recipient{}).Eligible() {
		t.Fatal("empty ID should be excluded")
	}
}
