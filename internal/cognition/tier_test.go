package cognition

import "testing"

func TestTierValid(t *testing.T) {
	for _, tier := range TierOrder {
		if !tier.Valid() {
			t.Errorf("Tier(%q).Valid() = false, want true", tier)
		}
	}
	if Tier("Lukewarm").Valid() {
		t.Error("Tier(\"Lukewarm\").Valid() = true, want false")
	}
	if Tier("").Valid() {
		t.Error("empty Tier.Valid() = true, want false")
	}
}

func TestTierColor(t *testing.T) {
	for _, tier := range TierOrder {
		if tier.Color() == "" {
			t.Errorf("Tier(%q).Color() is empty", tier)
		}
	}
	if got := Tier("bogus").Color(); got != "#888888" {
		t.Errorf("unknown tier Color() = %q, want fallback #888888", got)
	}
}

func TestTierDescription(t *testing.T) {
	for _, tier := range TierOrder {
		if tier.Description() == "" {
			t.Errorf("Tier(%q).Description() is empty", tier)
		}
	}
}
