package topic

import "testing"

func TestBuilder(t *testing.T) {
	b := NewTopicBuilder("fleet/v1/")

	if got := b.Position("IMO7000001"); got != "fleet/v1/position/IMO7000001" {
		t.Errorf("Position = %q", got)
	}
	if got := b.PositionWildcard(); got != "fleet/v1/position/+" {
		t.Errorf("PositionWildcard = %q", got)
	}
	if got := b.Summary(); got != "fleet/v1/fleet/summary" {
		t.Errorf("Summary = %q", got)
	}
	if got := Shared("hubs", b.PositionWildcard()); got != "$share/hubs/fleet/v1/position/+" {
		t.Errorf("Shared = %q", got)
	}
	if got := Shared("", "a/b"); got != "a/b" {
		t.Errorf("Shared without group = %q", got)
	}
}

func TestVesselID(t *testing.T) {
	b := NewTopicBuilder("fleet/v1")

	tests := []struct {
		topic  string
		want   string
		wantOK bool
	}{
		{"fleet/v1/position/IMO7000001", "IMO7000001", true},
		{"fleet/v1/position/", "", false},
		{"fleet/v1/position/a/b", "", false},
		{"other/position/IMO1", "", false},
	}
	for _, tt := range tests {
		got, ok := b.VesselID(tt.topic)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("VesselID(%q) = %q, %v; want %q, %v", tt.topic, got, ok, tt.want, tt.wantOK)
		}
	}
}
