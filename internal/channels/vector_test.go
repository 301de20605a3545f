package channels

import "testing"

func TestClamp(t *testing.T) {
	tests := []struct {
		in   int32
		want uint16
	}{
		{-5, Min},
		{999, Min},
		{1000, 1000},
		{1500, 1500},
		{2000, 2000},
		{2001, Max},
		{70000, Max},
	}
	for _, tt := range tests {
		if got := Clamp(tt.in); got != tt.want {
			t.Errorf("Clamp(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestProfileSlot(t *testing.T) {
	v := NeutralVector()
	v.SetProfile(3)
	if v[ProfileSlot] != 1300 {
		t.Fatalf("profile slot = %d, want 1300", v[ProfileSlot])
	}
	if v.Profile() != 3 {
		t.Fatalf("Profile() = %d, want 3", v.Profile())
	}
	v.SetProfile(40)
	if v[ProfileSlot] != Max {
		t.Fatalf("profile slot must clamp, got %d", v[ProfileSlot])
	}
	for i := 0; i < ProfileSlot; i++ {
		if v[i] != Neutral {
			t.Fatalf("channel %d = %d, want neutral", i, v[i])
		}
	}
}
