package uid

import "testing"

func TestNew(t *testing.T) {
	a, b := New(), New()
	if a == b {
		t.Fatal("New returned the same id twice")
	}
	if !IsValid(a) {
		t.Errorf("IsValid(%q) = false, want true", a)
	}
}

func TestEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical", "65a1f0c2e4b0a1b2c3d4e5f6", "65a1f0c2e4b0a1b2c3d4e5f6", true},
		{"case differs", "65A1F0C2E4B0A1B2C3D4E5F6", "65a1f0c2e4b0a1b2c3d4e5f6", true},
		{"surrounding space", " u1 ", "u1", true},
		{"different", "u1", "u2", false},
		{"both empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Equal(tt.a, tt.b); got != tt.want {
				t.Errorf("Equal(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
