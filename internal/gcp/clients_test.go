package gcp

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCredentialOptions(t *testing.T) {
	existing := filepath.Join(t.TempDir(), "service-account.json")
	if err := os.WriteFile(existing, []byte(`{}`), 0o600); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		path string
		want int
	}{
		{"empty", "", 0},
		{"missing", filepath.Join(t.TempDir(), "nope.json"), 0},
		{"present", existing, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := len(credentialOptions(tt.path)); got != tt.want {
				t.Errorf("len(credentialOptions) = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestCloseNilClients(t *testing.T) {
	if err := (&Clients{}).Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
