package config

import (
	"os"
	"testing"
	"time"
)

func TestGet(t *testing.T) {
	defer Reset()
	os.Clearenv()
	os.Setenv("LINKDROP_ENV", "development")

	cfg := Get()
	if cfg == nil {
		t.Fatal("Get() returned nil")
	}

	// Check defaults
	if cfg.Environment != "development" {
		t.Errorf("Expected Environment=development, got %s", cfg.Environment)
	}
	if cfg.Port != "8080" {
		t.Errorf("Expected Port=8080, got %s", cfg.Port)
	}
	if cfg.UsageWindow != 168*time.Hour {
		t.Errorf("Expected UsageWindow=168h, got %s", cfg.UsageWindow)
	}
	if cfg.SweepInterval != 24*time.Hour {
		t.Errorf("Expected SweepInterval=24h, got %s", cfg.SweepInterval)
	}
	if cfg.CollaboratorTimeout != 5*time.Second {
		t.Errorf("Expected CollaboratorTimeout=5s, got %s", cfg.CollaboratorTimeout)
	}
	if cfg.AdminToken == "" {
		t.Error("Expected AdminToken to be auto-generated outside production")
	}
}

func TestGetRoleLimitsDefaults(t *testing.T) {
	defer Reset()
	os.Clearenv()
	os.Setenv("LINKDROP_ENV", "test")

	limits := Get().GetRoleLimits()
	if limits["verified"] != 3 {
		t.Errorf("Expected verified=3, got %d", limits["verified"])
	}
	if limits["burning"] != 20 {
		t.Errorf("Expected burning=20, got %d", limits["burning"])
	}
	if limits["booster"] != 20 {
		t.Errorf("Expected booster=20, got %d", limits["booster"])
	}
}

func TestParseRoleLimits(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		want    map[string]int
		wantErr bool
	}{
		{
			name: "single pair",
			spec: "verified:3",
			want: map[string]int{"verified": 3},
		},
		{
			name: "multiple pairs with spaces",
			spec: " verified:3 , booster:20 ",
			want: map[string]int{"verified": 3, "booster": 20},
		},
		{
			name: "empty spec",
			spec: "",
			want: map[string]int{},
		},
		{
			name: "trailing comma",
			spec: "verified:3,",
			want: map[string]int{"verified": 3},
		},
		{
			name:    "missing limit",
			spec:    "verified",
			wantErr: true,
		},
		{
			name:    "negative limit",
			spec:    "verified:-1",
			wantErr: true,
		},
		{
			name:    "non-numeric limit",
			spec:    "verified:many",
			wantErr: true,
		},
		{
			name:    "empty role",
			spec:    ":3",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRoleLimits(tt.spec)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.spec)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %d entries, got %d", len(tt.want), len(got))
			}
			for role, limit := range tt.want {
				if got[role] != limit {
					t.Errorf("role %q: expected %d, got %d", role, limit, got[role])
				}
			}
		})
	}
}

func TestValidateRejectsBadEnvironment(t *testing.T) {
	cfg := &Config{
		Environment: "staging",
		RoleLimits:  "verified:3",
		UsageWindow: time.Hour,
		SweepInterval: time.Hour,
		AdminToken:  "token",
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for unknown environment")
	}
}

func TestValidateRequiresAdminTokenInProduction(t *testing.T) {
	cfg := &Config{
		Environment:   EnvironmentProduction,
		RoleLimits:    "verified:3",
		UsageWindow:   time.Hour,
		SweepInterval: time.Hour,
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected validation error for missing admin token in production")
	}
}

func TestDatabasePathUsesEnvironmentSuffix(t *testing.T) {
	defer Reset()
	os.Clearenv()
	os.Setenv("LINKDROP_ENV", "test")

	cfg := Get()
	if cfg.DatabasePath != "storage/linkdrop.test.db" {
		t.Errorf("Expected storage/linkdrop.test.db, got %s", cfg.DatabasePath)
	}
}
