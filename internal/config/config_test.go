package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFromMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gateway.URL != "ws://127.0.0.1:18789" {
		t.Errorf("url = %q", cfg.Gateway.URL)
	}
	if cfg.Events.HighWater != 64 {
		t.Errorf("highWater = %d", cfg.Events.HighWater)
	}
}

func TestLoadFromJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openclaw.json")
	data := `{"gateway":{"url":"wss://claw.example.com/ws","token":"tok-1","callTimeoutMs":2500}}`
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gateway.URL != "wss://claw.example.com/ws" {
		t.Errorf("url = %q", cfg.Gateway.URL)
	}
	if cfg.Gateway.Token != "tok-1" {
		t.Errorf("token = %q", cfg.Gateway.Token)
	}
	if got := cfg.Gateway.CallTimeoutDuration(); got != 2500*time.Millisecond {
		t.Errorf("call timeout = %v", got)
	}
}

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openclaw.yaml")
	data := "gateway:\n  url: ws://10.0.0.5:18789\n  clientName: lab-client\nevents:\n  highWater: 8\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gateway.URL != "ws://10.0.0.5:18789" {
		t.Errorf("url = %q", cfg.Gateway.URL)
	}
	if cfg.Gateway.ClientName != "lab-client" {
		t.Errorf("clientName = %q", cfg.Gateway.ClientName)
	}
	if cfg.Events.HighWater != 8 {
		t.Errorf("highWater = %d", cfg.Events.HighWater)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"empty_url", func(c *Config) { c.Gateway.URL = " " }, true},
		{"http_url", func(c *Config) { c.Gateway.URL = "http://x" }, true},
		{"wss_url", func(c *Config) { c.Gateway.URL = "wss://x" }, false},
		{"bad_level", func(c *Config) { c.Logs.Level = "loud" }, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() = %v; wantErr %v", err, tc.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("OPENCLAW_GATEWAY_URL", "ws://env-host:1")
	t.Setenv("OPENCLAW_GATEWAY_TOKEN", "env-token")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Gateway.URL != "ws://env-host:1" || cfg.Gateway.Token != "env-token" {
		t.Errorf("env overrides not applied: %+v", cfg.Gateway)
	}
}

func TestTimeoutDefaults(t *testing.T) {
	g := GatewayConfig{}
	if g.DialTimeoutDuration() != 10*time.Second {
		t.Errorf("dial default = %v", g.DialTimeoutDuration())
	}
	if g.CallTimeoutDuration() != 0 {
		t.Errorf("call default = %v", g.CallTimeoutDuration())
	}
}
