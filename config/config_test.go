package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault_Validates(t *testing.T) {
	if err := Validate(Default()); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestValidate_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"backend", func(c *Config) { c.Backend = "rocksdb" }},
		{"datadir", func(c *Config) { c.DataDir = "" }},
		{"log level", func(c *Config) { c.Log.Level = "trace" }},
		{"hash", func(c *Config) { c.Params.HashAlgorithm = "sha1" }},
		{"signature", func(c *Config) { c.Params.SignatureScheme = "rsa" }},
		{"workers", func(c *Config) { c.Params.Workers = 0 }},
		{"cache ttl", func(c *Config) { c.Params.SigCacheTTL = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := Validate(cfg); err == nil {
				t.Error("expected validation error")
			}
		})
	}

	if err := Validate(nil); err == nil {
		t.Error("nil config should fail")
	}
}

func TestMemoryBackend_NoDataDir(t *testing.T) {
	cfg := Default()
	cfg.Backend = BackendMemory
	cfg.DataDir = ""
	if err := Validate(cfg); err != nil {
		t.Errorf("memory backend should not need a datadir: %v", err)
	}
}

func TestLoadFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.conf")
	if err := WriteDefaultConfig(path); err != nil {
		t.Fatal(err)
	}

	values, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if values["backend"] != BackendBadger {
		t.Errorf("backend = %q", values["backend"])
	}

	cfg := Default()
	cfg.Params.SigCacheTTL = time.Second
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatal(err)
	}
	if cfg.Params.SigCacheTTL != 10*time.Minute {
		t.Errorf("sigcache_ttl = %v", cfg.Params.SigCacheTTL)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("written default config should validate: %v", err)
	}
}

func TestLoadFile_Parsing(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.conf")
	content := "# comment\n\nbackend = \"bolt\"\nparams.hash = BLAKE3\nparams.workers = 3\nlog.json = yes\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	values, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	cfg := Default()
	if err := ApplyFileConfig(cfg, values); err != nil {
		t.Fatal(err)
	}
	if cfg.Backend != BackendBolt || cfg.Params.HashAlgorithm != "blake3" || cfg.Params.Workers != 3 || !cfg.Log.JSON {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if filepath.Base(cfg.StorePath()) != "utxo.db" {
		t.Errorf("bolt store path = %s", cfg.StorePath())
	}
}

func TestLoadFile_Errors(t *testing.T) {
	values, err := LoadFile(filepath.Join(t.TempDir(), "missing.conf"))
	if err != nil || len(values) != 0 {
		t.Errorf("missing file should yield empty map, got %v, %v", values, err)
	}

	path := filepath.Join(t.TempDir(), "bad.conf")
	os.WriteFile(path, []byte("no equals sign\n"), 0644)
	if _, err := LoadFile(path); err == nil {
		t.Error("malformed line should fail")
	}

	cfg := Default()
	if err := ApplyFileConfig(cfg, map[string]string{"params.workers": "many"}); err == nil {
		t.Error("non-numeric workers should fail")
	}
}

func TestParams_Verifier(t *testing.T) {
	p := DefaultParams()
	v, err := p.Verifier()
	if err != nil {
		t.Fatal(err)
	}
	if v == nil {
		t.Fatal("nil verifier")
	}

	p.SigCacheSize = 0
	if _, err := p.Verifier(); err != nil {
		t.Fatal(err)
	}
	p.SignatureScheme = "nope"
	if _, err := p.Verifier(); err == nil {
		t.Error("unknown scheme should fail")
	}
}

func TestTotalTokens_FitsUint64(t *testing.T) {
	if TotalTokens/DisplayPlaces != 5_000_000_000 {
		t.Errorf("TotalTokens = %d", TotalTokens)
	}
}
