package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "haulplan.yaml")
	doc := "catalog_path: /etc/haulplan/catalog.yaml\nbatch_workers: 3\nlog:\n  format: json\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv(EnvRedisURL, "redis://localhost:6379/0")
	t.Setenv(EnvBatchWorkers, "")
	t.Setenv(EnvCatalogPath, "")
	t.Setenv(EnvLogFormat, "")
	t.Setenv(EnvDebug, "YES")

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.CatalogPath != "/etc/haulplan/catalog.yaml" || c.BatchWorkers != 3 || c.Log.Format != "json" {
		t.Fatalf("config = %+v", c)
	}
	if c.RedisURL != "redis://localhost:6379/0" || !c.Log.Debug {
		t.Fatalf("env not applied: %+v", c)
	}
}

func TestApplyEnvOverridesFile(t *testing.T) {
	c := Default()
	c.CatalogPath = "from-file.yaml"
	env := map[string]string{EnvCatalogPath: "from-env.yaml", EnvBatchWorkers: "7", EnvLogFormat: "JSON", EnvDebug: "no"}
	if err := c.ApplyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatal(err)
	}
	if c.CatalogPath != "from-env.yaml" || c.BatchWorkers != 7 || c.Log.Format != "json" || c.Log.Debug {
		t.Fatalf("config = %+v", c)
	}
	bad := map[string]string{EnvBatchWorkers: "many"}
	if err := c.ApplyEnv(func(k string) string { return bad[k] }); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	c := Default()
	c.BatchWorkers = 0
	c.Log.Format = "xml"
	if err := c.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error")
	}
}
