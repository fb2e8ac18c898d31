package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/keshon/luci/internal/mind"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestDeltaFromScore(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "delta", "--sentiment", "0.5")
	if err != nil {
		t.Fatalf("delta: %v", err)
	}
	var r deltaReport
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	want := mind.DefaultHumorCoefficients.ComputeDelta(0.5, false)
	if r.Delta != want {
		t.Fatalf("delta = %+v, want %+v", r.Delta, want)
	}
	if r.Offensive || r.Text != "" {
		t.Fatalf("report = %+v", r)
	}
}

func TestDeltaFromText(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "delta", "--offensive-word", "zorp", "you", "zorp")
	if err != nil {
		t.Fatalf("delta: %v", err)
	}
	var r deltaReport
	if err := json.Unmarshal([]byte(out), &r); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if !r.Offensive {
		t.Fatalf("custom offensive word not honored: %+v", r)
	}
	if r.Text != "you zorp" {
		t.Fatalf("text = %q", r.Text)
	}
}

func TestBands(t *testing.T) {
	t.Parallel()

	out, err := execute(t, "bands")
	if err != nil {
		t.Fatalf("bands: %v", err)
	}
	if !strings.HasPrefix(out, "AXIS") {
		t.Fatalf("missing header:\n%s", out)
	}
	for _, a := range mind.Axes {
		if !strings.Contains(out, a.String()) {
			t.Errorf("axis %s missing from table", a)
		}
	}

	out, err = execute(t, "bands", "0")
	if err != nil {
		t.Fatalf("bands 0: %v", err)
	}
	if strings.Count(out, "\n") != len(mind.Axes)+1 {
		t.Fatalf("want one row per axis:\n%s", out)
	}

	if _, err := execute(t, "bands", "nope"); err == nil {
		t.Fatal("bands accepted a non-number")
	}
}

func TestGuildConfigWritesSQLite(t *testing.T) {
	t.Parallel()

	url := "sqlite://" + t.TempDir() + "/luci.db"
	out, err := execute(t, "guild-config", "--backend", url, "--name", "Test", "--learn", "g1")
	if err != nil {
		t.Fatalf("guild-config: %v", err)
	}
	if !strings.Contains(out, "saved settings for guild g1") {
		t.Fatalf("output = %q", out)
	}
}

func TestGuildConfigRejectsRemoteBackend(t *testing.T) {
	t.Parallel()

	_, err := execute(t, "guild-config", "--backend", "http://127.0.0.1:1/graphql", "g1")
	if err == nil || !strings.Contains(err.Error(), "does not store guild settings") {
		t.Fatalf("err = %v", err)
	}
}
