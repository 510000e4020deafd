package version

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func withBuild(t *testing.T, v, commit, date string) {
	t.Helper()
	origVersion, origCommit, origDate := Version, GitCommit, BuildDate
	Version, GitCommit, BuildDate = v, commit, date
	t.Cleanup(func() {
		Version, GitCommit, BuildDate = origVersion, origCommit, origDate
	})
}

func TestCurrentDefaults(t *testing.T) {
	withBuild(t, "  ", "", "")
	info := Current()
	if info.Version != "dev" || info.Tool != "emberc" {
		t.Fatalf("info = %+v", info)
	}
}

func TestWritePrettyPlain(t *testing.T) {
	withBuild(t, "1.2.3-rc.1", "abc123", "")
	var buf bytes.Buffer
	WritePretty(&buf, Current(), Fields{Hash: true, Date: true}, false)
	out := buf.String()
	for _, want := range []string{"emberc 1.2.3-rc.1: " + Tagline, "commit:  abc123", "built:   unknown"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output lacks %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "message:") {
		t.Fatalf("unselected field printed:\n%s", out)
	}
}

func TestWritePrettyColor(t *testing.T) {
	withBuild(t, "1.2.3", "", "")
	var buf bytes.Buffer
	WritePretty(&buf, Current(), Fields{}, true)
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Fatalf("expected ANSI colour codes: %q", buf.String())
	}
}

func TestWriteJSON(t *testing.T) {
	withBuild(t, "0.3.0", "", "2026-01-15")
	var buf bytes.Buffer
	if err := WriteJSON(&buf, Current(), Fields{Date: true}); err != nil {
		t.Fatalf("WriteJSON returned error: %v", err)
	}
	var got Info
	if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if got.Version != "0.3.0" || got.BuildDate != "2026-01-15" || got.GitCommit != "" {
		t.Fatalf("payload = %+v", got)
	}
}
