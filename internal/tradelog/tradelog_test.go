package tradelog

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func useTempDir(t *testing.T) string {
	t.Helper()
	d := t.TempDir()
	SetDir(d)
	t.Cleanup(func() { SetDir("") })
	return d
}

func readLines(t *testing.T, p string) []string {
	t.Helper()
	f, err := os.Open(p)
	if err != nil {
		t.Fatalf("open %s: %v", p, err)
	}
	defer f.Close()
	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines
}

func TestAppendDecision_WritesJSONLine(t *testing.T) {
	d := useTempDir(t)
	c := 0.42
	if err := AppendDecision(DecisionEntry{StepID: "s1", Symbol: "SPY", Action: "GO_LONG", Fraction: 1, Compound: &c, Price: 401}); err != nil {
		t.Fatalf("AppendDecision failed: %v", err)
	}
	if err := AppendDecision(DecisionEntry{StepID: "s2", Symbol: "SPY", Action: "HOLD", Reason: "insufficient_history"}); err != nil {
		t.Fatalf("AppendDecision failed: %v", err)
	}

	p := filepath.Join(d, "decisions", time.Now().UTC().Format("2006-01-02")+".txt")
	lines := readLines(t, p)
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	var got DecisionEntry
	if err := json.Unmarshal([]byte(lines[0]), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Action != "GO_LONG" || got.Compound == nil || *got.Compound != 0.42 || got.Time == "" {
		t.Errorf("unexpected entry: %+v", got)
	}
	if strings.Contains(lines[1], "compound") {
		t.Errorf("HOLD without score should omit compound: %s", lines[1])
	}
}

func TestAppend_WritesOrderFile(t *testing.T) {
	d := useTempDir(t)
	if err := Append(Entry{Symbol: "SPY", Side: "BUY", Qty: 2, Price: 400, OrderID: "PAPER-1"}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	p := filepath.Join(d, time.Now().UTC().Format("2006-01-02")+".txt")
	if lines := readLines(t, p); len(lines) != 1 || !strings.Contains(lines[0], `"order_id":"PAPER-1"`) {
		t.Fatalf("unexpected order log: %v", lines)
	}
}

func TestCompressOlder(t *testing.T) {
	d := useTempDir(t)
	old := filepath.Join(d, "2020-01-01.txt")
	if err := os.WriteFile(old, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	past := time.Now().AddDate(0, 0, -10)
	if err := os.Chtimes(old, past, past); err != nil {
		t.Fatal(err)
	}
	fresh := filepath.Join(d, "today.txt")
	if err := os.WriteFile(fresh, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := CompressOlder(3); err != nil {
		t.Fatalf("CompressOlder failed: %v", err)
	}
	if _, err := os.Stat(old + ".gz"); err != nil {
		t.Errorf("old file not compressed: %v", err)
	}
	if _, err := os.Stat(old); !os.IsNotExist(err) {
		t.Errorf("old file not removed")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh file touched: %v", err)
	}
}

func TestRetentionDays(t *testing.T) {
	t.Setenv("TRADER_LOG_RETENTION_DAYS", "7")
	if RetentionDays() != 7 {
		t.Errorf("RetentionDays = %d", RetentionDays())
	}
	t.Setenv("TRADER_LOG_RETENTION_DAYS", "x")
	if RetentionDays() != 0 {
		t.Errorf("invalid value should give 0")
	}
}
