package tradelog

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

var (
	mu  sync.Mutex
	dir string
)

// Entry is one accepted order.
type Entry struct {
	Time    string  `json:"time"`
	StepID  string  `json:"step_id"`
	Symbol  string  `json:"symbol"`
	Side    string  `json:"side"`
	OrderID string  `json:"order_id"`
	Reason  string  `json:"reason"`
	Qty     int     `json:"qty"`
	Price   float64 `json:"price"`
	Target  float64 `json:"target"`
}

// DecisionEntry is one per-bar instruction. Interpretation text is never written.
type DecisionEntry struct {
	Time     string             `json:"time"`
	StepID   string             `json:"step_id"`
	BarTime  int64              `json:"bar_time"`
	Symbol   string             `json:"symbol"`
	Action   string             `json:"action"`
	Reason   string             `json:"reason"`
	Fraction float64            `json:"fraction"`
	Compound *float64           `json:"compound,omitempty"`
	Price    float64            `json:"price"`
	Holding  float64            `json:"holding"`
	Bands    map[string]float64 `json:"bands,omitempty"`
}

// SetDir overrides TRADER_LOG_DIR. An empty dir restores the environment default.
func SetDir(d string) {
	mu.Lock()
	defer mu.Unlock()
	dir = d
}

func logDir() string {
	if dir != "" {
		return dir
	}
	if v := os.Getenv("TRADER_LOG_DIR"); v != "" {
		return v
	}
	return "logs"
}

// RetentionDays reads TRADER_LOG_RETENTION_DAYS, 0 when unset or invalid.
func RetentionDays() int {
	n, err := strconv.Atoi(os.Getenv("TRADER_LOG_RETENTION_DAYS"))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func dailyFilepath(t time.Time) string {
	return filepath.Join(logDir(), t.UTC().Format("2006-01-02")+".txt")
}

func decisionsFilepath(t time.Time) string {
	return filepath.Join(logDir(), "decisions", t.UTC().Format("2006-01-02")+".txt")
}

func Append(e Entry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format(time.RFC3339)
	return appendLine(dailyFilepath(now), e)
}

func AppendDecision(e DecisionEntry) error {
	mu.Lock()
	defer mu.Unlock()
	now := time.Now().UTC()
	e.Time = now.Format(time.RFC3339)
	return appendLine(decisionsFilepath(now), e)
}

func appendLine(p string, v any) error {
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(p, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(f, string(b))
	return err
}

// CompressOlder gzips journal files last modified more than retentionDays ago.
func CompressOlder(retentionDays int) error {
	if retentionDays <= 0 {
		return nil
	}
	mu.Lock()
	defer mu.Unlock()
	cutoff := time.Now().AddDate(0, 0, -retentionDays)
	return filepath.WalkDir(logDir(), func(p string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(p) != ".txt" {
			return nil
		}
		info, err := d.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			return nil
		}
		gz := p + ".gz"
		if _, err := os.Stat(gz); err == nil {
			_ = os.Remove(p)
			return nil
		}
		if err := gzipFile(p, gz); err != nil {
			return nil
		}
		_ = os.Remove(p)
		return nil
	})
}

func gzipFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	gw := gzip.NewWriter(out)
	if _, err := io.Copy(gw, in); err != nil {
		_ = gw.Close()
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := gw.Close(); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}
