package store

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const dateLayout = "2006-01-02"

type Config struct {
	Mode        string `yaml:"mode"`
	Symbol      string `yaml:"symbol"`
	PollSeconds int    `yaml:"poll_seconds"`
	Data        struct {
		Source          string `yaml:"source"`
		Path            string `yaml:"path"`
		Start           string `yaml:"start"`
		End             string `yaml:"end"`
		Interval        string `yaml:"interval"`
		InstrumentToken int    `yaml:"instrument_token"`
	} `yaml:"data"`
	Broker struct {
		StartingCash   float64 `yaml:"starting_cash"`
		CommissionRate float64 `yaml:"commission_rate"`
		Exchange       string  `yaml:"exchange"`
		Product        string  `yaml:"product"`
		APIKey         string  `yaml:"-"`
		AccessToken    string  `yaml:"-"`
	} `yaml:"broker"`
	Indicators struct {
		BBWindow int     `yaml:"bb_window"`
		BBStdDev float64 `yaml:"bb_stddev"`
	} `yaml:"indicators"`
	Features struct {
		Window int `yaml:"window"`
	} `yaml:"features"`
	Decision struct {
		BuyThreshold  float64 `yaml:"buy_threshold"`
		SellThreshold float64 `yaml:"sell_threshold"`
		Fraction      float64 `yaml:"fraction"`
	} `yaml:"decision"`
	LLM struct {
		Provider       string  `yaml:"provider"`
		Model          string  `yaml:"model"`
		Endpoint       string  `yaml:"endpoint"`
		MaxTokens      int     `yaml:"max_tokens"`
		Temperature    float32 `yaml:"temperature"`
		MsPerToken     float64 `yaml:"ms_per_token"`
		TimeoutSeconds int     `yaml:"timeout_seconds"`
		APIKey         string  `yaml:"-"`
	} `yaml:"llm"`
	Sentiment struct {
		LexiconPath string `yaml:"lexicon_path"`
	} `yaml:"sentiment"`
	Report struct {
		Dir string `yaml:"dir"`
	} `yaml:"report"`
	Metrics struct {
		Addr string `yaml:"addr"`
	} `yaml:"metrics"`
}

// ConfigError reports a setting that prevents a run from starting.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) error {
	return &ConfigError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// Default returns the configuration used for any key the YAML file omits.
func Default() *Config {
	var c Config
	c.Mode = "BACKTEST"
	c.Symbol = "SPY"
	c.PollSeconds = 60
	c.Data.Source = "YAHOO"
	c.Data.Start = "2023-01-01"
	c.Data.End = "2023-06-01"
	c.Data.Interval = "1d"
	c.Broker.StartingCash = 1000
	c.Broker.CommissionRate = 0.001
	c.Broker.Exchange = "NSE"
	c.Broker.Product = "MIS"
	c.Indicators.BBWindow = 20
	c.Indicators.BBStdDev = 2.0
	c.Features.Window = 30
	c.Decision.BuyThreshold = 0.05
	c.Decision.SellThreshold = -0.05
	c.Decision.Fraction = 1.0
	c.LLM.Provider = "OPENAI"
	c.LLM.Model = "gpt-3.5-turbo"
	c.LLM.MaxTokens = 3000
	c.LLM.Temperature = 0.7
	c.LLM.MsPerToken = 0.5
	c.LLM.TimeoutSeconds = 120
	c.Report.Dir = "logs/reports"
	return &c
}

func (c *Config) Validate() error {
	if c.Mode != "BACKTEST" && c.Mode != "DRY_RUN" && c.Mode != "LIVE" {
		return invalid("mode", "'%s' must be 'BACKTEST', 'DRY_RUN' or 'LIVE'", c.Mode)
	}
	if strings.TrimSpace(c.Symbol) == "" {
		return invalid("symbol", "cannot be empty")
	}
	if c.Mode != "BACKTEST" && c.PollSeconds <= 0 {
		return invalid("poll_seconds", "must be positive in %s mode, got %d", c.Mode, c.PollSeconds)
	}
	switch c.Data.Source {
	case "CSV":
		if c.Data.Path == "" {
			return invalid("data.path", "required when data.source is CSV")
		}
	case "KITE":
		if c.Data.InstrumentToken <= 0 {
			return invalid("data.instrument_token", "required when data.source is KITE")
		}
	case "YAHOO", "STATIC":
	default:
		return invalid("data.source", "'%s' must be 'CSV', 'YAHOO', 'KITE' or 'STATIC'", c.Data.Source)
	}
	start, end, err := c.DateRange()
	if err != nil {
		return err
	}
	if !end.After(start) {
		return invalid("data.end", "%s is not after data.start %s", c.Data.End, c.Data.Start)
	}
	if c.Broker.StartingCash <= 0 || !isFinite(c.Broker.StartingCash) {
		return invalid("broker.starting_cash", "must be positive, got %v", c.Broker.StartingCash)
	}
	if c.Broker.CommissionRate < 0 || c.Broker.CommissionRate >= 1 {
		return invalid("broker.commission_rate", "must be in [0, 1), got %v", c.Broker.CommissionRate)
	}
	if c.Indicators.BBWindow < 2 {
		return invalid("indicators.bb_window", "must be at least 2, got %d", c.Indicators.BBWindow)
	}
	if c.Indicators.BBStdDev <= 0 || !isFinite(c.Indicators.BBStdDev) {
		return invalid("indicators.bb_stddev", "must be positive, got %v", c.Indicators.BBStdDev)
	}
	if c.Features.Window < 1 {
		return invalid("features.window", "must be at least 1, got %d", c.Features.Window)
	}
	if err := ValidateThresholds(c.Decision.BuyThreshold, c.Decision.SellThreshold); err != nil {
		return err
	}
	if c.Decision.Fraction <= 0 || c.Decision.Fraction > 1 {
		return invalid("decision.fraction", "must be in (0, 1], got %v", c.Decision.Fraction)
	}
	switch c.LLM.Provider {
	case "OPENAI", "CLAUDE", "NONE":
	default:
		return invalid("llm.provider", "'%s' must be 'OPENAI', 'CLAUDE' or 'NONE'", c.LLM.Provider)
	}
	if c.LLM.MaxTokens <= 0 {
		return invalid("llm.max_tokens", "must be positive, got %d", c.LLM.MaxTokens)
	}
	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		return invalid("llm.temperature", "must be in [0, 2], got %v", c.LLM.Temperature)
	}
	if c.LLM.MsPerToken < 0 || !isFinite(c.LLM.MsPerToken) {
		return invalid("llm.ms_per_token", "must be non-negative, got %v", c.LLM.MsPerToken)
	}
	return nil
}

// ValidateThresholds rejects non-finite or inverted decision thresholds.
func ValidateThresholds(buy, sell float64) error {
	if !isFinite(buy) {
		return invalid("decision.buy_threshold", "must be finite, got %v", buy)
	}
	if !isFinite(sell) {
		return invalid("decision.sell_threshold", "must be finite, got %v", sell)
	}
	if buy <= sell {
		return invalid("decision.buy_threshold", "%v must be greater than sell_threshold %v", buy, sell)
	}
	return nil
}

// DateRange parses data.start and data.end.
func (c *Config) DateRange() (start, end time.Time, err error) {
	start, err = time.Parse(dateLayout, c.Data.Start)
	if err != nil {
		return start, end, invalid("data.start", "%q is not a YYYY-MM-DD date", c.Data.Start)
	}
	end, err = time.Parse(dateLayout, c.Data.End)
	if err != nil {
		return start, end, invalid("data.end", "%q is not a YYYY-MM-DD date", c.Data.End)
	}
	return start, end, nil
}

// Timeout is the per-request deadline for the language model call.
func (c *Config) Timeout() time.Duration {
	if c.LLM.TimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.LLM.TimeoutSeconds) * time.Second
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// LoadConfig decodes path over Default, injects credentials from the environment and validates.
func LoadConfig(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, err
	}
	c.Mode = strings.ToUpper(c.Mode)
	c.Data.Source = strings.ToUpper(c.Data.Source)
	c.LLM.Provider = strings.ToUpper(c.LLM.Provider)

	c.Broker.APIKey = os.Getenv("KITE_API_KEY")
	c.Broker.AccessToken = os.Getenv("KITE_ACCESS_TOKEN")
	switch c.LLM.Provider {
	case "OPENAI":
		c.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
	case "CLAUDE":
		c.LLM.APIKey = os.Getenv("CLAUDE_API_KEY")
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	if c.LLM.Provider != "NONE" && c.LLM.APIKey == "" {
		return nil, fmt.Errorf("config validation failed: %w", invalid("llm.provider", "%s selected but its API key is not set", c.LLM.Provider))
	}
	if c.Mode == "LIVE" && (c.Broker.APIKey == "" || c.Broker.AccessToken == "") {
		return nil, fmt.Errorf("config validation failed: %w", invalid("mode", "LIVE requires KITE_API_KEY and KITE_ACCESS_TOKEN"))
	}
	return c, nil
}
