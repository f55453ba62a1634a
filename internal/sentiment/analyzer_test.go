package sentiment

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sentiment-trader/internal/types"
)

func near(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func TestScore_EmptyTextIsZero(t *testing.T) {
	a := NewAnalyzer()
	for _, text := range []string{"", "   ", "\n\t"} {
		if got := a.Score(text); got != (types.SentimentScore{}) {
			t.Errorf("Score(%q) = %+v, want zero", text, got)
		}
	}
	if got := a.Score("a . !"); got.Compound != 0 {
		t.Errorf("Score of unscored tokens = %+v, want zero compound", got)
	}
}

// Reference values are NLTK VADER polarity_scores compounds.
func TestScore_MatchesVADERCompound(t *testing.T) {
	a := NewAnalyzer()
	tests := []struct {
		text string
		want float64
	}{
		{"The outlook is good", 0.4404},
		{"The outlook is not good", -0.3412},
		{"very good", 0.4927},
		{"This is a disaster for the stock.", -0.6249},
		{"The setup looks amazing.", 0.5859},
		{"The outlook is grim.", -0.5719},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			if got := a.Score(tt.text).Compound; !near(got, tt.want, 1e-4) {
				t.Errorf("Compound = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestScore_SingleWord(t *testing.T) {
	got := NewAnalyzer().Score("The outlook is good")
	if !near(got.Compound, 0.4404, 1e-4) {
		t.Errorf("Compound = %v, want 0.4404", got.Compound)
	}
	if !near(got.Positive, 0.492, 1e-3) || !near(got.Neutral, 0.508, 1e-3) || got.Negative != 0 {
		t.Errorf("proportions = %+v", got)
	}
}

func TestScore_Negation(t *testing.T) {
	got := NewAnalyzer().Score("The outlook is not good")
	if !near(got.Compound, -0.3412, 1e-4) {
		t.Errorf("Compound = %v, want -0.3412", got.Compound)
	}
	contraction := NewAnalyzer().Score("The outlook isn't good")
	if contraction.Compound >= 0 {
		t.Errorf("contraction did not negate: %+v", contraction)
	}
}

func TestScore_Booster(t *testing.T) {
	got := NewAnalyzer().Score("very good")
	if !near(got.Compound, 0.4927, 1e-4) {
		t.Errorf("Compound = %v, want 0.4927", got.Compound)
	}
	damped := NewAnalyzer().Score("slightly good")
	if damped.Compound >= 0.4404 {
		t.Errorf("dampener did not reduce score: %v", damped.Compound)
	}
}

func TestScore_CapsEmphasis(t *testing.T) {
	a := NewAnalyzer()
	plain := a.Score("prices look good")
	caps := a.Score("prices look GOOD")
	if caps.Compound <= plain.Compound {
		t.Errorf("caps %v should exceed plain %v", caps.Compound, plain.Compound)
	}
	// All-caps text carries no differential
	if shout := a.Score("PRICES LOOK GOOD"); shout.Compound != plain.Compound {
		t.Errorf("all-caps %v should equal plain %v", shout.Compound, plain.Compound)
	}
}

func TestScore_ExclamationEmphasis(t *testing.T) {
	a := NewAnalyzer()
	if a.Score("good!!").Compound <= a.Score("good").Compound {
		t.Errorf("exclamation should amplify")
	}
	if a.Score("bad!!").Compound >= a.Score("bad").Compound {
		t.Errorf("exclamation should amplify negative text")
	}
}

func TestScore_ButShiftsWeight(t *testing.T) {
	got := NewAnalyzer().Score("The trend was good but the risk is bad")
	if got.Compound >= 0 {
		t.Errorf("clause after 'but' should dominate, got %v", got.Compound)
	}
}

func TestScore_InterpretationText(t *testing.T) {
	a := NewAnalyzer()
	bull := a.Score("SPY shows strong upward momentum and the price is holding above the middle band, a positive and encouraging sign for further gains.")
	if bull.Compound <= 0.05 {
		t.Errorf("bullish text compound = %v", bull.Compound)
	}
	bear := a.Score("Prices are falling toward the lower band; weakness and volatility suggest further decline and elevated risk of losses.")
	if bear.Compound >= -0.05 {
		t.Errorf("bearish text compound = %v", bear.Compound)
	}
}

func TestScore_RangeAndDeterminism(t *testing.T) {
	a := NewAnalyzer()
	texts := []string{
		strings.Repeat("great excellent best ", 50),
		strings.Repeat("worst crisis panic ", 50),
		"Never so good!!!! ??",
		"neutral words only here",
	}
	for _, text := range texts {
		s1 := a.Score(text)
		s2 := a.Score(text)
		if s1 != s2 {
			t.Errorf("Score not deterministic for %q", text)
		}
		if s1.Compound < -1 || s1.Compound > 1 {
			t.Errorf("Compound out of range for %q: %v", text, s1.Compound)
		}
		if sum := s1.Positive + s1.Neutral + s1.Negative; !near(sum, 1, 0.01) {
			t.Errorf("proportions for %q sum to %v", text, sum)
		}
	}
}

func TestNewAnalyzerFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.txt")
	body := "# custom entries\nmoonshot\t3.0\t0.5\t[3, 3, 3]\ngood\t-1.0\t0.1\t[-1]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}

	a, err := NewAnalyzerFromFile(path)
	if err != nil {
		t.Fatalf("NewAnalyzerFromFile failed: %v", err)
	}
	if a.Score("moonshot").Compound <= 0 {
		t.Errorf("custom word not loaded")
	}
	if a.Score("good").Compound >= 0 {
		t.Errorf("custom entry did not override built-in")
	}
}

func TestNewAnalyzerFromFile_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lexicon.txt")
	if err := os.WriteFile(path, []byte("word-without-valence\n"), 0o644); err != nil {
		t.Fatalf("write lexicon: %v", err)
	}
	if _, err := NewAnalyzerFromFile(path); err == nil {
		t.Fatal("expected error for malformed lexicon")
	}
}
