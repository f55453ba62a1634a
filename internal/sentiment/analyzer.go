package sentiment

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/jonreiter/govader"

	"sentiment-trader/internal/types"
)

// Analyzer scores free text with the VADER lexicon and rules.
// The lexicon is loaded by the constructors and only read by Score.
type Analyzer struct {
	vader *govader.SentimentIntensityAnalyzer
}

// NewAnalyzer loads the bundled VADER lexicon
func NewAnalyzer() *Analyzer {
	return &Analyzer{vader: govader.NewSentimentIntensityAnalyzer()}
}

// NewAnalyzerFromFile extends the VADER lexicon with a lexicon file in the same format.
func NewAnalyzerFromFile(path string) (*Analyzer, error) {
	a := NewAnalyzer()
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	if _, err := a.loadLexiconFrom(f); err != nil {
		return nil, fmt.Errorf("lexicon %s: %w", path, err)
	}
	return a, nil
}

// loadLexiconFrom reads "token<TAB>mean valence[<TAB>...]" lines, overriding existing entries.
func (a *Analyzer) loadLexiconFrom(r io.Reader) (int, error) {
	sc := bufio.NewScanner(r)
	n, line := 0, 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")
		if len(fields) < 2 {
			return n, fmt.Errorf("line %d: expected token and valence", line)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[1]), 64)
		if err != nil {
			return n, fmt.Errorf("line %d: %w", line, err)
		}
		a.vader.Lexicon[strings.ToLower(strings.TrimSpace(fields[0]))] = v
		n++
	}
	return n, sc.Err()
}

// Score returns the compound, positive, neutral and negative scores of text,
// rounded like NLTK's polarity_scores. Blank text scores zero on every component.
func (a *Analyzer) Score(text string) types.SentimentScore {
	if strings.TrimSpace(text) == "" {
		return types.SentimentScore{}
	}
	s := a.vader.PolarityScores(text)
	return types.SentimentScore{
		Compound: round(s.Compound, 4),
		Positive: round(s.Positive, 3),
		Neutral:  round(s.Neutral, 3),
		Negative: round(s.Negative, 3),
	}
}

func round(f float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(f*p) / p
}
