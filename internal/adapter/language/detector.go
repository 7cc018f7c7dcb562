package language

import (
	"strings"

	"github.com/pemistahl/lingua-go"

	"transcript-qa/internal/domain"
)

// Detector performs embedded statistical language detection with lingua.
// No network call is involved, so detection only "fails" by being undecided.
type Detector struct {
	detector lingua.LanguageDetector
}

// NewDetector builds a detector over all spoken languages lingua ships
// models for. Model data is loaded lazily on first use.
func NewDetector() *Detector {
	return &Detector{
		detector: lingua.NewLanguageDetectorBuilder().
			FromAllSpokenLanguages().
			Build(),
	}
}

// Detect returns the ISO 639-1 code of the most likely language, or an
// empty string when no language can be determined.
func (d *Detector) Detect(text string) string {
	detected, ok := d.detector.DetectLanguageOf(text)
	if !ok {
		return ""
	}
	return strings.ToLower(detected.IsoCode639_1().String())
}

var _ domain.LanguageDetector = (*Detector)(nil)
