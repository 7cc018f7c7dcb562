package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"transcript-qa/internal/domain"
)

// IndexLanguage is the single language the corpus is embedded in.
const IndexLanguage = "en"

// languageNames maps common ISO 639-1 codes to display names used in
// translation prompts and the {language} template placeholder.
var languageNames = map[string]string{
	"en": "English",
	"es": "Spanish",
	"fr": "French",
	"de": "German",
	"it": "Italian",
	"pt": "Portuguese",
	"ru": "Russian",
	"zh": "Chinese",
	"ja": "Japanese",
	"ko": "Korean",
	"ar": "Arabic",
	"hi": "Hindi",
	"nl": "Dutch",
	"sv": "Swedish",
	"no": "Norwegian",
	"da": "Danish",
	"fi": "Finnish",
	"pl": "Polish",
	"tr": "Turkish",
	"uk": "Ukrainian",
}

// LanguageName returns the display name for an ISO 639-1 code, or the
// upper-cased code when unknown.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return strings.ToUpper(code)
}

const toIndexTemplate = `Translate the following text to English. Only output the translation, nothing else.

Text: %s
Translation:`

const fromIndexTemplate = `Translate the following English text to %s. Only output the translation, nothing else.

English text: %s
Translation to %s:`

const translationMaxTokens = 1024

// LanguageService detects question language and round-trips text between the
// user's language and the corpus index language. Every operation is
// best-effort: on failure the input text is returned unchanged, so a
// detection or translation outage never blocks the pipeline.
type LanguageService struct {
	detector domain.LanguageDetector
	chat     domain.ChatModel
	logger   *slog.Logger
}

// NewLanguageService creates a language service. detector may be nil, in
// which case every text is treated as index-language.
func NewLanguageService(detector domain.LanguageDetector, chat domain.ChatModel, logger *slog.Logger) *LanguageService {
	return &LanguageService{
		detector: detector,
		chat:     chat,
		logger:   logger,
	}
}

// Detect returns the ISO 639-1 code of the text's language, falling back to
// the index language when detection is unavailable or undecided.
func (s *LanguageService) Detect(text string) string {
	if s.detector == nil {
		return IndexLanguage
	}
	code := s.detector.Detect(text)
	if code == "" {
		return IndexLanguage
	}
	return code
}

// ToIndexLanguage translates text into the index language. No-op when the
// source already is the index language; on failure the original text is
// returned and the condition logged.
func (s *LanguageService) ToIndexLanguage(ctx context.Context, text, sourceLanguage string) string {
	if sourceLanguage == IndexLanguage {
		return text
	}
	translated, err := s.translate(ctx, fmt.Sprintf(toIndexTemplate, text))
	if err != nil {
		s.logger.Warn("translation_to_index_failed",
			slog.String("source_language", sourceLanguage),
			slog.String("error", err.Error()))
		return text
	}
	return translated
}

// FromIndexLanguage translates index-language text into the target language.
// Symmetric to ToIndexLanguage: no-op for the index language, original text
// on failure.
func (s *LanguageService) FromIndexLanguage(ctx context.Context, text, targetLanguage, targetLanguageName string) string {
	if targetLanguage == IndexLanguage {
		return text
	}
	translated, err := s.translate(ctx, fmt.Sprintf(fromIndexTemplate, targetLanguageName, text, targetLanguageName))
	if err != nil {
		s.logger.Warn("translation_from_index_failed",
			slog.String("target_language", targetLanguage),
			slog.String("error", err.Error()))
		return text
	}
	return translated
}

func (s *LanguageService) translate(ctx context.Context, prompt string) (string, error) {
	resp, err := s.chat.Complete(ctx,
		[]domain.Message{{Role: domain.RoleUser, Content: prompt}},
		domain.CompletionOptions{Temperature: 0, MaxTokens: translationMaxTokens},
	)
	if err != nil {
		return "", err
	}
	translated := strings.TrimSpace(resp)
	if translated == "" {
		return "", fmt.Errorf("empty translation")
	}
	return translated, nil
}
