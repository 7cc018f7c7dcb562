package domain

// LanguageDetector identifies the language of free text as an ISO 639-1
// code. Detection is advisory: implementations return an empty string when
// the language cannot be determined, and callers substitute the corpus
// index language.
type LanguageDetector interface {
	Detect(text string) string
}
