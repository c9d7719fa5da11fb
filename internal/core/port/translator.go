package port

type Translator interface {
	Gettext(msg string) string
	Ngettext(singular, plural string, n int) string
}

type Localizer interface {
	// For returns the translator for a language code, falling back to the default language.
	For(language string) Translator
}
