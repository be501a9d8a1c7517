package domain

import (
	"strings"

	"golang.org/x/text/language"
)

// Language enumerates the summary languages the service can generate.
type Language string

const (
	LanguageEnglish      Language = "en"
	LanguageChinese      Language = "zh"
	LanguageSpanishEU    Language = "es-eu"
	LanguagePortugueseEU Language = "pt-eu"
	LanguageSpanishLatam Language = "es-latam"
	LanguagePortugueseBR Language = "pt-latam"
	LanguageGerman       Language = "de"
	LanguageFrench       Language = "fr"
	LanguageJapanese     Language = "ja"
	LanguageThai         Language = "th"
)

// SupportedLanguages lists every language code in a stable order.
var SupportedLanguages = []Language{
	LanguageEnglish,
	LanguageChinese,
	LanguageSpanishEU,
	LanguagePortugueseEU,
	LanguageSpanishLatam,
	LanguagePortugueseBR,
	LanguageGerman,
	LanguageFrench,
	LanguageJapanese,
	LanguageThai,
}

// matchTags pairs BCP 47 tags with the service language codes so that
// callers sending standard tags (zh-CN, es-419, pt-BR) land on the
// right slot.
var matchTags = []struct {
	tag  language.Tag
	code Language
}{
	{language.English, LanguageEnglish},
	{language.Chinese, LanguageChinese},
	{language.EuropeanSpanish, LanguageSpanishEU},
	{language.EuropeanPortuguese, LanguagePortugueseEU},
	{language.LatinAmericanSpanish, LanguageSpanishLatam},
	{language.BrazilianPortuguese, LanguagePortugueseBR},
	{language.German, LanguageGerman},
	{language.French, LanguageFrench},
	{language.Japanese, LanguageJapanese},
	{language.Thai, LanguageThai},
}

var languageMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(matchTags))
	for i, m := range matchTags {
		tags[i] = m.tag
	}
	return language.NewMatcher(tags)
}()

// ParseLanguage resolves a caller-supplied code onto the supported set.
// Exact service codes are accepted as-is; anything else is treated as a
// BCP 47 tag and matched.
func ParseLanguage(s string) (Language, error) {
	code := Language(strings.ToLower(strings.TrimSpace(s)))
	for _, l := range SupportedLanguages {
		if code == l {
			return l, nil
		}
	}
	tag, err := language.Parse(string(code))
	if err != nil {
		return "", ErrUnsupportedLanguage
	}
	_, idx, conf := languageMatcher.Match(tag)
	if conf == language.No {
		return "", ErrUnsupportedLanguage
	}
	return matchTags[idx].code, nil
}

// Valid reports whether the language is one of the supported codes.
func (l Language) Valid() bool {
	for _, s := range SupportedLanguages {
		if l == s {
			return true
		}
	}
	return false
}
