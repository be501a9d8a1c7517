package summarize

import (
	"fmt"

	"clipnote/internal/domain"
)

// promptInputLimit caps how much source text is embedded in a prompt.
const promptInputLimit = 8000

type languageConfig struct {
	name        string
	instruction string
}

var languageConfigs = map[domain.Language]languageConfig{
	domain.LanguageEnglish:      {"English", "Please use English to"},
	domain.LanguageChinese:      {"Chinese", "请用中文"},
	domain.LanguageSpanishEU:    {"European Spanish", "Por favor usa español europeo para"},
	domain.LanguagePortugueseEU: {"European Portuguese", "Por favor usa português europeu para"},
	domain.LanguageSpanishLatam: {"Latin American Spanish", "Por favor usa español latinoamericano para"},
	domain.LanguagePortugueseBR: {"Latin American Portuguese", "Por favor usa português latinoamericano para"},
	domain.LanguageGerman:       {"German", "Bitte verwende Deutsch, um"},
	domain.LanguageFrench:       {"French", "Veuillez utiliser le français pour"},
	domain.LanguageJapanese:     {"Japanese", "日本語を使用してください："},
	domain.LanguageThai:         {"Thai", "กรุณาใช้ภาษาไทยเพื่อ"},
}

func sourceNoun(kind domain.MemoKind) string {
	if kind == domain.MemoKindYouTube {
		return "video transcript"
	}
	return "web content"
}

func summaryPrompt(src Source, lang domain.Language) string {
	cfg := languageConfigs[lang]
	return fmt.Sprintf(`%s generate a comprehensive %s summary for the following %s with these requirements:
1. Keep the summary between 200-300 words
2. Highlight the main content points
3. Use clear and structured language
4. Maintain an objective and neutral tone

Title: %s
URL: %s
Content: %s`, cfg.instruction, cfg.name, sourceNoun(src.Kind), src.Title, src.URL, clip(src.Text, promptInputLimit))
}

func oneLinePrompt(src Source, lang domain.Language) string {
	cfg := languageConfigs[lang]
	return fmt.Sprintf(`%s generate a single sentence summary (maximum 20 words) for the following %s:

Title: %s
URL: %s
Content: %s`, cfg.instruction, sourceNoun(src.Kind), src.Title, src.URL, clip(src.Text, promptInputLimit))
}

func keyPointsPrompt(src Source, lang domain.Language) string {
	cfg := languageConfigs[lang]
	return fmt.Sprintf(`%s extract 3-5 key points from the following %s. Each key point should be a concise sentence (maximum 15 words). Return them as a numbered list:

Title: %s
URL: %s
Content: %s`, cfg.instruction, sourceNoun(src.Kind), src.Title, src.URL, clip(src.Text, promptInputLimit))
}

func summarySystemPrompt(lang domain.Language) string {
	return fmt.Sprintf("You are a professional content summarization assistant, skilled at distilling long text content into concise and clear summaries in %s.", languageConfigs[lang].name)
}

func oneLineSystemPrompt(lang domain.Language) string {
	return fmt.Sprintf("You are a professional content summarization assistant, skilled at creating concise one-line summaries in %s.", languageConfigs[lang].name)
}

func keyPointsSystemPrompt(lang domain.Language) string {
	return fmt.Sprintf("You are a professional content analysis assistant, skilled at extracting key points from text content in %s.", languageConfigs[lang].name)
}

const answerSystemPrompt = "You are an intelligent assistant that answers user questions based on the provided summary content. If the question goes beyond the content scope, please politely explain."

func answerPrompt(contextText, question string) string {
	return fmt.Sprintf(`Based on the following summary content, answer the user's question. If the question goes beyond the scope of the summary content, please politely explain.

Summary Content: %s
User Question: %s`, clip(contextText, promptInputLimit), question)
}

func clip(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
