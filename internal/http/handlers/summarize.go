package handlers

import (
	"net/http"
	"strings"

	"clipnote/internal/domain"
)

type summarizeRequest struct {
	URL      string `json:"url"`
	Type     string `json:"type"`
	Language string `json:"language"`
}

// SummarizeCreate accepts a URL and returns a processing placeholder
// memo right away; the fetch and summarization run in the background.
func (a *App) SummarizeCreate(w http.ResponseWriter, r *http.Request) {
	var req summarizeRequest
	if err := decode(r, &req); err != nil {
		a.fail(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if strings.TrimSpace(req.URL) == "" {
		a.fail(w, http.StatusBadRequest, "url is required")
		return
	}
	lang := domain.LanguageEnglish
	if req.Language != "" {
		parsed, err := domain.ParseLanguage(req.Language)
		if err != nil {
			a.failErr(w, err)
			return
		}
		lang = parsed
	}

	memo, err := a.Ingest.Submit(r.Context(), req.URL, domain.MemoKind(req.Type), lang)
	if err != nil {
		a.failErr(w, err)
		return
	}
	a.ok(w, http.StatusOK, memo)
}
