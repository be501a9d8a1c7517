package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"clipnote/internal/domain"
	"clipnote/internal/summarize"
)

// Fallback replies when the model cannot answer. The thread still gets
// an assistant message so the conversation never dangles on a user turn.
const (
	replyNotConfigured = "Sorry, the AI assistant is not configured yet. Please add an API key and try again."
	replyUnavailable   = "Sorry, I could not generate a response right now. Please try again later."
)

// Responder handles one turn of a Q&A thread attached to a memo,
// collection, or note.
type Responder struct {
	chats domain.ChatRepository
	ai    summarize.Client
	log   zerolog.Logger
}

func NewResponder(chats domain.ChatRepository, ai summarize.Client, log zerolog.Logger) *Responder {
	return &Responder{chats: chats, ai: ai, log: log}
}

// Respond appends the user message, asks the model with the given
// context text, and appends the assistant reply. A model failure is
// downgraded to a fallback reply rather than an error; the user message
// is already part of the thread by then.
func (r *Responder) Respond(ctx context.Context, kind domain.ParentKind, parentID, contextText, message string) (*domain.ChatMessage, *domain.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, nil, fmt.Errorf("%w: message is required", domain.ErrValidation)
	}
	if !kind.Valid() {
		return nil, nil, fmt.Errorf("%w: invalid parent kind %q", domain.ErrValidation, kind)
	}

	userMsg := &domain.ChatMessage{
		ID:         uuid.NewString(),
		ParentID:   parentID,
		ParentKind: kind,
		Role:       domain.ChatRoleUser,
		Content:    message,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.chats.Append(ctx, userMsg); err != nil {
		return nil, nil, fmt.Errorf("append user message: %w", err)
	}

	reply, err := r.ai.Answer(ctx, contextText, message)
	if err != nil {
		r.log.Warn().Err(err).Str("parent_id", parentID).Msg("chat answer failed")
		if errors.Is(err, domain.ErrMissingAPIKey) {
			reply = replyNotConfigured
		} else {
			reply = replyUnavailable
		}
	}

	assistantMsg := &domain.ChatMessage{
		ID:         uuid.NewString(),
		ParentID:   parentID,
		ParentKind: kind,
		Role:       domain.ChatRoleAssistant,
		Content:    reply,
		CreatedAt:  time.Now().UTC(),
	}
	if err := r.chats.Append(ctx, assistantMsg); err != nil {
		return nil, nil, fmt.Errorf("append assistant message: %w", err)
	}
	return userMsg, assistantMsg, nil
}

// History returns the full thread for a parent, oldest first.
func (r *Responder) History(ctx context.Context, parentID string) ([]domain.ChatMessage, error) {
	return r.chats.ListByParent(ctx, parentID)
}
