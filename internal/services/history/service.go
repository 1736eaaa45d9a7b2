package history

import (
	"context"

	"github.com/rs/zerolog"

	"sealchat/internal/domain"
)

// Service reads the message audit trail for history requests.
type Service struct {
	messages domain.MessageStore
	log      zerolog.Logger
}

// New constructs the history service.
func New(messages domain.MessageStore, log zerolog.Logger) *Service {
	return &Service{
		messages: messages,
		log:      log.With().Str("component", "history").Logger(),
	}
}

// Between returns the conversation between me and peer, both directions,
// oldest first. An empty conversation is an empty slice, not an error.
func (s *Service) Between(ctx context.Context, me, peer domain.Identity) ([]domain.MessageRecord, error) {
	recs, err := s.messages.MessagesBetween(ctx, me, peer)
	if err != nil {
		return nil, err
	}
	if recs == nil {
		recs = []domain.MessageRecord{}
	}
	return recs, nil
}
