package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/aiexpress/campaignctl/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrBusy is returned by Send while a previous exchange is still in flight.
// The store sequences one exchange at a time.
var ErrBusy = errors.New("ya hay un mensaje en camino, espera la respuesta")

// TurnSender posts one conversational turn. The api.Client satisfies this.
type TurnSender interface {
	SendChatTurn(ctx context.Context, body models.ChatRequest) (*http.Response, error)
}

// State is a point-in-time snapshot of the conversation. Mutating it has no
// effect on the store.
type State struct {
	Messages []models.Message
	Pending  bool
	Err      string
}

// Store owns the message history and pending/error state for a single
// chat session. One Store per session; thread it explicitly to whoever
// needs it instead of looking it up ambiently.
type Store struct {
	mu       sync.Mutex
	messages []models.Message
	pending  bool
	err      string
	epoch    uint64

	sender TurnSender
	logger *zap.Logger
	now    func() time.Time
}

func NewStore(sender TurnSender, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		sender: sender,
		logger: logger,
		now:    time.Now,
	}
}

// Send runs one exchange: the user message is appended optimistically and
// stays in the history even if the network turn fails. Text that trims to
// empty is ignored without any state change. While an exchange is in
// flight further sends are rejected with ErrBusy.
func (s *Store) Send(ctx context.Context, text string) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil
	}

	s.mu.Lock()
	if s.pending {
		s.mu.Unlock()
		return ErrBusy
	}
	epoch := s.epoch
	s.pending = true
	s.err = ""
	s.messages = append(s.messages, models.Message{
		ID:        uuid.New().String(),
		Role:      models.RoleUser,
		Content:   trimmed,
		Timestamp: s.now(),
	})
	turns := make([]models.ChatTurn, len(s.messages))
	for i, m := range s.messages {
		turns[i] = models.ChatTurn{Role: m.Role, Content: m.Content}
	}
	s.mu.Unlock()

	replies, err := s.exchange(ctx, models.ChatRequest{Messages: turns})

	s.mu.Lock()
	defer s.mu.Unlock()
	if epoch != s.epoch {
		// The store was reset mid-flight; this reply belongs to a session
		// that no longer exists, so it is dropped whole.
		s.logger.Debug("discarding chat reply for a reset session")
		return nil
	}
	s.pending = false
	if err != nil {
		s.err = err.Error()
		s.logger.Debug("chat exchange failed", zap.Error(err))
		return err
	}
	s.messages = append(s.messages, replies...)
	return nil
}

func (s *Store) exchange(ctx context.Context, body models.ChatRequest) ([]models.Message, error) {
	resp, err := s.sender.SendChatTurn(ctx, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("el agente respondio con estado %d", resp.StatusCode)
	}

	var parsed models.ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, errors.New("no pudimos interpretar la respuesta del agente")
	}

	replies := make([]models.Message, 0, len(parsed.Messages))
	for _, m := range parsed.Messages {
		if m.ID == "" {
			m.ID = uuid.New().String()
		}
		if m.Role == "" {
			m.Role = models.RoleAssistant
		}
		if m.Timestamp.IsZero() {
			m.Timestamp = s.now()
		}
		replies = append(replies, m)
	}
	return replies, nil
}

// PushLocal appends a message without touching the network, e.g. a system
// banner or a locally generated notice. Returns the stored message.
func (s *Store) PushLocal(role models.Role, content string) models.Message {
	msg := models.Message{
		ID:        uuid.New().String(),
		Role:      role,
		Content:   content,
		Timestamp: s.now(),
	}
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	s.mu.Unlock()
	return msg
}

// Reset discards the whole history and returns the store to the empty idle
// state. An exchange still in flight keeps running but its outcome is
// discarded when it lands.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.epoch++
	s.messages = nil
	s.pending = false
	s.err = ""
}

// State returns a copy of the current conversation state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	messages := make([]models.Message, len(s.messages))
	copy(messages, s.messages)
	return State{Messages: messages, Pending: s.pending, Err: s.err}
}
