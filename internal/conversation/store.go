// internal/conversation/store.go
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/Ajaypalvai07/ai-help-center/internal/logging"
	"github.com/Ajaypalvai07/ai-help-center/internal/storage"
)

const instrumentationName = "github.com/Ajaypalvai07/ai-help-center/internal/conversation"

// Store persists per-category transcripts through a storage.Store.
//
// Storage failures never escape to callers: an unreadable snapshot is
// deleted and treated as an empty transcript. The transcript is UI state;
// losing it is acceptable, failing the chat flow over it is not.
type Store struct {
	storage     storage.Store
	logger      *logging.Logger
	maxMessages int
	maxAge      time.Duration
	clock       func() time.Time

	appendCounter metric.Int64Counter
	expireCounter metric.Int64Counter
}

// Option customizes a Store.
type Option func(*Store)

// WithClock injects the time source. Used by tests.
func WithClock(clock func() time.Time) Option {
	return func(s *Store) { s.clock = clock }
}

// NewStore creates a transcript store.
// maxMessages caps retained transcript length; maxAge expires persisted
// snapshots as a whole unit.
func NewStore(st storage.Store, maxMessages int, maxAge time.Duration, logger *logging.Logger, opts ...Option) (*Store, error) {
	if st == nil {
		return nil, errors.New("storage is required")
	}
	if maxMessages <= 0 {
		return nil, errors.New("max messages must be positive")
	}
	if maxAge <= 0 {
		return nil, errors.New("max age must be positive")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	s := &Store{
		storage:     st,
		logger:      logger,
		maxMessages: maxMessages,
		maxAge:      maxAge,
		clock:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.initMetrics()
	return s, nil
}

func (s *Store) initMetrics() {
	meter := otel.Meter(instrumentationName)
	var err error

	s.appendCounter, err = meter.Int64Counter(
		"helpcenter.conversation.appends_total",
		metric.WithDescription("Total number of messages appended to transcripts"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		s.logger.Warn(context.Background(), "failed to create append counter", zap.Error(err))
	}

	s.expireCounter, err = meter.Int64Counter(
		"helpcenter.conversation.snapshots_expired_total",
		metric.WithDescription("Total number of transcript snapshots dropped by the expiry policy"),
		metric.WithUnit("{snapshot}"),
	)
	if err != nil {
		s.logger.Warn(context.Background(), "failed to create expiry counter", zap.Error(err))
	}
}

// Load returns the persisted transcript for a category.
//
// A snapshot older than the max age is discarded as a whole unit. Malformed
// storage is deleted and treated as empty. Load never fails.
func (s *Store) Load(categoryID string) []Message {
	ctx := logging.WithCategory(context.Background(), categoryID)
	key := storage.ChatKey(categoryID)

	raw, err := s.storage.Get(key)
	if err != nil {
		if !errors.Is(err, storage.ErrKeyNotFound) {
			s.logger.Warn(ctx, "transcript read failed, starting empty", zap.Error(err))
		}
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		s.logger.Warn(ctx, "dropping corrupt transcript snapshot", zap.Error(err))
		s.deleteKey(ctx, key)
		return nil
	}

	age := s.clock().Sub(time.UnixMilli(snap.Timestamp))
	if age > s.maxAge {
		s.logger.Debug(ctx, "dropping expired transcript snapshot", zap.Duration("age", age))
		s.deleteKey(ctx, key)
		if s.expireCounter != nil {
			s.expireCounter.Add(ctx, 1)
		}
		return nil
	}

	return snap.Messages
}

// Append adds a message to the end of a category transcript. When the
// result exceeds the retention cap the oldest entries are evicted first.
// The full remaining set is persisted with a fresh timestamp on every call.
func (s *Store) Append(categoryID string, msg Message) []Message {
	messages := append(s.Load(categoryID), msg)
	if len(messages) > s.maxMessages {
		messages = messages[len(messages)-s.maxMessages:]
	}
	s.persist(categoryID, messages)

	if s.appendCounter != nil {
		s.appendCounter.Add(context.Background(), 1)
	}
	return messages
}

// Remove deletes a message by ID. Used to roll back an optimistically
// appended user message after a failed send.
func (s *Store) Remove(categoryID, messageID string) []Message {
	messages := s.Load(categoryID)
	kept := messages[:0]
	for _, m := range messages {
		if m.ID != messageID {
			kept = append(kept, m)
		}
	}
	s.persist(categoryID, kept)
	return kept
}

// ReplaceID rewrites a message ID in place, preserving order. Used when the
// server assigns the canonical ID for an optimistic user message.
func (s *Store) ReplaceID(categoryID, oldID, newID string) []Message {
	messages := s.Load(categoryID)
	for i := range messages {
		if messages[i].ID == oldID {
			messages[i].ID = newID
		}
	}
	s.persist(categoryID, messages)
	return messages
}

// SweepExpired removes every persisted transcript whose snapshot is older
// than the max age, and any chat key that cannot be parsed. Intended to run
// once per session start; it is a cleanup pass, not a live constraint.
func (s *Store) SweepExpired() {
	ctx := context.Background()

	keys, err := s.storage.Keys(storage.ChatKeyPrefix)
	if err != nil {
		s.logger.Warn(ctx, "transcript sweep failed", zap.Error(err))
		return
	}

	now := s.clock()
	removed := 0
	for _, key := range keys {
		raw, err := s.storage.Get(key)
		if err != nil {
			continue
		}
		var snap snapshot
		if err := json.Unmarshal(raw, &snap); err != nil || now.Sub(time.UnixMilli(snap.Timestamp)) > s.maxAge {
			s.deleteKey(ctx, key)
			removed++
		}
	}

	if removed > 0 {
		s.logger.Debug(ctx, "swept expired transcripts", zap.Int("removed", removed))
		if s.expireCounter != nil {
			s.expireCounter.Add(ctx, int64(removed))
		}
	}
}

// LastCategory returns the category of the most recent chat, for reload
// recovery. Empty when unknown.
func (s *Store) LastCategory() string {
	raw, err := s.storage.Get(storage.KeyLastChatCategory)
	if err != nil {
		return ""
	}
	return string(raw)
}

// SetLastCategory records the active chat category.
func (s *Store) SetLastCategory(categoryID string) {
	if err := s.storage.Set(storage.KeyLastChatCategory, []byte(categoryID)); err != nil {
		s.logger.Warn(context.Background(), "failed to persist last category", zap.Error(err))
	}
}

// persist writes the full transcript with a fresh timestamp.
func (s *Store) persist(categoryID string, messages []Message) {
	ctx := logging.WithCategory(context.Background(), categoryID)

	snap := snapshot{Messages: messages, Timestamp: s.clock().UnixMilli()}
	raw, err := json.Marshal(snap)
	if err != nil {
		s.logger.Warn(ctx, "failed to encode transcript", zap.Error(err))
		return
	}
	if err := s.storage.Set(storage.ChatKey(categoryID), raw); err != nil {
		s.logger.Warn(ctx, "failed to persist transcript", zap.Error(err))
	}
}

func (s *Store) deleteKey(ctx context.Context, key string) {
	if err := s.storage.Delete(key); err != nil {
		s.logger.Warn(ctx, "failed to delete storage key", zap.String("key", key), zap.Error(err))
	}
}
