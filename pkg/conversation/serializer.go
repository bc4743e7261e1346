// Package conversation serializes turns per conversation. A new turn for a
// conversation waits until the previous one finishes; turns for different
// conversations run in parallel.
package conversation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/beq-project/beq/pkg/orchestrator"
)

// Processor runs one conversational turn. *orchestrator.Orchestrator is the
// production implementation.
type Processor interface {
	ProcessTurn(ctx context.Context, userID, conversationID, userMessage string) (*orchestrator.TurnResult, error)
}

// NewID mints a conversation id for callers starting a fresh dialog.
func NewID() string {
	return uuid.NewString()
}

// lockEntry is a refcounted per-conversation mutex. The refcount lets the
// map shed entries once no turn holds or waits on them. cancel is set while
// a turn is running so Cancel can abort it.
type lockEntry struct {
	mu     sync.Mutex
	refs   int
	cancel context.CancelFunc
}

// Serializer wraps a Processor with per-conversation ordering.
type Serializer struct {
	processor Processor
	logger    *slog.Logger

	mu    sync.Mutex
	locks map[string]*lockEntry
}

// NewSerializer wraps processor.
func NewSerializer(processor Processor, logger *slog.Logger) *Serializer {
	return &Serializer{
		processor: processor,
		logger:    logger.With("component", "conversation"),
		locks:     make(map[string]*lockEntry),
	}
}

// ProcessTurn runs one turn, waiting for any active turn on the same
// conversation first. The wait is not cancellable by ctx; turns are short
// because the processor enforces its own deadline.
func (s *Serializer) ProcessTurn(ctx context.Context, userID, conversationID, userMessage string) (*orchestrator.TurnResult, error) {
	entry := s.acquire(conversationID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		s.release(conversationID)
	}()

	turnCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.setCancel(conversationID, cancel)
	defer s.setCancel(conversationID, nil)

	return s.processor.ProcessTurn(turnCtx, userID, conversationID, userMessage)
}

// Cancel aborts the conversation's active turn, if any, and reports whether
// one was running.
func (s *Serializer) Cancel(conversationID string) bool {
	s.mu.Lock()
	entry, ok := s.locks[conversationID]
	var cancel context.CancelFunc
	if ok {
		cancel = entry.cancel
	}
	s.mu.Unlock()

	if cancel == nil {
		return false
	}
	s.logger.Info("cancelling active turn", "conversation_id", conversationID)
	cancel()
	return true
}

func (s *Serializer) setCancel(conversationID string, cancel context.CancelFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry, ok := s.locks[conversationID]; ok {
		entry.cancel = cancel
	}
}

// Active reports how many conversations currently have a running or queued
// turn.
func (s *Serializer) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}

func (s *Serializer) acquire(conversationID string) *lockEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.locks[conversationID]
	if !ok {
		entry = &lockEntry{}
		s.locks[conversationID] = entry
	}
	entry.refs++
	return entry
}

func (s *Serializer) release(conversationID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.locks[conversationID]
	if !ok {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(s.locks, conversationID)
	}
}
