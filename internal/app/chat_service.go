package app

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"datacopilot/internal/agent"
	"datacopilot/internal/chart"
	"datacopilot/internal/model"
	"datacopilot/internal/pkg/retry"
)

var (
	ErrQuestionEmpty    = errors.New("question is empty")
	ErrAgentsNotReady   = errors.New("agents are not initialized")
	ErrTurnStoreMissing = errors.New("turn store is not configured")
)

const agentAttempts = 2

// RouterAgent answers a question against the relational mirror.
type RouterAgent interface {
	Answer(ctx context.Context, question string) (string, error)
}

// Decider classifies a question/answer pair into a text or chart response.
type Decider interface {
	Decide(ctx context.Context, question, initialResponse string) (agent.Decision, error)
}

// AgentSet is the swappable pair of reasoning backends. It is rebuilt as a
// unit whenever the dataset is replaced.
type AgentSet struct {
	Router  RouterAgent
	Decider Decider
}

type AsyncTurnPublisher interface {
	Publish(ctx context.Context, turn model.ChatTurn) error
}

type TurnCache interface {
	GetRecent(ctx context.Context) ([]model.ChatTurn, bool, error)
	SetRecent(ctx context.Context, turns []model.ChatTurn) error
	Invalidate(ctx context.Context) error
	MarkDirty(ctx context.Context) error
	IsDirty(ctx context.Context) (bool, error)
}

type TurnStore interface {
	ListRecent(limit int) ([]model.ChatTurn, error)
}

// TurnResult is one completed chat turn. ImagePath is empty when no chart
// was produced.
type TurnResult struct {
	Question  string
	Answer    string
	ImagePath string
	HasPlot   bool
}

type ChatService struct {
	agents       func() AgentSet
	publisher    AsyncTurnPublisher
	turnCache    TurnCache
	turnStore    TurnStore
	artifactPath string
}

func NewChatService(
	agents func() AgentSet,
	publisher AsyncTurnPublisher,
	turnCache TurnCache,
	turnStore TurnStore,
	artifactPath string,
) *ChatService {
	return &ChatService{
		agents:       agents,
		publisher:    publisher,
		turnCache:    turnCache,
		turnStore:    turnStore,
		artifactPath: artifactPath,
	}
}

// ProcessQuery runs one chat turn: clear the previous chart artifact, ask the
// query router, run the decision step, and report whether a fresh artifact
// exists. Both agent calls get exactly one retry on a malformed-output error;
// a second router failure propagates to the caller.
func (s *ChatService) ProcessQuery(ctx context.Context, question string) (*TurnResult, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrQuestionEmpty
	}

	set := s.agents()
	if set.Router == nil || set.Decider == nil {
		return nil, ErrAgentsNotReady
	}

	log.Printf("processing question: %s", question)

	if err := chart.Remove(s.artifactPath); err != nil {
		return nil, err
	}

	var initial string
	err := retry.Do(agentAttempts, func() error {
		answer, answerErr := set.Router.Answer(ctx, question)
		if answerErr != nil {
			log.Printf("query router failed: %v", answerErr)
			return answerErr
		}
		initial = answer
		return nil
	}, agent.IsMalformed)
	if err != nil {
		return nil, err
	}
	initial = strings.TrimSpace(initial)
	log.Printf("initial sql response: %s", initial)

	var decision agent.Decision
	err = retry.Do(agentAttempts, func() error {
		d, decideErr := set.Decider.Decide(ctx, question, initial)
		if decideErr != nil {
			log.Printf("decision step failed: %v", decideErr)
			return decideErr
		}
		decision = d
		return nil
	}, agent.IsMalformed)
	if err != nil {
		return nil, err
	}

	result := &TurnResult{
		Question: question,
		Answer:   strings.TrimSpace(decision.Text),
	}
	if decision.Mode == agent.ModeChart && chart.Exists(s.artifactPath) {
		result.ImagePath = s.artifactPath
		result.HasPlot = true
		log.Printf("plot saved as %s", s.artifactPath)
	}
	log.Printf("final answer: %s", result.Answer)

	s.recordTurn(ctx, result)
	return result, nil
}

// recordTurn publishes the turn for async persistence. Recording is best
// effort: a broker outage must not fail the chat turn.
func (s *ChatService) recordTurn(ctx context.Context, result *TurnResult) {
	if s.publisher == nil {
		return
	}
	if s.turnCache != nil {
		_ = s.turnCache.MarkDirty(ctx)
		_ = s.turnCache.Invalidate(ctx)
	}
	// History stores the same text the user saw, not the raw agent output.
	turn := model.ChatTurn{
		Question:  result.Question,
		Answer:    PresentAnswer(result.Answer),
		HasPlot:   result.HasPlot,
		CreatedAt: time.Now(),
	}
	if err := s.publisher.Publish(ctx, turn); err != nil {
		log.Printf("publish chat turn failed: %v", err)
	}
}

// GetHistory lists recent turns, serving from the cache when it is clean.
func (s *ChatService) GetHistory(ctx context.Context, limit int) ([]model.ChatTurn, error) {
	if s.turnStore == nil {
		return nil, ErrTurnStoreMissing
	}

	if s.turnCache != nil {
		dirty, err := s.turnCache.IsDirty(ctx)
		if err == nil && !dirty {
			if cached, hit, cacheErr := s.turnCache.GetRecent(ctx); cacheErr == nil && hit {
				return trimTurns(cached, limit), nil
			}
		}
	}

	turns, err := s.turnStore.ListRecent(limit)
	if err != nil {
		return nil, err
	}
	if s.turnCache != nil {
		if dirty, dirtyErr := s.turnCache.IsDirty(ctx); dirtyErr == nil && !dirty {
			_ = s.turnCache.SetRecent(ctx, turns)
		}
	}
	return turns, nil
}

func trimTurns(turns []model.ChatTurn, limit int) []model.ChatTurn {
	if limit <= 0 || limit >= len(turns) {
		return turns
	}
	return turns[:limit]
}
