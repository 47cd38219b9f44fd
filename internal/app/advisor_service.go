package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"finadvisor/internal/ai"
	"finadvisor/internal/index"
	"finadvisor/internal/model"
	"finadvisor/internal/rag"
)

// NoContextAnswer is returned when the index holds nothing relevant to the
// question; the language model is not invoked in that case.
const NoContextAnswer = "I could not find any relevant information in the uploaded documents to answer that question."

const advisorSystemPrompt = "You are a financial document assistant. Answer the user's question based only on the provided context. If the context does not contain enough information, say so. Do not make up facts or give guarantees about returns."

// Retriever is the query half of the retrieval pipeline.
type Retriever interface {
	Query(ctx context.Context, question string, topK int) ([]index.SearchResult, error)
}

// AnswerGenerator produces a completion for an assembled prompt.
type AnswerGenerator interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// AnswerCache stores answers keyed by question so a repeated question skips
// the pipeline entirely.
type AnswerCache interface {
	Get(ctx context.Context, question string, topK int) (string, bool, error)
	Set(ctx context.Context, question string, topK int, answer string) error
}

// QueryLogPublisher hands a query log record to the async persistence queue.
type QueryLogPublisher interface {
	Publish(ctx context.Context, entry model.QueryLog) error
}

type AdvisorService struct {
	retriever Retriever
	generator AnswerGenerator
	cache     AnswerCache
	publisher QueryLogPublisher
}

func NewAdvisorService(
	retriever Retriever,
	generator AnswerGenerator,
	cache AnswerCache,
	publisher QueryLogPublisher,
) *AdvisorService {
	return &AdvisorService{
		retriever: retriever,
		generator: generator,
		cache:     cache,
		publisher: publisher,
	}
}

type AskInput struct {
	Question string
	TopK     int
}

type AskResult struct {
	Answer  string               `json:"answer"`
	Results []index.SearchResult `json:"results"`
	Cached  bool                 `json:"cached"`
}

// Ask answers a question from the ingested documents. Retrieval and
// generation failures propagate unchanged so the caller can tell an
// embedding outage from an index outage; cache and query-log failures are
// logged and ignored since they only cost a cache hit or an audit row.
func (s *AdvisorService) Ask(ctx context.Context, input AskInput) (*AskResult, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidInput
	}
	topK := input.TopK
	if topK <= 0 {
		topK = rag.DefaultTopK
	}

	if s.cache != nil {
		if answer, ok, err := s.cache.Get(ctx, question, topK); err != nil {
			log.Printf("answer cache get failed: %v", err)
		} else if ok {
			return &AskResult{Answer: answer, Cached: true}, nil
		}
	}

	started := time.Now()
	results, err := s.retriever.Query(ctx, question, topK)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		s.publishLog(ctx, question, NoContextAnswer, topK, 0, started)
		return &AskResult{Answer: NoContextAnswer}, nil
	}

	answer, err := s.generator.Complete(ctx, buildPrompt(question, results))
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	answer = strings.TrimSpace(answer)

	if s.cache != nil {
		if err := s.cache.Set(ctx, question, topK, answer); err != nil {
			log.Printf("answer cache set failed: %v", err)
		}
	}
	s.publishLog(ctx, question, answer, topK, len(results), started)

	return &AskResult{Answer: answer, Results: results}, nil
}

func (s *AdvisorService) publishLog(ctx context.Context, question, answer string, topK, matches int, started time.Time) {
	if s.publisher == nil {
		return
	}
	entry := model.QueryLog{
		Question:   question,
		Answer:     answer,
		TopK:       topK,
		Matches:    matches,
		DurationMs: time.Since(started).Milliseconds(),
	}
	if err := s.publisher.Publish(ctx, entry); err != nil {
		log.Printf("publish query log failed: %v", err)
	}
}

func buildPrompt(question string, results []index.SearchResult) []ai.ChatMessage {
	var contextBlock strings.Builder
	for _, r := range results {
		contextBlock.WriteString("\n---\n")
		contextBlock.WriteString(r.Content)
	}
	contextBlock.WriteString("\n---")

	userContent := "Context:" + contextBlock.String() + "\n\nQuestion: " + question + "\n\nAnswer:"
	return []ai.ChatMessage{
		{Role: "system", Content: advisorSystemPrompt},
		{Role: "user", Content: userContent},
	}
}
