package app

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finadvisor/internal/ai"
	"finadvisor/internal/index"
	"finadvisor/internal/model"
)

type fakeRetriever struct {
	results []index.SearchResult
	err     error
	calls   int
}

func (f *fakeRetriever) Query(ctx context.Context, question string, topK int) ([]index.SearchResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

type fakeGenerator struct {
	answer string
	err    error
	calls  int
	prompt []ai.ChatMessage
}

func (f *fakeGenerator) Complete(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	f.calls++
	f.prompt = messages
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

type fakeCache struct {
	stored map[string]string
	hit    string
	hasHit bool
}

func (f *fakeCache) Get(ctx context.Context, question string, topK int) (string, bool, error) {
	if f.hasHit {
		return f.hit, true, nil
	}
	return "", false, nil
}

func (f *fakeCache) Set(ctx context.Context, question string, topK int, answer string) error {
	if f.stored == nil {
		f.stored = map[string]string{}
	}
	f.stored[question] = answer
	return nil
}

type fakePublisher struct {
	entries []model.QueryLog
}

func (f *fakePublisher) Publish(ctx context.Context, entry model.QueryLog) error {
	f.entries = append(f.entries, entry)
	return nil
}

func TestAskEmptyQuestion(t *testing.T) {
	svc := NewAdvisorService(&fakeRetriever{}, &fakeGenerator{}, nil, nil)
	_, err := svc.Ask(context.Background(), AskInput{Question: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestAskNoRelevantContentSkipsGenerator(t *testing.T) {
	retriever := &fakeRetriever{results: nil}
	generator := &fakeGenerator{answer: "should never be used"}
	publisher := &fakePublisher{}
	svc := NewAdvisorService(retriever, generator, nil, publisher)

	result, err := svc.Ask(context.Background(), AskInput{Question: "what about dividends?"})
	require.NoError(t, err)
	assert.Equal(t, NoContextAnswer, result.Answer)
	assert.Empty(t, result.Results)
	assert.Zero(t, generator.calls)

	require.Len(t, publisher.entries, 1)
	assert.Equal(t, 0, publisher.entries[0].Matches)
}

func TestAskGeneratesFromRetrievedContext(t *testing.T) {
	retriever := &fakeRetriever{results: []index.SearchResult{
		{Content: "Dividends are taxed as income.", SourceID: "doc1", Score: 1.8},
		{Content: "Qualified dividends get lower rates.", SourceID: "doc1", Score: 1.6},
	}}
	generator := &fakeGenerator{answer: "  Dividends are taxed; qualified ones at lower rates.  "}
	cacheStub := &fakeCache{}
	publisher := &fakePublisher{}
	svc := NewAdvisorService(retriever, generator, cacheStub, publisher)

	result, err := svc.Ask(context.Background(), AskInput{Question: "how are dividends taxed?", TopK: 2})
	require.NoError(t, err)
	assert.Equal(t, "Dividends are taxed; qualified ones at lower rates.", result.Answer)
	assert.Len(t, result.Results, 2)
	assert.False(t, result.Cached)

	require.Equal(t, 1, generator.calls)
	require.Len(t, generator.prompt, 2)
	assert.Equal(t, "system", generator.prompt[0].Role)
	assert.Contains(t, generator.prompt[1].Content, "Dividends are taxed as income.")
	assert.Contains(t, generator.prompt[1].Content, "how are dividends taxed?")

	assert.Equal(t, "Dividends are taxed; qualified ones at lower rates.", cacheStub.stored["how are dividends taxed?"])
	require.Len(t, publisher.entries, 1)
	assert.Equal(t, 2, publisher.entries[0].Matches)
}

func TestAskCacheHitSkipsPipeline(t *testing.T) {
	retriever := &fakeRetriever{}
	generator := &fakeGenerator{}
	svc := NewAdvisorService(retriever, generator, &fakeCache{hasHit: true, hit: "cached answer"}, nil)

	result, err := svc.Ask(context.Background(), AskInput{Question: "repeat question"})
	require.NoError(t, err)
	assert.Equal(t, "cached answer", result.Answer)
	assert.True(t, result.Cached)
	assert.Zero(t, retriever.calls)
	assert.Zero(t, generator.calls)
}

func TestAskPropagatesRetrievalError(t *testing.T) {
	retrieveErr := errors.New("embedding service down")
	svc := NewAdvisorService(&fakeRetriever{err: retrieveErr}, &fakeGenerator{}, nil, nil)

	_, err := svc.Ask(context.Background(), AskInput{Question: "anything"})
	assert.ErrorIs(t, err, retrieveErr)
}

func TestAskPropagatesGeneratorError(t *testing.T) {
	genErr := errors.New("llm down")
	retriever := &fakeRetriever{results: []index.SearchResult{{Content: "c", SourceID: "doc1", Score: 2.0}}}
	svc := NewAdvisorService(retriever, &fakeGenerator{err: genErr}, nil, nil)

	_, err := svc.Ask(context.Background(), AskInput{Question: "anything"})
	assert.ErrorIs(t, err, genErr)
}
