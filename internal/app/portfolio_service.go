package app

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"finadvisor/internal/ai"
	"finadvisor/internal/model"
	"finadvisor/internal/rag"
	"finadvisor/internal/repository"
)

const adviceSystemPrompt = "You are a cautious financial advisor. Give practical, balanced advice grounded in the portfolio summary and the provided document context. Mention concentration risks when allocations are lopsided. Never promise returns."

const defaultAdviceQuestion = "How is this portfolio positioned and what changes are worth considering?"

type PortfolioService struct {
	repo      *repository.PortfolioRepository
	retriever Retriever
	generator AnswerGenerator
}

func NewPortfolioService(repo *repository.PortfolioRepository, retriever Retriever, generator AnswerGenerator) *PortfolioService {
	return &PortfolioService{repo: repo, retriever: retriever, generator: generator}
}

// HoldingView is one valued position with its share of the portfolio.
type HoldingView struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Quantity  float64 `json:"quantity"`
	Price     float64 `json:"price"`
	Value     float64 `json:"value"`
	WeightPct float64 `json:"weight_pct"`
}

type PortfolioSummary struct {
	Portfolio  string        `json:"portfolio"`
	Holdings   []HoldingView `json:"holdings"`
	TotalValue float64       `json:"total_value"`
}

type AdviceResult struct {
	Portfolio string `json:"portfolio"`
	Question  string `json:"question"`
	Advice    string `json:"advice"`
}

// Import parses a holdings CSV and replaces the named portfolio's positions.
// Expected columns: symbol,name,quantity,price (header row required).
func (s *PortfolioService) Import(ctx context.Context, portfolio string, r io.Reader) (*PortfolioSummary, error) {
	portfolio = strings.TrimSpace(portfolio)
	if portfolio == "" {
		return nil, ErrInvalidInput
	}

	holdings, err := ParseHoldingsCSV(r)
	if err != nil {
		return nil, err
	}
	for i := range holdings {
		holdings[i].Portfolio = portfolio
	}
	if err := s.repo.ReplaceHoldings(portfolio, holdings); err != nil {
		return nil, err
	}
	return summarize(portfolio, holdings), nil
}

// Summary returns the valued holdings and allocation weights of a portfolio.
func (s *PortfolioService) Summary(ctx context.Context, portfolio string) (*PortfolioSummary, error) {
	portfolio = strings.TrimSpace(portfolio)
	if portfolio == "" {
		return nil, ErrInvalidInput
	}
	holdings, err := s.repo.ListByPortfolio(portfolio)
	if err != nil {
		return nil, err
	}
	if len(holdings) == 0 {
		return nil, ErrPortfolioNotFound
	}
	return summarize(portfolio, holdings), nil
}

// ListPortfolios returns the names of all stored portfolios.
func (s *PortfolioService) ListPortfolios(ctx context.Context) ([]string, error) {
	return s.repo.ListPortfolios()
}

// Delete removes the named portfolio's holdings.
func (s *PortfolioService) Delete(ctx context.Context, portfolio string) error {
	if strings.TrimSpace(portfolio) == "" {
		return ErrInvalidInput
	}
	return s.repo.DeleteByPortfolio(portfolio)
}

// Advise builds an advice prompt from the portfolio summary plus any
// relevant document context and asks the language model. The portfolio
// itself is always context, so advice runs even when retrieval finds
// nothing.
func (s *PortfolioService) Advise(ctx context.Context, portfolio, question string) (*AdviceResult, error) {
	summary, err := s.Summary(ctx, portfolio)
	if err != nil {
		return nil, err
	}
	question = strings.TrimSpace(question)
	if question == "" {
		question = defaultAdviceQuestion
	}

	results, err := s.retriever.Query(ctx, question, rag.DefaultTopK)
	if err != nil {
		return nil, err
	}

	var prompt strings.Builder
	prompt.WriteString("Portfolio summary:\n")
	prompt.WriteString(renderSummary(summary))
	if len(results) > 0 {
		prompt.WriteString("\nDocument context:")
		for _, r := range results {
			prompt.WriteString("\n---\n")
			prompt.WriteString(r.Content)
		}
		prompt.WriteString("\n---\n")
	}
	prompt.WriteString("\nQuestion: ")
	prompt.WriteString(question)
	prompt.WriteString("\n\nAdvice:")

	advice, err := s.generator.Complete(ctx, []ai.ChatMessage{
		{Role: "system", Content: adviceSystemPrompt},
		{Role: "user", Content: prompt.String()},
	})
	if err != nil {
		return nil, fmt.Errorf("generate advice: %w", err)
	}

	return &AdviceResult{
		Portfolio: portfolio,
		Question:  question,
		Advice:    strings.TrimSpace(advice),
	}, nil
}

// ParseHoldingsCSV reads symbol,name,quantity,price rows into holdings.
func ParseHoldingsCSV(r io.Reader) ([]model.PortfolioHolding, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: missing header row", ErrCSVFormat)
	}
	cols, err := holdingColumns(header)
	if err != nil {
		return nil, err
	}

	var holdings []model.PortfolioHolding
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrCSVFormat, line, err)
		}

		symbol := strings.ToUpper(strings.TrimSpace(record[cols["symbol"]]))
		if symbol == "" {
			return nil, fmt.Errorf("%w: line %d: empty symbol", ErrCSVFormat, line)
		}
		quantity, err := strconv.ParseFloat(strings.TrimSpace(record[cols["quantity"]]), 64)
		if err != nil || quantity <= 0 {
			return nil, fmt.Errorf("%w: line %d: bad quantity", ErrCSVFormat, line)
		}
		price, err := strconv.ParseFloat(strings.TrimSpace(record[cols["price"]]), 64)
		if err != nil || price < 0 {
			return nil, fmt.Errorf("%w: line %d: bad price", ErrCSVFormat, line)
		}

		name := ""
		if idx, ok := cols["name"]; ok {
			name = strings.TrimSpace(record[idx])
		}
		holdings = append(holdings, model.PortfolioHolding{
			Symbol:   symbol,
			Name:     name,
			Quantity: quantity,
			Price:    price,
			Value:    quantity * price,
		})
	}
	if len(holdings) == 0 {
		return nil, fmt.Errorf("%w: no holdings rows", ErrCSVFormat)
	}
	return holdings, nil
}

func holdingColumns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range []string{"symbol", "quantity", "price"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("%w: missing column %q", ErrCSVFormat, required)
		}
	}
	return cols, nil
}

func summarize(portfolio string, holdings []model.PortfolioHolding) *PortfolioSummary {
	var total float64
	for _, h := range holdings {
		total += h.Value
	}
	views := make([]HoldingView, len(holdings))
	for i, h := range holdings {
		weight := 0.0
		if total > 0 {
			weight = h.Value / total * 100
		}
		views[i] = HoldingView{
			Symbol:    h.Symbol,
			Name:      h.Name,
			Quantity:  h.Quantity,
			Price:     h.Price,
			Value:     h.Value,
			WeightPct: weight,
		}
	}
	return &PortfolioSummary{Portfolio: portfolio, Holdings: views, TotalValue: total}
}

func renderSummary(s *PortfolioSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Total value: %.2f\n", s.TotalValue)
	for _, h := range s.Holdings {
		fmt.Fprintf(&b, "- %s (%s): %.4f units at %.2f = %.2f (%.1f%%)\n",
			h.Symbol, h.Name, h.Quantity, h.Price, h.Value, h.WeightPct)
	}
	return b.String()
}
