package model

import (
	"maps"
	"sync"

	"github.com/cabird/gpt-chrome-latex-ext/provider"
)

// Usage tracks token usage for a model.
type Usage struct {
	// InputTokens, OutputTokens and CachedInputTokens are as reported by
	// the service.
	InputTokens       int `json:"input_tokens"`
	OutputTokens      int `json:"output_tokens"`
	CachedInputTokens int `json:"cached_input_tokens"`
	Requests          int `json:"requests"`

	// EstimatedInputTokens sums the client-side estimates of every request.
	EstimatedInputTokens int `json:"estimated_input_tokens"`

	// ReconciledRequests counts requests whose response reported usage, and
	// ReconciledEstimate sums their estimates.
	ReconciledRequests int `json:"reconciled_requests"`
	ReconciledEstimate int `json:"reconciled_estimate"`
}

// Add adds the given usage to this usage.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
	u.CachedInputTokens += other.CachedInputTokens
	u.Requests += other.Requests
	u.EstimatedInputTokens += other.EstimatedInputTokens
	u.ReconciledRequests += other.ReconciledRequests
	u.ReconciledEstimate += other.ReconciledEstimate
}

// TotalTokens returns the total reported tokens used.
func (u *Usage) TotalTokens() int {
	return u.InputTokens + u.OutputTokens
}

// EstimateRatio is estimated over reported prompt tokens across reconciled
// requests. 1.0 means the estimator was exact; 0 means nothing was
// reconciled.
func (u *Usage) EstimateRatio() float64 {
	if u.InputTokens == 0 {
		return 0
	}
	return float64(u.ReconciledEstimate) / float64(u.InputTokens)
}

// Reconciliation compares one request's estimate with the reported count.
type Reconciliation struct {
	Model     ModelName `json:"model"`
	Estimated int       `json:"estimated"`
	Reported  int       `json:"reported"`

	// Reconciled is false when the response had no usage; Delta and
	// RelativeError are then zero.
	Reconciled bool `json:"reconciled"`

	// Delta is Estimated-Reported; positive means the estimate was high.
	Delta int `json:"delta"`

	// RelativeError is Delta/Reported.
	RelativeError float64 `json:"relative_error"`
}

// ModelPricing holds per-million-token pricing for a model.
type ModelPricing struct {
	InputPerMillion float64

	// CachedInputPerMillion applies to cached prompt tokens. Zero means
	// cached tokens are billed at InputPerMillion.
	CachedInputPerMillion float64

	OutputPerMillion float64
}

// ModelPrices contains list pricing in USD for GPT model families (as of 2025).
// Azure pricing differs by region and agreement.
var ModelPrices = map[ModelName]ModelPricing{
	ModelGPT41:     {InputPerMillion: 2.00, CachedInputPerMillion: 0.50, OutputPerMillion: 8.00},
	ModelGPT41Mini: {InputPerMillion: 0.40, CachedInputPerMillion: 0.10, OutputPerMillion: 1.60},
	ModelGPT41Nano: {InputPerMillion: 0.10, CachedInputPerMillion: 0.025, OutputPerMillion: 0.40},
	ModelGPT4o:     {InputPerMillion: 2.50, CachedInputPerMillion: 1.25, OutputPerMillion: 10.00},
	ModelGPT4oMini: {InputPerMillion: 0.15, CachedInputPerMillion: 0.075, OutputPerMillion: 0.60},
	ModelGPT4Turbo: {InputPerMillion: 10.00, OutputPerMillion: 30.00},
	ModelGPT4:      {InputPerMillion: 30.00, OutputPerMillion: 60.00},
	ModelGPT35:     {InputPerMillion: 0.50, OutputPerMillion: 1.50},
	ModelO1:        {InputPerMillion: 15.00, CachedInputPerMillion: 7.50, OutputPerMillion: 60.00},
	ModelO3Mini:    {InputPerMillion: 1.10, CachedInputPerMillion: 0.55, OutputPerMillion: 4.40},
	ModelO4Mini:    {InputPerMillion: 1.10, CachedInputPerMillion: 0.275, OutputPerMillion: 4.40},
}

// Cost prices u with p.
func (p ModelPricing) Cost(u Usage) float64 {
	cachedPrice := p.CachedInputPerMillion
	if cachedPrice == 0 {
		cachedPrice = p.InputPerMillion
	}
	uncached := u.InputTokens - u.CachedInputTokens
	return float64(uncached)/1_000_000*p.InputPerMillion +
		float64(u.CachedInputTokens)/1_000_000*cachedPrice +
		float64(u.OutputTokens)/1_000_000*p.OutputPerMillion
}

// Tracker records estimates against reported usage, per model family.
// It is safe for concurrent use.
type Tracker struct {
	mu     sync.RWMutex
	totals map[ModelName]Usage
}

// NewTracker creates a new tracker.
func NewTracker() *Tracker {
	return &Tracker{
		totals: make(map[ModelName]Usage),
	}
}

// Record adds one request. model may be a full identifier or deployment
// name; estimatedPrompt is the client-side count of the rendered prompt and
// reported is the usage from the response (zero when absent).
func (t *Tracker) Record(model string, estimatedPrompt int, reported provider.TokenUsage) Reconciliation {
	name := NormalizeModelName(model)
	rec := Reconciliation{
		Model:     name,
		Estimated: estimatedPrompt,
		Reported:  reported.InputTokens,
	}
	if reported.InputTokens > 0 {
		rec.Reconciled = true
		rec.Delta = estimatedPrompt - reported.InputTokens
		rec.RelativeError = float64(rec.Delta) / float64(reported.InputTokens)
	}

	u := Usage{
		InputTokens:          reported.InputTokens,
		OutputTokens:         reported.OutputTokens,
		CachedInputTokens:    reported.CachedInputTokens,
		Requests:             1,
		EstimatedInputTokens: estimatedPrompt,
	}
	if rec.Reconciled {
		u.ReconciledRequests = 1
		u.ReconciledEstimate = estimatedPrompt
	}
	t.RecordUsage(name, u)
	return rec
}

// RecordUsage adds a usage record for the given model.
func (t *Tracker) RecordUsage(model ModelName, usage Usage) {
	t.mu.Lock()
	defer t.mu.Unlock()

	u := t.totals[model]
	u.Add(usage)
	t.totals[model] = u
}

// Usage returns the usage for a specific model.
func (t *Tracker) Usage(model ModelName) Usage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.totals[model]
}

// Summary returns a copy of all usage totals.
func (t *Tracker) Summary() map[ModelName]Usage {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return maps.Clone(t.totals)
}

// TotalUsage returns aggregated usage across all models.
func (t *Tracker) TotalUsage() Usage {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var total Usage
	for _, u := range t.totals {
		total.Add(u)
	}
	return total
}

// EstimatedCost calculates the estimated cost based on current pricing.
// Models without pricing contribute nothing.
func (t *Tracker) EstimatedCost() float64 {
	var total float64
	for _, cost := range t.EstimatedCostByModel() {
		total += cost
	}
	return total
}

// EstimatedCostByModel returns the estimated cost for each priced model.
func (t *Tracker) EstimatedCostByModel() map[ModelName]float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()

	result := make(map[ModelName]float64, len(t.totals))
	for model, usage := range t.totals {
		prices, ok := ModelPrices[model]
		if !ok {
			continue
		}
		result[model] = prices.Cost(usage)
	}
	return result
}

// Reset clears all tracked usage.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.totals = make(map[ModelName]Usage)
}
