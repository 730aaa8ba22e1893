package payments

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/anjiri1684/wellness_booking/models"
)

const DefaultSuccessRate = 0.75

// RandomSource yields draws in [0, 1).
type RandomSource interface {
	Float64() float64
}

type Result struct {
	Status    models.PaymentStatus `json:"status"`
	PaymentID string               `json:"payment_id"`
	Message   string               `json:"message"`
}

// Simulator stands in for a payment gateway. Each attempt is independent of
// amount, payer and history.
type Simulator struct {
	mu          sync.Mutex
	src         RandomSource
	successRate float64
}

func NewSimulator(src RandomSource, successRate float64) *Simulator {
	if src == nil {
		src = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Simulator{src: src, successRate: successRate}
}

func (s *Simulator) Attempt(_ context.Context, _ decimal.Decimal) Result {
	s.mu.Lock()
	draw := s.src.Float64()
	s.mu.Unlock()

	res := Result{PaymentID: NewPaymentID()}
	if draw < s.successRate {
		res.Status = models.PaymentSuccess
		res.Message = "Payment successful"
	} else {
		res.Status = models.PaymentFailed
		res.Message = "Payment failed"
	}
	return res
}

// NewPaymentID returns PAY_ followed by twelve upper-case hex characters.
func NewPaymentID() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return "PAY_" + strings.ToUpper(raw[:12])
}

// Fixed always returns the same draw; Fixed(0) always succeeds and Fixed(1) always fails.
type Fixed float64

func (f Fixed) Float64() float64 { return float64(f) }

// Sequence replays draws in order and repeats the last one when exhausted.
type Sequence struct {
	mu    sync.Mutex
	draws []float64
	next  int
}

func NewSequence(draws ...float64) *Sequence {
	return &Sequence{draws: draws}
}

func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.draws) == 0 {
		return 0
	}
	if s.next >= len(s.draws) {
		return s.draws[len(s.draws)-1]
	}
	v := s.draws[s.next]
	s.next++
	return v
}
