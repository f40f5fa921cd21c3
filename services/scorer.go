package services

import (
	"fmt"
	"math"
	"time"

	config "github.com/chayanon29/learnpay/configs"
	"github.com/chayanon29/learnpay/verification"
)

const (
	CheckAmount = "amount"
	CheckDate   = "date"
	CheckBank   = "sender_bank"
)

const (
	OutcomePass = "pass"
	OutcomeWarn = "warn"
	OutcomeFail = "fail"
)

// ExpectedPayment is what the slip is scored against.
type ExpectedPayment struct {
	Amount        float64
	ReferenceDate time.Time
	Account       string
}

type CheckResult struct {
	Field   string `json:"field"`
	Outcome string `json:"outcome"`
	Points  int    `json:"points"`
	Message string `json:"message"`
}

type ConfidenceResult struct {
	Score               int           `json:"score"`
	Checks              []CheckResult `json:"checks"`
	AutoApproveEligible bool          `json:"auto_approve_eligible"`
	VerificationError   *string       `json:"verification_error,omitempty"`
}

// ScorerConfig holds the scoring policy. The weights must sum to 100 and
// the threshold is deliberately a parameter, not an inline constant.
type ScorerConfig struct {
	AmountWeight         int
	DateWeight           int
	BankWeight           int
	AmountTolerance      float64
	DateWindowDays       int
	AutoApproveThreshold int
}

func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		AmountWeight:         40,
		DateWeight:           30,
		BankWeight:           30,
		AmountTolerance:      1.0,
		DateWindowDays:       7,
		AutoApproveThreshold: config.ConfigInt("AUTO_APPROVE_THRESHOLD", 80),
	}
}

type Scorer struct {
	cfg ScorerConfig
}

func NewScorer(cfg ScorerConfig) *Scorer {
	return &Scorer{cfg: cfg}
}

// Score compares a slip reading against the expected payment and returns
// the weighted confidence breakdown. It is deterministic and free of side
// effects.
func (s *Scorer) Score(reading *verification.SlipReading, expected ExpectedPayment) ConfidenceResult {
	result := ConfidenceResult{Checks: make([]CheckResult, 0, 3)}

	result.addCheck(s.checkAmount(reading, expected))
	result.addCheck(s.checkDate(reading, expected))
	result.addCheck(s.checkBank(reading))

	result.AutoApproveEligible = result.Score >= s.cfg.AutoApproveThreshold
	return result
}

// Failed builds the zero-score result recorded when the provider call
// itself failed. The error text is kept for the audit trail.
func (s *Scorer) Failed(verr error) ConfidenceResult {
	msg := verr.Error()
	return ConfidenceResult{
		Score:               0,
		Checks:              []CheckResult{},
		AutoApproveEligible: false,
		VerificationError:   &msg,
	}
}

func (r *ConfidenceResult) addCheck(c CheckResult) {
	r.Checks = append(r.Checks, c)
	r.Score += c.Points
}

func (s *Scorer) checkAmount(reading *verification.SlipReading, expected ExpectedPayment) CheckResult {
	if reading.Amount == nil {
		return CheckResult{Field: CheckAmount, Outcome: OutcomeFail, Points: 0, Message: "no amount detected on slip"}
	}
	diff := math.Abs(*reading.Amount - expected.Amount)
	if diff < s.cfg.AmountTolerance {
		return CheckResult{Field: CheckAmount, Outcome: OutcomePass, Points: s.cfg.AmountWeight,
			Message: fmt.Sprintf("detected %.2f matches expected %.2f", *reading.Amount, expected.Amount)}
	}
	return CheckResult{Field: CheckAmount, Outcome: OutcomeFail, Points: 0,
		Message: fmt.Sprintf("detected %.2f differs from expected %.2f", *reading.Amount, expected.Amount)}
}

func (s *Scorer) checkDate(reading *verification.SlipReading, expected ExpectedPayment) CheckResult {
	transDate, ok := reading.ParsedDate()
	if !ok {
		return CheckResult{Field: CheckDate, Outcome: OutcomeFail, Points: 0, Message: "no transfer date detected on slip"}
	}
	window := time.Duration(s.cfg.DateWindowDays) * 24 * time.Hour
	gap := expected.ReferenceDate.Sub(transDate)
	if gap < 0 {
		gap = -gap
	}
	if gap <= window {
		return CheckResult{Field: CheckDate, Outcome: OutcomePass, Points: s.cfg.DateWeight,
			Message: fmt.Sprintf("transfer date %s is within %d days of the order", transDate.Format("2006-01-02"), s.cfg.DateWindowDays)}
	}
	return CheckResult{Field: CheckDate, Outcome: OutcomeFail, Points: 0,
		Message: fmt.Sprintf("transfer date %s is outside the %d-day window", transDate.Format("2006-01-02"), s.cfg.DateWindowDays)}
}

// checkBank is intentionally lenient: presence of the sending bank, not an
// exact account match.
func (s *Scorer) checkBank(reading *verification.SlipReading) CheckResult {
	if reading.Sender.Bank != nil && *reading.Sender.Bank != "" {
		return CheckResult{Field: CheckBank, Outcome: OutcomePass, Points: s.cfg.BankWeight,
			Message: "sending bank detected: " + *reading.Sender.Bank}
	}
	return CheckResult{Field: CheckBank, Outcome: OutcomeWarn, Points: 0, Message: "no sending bank detected on slip"}
}
