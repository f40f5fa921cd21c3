package services

import (
	"errors"
	"testing"
	"time"

	"github.com/chayanon29/learnpay/verification"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testScorer() *Scorer {
	return NewScorer(ScorerConfig{
		AmountWeight:         40,
		DateWeight:           30,
		BankWeight:           30,
		AmountTolerance:      1.0,
		DateWindowDays:       7,
		AutoApproveThreshold: 80,
	})
}

func TestScore_AllChecksPass(t *testing.T) {
	orderDate := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	reading := &verification.SlipReading{
		Amount:    floatPtr(1500.00),
		TransDate: datePtr(orderDate),
		Sender:    verification.Party{Bank: strPtr("SCB")},
	}

	result := testScorer().Score(reading, ExpectedPayment{Amount: 1500.00, ReferenceDate: orderDate})

	assert.Equal(t, 100, result.Score)
	assert.True(t, result.AutoApproveEligible)
	require.Len(t, result.Checks, 3)
	for _, check := range result.Checks {
		assert.Equal(t, OutcomePass, check.Outcome, check.Field)
	}
}

func TestScore_AmountMismatchFailsOnlyAmountCheck(t *testing.T) {
	orderDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	reading := &verification.SlipReading{
		Amount:    floatPtr(1000.00),
		TransDate: datePtr(orderDate.AddDate(0, 0, -2)),
		Sender:    verification.Party{Bank: strPtr("KBANK")},
	}

	result := testScorer().Score(reading, ExpectedPayment{Amount: 1500.00, ReferenceDate: orderDate})

	assert.Equal(t, 60, result.Score)
	assert.False(t, result.AutoApproveEligible)
}

func TestScore_MissingFieldsNeverScore(t *testing.T) {
	tests := []struct {
		name    string
		reading *verification.SlipReading
		want    int
	}{
		{"everything missing", &verification.SlipReading{}, 0},
		{"only amount", &verification.SlipReading{Amount: floatPtr(500)}, 40},
		{"only bank", &verification.SlipReading{Sender: verification.Party{Bank: strPtr("BBL")}}, 30},
		{"empty bank string is not presence", &verification.SlipReading{Sender: verification.Party{Bank: strPtr("")}}, 0},
	}

	expected := ExpectedPayment{Amount: 500, ReferenceDate: time.Now()}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := testScorer().Score(tt.reading, expected)
			assert.Equal(t, tt.want, result.Score)
			assert.GreaterOrEqual(t, result.Score, 0)
			assert.LessOrEqual(t, result.Score, 100)
		})
	}
}

func TestScore_AmountTolerance(t *testing.T) {
	expected := ExpectedPayment{Amount: 1500.00, ReferenceDate: time.Now()}

	within := testScorer().Score(&verification.SlipReading{Amount: floatPtr(1500.99)}, expected)
	assert.Equal(t, 40, within.Score)

	outside := testScorer().Score(&verification.SlipReading{Amount: floatPtr(1501.00)}, expected)
	assert.Equal(t, 0, outside.Score)
}

func TestScore_DateWindow(t *testing.T) {
	orderDate := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	expected := ExpectedPayment{Amount: 99999, ReferenceDate: orderDate}

	edge := testScorer().Score(&verification.SlipReading{TransDate: datePtr(orderDate.AddDate(0, 0, -7))}, expected)
	assert.Equal(t, 30, edge.Score)

	past := testScorer().Score(&verification.SlipReading{TransDate: datePtr(orderDate.AddDate(0, 0, -8))}, expected)
	assert.Equal(t, 0, past.Score)

	future := testScorer().Score(&verification.SlipReading{TransDate: datePtr(orderDate.AddDate(0, 0, 3))}, expected)
	assert.Equal(t, 30, future.Score, "transfers dated after the order are still within the window")
}

func TestScore_ThresholdDrivesEligibility(t *testing.T) {
	orderDate := time.Now()
	reading := &verification.SlipReading{
		Amount:    floatPtr(100),
		TransDate: datePtr(orderDate),
	}
	expected := ExpectedPayment{Amount: 100, ReferenceDate: orderDate}

	// 70 points: below the default threshold.
	assert.False(t, testScorer().Score(reading, expected).AutoApproveEligible)

	lenient := NewScorer(ScorerConfig{
		AmountWeight: 40, DateWeight: 30, BankWeight: 30,
		AmountTolerance: 1.0, DateWindowDays: 7,
		AutoApproveThreshold: 70,
	})
	assert.True(t, lenient.Score(reading, expected).AutoApproveEligible)
}

func TestScore_IsDeterministic(t *testing.T) {
	orderDate := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	reading := &verification.SlipReading{
		Amount:    floatPtr(750.50),
		TransDate: datePtr(orderDate),
		Sender:    verification.Party{Bank: strPtr("KTB")},
	}
	expected := ExpectedPayment{Amount: 750.50, ReferenceDate: orderDate}

	first := testScorer().Score(reading, expected)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, testScorer().Score(reading, expected))
	}
}

func TestFailed_RecordsVerificationError(t *testing.T) {
	result := testScorer().Failed(errors.New("provider timed out"))

	assert.Equal(t, 0, result.Score)
	assert.False(t, result.AutoApproveEligible)
	require.NotNil(t, result.VerificationError)
	assert.Contains(t, *result.VerificationError, "provider timed out")
}
