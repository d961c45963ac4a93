package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculateRSI_InsufficientData(t *testing.T) {
	closes := make([]float64, 14)
	for i := range closes {
		closes[i] = float64(i)
	}
	assert.Nil(t, CalculateRSI(closes, 14))
}

func TestCalculateRSI_MonotonicIncreaseIs100(t *testing.T) {
	closes := make([]float64, 15)
	for i := range closes {
		closes[i] = float64(100 + i)
	}

	result := CalculateRSI(closes, 14)
	require.NotNil(t, result)
	assert.Equal(t, 100.0, *result)
}

func TestCalculateRSI_FlatSeriesIs100(t *testing.T) {
	closes := []float64{5, 5, 5, 5, 5, 5}
	result := CalculateRSI(closes, 3)
	require.NotNil(t, result)
	assert.Equal(t, 100.0, *result)
}

func TestCalculateRSI_MonotonicDecreaseIsZero(t *testing.T) {
	closes := make([]float64, 20)
	for i := range closes {
		closes[i] = float64(200 - i)
	}

	result := CalculateRSI(closes, 14)
	require.NotNil(t, result)
	assert.InDelta(t, 0.0, *result, 1e-9)
}

func TestCalculateRSI_MatchesWilderDefinition(t *testing.T) {
	closes := []float64{44.34, 44.09, 44.15, 43.61, 44.33, 44.83, 45.10, 45.42, 45.84, 46.08,
		45.89, 46.03, 45.61, 46.28, 46.28, 46.00, 46.03, 46.41, 46.22, 45.64}
	period := 14

	var avgGain, avgLoss float64
	for i := 1; i <= period; i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			avgGain += change
		} else {
			avgLoss -= change
		}
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)
	for i := period + 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		gain, loss := 0.0, 0.0
		if change > 0 {
			gain = change
		} else {
			loss = -change
		}
		avgGain = (avgGain*float64(period-1) + gain) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + loss) / float64(period)
	}
	expected := 100 - 100/(1+avgGain/avgLoss)

	result := CalculateRSI(closes, period)
	require.NotNil(t, result)
	assert.InDelta(t, expected, *result, 1e-6)
}
