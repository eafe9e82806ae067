package rg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	h := []BetRecord{
		bet(1, 10, ResultWin, "NBA", 1),
		bet(2, 30, ResultLoss, "NBA", 2),
		bet(3, 20, ResultWin, "NFL", 3),
		bet(4, 99, ResultPending, "NFL", 4),
	}
	s := Summarize(h)
	assert.Equal(t, 3, s.Settled)
	assert.Equal(t, 2, s.Wins)
	assert.Equal(t, 1, s.Losses)
	assert.Equal(t, 1, s.Pending)
	assert.InDelta(t, 2.0/3.0, s.WinRate, 1e-9)
	assert.Equal(t, 60.0, s.TotalStaked)
	assert.Equal(t, 30.0, s.AmountWon)
	assert.Equal(t, 30.0, s.AmountLost)
	assert.Equal(t, 0.0, s.Net)
	assert.Equal(t, 0.0, s.ROI)
}

func TestSummarize_Empty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil))
}
