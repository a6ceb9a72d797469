package strategy

import (
	"fmt"
	"strings"

	"github.com/Qwalex/IntradayBot/internal/signal"
)

// Strategy defines behaviour shared by strategy implementations used by the bot.
type Strategy interface {
	Evaluate(closes []float64) signal.Signal
	MinCloses() int
	Name() string
}

// Params expresses tunable knobs required by strategy constructors.
type Params struct {
	ShortPeriod int
	LongPeriod  int
}

// Build returns a strategy implementation matching the configured mode.
func Build(mode string, params Params) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", "sma", "sma_cross", "smacross":
		return NewSMACross(params.ShortPeriod, params.LongPeriod)
	default:
		return nil, fmt.Errorf("unknown strategy mode %q", mode)
	}
}
