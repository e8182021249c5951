package strategy

import (
	"github.com/meridian-lab/meridian-trading/internal/types"
	"github.com/meridian-lab/meridian-trading/pkg/errors"
)

// stopTargetFromPips builds stop-loss/take-profit levels at a fixed pip
// distance from the entry, with the take-profit scaled by the configured
// risk/reward multiple.
func stopTargetFromPips(entry float64, side types.Direction, pipSize, stopPips, riskReward float64) (types.StopTarget, error) {
	if pipSize <= 0 {
		return types.StopTarget{}, errors.Newf(errors.ErrCodeInvalidParameter, "pip size must be positive, got %f", pipSize)
	}
	if stopPips <= 0 {
		return types.StopTarget{}, errors.Newf(errors.ErrCodeInvalidParameter, "stop distance must be positive, got %f pips", stopPips)
	}

	stopDist := stopPips * pipSize
	targetPips := stopPips * riskReward
	targetDist := targetPips * pipSize

	st := types.StopTarget{StopLossPips: stopPips, TakeProfitPips: targetPips}
	switch side {
	case types.DirectionBuy:
		st.StopLoss = entry - stopDist
		st.TakeProfit = entry + targetDist
	case types.DirectionSell:
		st.StopLoss = entry + stopDist
		st.TakeProfit = entry - targetDist
	default:
		return types.StopTarget{}, errors.Newf(errors.ErrCodeInvalidParameter, "cannot compute levels for direction %q", string(side))
	}

	return st, nil
}

// trailStop moves the stop behind the current price once open profit
// exceeds the activation distance. The stop only ever tightens: a candidate
// level that does not improve on the current stop yields no update.
func trailStop(entry, current, currentStop float64, side types.Direction, pipSize, activatePips, distancePips float64) (types.TrailingDecision, error) {
	if pipSize <= 0 {
		return types.TrailingDecision{}, errors.Newf(errors.ErrCodeInvalidParameter, "pip size must be positive, got %f", pipSize)
	}

	var profitPips, candidate float64
	switch side {
	case types.DirectionBuy:
		profitPips = (current - entry) / pipSize
		candidate = current - distancePips*pipSize
	case types.DirectionSell:
		profitPips = (entry - current) / pipSize
		candidate = current + distancePips*pipSize
	default:
		return types.TrailingDecision{}, errors.Newf(errors.ErrCodeInvalidParameter, "cannot trail direction %q", string(side))
	}

	decision := types.TrailingDecision{ProfitPips: profitPips}
	if profitPips < activatePips {
		return decision, nil
	}

	improves := (side == types.DirectionBuy && (currentStop == 0 || candidate > currentStop)) ||
		(side == types.DirectionSell && (currentStop == 0 || candidate < currentStop))
	if !improves {
		return decision, nil
	}

	decision.ShouldUpdate = true
	decision.NewStopLoss = candidate

	return decision, nil
}
