package swiss

import (
	"errors"
	"fmt"
)

// ErrNotEnoughPlayers is returned when fewer than two active participants
// are available for pairing.
var ErrNotEnoughPlayers = errors.New("not enough active participants to pair (minimum 2 required)")

// PairingInfeasibleError is returned when no legal pairing exists for the
// residual set, typically in late rounds where the remaining players have
// all faced each other. Callers can inspect the residual and decide whether
// to allow a rematch.
type PairingInfeasibleError struct {
	ResidualIDs []int
}

func (e *PairingInfeasibleError) Error() string {
	return fmt.Sprintf("no legal pairing exists for %d remaining participants %v",
		len(e.ResidualIDs), e.ResidualIDs)
}
