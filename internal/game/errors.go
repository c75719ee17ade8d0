package game

import (
	"errors"
	"fmt"
)

// ErrIllegalAction is the root of every rule violation. Rooms drop actions
// that fail with it without telling anyone.
var ErrIllegalAction = errors.New("illegal action")

var (
	ErrUnknownPlayer         = fmt.Errorf("%w: unknown player", ErrIllegalAction)
	ErrNotYourTurn           = fmt.Errorf("%w: not your turn", ErrIllegalAction)
	ErrWrongPhase            = fmt.Errorf("%w: not allowed in this phase", ErrIllegalAction)
	ErrInvalidPlacement      = fmt.Errorf("%w: invalid placement", ErrIllegalAction)
	ErrInsufficientResources = fmt.Errorf("%w: insufficient resources", ErrIllegalAction)
	ErrBankEmpty             = fmt.Errorf("%w: bank cannot cover request", ErrIllegalAction)
	ErrNoPiecesLeft          = fmt.Errorf("%w: no pieces left", ErrIllegalAction)
	ErrPendingObligation     = fmt.Errorf("%w: pending obligation", ErrIllegalAction)
	ErrAlreadyRolled         = fmt.Errorf("%w: dice already rolled", ErrIllegalAction)
	ErrNotRolled             = fmt.Errorf("%w: dice not rolled", ErrIllegalAction)
	ErrTradeState            = fmt.Errorf("%w: trade not in a valid state", ErrIllegalAction)
	ErrCardUnavailable       = fmt.Errorf("%w: card unavailable", ErrIllegalAction)
	ErrGameOver              = fmt.Errorf("%w: game is over", ErrIllegalAction)
	ErrUnknownAction         = errors.New("unknown action type")
)
