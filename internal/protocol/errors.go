package protocol

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Round routing/state.
	ErrRoundBusy     = "E_ROUND_BUSY"
	ErrRoundNotFound = "E_ROUND_NOT_FOUND"
	ErrRoundEnded    = "E_ROUND_ENDED"

	// Rule/action layer.
	ErrBadRequest    = "E_BAD_REQUEST"
	ErrLocked        = "E_LOCKED"
	ErrProtected     = "E_PROTECTED"
	ErrMoratorium    = "E_MORATORIUM"
	ErrOutOfRange    = "E_OUT_OF_RANGE"
	ErrNoResource    = "E_NO_RESOURCE"
	ErrExhausted     = "E_EXHAUSTED"
	ErrAtMaxDuration = "E_AT_MAX_DURATION"
	ErrInvalidTarget = "E_INVALID_TARGET"
	ErrGuardDenied   = "E_GUARD_DENIED"
	ErrConflict      = "E_CONFLICT"
	ErrInternal      = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest: {},
	ErrRoundBusy:       {},
	ErrRoundNotFound:   {},
	ErrRoundEnded:      {},
	ErrBadRequest:      {},
	ErrLocked:          {},
	ErrProtected:       {},
	ErrMoratorium:      {},
	ErrOutOfRange:      {},
	ErrNoResource:      {},
	ErrExhausted:       {},
	ErrAtMaxDuration:   {},
	ErrInvalidTarget:   {},
	ErrGuardDenied:     {},
	ErrConflict:        {},
	ErrInternal:        {},
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}
