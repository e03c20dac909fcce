package room

// Error codes for room operations. The transport layer maps them to
// HTTP statuses (room_not_found → 404, surrender_cooldown → 429,
// everything else → 400).
const (
	CodeRoomNotFound      = "room_not_found"
	CodeRoomLocked        = "room_locked"
	CodeTimeUp            = "time_up"
	CodeUnknownWord       = "unknown_word"
	CodeRoomFull          = "room_full"
	CodeDailyRoom         = "daily_room"
	CodeNotSurrenderable  = "not_surrenderable"
	CodeSurrenderCooldown = "surrender_cooldown"
	CodeMissingPlayerName = "missing_player_name"
	CodeInvalidPayload    = "invalid_payload"
	CodeResetFailed       = "reset_failed"
)

// Error is a client-facing failure with a stable code.
type Error struct {
	Code       string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after,omitempty"` // seconds, cooldown only
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}
