package errors

import "errors"

var (
	ErrScheduleNotFound       = errors.New("delivery schedule not found")
	ErrScheduleExists         = errors.New("delivery schedule already exists")
	ErrInvalidScheduleInput   = errors.New("invalid delivery schedule input")
	ErrInvalidScheduleWindow  = errors.New("schedule end must be after schedule start")
	ErrUnsupportedChannel     = errors.New("unsupported delivery channel")
	ErrInvalidStateTransition = errors.New("invalid delivery schedule state transition")
	ErrSlotNotFound           = errors.New("respondent slot not found")
	ErrSlotExists             = errors.New("respondent slot already exists")
	ErrChannelNotFound        = errors.New("delivery channel not found")

	// Dispatch outcome taxonomy. Transport failure and timeout are retried
	// under the same policy but logged distinctly for channel health scoring;
	// an unavailable channel is skipped without consuming an attempt.
	ErrTransportFailure   = errors.New("channel transport rejected the dispatch")
	ErrTransportTimeout   = errors.New("channel transport timed out")
	ErrChannelUnavailable = errors.New("channel health check reports down")
	ErrFallbackExhausted  = errors.New("all channels and retries exhausted for respondent")
)
