package session

import "errors"

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionEnded      = errors.New("session has ended")
	ErrSessionNotRunning = errors.New("session is not running")
	ErrInvalidTransition = errors.New("invalid session transition")
	ErrConsentRequired   = errors.New("camera consent is required for vision sessions")
	ErrInvalidKind       = errors.New("invalid session kind")
	ErrWrongSessionKind  = errors.New("operation not supported for this session kind")
	ErrFrameLimit        = errors.New("session frame limit reached")
	ErrInvalidToken      = errors.New("invalid session token")
)
