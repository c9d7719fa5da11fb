package domain

import "errors"

var (
	ErrSendingReplyFailed    = errors.New("failed to send reply")
	ErrGrammar               = errors.New("grammar error")
	ErrDuplicateRegistration = errors.New("duplicate registration")
	ErrTimeout               = errors.New("handler timed out")
	ErrNotModified           = errors.New("message is not modified")
	ErrMessageTooLong        = errors.New("message is too long")
	ErrSoftResolution        = errors.New("could not resolve")
	ErrGroupCycle            = errors.New("user group references itself")
	ErrGroupNotFound         = errors.New("user group not found")
	ErrUserNotFound          = errors.New("user not found")
	ErrNoteNotFound          = errors.New("note not found")
)
