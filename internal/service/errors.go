package service

import "errors"

var (
	ErrInvalidUser   = errors.New("user id is required")
	ErrInvalidTarget = errors.New("target amount must be positive")
	ErrInvalidAmount = errors.New("amount must be positive")
	ErrUnknownType   = errors.New("unknown transaction type")
	ErrEmptyName     = errors.New("name is required")
	ErrEmptyTitle    = errors.New("title is required")
	ErrInvalidCode   = errors.New("link code is required")
	// ErrSentFlag - флаг enviado меняется только через MarkAlertSent
	ErrSentFlag = errors.New("alert sent flag can only be set by MarkAlertSent")
	ErrNotFound = errors.New("not found")
)
