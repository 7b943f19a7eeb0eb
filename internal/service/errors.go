package service

import "errors"

var (
	ErrUnknownPair    = errors.New("unknown pair")
	ErrInvalidSeed    = errors.New("invalid seed configuration")
	ErrNoOracle       = errors.New("no oracle for pair")
	ErrInvalidPath    = errors.New("path must contain at least two tokens")
	ErrAmountRequired = errors.New("amount must be greater than zero")
)
