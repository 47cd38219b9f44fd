package app

import "errors"

var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrPortfolioNotFound = errors.New("portfolio not found")
	ErrCSVFormat         = errors.New("invalid portfolio csv")
)
