package model

import "errors"

var (
	// ErrInvalidQuote 报价未通过基本校验（非正价格、ask < bid 等）
	ErrInvalidQuote = errors.New("invalid quote")

	// ErrNoBuySide best ask is zero or unknown, nothing can be bought
	ErrNoBuySide = errors.New("no buy side available")

	// ErrSanityCeiling gross profit above the sanity ceiling, treated as corrupt feed data
	ErrSanityCeiling = errors.New("gross profit above sanity ceiling")

	// ErrUnknownExchange no connector registered under this name
	ErrUnknownExchange = errors.New("unknown exchange")

	// ErrInvalidSetting a runtime setting failed validation
	ErrInvalidSetting = errors.New("invalid setting")
)
