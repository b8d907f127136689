package qris

import "errors"

var (
	ErrMalformedPayload   = errors.New("malformed qris payload")
	ErrMissingCountryCode = errors.New("qris payload has no country code record")
	ErrMissingChecksum    = errors.New("qris payload has no checksum record")
	ErrDuplicateTag       = errors.New("qris payload has a duplicated tag")
	ErrChecksumMismatch   = errors.New("qris checksum mismatch")
	ErrInvalidAmount      = errors.New("amount must not be negative")
	ErrValueTooLong       = errors.New("tlv value longer than 99 bytes")
)
