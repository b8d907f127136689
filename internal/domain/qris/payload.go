package qris

import (
	"fmt"
	"slices"
	"strconv"
)

const (
	TagPayloadFormat     = "00"
	TagPointOfInitiation = "01"
	TagTransactionAmount = "54"
	TagCountryCode       = "58"
	TagChecksum          = "63"

	PointOfInitiationStatic  = "11"
	PointOfInitiationDynamic = "12"
)

var checksumHeader = TagChecksum + pad(checksumValue)

// Inject turns a merchant payload into a dynamic one carrying amount. The
// result ends with the checksum header and has no checksum value; the
// checksum of the base payload is never read.
func Inject(base string, amount int64) (string, error) {
	if amount < 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidAmount, amount)
	}

	fields, err := Parse(base)
	if err != nil {
		return "", err
	}
	body, err := stripChecksum(fields)
	if err != nil {
		return "", err
	}

	if i := body.Index(TagPointOfInitiation); i >= 0 {
		body[i].Value = PointOfInitiationDynamic
	} else {
		body = slices.Insert(body, body.Index(TagPayloadFormat)+1,
			Field{Tag: TagPointOfInitiation, Value: PointOfInitiationDynamic})
	}

	if i := body.Index(TagTransactionAmount); i >= 0 {
		body = slices.Delete(body, i, i+1)
	}
	country := body.Index(TagCountryCode)
	if country < 0 {
		return "", ErrMissingCountryCode
	}
	body = slices.Insert(body, country, Field{
		Tag:   TagTransactionAmount,
		Value: strconv.FormatInt(amount, 10),
	})

	out, err := body.Encode()
	if err != nil {
		return "", err
	}
	return out + checksumHeader, nil
}

// Build returns the finished dynamic payload for amount, checksum included.
func Build(base string, amount int64) (string, error) {
	payload, err := Inject(base, amount)
	if err != nil {
		return "", err
	}
	return payload + Checksum(payload), nil
}

func Verify(payload string) error {
	fields, err := Parse(payload)
	if err != nil {
		return err
	}
	body, err := stripChecksum(fields)
	if err != nil {
		return err
	}

	got := fields[len(fields)-1].Value
	encoded, err := body.Encode()
	if err != nil {
		return err
	}
	want := Checksum(encoded + checksumHeader)
	if got != want {
		return fmt.Errorf("%w: got %s, want %s", ErrChecksumMismatch, got, want)
	}
	return nil
}

// stripChecksum returns a copy of fields without the trailing checksum record.
func stripChecksum(fields Payload) (Payload, error) {
	last := fields[len(fields)-1]
	if last.Tag != TagChecksum {
		if fields.Index(TagChecksum) >= 0 {
			return nil, fmt.Errorf("%w: checksum record is not last", ErrMalformedPayload)
		}
		return nil, ErrMissingChecksum
	}
	if len(last.Value) != checksumValue {
		return nil, fmt.Errorf("%w: checksum has %d bytes", ErrMalformedPayload, len(last.Value))
	}
	return slices.Clone(fields[:len(fields)-1]), nil
}
