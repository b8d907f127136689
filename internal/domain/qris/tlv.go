package qris

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	tagSize       = 2
	lengthSize    = 2
	maxValueSize  = 99
	checksumValue = 4
)

type Field struct {
	Tag   string
	Value string
}

func (f Field) Encode() (string, error) {
	if len(f.Value) > maxValueSize {
		return "", fmt.Errorf("%w: tag %s has %d bytes", ErrValueTooLong, f.Tag, len(f.Value))
	}
	return f.Tag + pad(len(f.Value)) + f.Value, nil
}

// Payload is the ordered list of top-level records of an EMV-QR string.
type Payload []Field

func Parse(s string) (Payload, error) {
	s = strings.TrimSpace(s)

	var (
		fields Payload
		seen   = make(map[string]struct{})
	)
	for pos := 0; pos < len(s); {
		if len(s)-pos < tagSize+lengthSize {
			return nil, fmt.Errorf("%w: truncated record at offset %d", ErrMalformedPayload, pos)
		}
		tag := s[pos : pos+tagSize]
		rawLen := s[pos+tagSize : pos+tagSize+lengthSize]
		n, err := strconv.Atoi(rawLen)
		if err != nil || n < 0 || strings.ContainsAny(rawLen, "+-") {
			return nil, fmt.Errorf("%w: invalid length %q for tag %s", ErrMalformedPayload, rawLen, tag)
		}
		start := pos + tagSize + lengthSize
		if start+n > len(s) {
			return nil, fmt.Errorf("%w: tag %s declares %d bytes, %d left", ErrMalformedPayload, tag, n, len(s)-start)
		}
		if _, dup := seen[tag]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateTag, tag)
		}
		seen[tag] = struct{}{}

		fields = append(fields, Field{Tag: tag, Value: s[start : start+n]})
		pos = start + n
	}
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformedPayload)
	}
	return fields, nil
}

func (p Payload) Index(tag string) int {
	for i, f := range p {
		if f.Tag == tag {
			return i
		}
	}
	return -1
}

func (p Payload) Get(tag string) (string, bool) {
	if i := p.Index(tag); i >= 0 {
		return p[i].Value, true
	}
	return "", false
}

func (p Payload) IsDynamic() bool {
	v, _ := p.Get(TagPointOfInitiation)
	return v == PointOfInitiationDynamic
}

// Amount returns the transaction amount record, if the payload carries one.
func (p Payload) Amount() (int64, bool) {
	v, ok := p.Get(TagTransactionAmount)
	if !ok {
		return 0, false
	}
	amount, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return amount, true
}

func (p Payload) Encode() (string, error) {
	var b strings.Builder
	for _, f := range p {
		enc, err := f.Encode()
		if err != nil {
			return "", err
		}
		b.WriteString(enc)
	}
	return b.String(), nil
}

func pad(n int) string {
	return fmt.Sprintf("%02d", n)
}
