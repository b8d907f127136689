package qris

import "fmt"

const (
	crcInitial    = 0xFFFF
	crcPolynomial = 0x1021
)

// Checksum returns the CRC-16/CCITT-FALSE of s as four uppercase hex digits.
// Each byte of s is fed to the register, so input is expected to be ASCII.
func Checksum(s string) string {
	var crc uint16 = crcInitial
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ crcPolynomial
			} else {
				crc <<= 1
			}
		}
	}
	return fmt.Sprintf("%04X", crc)
}
