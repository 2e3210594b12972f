package utils

import (
	"fmt"
	"time"
)

// MRNoLength is YY + MM + five counter digits + one checksum digit.
const MRNoLength = 10

// MaxMRCounter is the largest counter that fits the five-digit field.
const MaxMRCounter = 99999

// FormatMRNo builds the MR number for counter as issued at issuedAt.
func FormatMRNo(issuedAt time.Time, counter int64) (string, error) {
	if counter < 0 || counter > MaxMRCounter {
		return "", NewAppError(KindExhaustion, CodeCounterExhausted,
			fmt.Sprintf("MR counter %d does not fit the five-digit field", counter))
	}
	base := fmt.Sprintf("%02d%02d%05d", issuedAt.Year()%100, int(issuedAt.Month()), counter)
	return base + fmt.Sprintf("%d", MRChecksum(base)), nil
}

// MRChecksum is the sum of the decimal digits of value modulo 9.
func MRChecksum(value string) int {
	sum := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			sum += int(r - '0')
		}
	}
	return sum % 9
}

// ValidMRNo reports whether value has the MR number shape and a matching checksum.
func ValidMRNo(value string) bool {
	if len(value) != MRNoLength {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return int(value[MRNoLength-1]-'0') == MRChecksum(value[:MRNoLength-1])
}
