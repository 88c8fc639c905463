package descriptor

import (
	"strings"
)

const (
	checksumCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
	inputCharset    = "0123456789()[],'/*abcdefgh@:$%{}IJKLMNOPQRSTUVWXYZ&+-.;<=>?!^_|~" +
		"ijklmnopqrstuvwxyzABCDEFGH`#\"\\ "
)

func polymod(c uint64, val uint64) uint64 {
	c0 := c >> 35
	c = ((c & 0x7ffffffff) << 5) ^ val
	if c0&1 != 0 {
		c ^= 0xf5dee51989
	}
	if c0&2 != 0 {
		c ^= 0xa9fdca3312
	}
	if c0&4 != 0 {
		c ^= 0x1bab10e32d
	}
	if c0&8 != 0 {
		c ^= 0x3706b1677a
	}
	if c0&16 != 0 {
		c ^= 0x644d626ffd
	}
	return c
}

// Checksum computes the 8 character checksum of a descriptor expression,
// excluding any trailing "#checksum" part.
func Checksum(desc string) (string, error) {
	c := uint64(1)
	cls := 0
	clsCount := 0
	for _, ch := range desc {
		pos := strings.IndexRune(inputCharset, ch)
		if pos < 0 {
			return "", ErrInvalidCharacter
		}
		c = polymod(c, uint64(pos&31))
		cls = cls*3 + (pos >> 5)
		clsCount++
		if clsCount == 3 {
			c = polymod(c, uint64(cls))
			cls = 0
			clsCount = 0
		}
	}
	if clsCount > 0 {
		c = polymod(c, uint64(cls))
	}
	for i := 0; i < 8; i++ {
		c = polymod(c, 0)
	}
	c ^= 1

	checksum := make([]byte, 8)
	for i := 0; i < 8; i++ {
		checksum[i] = checksumCharset[(c>>uint(5*(7-i)))&31]
	}
	return string(checksum), nil
}

// verifyChecksum checks the "#checksum" suffix, if present, against the
// expression preceding it and returns the bare expression.
func verifyChecksum(desc string) (string, error) {
	parts := strings.Split(desc, "#")
	switch len(parts) {
	case 1:
		return parts[0], nil
	case 2:
		expected, err := Checksum(parts[0])
		if err != nil {
			return "", err
		}
		if parts[1] != expected {
			return "", ErrInvalidChecksum
		}
		return parts[0], nil
	default:
		return "", ErrInvalidChecksum
	}
}
