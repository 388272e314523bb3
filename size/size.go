package size

import (
	"fmt"
	"regexp"
	"strconv"
)

// Size represents a size in bytes that implements flag.Var
type Size int64

// the following regexes follow Go integer-literal syntax
// https://golang.org/ref/spec#Integer_literals
var (
	rB   = regexp.MustCompile(`(?i)^(?:0b|0x|0o)?[\da-f_]+$`)
	rKB  = regexp.MustCompile(`(?i)^(?:0b|0x|0o)?[\da-f_]+kb$`)
	rMB  = regexp.MustCompile(`(?i)^(?:0b|0x|0o)?[\da-f_]+mb$`)
	rGB  = regexp.MustCompile(`(?i)^(?:0b|0x|0o)?[\da-f_]+gb$`)
	rTB  = regexp.MustCompile(`(?i)^(?:0b|0x|0o)?[\da-f_]+tb$`)
	empt = regexp.MustCompile(`^\s*$`)
)

// Set parses size to integer from different bases and data units
func (siz *Size) Set(size string) (err error) {
	if empt.MatchString(size) {
		*siz = 0
		return
	}

	var (
		lmt = len(size) - 2
		s   = []byte(size)
	)

	var _len int64
	switch {
	case rB.Match(s):
		_len, err = strconv.ParseInt(size, 0, 64)
	case rKB.Match(s):
		_len, err = strconv.ParseInt(size[:lmt], 0, 64)
		_len <<= 10
	case rMB.Match(s):
		_len, err = strconv.ParseInt(size[:lmt], 0, 64)
		_len <<= 20
	case rGB.Match(s):
		_len, err = strconv.ParseInt(size[:lmt], 0, 64)
		_len <<= 30
	case rTB.Match(s):
		_len, err = strconv.ParseInt(size[:lmt], 0, 64)
		_len <<= 40
	default:
		return fmt.Errorf("invalid size %s", size)
	}
	*siz = Size(_len)
	return
}

func (siz *Size) String() string {
	return fmt.Sprintf("%d", *siz)
}
