package domain

import (
	"encoding/json"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// Account is a caller address, stored as "0x" + 40 lower-case hex digits.
type Account string

var accountRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ParseAccount validates and canonicalizes an address. Mixed-case input must
// carry a valid EIP-55 checksum; all-lower or all-upper input is accepted as is.
func ParseAccount(s string) (Account, error) {
	s = strings.TrimSpace(s)
	if !accountRe.MatchString(s) {
		return "", Errorf(KindInvalidArgument, "invalid account address %q", s)
	}
	digits := s[2:]
	lower := strings.ToLower(digits)
	if digits != lower && digits != strings.ToUpper(digits) && checksumHex(lower) != digits {
		return "", Errorf(KindInvalidArgument, "account address %q has an invalid checksum", s)
	}
	return Account("0x" + lower), nil
}

// MustAccount is ParseAccount for constants and tests.
func MustAccount(s string) Account {
	a, err := ParseAccount(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Account) IsZero() bool {
	return a == ""
}

func (a Account) String() string {
	return string(a)
}

// Checksum returns the EIP-55 mixed-case form.
func (a Account) Checksum() string {
	if len(a) != 42 {
		return string(a)
	}
	return "0x" + checksumHex(strings.ToLower(string(a[2:])))
}

func (a Account) MarshalJSON() ([]byte, error) {
	if a.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(a.Checksum())
}

func checksumHex(lowerHex string) string {
	h := sha3.NewLegacyKeccak256()
	h.Write([]byte(lowerHex))
	digest := h.Sum(nil)

	out := []byte(lowerHex)
	for i, c := range out {
		if c < 'a' || c > 'f' {
			continue
		}
		nibble := digest[i/2]
		if i%2 == 0 {
			nibble >>= 4
		} else {
			nibble &= 0x0f
		}
		if nibble >= 8 {
			out[i] = c - ('a' - 'A')
		}
	}
	return string(out)
}
