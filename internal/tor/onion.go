package tor

import (
	"encoding/base32"
	"regexp"
	"strings"

	"golang.org/x/crypto/sha3"
)

// OnionSuffix is the top-level label of hidden service host names.
const OnionSuffix = ".onion"

// onionV3Version is the trailing version byte of a v3 address.
const onionV3Version = 0x03

var (
	onionV3Pattern = regexp.MustCompile(`^[a-z2-7]{56}\.onion$`)
	onionV2Pattern = regexp.MustCompile(`^[a-z2-7]{16}\.onion$`)
)

// IsOnionHost reports whether host is in the .onion domain.
func IsOnionHost(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), OnionSuffix)
}

// IsValidV3Address reports whether address is a v3 onion host name with a
// correct checksum and version byte. Case is ignored.
func IsValidV3Address(address string) bool {
	address = strings.ToLower(address)
	if !onionV3Pattern.MatchString(address) {
		return false
	}

	raw, err := base32.StdEncoding.DecodeString(strings.ToUpper(strings.TrimSuffix(address, OnionSuffix)))
	if err != nil || len(raw) != 35 {
		return false
	}

	// pubkey(32) || checksum(2) || version(1)
	pubkey, checksum, version := raw[:32], raw[32:34], raw[34]
	if version != onionV3Version {
		return false
	}
	want := v3Checksum(pubkey, version)
	return checksum[0] == want[0] && checksum[1] == want[1]
}

// IsV2Address reports whether address has the shape of a retired v2 onion host.
func IsV2Address(address string) bool {
	return onionV2Pattern.MatchString(strings.ToLower(address))
}

// ValidateHost checks an upstream host name. Hosts outside .onion are
// accepted as is; .onion hosts must be valid v3 addresses.
func ValidateHost(host string) error {
	if !IsOnionHost(host) {
		return nil
	}
	if IsValidV3Address(host) {
		return nil
	}
	if IsV2Address(host) {
		return ErrV2AddressDeprecated
	}
	return ErrInvalidOnionAddress
}

// v3Checksum is H(".onion checksum" || pubkey || version)[:2] with H = SHA3-256.
func v3Checksum(pubkey []byte, version byte) []byte {
	h := sha3.New256()
	h.Write([]byte(".onion checksum"))
	h.Write(pubkey)
	h.Write([]byte{version})
	return h.Sum(nil)[:2]
}
