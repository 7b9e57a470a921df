// Package tcpip defines the value types shared by every layer of the
// stack: network and link addresses, subnet masks and protocol numbers.
// Addresses are byte slices cast as strings so they can be compared and
// used as map keys without copying.
package tcpip

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Address is a byte slice cast as a string that represents the address of
// a network node. It is 4 bytes for IPv4 and 16 bytes for IPv6.
type Address string

// AddressMask is a bitmask for an Address, stored in the same form.
type AddressMask string

// LinkAddress is a byte slice cast as a string that represents a link
// address. It is typically a 6-byte MAC address.
type LinkAddress string

// NetworkProtocolNumber is the EtherType of a network protocol.
type NetworkProtocolNumber uint32

// TransportProtocolNumber is the protocol field value of an IP header.
type TransportProtocolNumber uint32

// Unspecified returns true if the address is empty or all zeroes.
func (a Address) Unspecified() bool {
	for i := 0; i < len(a); i++ {
		if a[i] != 0 {
			return false
		}
	}
	return true
}

// String implements fmt.Stringer.
func (a Address) String() string {
	switch len(a) {
	case 4:
		return fmt.Sprintf("%d.%d.%d.%d", a[0], a[1], a[2], a[3])
	case 16:
		// Find the longest run of zero 16-bit groups to abbreviate.
		start, end := -1, -1
		for i := 0; i < len(a); i += 2 {
			j := i
			for j < len(a) && a[j] == 0 && a[j+1] == 0 {
				j += 2
			}
			if j > i+2 && j-i > end-start {
				start, end = i, j
			}
		}

		var b strings.Builder
		for i := 0; i < len(a); i += 2 {
			if i == start {
				b.WriteString("::")
				i = end
				if end >= len(a) {
					break
				}
			} else if i > 0 {
				b.WriteByte(':')
			}
			v := uint16(a[i])<<8 | uint16(a[i+1])
			b.WriteString(strconv.FormatUint(uint64(v), 16))
		}
		return b.String()
	default:
		return fmt.Sprintf("%x", []byte(a))
	}
}

// String implements fmt.Stringer.
func (m AddressMask) String() string {
	return Address(m).String()
}

// Prefix returns the number of leading one bits in the mask.
func (m AddressMask) Prefix() int {
	p := 0
	for i := 0; i < len(m); i++ {
		b := m[i]
		for b&0x80 != 0 {
			p++
			b <<= 1
		}
		if b != 0 {
			break
		}
	}
	return p
}

// String implements fmt.Stringer.
func (a LinkAddress) String() string {
	switch len(a) {
	case 6:
		return fmt.Sprintf("%02x:%02x:%02x:%02x:%02x:%02x", a[0], a[1], a[2], a[3], a[4], a[5])
	default:
		return fmt.Sprintf("%x", []byte(a))
	}
}

// ParseMACAddress parses an IEEE 802 address in the aa:bb:cc:dd:ee:ff or
// aa-bb-cc-dd-ee-ff format.
func ParseMACAddress(s string) (LinkAddress, error) {
	parts := strings.FieldsFunc(s, func(c rune) bool {
		return c == ':' || c == '-'
	})
	if len(parts) != 6 {
		return "", fmt.Errorf("inconsistent parts: %s", s)
	}
	addr := make([]byte, 0, len(parts))
	for _, part := range parts {
		u, err := strconv.ParseUint(part, 16, 8)
		if err != nil {
			return "", fmt.Errorf("invalid hex digits: %s", s)
		}
		addr = append(addr, byte(u))
	}
	return LinkAddress(addr), nil
}

// MaskedEqual returns true if a and b agree on every bit covered by the
// mask. All three must have the same length.
func MaskedEqual(a, b Address, m AddressMask) bool {
	if len(a) != len(b) || len(a) != len(m) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if (a[i]^b[i])&m[i] != 0 {
			return false
		}
	}
	return true
}

// Errors related to Subnet.
var (
	errSubnetLengthMismatch = errors.New("subnet length of address and mask differ")
	errSubnetAddressMasked  = errors.New("subnet address has bits set outside the mask")
)

// Subnet is a subnet defined by its address and mask.
type Subnet struct {
	address Address
	mask    AddressMask
}

// NewSubnet creates a new Subnet, checking that the address and mask are
// the same length and that the address has no host bits set.
func NewSubnet(a Address, m AddressMask) (Subnet, error) {
	if len(a) != len(m) {
		return Subnet{}, errSubnetLengthMismatch
	}
	for i := 0; i < len(a); i++ {
		if a[i]&^m[i] != 0 {
			return Subnet{}, errSubnetAddressMasked
		}
	}
	return Subnet{a, m}, nil
}

// Contains returns true iff the address is of the same length and matches
// the subnet address under the subnet mask.
func (s *Subnet) Contains(a Address) bool {
	if len(a) != len(s.address) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if a[i]&s.mask[i] != s.address[i] {
			return false
		}
	}
	return true
}

// ID returns the subnet ID.
func (s *Subnet) ID() Address {
	return s.address
}

// Mask returns the subnet mask.
func (s *Subnet) Mask() AddressMask {
	return s.mask
}

// Prefix returns the number of bits before the first host bit.
func (s *Subnet) Prefix() int {
	return s.mask.Prefix()
}

// String implements fmt.Stringer.
func (s Subnet) String() string {
	return fmt.Sprintf("%s/%d", s.ID(), s.Prefix())
}
