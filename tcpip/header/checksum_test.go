package header_test

import (
	"testing"

	"ministack/tcpip/header"
)

func TestChecksum(t *testing.T) {
	tests := []struct {
		name    string
		buf     []byte
		initial uint16
		want    uint16
	}{
		{"empty", nil, 0, 0},
		{"pair", []byte{0x00, 0x01}, 0, 0x0001},
		{"odd length", []byte{0x01, 0x02, 0x03}, 0, 0x0402},
		{"carry folds", []byte{0xff, 0xff, 0x00, 0x02}, 0, 0x0002},
		{"initial carried", []byte{0x00, 0x01}, 0xffff, 0x0001},
	}
	for _, test := range tests {
		if got := header.Checksum(test.buf, test.initial); got != test.want {
			t.Errorf("%s: Checksum = %#04x, want %#04x", test.name, got, test.want)
		}
	}
}

func TestIPv4HeaderChecksumRoundTrip(t *testing.T) {
	b := make(header.IPv4, header.IPv4MinimumSize)
	b.Encode(&header.IPv4Fields{
		IHL:         header.IPv4MinimumSize,
		TotalLength: header.IPv4MinimumSize,
		TTL:         64,
		Protocol:    uint8(header.UDPProtocolNumber),
		SrcAddr:     "\x0a\x00\x00\x01",
		DstAddr:     "\x0a\x00\x00\x02",
	})
	b.SetChecksum(^b.CalculateChecksum())

	// A correctly checksummed header sums to all ones.
	if got := header.Checksum(b, 0); got != 0xffff {
		t.Errorf("checksum over header = %#04x, want 0xffff", got)
	}
}
