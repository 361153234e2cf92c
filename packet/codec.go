package packet

import (
	"encoding/binary"
	"net"

	"github.com/pkg/errors"
	"golang.org/x/net/ipv4"
)

// ICMP message types used for tracing, per RFC 792.
const (
	TypeEchoReply    = 0
	TypeEchoRequest  = 8
	TypeTimeExceeded = 11
)

const (
	// HeaderLen is the minimal ICMP header: type, code, checksum, id, seq.
	HeaderLen = 8
	// MaxDataLen caps the data section of a parsed message. A Time-Exceeded
	// message carries the offending IPv4 header (at most 60 bytes) followed
	// by the first 8 bytes of its payload; nothing past that is needed.
	MaxDataLen = 68
)

var (
	ErrTruncated        = errors.New("truncated datagram")
	ErrWrongMessageType = errors.New("wrong icmp message type")
)

// Message is a decoded ICMP message: the fixed 8-byte header plus the
// trailing data section truncated to MaxDataLen.
type Message struct {
	Type     uint8
	Code     uint8
	Checksum uint16
	ID       uint16
	Seq      uint16
	Data     []byte
}

// Checksum computes the RFC 1071 internet checksum over b: the 16-bit
// one's-complement sum with the carries folded back in, complemented.
// Callers must pass an even number of bytes; a trailing odd byte is not
// summed.
func Checksum(b []byte) uint16 {
	var sum uint32
	for i := 0; i+1 < len(b); i += 2 {
		sum += uint32(binary.BigEndian.Uint16(b[i:]))
	}
	sum = (sum >> 16) + (sum & 0xffff)
	sum += sum >> 16
	return ^uint16(sum)
}

// VerifyChecksum reports whether the ICMP message in b carries a valid
// checksum. Odd-length messages are padded with a zero byte as RFC 1071
// prescribes. A message checksummed correctly sums to zero.
func VerifyChecksum(b []byte) bool {
	if len(b) < HeaderLen {
		return false
	}
	if len(b)%2 != 0 {
		padded := make([]byte, len(b)+1)
		copy(padded, b)
		b = padded
	}
	return Checksum(b) == 0
}

// BuildEchoRequest serializes an 8-byte ICMP Echo Request header with the
// given identifier and sequence number. The checksum is computed over the
// header with the checksum field zeroed, then filled in.
func BuildEchoRequest(id, seq uint16) []byte {
	b := make([]byte, HeaderLen)
	b[0] = TypeEchoRequest
	binary.BigEndian.PutUint16(b[4:], id)
	binary.BigEndian.PutUint16(b[6:], seq)
	binary.BigEndian.PutUint16(b[2:], Checksum(b))
	return b
}

// Parse decodes a bare ICMP message (no IPv4 header in front of it).
func Parse(b []byte) (Message, error) {
	if len(b) < HeaderLen {
		return Message{}, errors.Wrapf(ErrTruncated, "icmp message of %d bytes", len(b))
	}
	m := Message{
		Type:     b[0],
		Code:     b[1],
		Checksum: binary.BigEndian.Uint16(b[2:]),
		ID:       binary.BigEndian.Uint16(b[4:]),
		Seq:      binary.BigEndian.Uint16(b[6:]),
	}
	data := b[HeaderLen:]
	if len(data) > MaxDataLen {
		data = data[:MaxDataLen]
	}
	m.Data = append([]byte(nil), data...)
	return m, nil
}

// ParseIPv4Wrapper locates the ICMP payload inside an IPv4 datagram. It
// returns the byte offset of the payload (the header-length field in
// 32-bit words times 4) and the source address from the IPv4 header.
func ParseIPv4Wrapper(dgram []byte) (int, net.IP, error) {
	if len(dgram) < ipv4.HeaderLen {
		return 0, nil, errors.Wrapf(ErrTruncated, "ipv4 datagram of %d bytes", len(dgram))
	}
	hdr, err := ipv4.ParseHeader(dgram)
	if err != nil {
		return 0, nil, errors.Wrap(err, "parse ipv4 header")
	}
	if hdr.Len < ipv4.HeaderLen || hdr.Len > len(dgram) {
		return 0, nil, errors.Wrapf(ErrTruncated, "ipv4 header length %d", hdr.Len)
	}
	return hdr.Len, hdr.Src, nil
}

// ExtractICMP decodes the ICMP message carried by an IPv4 datagram,
// starting at the given header length.
func ExtractICMP(dgram []byte, ipHeaderLen int) (Message, error) {
	if ipHeaderLen < ipv4.HeaderLen || len(dgram) < ipHeaderLen {
		return Message{}, errors.Wrapf(ErrTruncated, "icmp payload at offset %d", ipHeaderLen)
	}
	return Parse(dgram[ipHeaderLen:])
}

// EmbeddedEcho recovers the identifier and sequence number of the Echo
// Request that provoked a Time-Exceeded message. The data section carries
// the original offending IPv4 packet; its own header is skipped to reach
// the echoed 8-byte ICMP header.
func EmbeddedEcho(m Message) (id, seq uint16, err error) {
	if m.Type != TypeTimeExceeded {
		return 0, 0, errors.Wrapf(ErrWrongMessageType, "type %d", m.Type)
	}
	offset, _, err := ParseIPv4Wrapper(m.Data)
	if err != nil {
		return 0, 0, err
	}
	if len(m.Data) < offset+HeaderLen {
		return 0, 0, errors.Wrapf(ErrTruncated, "embedded echo header at offset %d", offset)
	}
	id = binary.BigEndian.Uint16(m.Data[offset+4:])
	seq = binary.BigEndian.Uint16(m.Data[offset+6:])
	return id, seq, nil
}
