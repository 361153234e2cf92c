package traceroute

import (
	"net"
	"testing"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
)

// Wire helpers shared by the collector and session tests. All datagrams
// are built with gopacket so the engine is driven by bytes it did not
// serialize itself. Responses are shaped the way the socket delivers
// them: bare ICMP messages, IPv4 header already stripped.

func serializeICMP(t *testing.T, icmpLayer *layers.ICMPv4, payload []byte) []byte {
	t.Helper()
	buf := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	if err := gopacket.SerializeLayers(buf, opts, icmpLayer, gopacket.Payload(payload)); err != nil {
		t.Fatalf("serialize icmp: %v", err)
	}
	return buf.Bytes()
}

// echoReplyMsg builds the Echo Reply a destination sends back.
func echoReplyMsg(t *testing.T, id, seq uint16) []byte {
	t.Helper()
	return serializeICMP(t, &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoReply, 0),
		Id:       id,
		Seq:      seq,
	}, nil)
}

// timeExceededMsg builds the Time-Exceeded message a router sends back,
// embedding the original probe datagram (IPv4 header plus the echoed
// 8-byte Echo Request header).
func timeExceededMsg(t *testing.T, id, seq uint16) []byte {
	t.Helper()
	inner := gopacket.NewSerializeBuffer()
	opts := gopacket.SerializeOptions{FixLengths: true, ComputeChecksums: true}
	err := gopacket.SerializeLayers(inner, opts,
		&layers.IPv4{
			Version:  4,
			IHL:      5,
			TTL:      1,
			Protocol: layers.IPProtocolICMPv4,
			SrcIP:    net.IPv4(192, 168, 1, 10),
			DstIP:    net.IPv4(192, 0, 2, 1),
		},
		&layers.ICMPv4{
			TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeEchoRequest, 0),
			Id:       id,
			Seq:      seq,
		},
	)
	if err != nil {
		t.Fatalf("serialize embedded probe: %v", err)
	}

	return serializeICMP(t, &layers.ICMPv4{
		TypeCode: layers.CreateICMPv4TypeCode(layers.ICMPv4TypeTimeExceeded, 0),
	}, inner.Bytes())
}

func ipAddr(s string) *net.IPAddr {
	return &net.IPAddr{IP: net.ParseIP(s)}
}
