package utils

import "net"

// IPAddrString extracts the bare IP from a net.Addr. Raw ICMP sockets
// report senders as *net.IPAddr, datagram ICMP sockets as *net.UDPAddr.
func IPAddrString(addr net.Addr) string {
	switch a := addr.(type) {
	case *net.IPAddr:
		return a.IP.String()
	case *net.UDPAddr:
		return a.IP.String()
	case *net.TCPAddr:
		return a.IP.String()
	}

	return ""
}
