// Package rdns is a best-effort reverse-DNS sink for log lines: a lookup
// blocks its caller for at most a short timeout and never turns a lookup
// failure into an error
// the caller has to handle, matching the "pure sink" role the relay's
// data model gives reverse DNS.
package rdns

import (
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
)

// timeout bounds how long a single PTR lookup may take.
const timeout = 500 * time.Millisecond

// Lookup returns the first PTR record for ip, or ip's string form if the
// lookup fails, times out, or returns nothing.
func Lookup(ip net.IP) string {
	name := ip.String()

	reverse, err := dns.ReverseAddr(ip.String())
	if err != nil {
		return name
	}

	client := dns.Client{Timeout: timeout}
	msg := new(dns.Msg)
	msg.SetQuestion(reverse, dns.TypePTR)

	conf, err := dns.ClientConfigFromFile("/etc/resolv.conf")
	if err != nil || len(conf.Servers) == 0 {
		return name
	}

	resp, _, err := client.Exchange(msg, net.JoinHostPort(conf.Servers[0], conf.Port))
	if err != nil || resp == nil {
		return name
	}

	for _, rr := range resp.Answer {
		if ptr, ok := rr.(*dns.PTR); ok {
			return strings.TrimSuffix(ptr.Ptr, ".")
		}
	}
	return name
}
