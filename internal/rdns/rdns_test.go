package rdns

import (
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupNeverErrorsOnUnresolvableHost(t *testing.T) {
	// 192.0.2.0/24 is reserved for documentation (RFC 5737) and will
	// never resolve; Lookup must still return a usable string rather
	// than block indefinitely or panic.
	result := Lookup(net.ParseIP("192.0.2.1"))
	assert.NotEmpty(t, result)
}
