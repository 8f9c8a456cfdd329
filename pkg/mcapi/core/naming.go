package core

import (
	"fmt"

	"github.com/jabolina/go-mcapi/pkg/mcapi/types"
)

// msgPrefix and chanPrefix keep the receive-queue and channel-queue
// namespaces disjoint for the same (domain, node, port) triple (spec
// §4.2/§6). Both begin with the separator the host primitive requires
// for a named-object identifier.
const (
	msgPrefix  = "/mcapimsg"
	chanPrefix = "/mcapichan"
)

// QueueNames deterministically derives the receive-queue and
// channel-queue names for address, so any cooperating process
// computes the identical pair without prior coordination.
func QueueNames(addr types.Address) (msgName, chanName string) {
	suffix := fmt.Sprintf("_%d_%d_%d", addr.Domain, addr.Node, addr.Port)
	return msgPrefix + suffix, chanPrefix + suffix
}
