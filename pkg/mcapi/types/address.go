package types

import "fmt"

// Domain, Node and Port are distinct numeric types rather than bare
// integers so a caller cannot transpose arguments at a call site
// silently (github.com/jabolina/go-mcast's types.Partition/types.UID
// make the same choice for its own addressing concepts).
type (
	Domain uint16
	Node   uint32
	Port   uint16
)

// Address is the externally visible (domain, node, port) triple spec
// §4.2 names as what the naming function derives queue names from.
type Address struct {
	Domain Domain
	Node   Node
	Port   Port
}

func (a Address) String() string {
	return fmt.Sprintf("%d:%d:%d", a.Domain, a.Node, a.Port)
}
