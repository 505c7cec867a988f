package reference

import (
	"strings"

	"github.com/oklog/ulid/v2"
)

const (
	Customer     = "CUS"
	Subscription = "SUB"
	Payment      = "PAY"
	Transaction  = "TXN"
)

// New returns a sortable, unique reference such as SUB-01J8Z3....
func New(prefix string) string {
	return prefix + "-" + ulid.Make().String()
}

// HasPrefix reports whether ref was minted with prefix.
func HasPrefix(ref, prefix string) bool {
	return strings.HasPrefix(ref, prefix+"-")
}
