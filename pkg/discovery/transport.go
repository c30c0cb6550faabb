// ABOUTME: Service discovery transport contract
// ABOUTME: Defines browse, resolve and address replies and the sessions that yield them
package discovery

import (
	"iter"
	"net"
	"time"
)

// Flags carries per-reply transport flags
type Flags uint32

const (
	// FlagMoreComing signals that more replies for the same query follow
	FlagMoreComing Flags = 1 << iota
	// FlagAdd marks a browse reply announcing (rather than withdrawing) a service
	FlagAdd
)

// MoreComing reports whether further replies for the same query will follow
func (f Flags) MoreComing() bool {
	return f&FlagMoreComing != 0
}

// BrowseReply announces one host advertising the browsed service type
type BrowseReply struct {
	Flags
	Interface int
	Name      string // service instance name, e.g. "ultimakersystem-ccbdd3005a6e"
	Type      string // e.g. "_ultimaker._tcp"
	Domain    string // e.g. "local."
}

// FullName returns the DNS name of the service instance
func (r BrowseReply) FullName() string {
	return r.Name + "." + r.Type + "." + r.Domain
}

// ResolveReply is one step in resolving a browse reply to a target
type ResolveReply struct {
	Flags
	Interface  int
	FullName   string
	Target     string
	Port       int
	TextRecord []byte
}

// AddrInfo is one address lookup result for a target host
type AddrInfo struct {
	Flags
	Interface int
	Hostname  string
	Address   net.IP
	Zone      string // IPv6 scope zone, set for link-local addresses
	TTL       uint32
}

// Session is an open transport query. Each yields replies until timeout
// elapses or the consumer stops ranging; Stop releases the query and must
// be called exactly once by whoever opened the session.
type Session[T any] interface {
	Each(timeout time.Duration) iter.Seq[T]
	Stop()
}

// Transport opens service discovery sessions
type Transport interface {
	Browse(serviceType string) (Session[BrowseReply], error)
	Resolve(reply BrowseReply) (Session[ResolveReply], error)
	GetAddrInfo(target string, iface int) (Session[AddrInfo], error)
}
