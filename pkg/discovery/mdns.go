//go:build !nomdns

// ABOUTME: mDNS transport built on hashicorp/mdns and miekg/dns
// ABOUTME: Browses and resolves via mdns queries, looks up addresses with one-shot DNS queries
package discovery

import (
	"context"
	"errors"
	"iter"
	stdlog "log"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/hashicorp/mdns"
	"github.com/miekg/dns"

	"github.com/samuelkadolph/ultimaker-go/pkg/txtrecord"
)

const (
	mdnsIPv4Addr = "224.0.0.251:5353"
	mdnsIPv6Addr = "[ff02::fb]:5353"

	// browseBuffer bounds how many entries can wait while the consumer is
	// busy resolving; mdns drops entries it cannot hand off immediately
	browseBuffer = 64
)

// MDNSConfig holds mDNS transport configuration
type MDNSConfig struct {
	// Domain to browse in (default: local)
	Domain string

	// Interface to query on (default: all multicast capable interfaces)
	Interface *net.Interface

	// DisableIPv6 skips IPv6 queries
	DisableIPv6 bool

	// Logger receives transport errors that do not abort a query (default: no-op)
	Logger log.Logger
}

// MDNSTransport implements Transport over multicast DNS. Service entries
// seen while browsing are remembered so later resolve and address lookups
// for the same host can be answered without another query.
type MDNSTransport struct {
	config MDNSConfig
	logger log.Logger
	// mdnsLogger routes hashicorp/mdns output into logger at debug level
	mdnsLogger *stdlog.Logger

	mu      sync.Mutex
	entries map[string]*mdns.ServiceEntry // by instance full name
	hosts   map[string][]net.IPAddr       // by lower-cased FQDN, IPv4 last
}

// NewMDNSTransport creates an mDNS transport
func NewMDNSTransport(config MDNSConfig) *MDNSTransport {
	config.Domain = strings.TrimSuffix(config.Domain, ".")
	if config.Domain == "" {
		config.Domain = "local"
	}

	logger := config.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	logger = log.With(logger, "component", "mdns")

	return &MDNSTransport{
		config:     config,
		logger:     logger,
		mdnsLogger: stdlog.New(log.NewStdlibAdapter(level.Debug(logger)), "", 0),
		entries:    make(map[string]*mdns.ServiceEntry),
		hosts:      make(map[string][]net.IPAddr),
	}
}

// DefaultTransport returns a fresh mDNS transport with default settings
func DefaultTransport() (Transport, error) {
	return NewMDNSTransport(MDNSConfig{}), nil
}

// Browse opens a browse session for serviceType. A trailing dot is ignored.
func (t *MDNSTransport) Browse(serviceType string) (Session[BrowseReply], error) {
	serviceType = strings.TrimSuffix(serviceType, ".")
	if serviceType == "" {
		return nil, errors.New("empty service type")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &browseSession{t: t, serviceType: serviceType, ctx: ctx, cancel: cancel}, nil
}

// Resolve opens a resolve session for a browse reply
func (t *MDNSTransport) Resolve(reply BrowseReply) (Session[ResolveReply], error) {
	return &resolveSession{t: t, reply: reply}, nil
}

// GetAddrInfo opens an address lookup session for target
func (t *MDNSTransport) GetAddrInfo(target string, iface int) (Session[AddrInfo], error) {
	if target == "" {
		return nil, errors.New("empty target")
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &addrSession{t: t, target: target, iface: iface, ctx: ctx, cancel: cancel}, nil
}

func (t *MDNSTransport) interfaceIndex() int {
	if t.config.Interface == nil {
		return 0
	}
	return t.config.Interface.Index
}

// remember records an entry and its addresses for later sessions
func (t *MDNSTransport) remember(entry *mdns.ServiceEntry) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.entries[entry.Name] = entry

	var addrs []net.IPAddr
	if !t.config.DisableIPv6 {
		switch {
		case entry.AddrV6IPAddr != nil:
			addrs = append(addrs, *entry.AddrV6IPAddr)
		case entry.AddrV6 != nil:
			addrs = append(addrs, net.IPAddr{IP: entry.AddrV6})
		}
	}
	if entry.AddrV4 != nil {
		addrs = append(addrs, net.IPAddr{IP: entry.AddrV4})
	}
	if len(addrs) > 0 && entry.Host != "" {
		t.hosts[hostKey(entry.Host)] = addrs
	}
}

func (t *MDNSTransport) entry(fullName string) (*mdns.ServiceEntry, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	e, ok := t.entries[fullName]
	return e, ok
}

func (t *MDNSTransport) hostAddrs(host string) []net.IPAddr {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.hosts[hostKey(host)]
}

func hostKey(host string) string {
	return strings.ToLower(dns.Fqdn(host))
}

// browseReply converts a service entry into a browse reply. The entry name
// is "<instance>.<service>.<domain>."; ok is false for other services.
func (t *MDNSTransport) browseReply(entry *mdns.ServiceEntry, serviceType string, more bool) (BrowseReply, bool) {
	serviceType = strings.TrimSuffix(serviceType, ".")
	domain := dns.Fqdn(t.config.Domain)
	suffix := "." + serviceType + "." + domain

	if !strings.HasSuffix(entry.Name, suffix) {
		return BrowseReply{}, false
	}

	reply := BrowseReply{
		Flags:     FlagAdd,
		Interface: t.interfaceIndex(),
		Name:      strings.TrimSuffix(entry.Name, suffix),
		Type:      serviceType,
		Domain:    domain,
	}
	if more {
		reply.Flags |= FlagMoreComing
	}
	return reply, true
}

type browseSession struct {
	t           *MDNSTransport
	serviceType string
	ctx         context.Context
	cancel      context.CancelFunc
}

// Each browses for timeout. hashicorp/mdns keeps its sockets open until the
// timeout even when cancelled, so when the consumer stops early the rest of
// the query is drained in the background and Each returns at once.
func (s *browseSession) Each(timeout time.Duration) iter.Seq[BrowseReply] {
	return func(yield func(BrowseReply) bool) {
		ctx, cancel := context.WithCancel(s.ctx)
		defer cancel()

		entries := make(chan *mdns.ServiceEntry, browseBuffer)
		go func() {
			defer close(entries)

			params := &mdns.QueryParam{
				Service:     s.serviceType,
				Domain:      s.t.config.Domain,
				Timeout:     timeout,
				Interface:   s.t.config.Interface,
				Entries:     entries,
				DisableIPv6: s.t.config.DisableIPv6,
				Logger:      s.t.mdnsLogger,
			}
			if err := mdns.QueryContext(ctx, params); err != nil {
				level.Warn(s.t.logger).Log("msg", "browse query failed", "service", s.serviceType, "err", err)
			}
		}()

		s.consume(entries, cancel, yield)
	}
}

// consume yields replies for entries until the channel closes or the
// consumer stops. On an early stop the query is cancelled and the remaining
// entries are drained in the background.
func (s *browseSession) consume(entries <-chan *mdns.ServiceEntry, cancel context.CancelFunc, yield func(BrowseReply) bool) {
	seen := make(map[string]bool)
	for entry := range entries {
		if seen[entry.Name] {
			continue
		}
		seen[entry.Name] = true
		s.t.remember(entry)

		reply, ok := s.t.browseReply(entry, s.serviceType, len(entries) > 0)
		if !ok {
			continue
		}

		if !yield(reply) {
			cancel()
			go func() {
				for range entries {
				}
			}()
			return
		}
	}
}

// Stop cancels the query. Sockets held by hashicorp/mdns are released
// when the browse timeout elapses.
func (s *browseSession) Stop() {
	s.cancel()
}

// resolveSession answers from the entry remembered while browsing; mDNS
// delivers SRV and TXT with the PTR answer so no second query is needed
type resolveSession struct {
	t     *MDNSTransport
	reply BrowseReply
}

func (s *resolveSession) Each(timeout time.Duration) iter.Seq[ResolveReply] {
	return func(yield func(ResolveReply) bool) {
		entry, ok := s.t.entry(s.reply.FullName())
		if !ok {
			return
		}

		yield(ResolveReply{
			Interface:  s.reply.Interface,
			FullName:   entry.Name,
			Target:     entry.Host,
			Port:       entry.Port,
			TextRecord: txtrecord.FromStrings(entry.InfoFields),
		})
	}
}

func (s *resolveSession) Stop() {}

type addrSession struct {
	t      *MDNSTransport
	target string
	iface  int
	ctx    context.Context
	cancel context.CancelFunc
}

func (s *addrSession) Each(timeout time.Duration) iter.Seq[AddrInfo] {
	return func(yield func(AddrInfo) bool) {
		if addrs := s.t.hostAddrs(s.target); len(addrs) > 0 {
			s.yieldAll(addrs, 120, yield)
			return
		}

		deadline := time.Now().Add(timeout)
		if !s.query(mdnsIPv4Addr, "udp4", dns.TypeA, deadline, yield) {
			return
		}
		if !s.t.config.DisableIPv6 {
			s.query(mdnsIPv6Addr, "udp6", dns.TypeAAAA, deadline, yield)
		}
	}
}

func (s *addrSession) Stop() {
	s.cancel()
}

// yieldAll yields addrs with the more-coming flag set on all but the last,
// so the last address is the one consumers settle on. IPv4 goes last.
// It reports whether the consumer wants more.
func (s *addrSession) yieldAll(addrs []net.IPAddr, ttl uint32, yield func(AddrInfo) bool) bool {
	addrs = preferIPv4(addrs)
	hostname := strings.TrimSuffix(s.target, ".")
	for i, addr := range addrs {
		info := AddrInfo{
			Interface: s.iface,
			Hostname:  hostname,
			Address:   addr.IP,
			Zone:      addr.Zone,
			TTL:       ttl,
		}
		if i < len(addrs)-1 {
			info.Flags = FlagMoreComing
		}
		if !yield(info) {
			return false
		}
	}
	return true
}

// query sends a one-shot legacy mDNS question from an ephemeral port.
// Responders answer such queries by unicast (RFC 6762 section 6.7), so the
// socket must stay unconnected to accept replies from any source.
// It reports whether the consumer wants more.
func (s *addrSession) query(group, network string, qtype uint16, deadline time.Time, yield func(AddrInfo) bool) bool {
	dst, err := net.ResolveUDPAddr(network, group)
	if err != nil {
		return true
	}

	conn, err := net.ListenUDP(network, nil)
	if err != nil {
		level.Debug(s.t.logger).Log("msg", "address lookup socket failed", "network", network, "err", err)
		return true
	}
	defer conn.Close()

	stop := context.AfterFunc(s.ctx, func() { conn.SetReadDeadline(time.Now()) })
	defer stop()

	msg := new(dns.Msg)
	msg.SetQuestion(dns.Fqdn(s.target), qtype)
	msg.RecursionDesired = false

	packed, err := msg.Pack()
	if err != nil {
		return true
	}
	if _, err := conn.WriteTo(packed, dst); err != nil {
		level.Debug(s.t.logger).Log("msg", "address lookup send failed", "target", s.target, "err", err)
		return true
	}

	if err := conn.SetReadDeadline(deadline); err != nil {
		return true
	}

	buf := make([]byte, 9000)
	for {
		n, src, err := conn.ReadFromUDP(buf)
		if err != nil {
			if errors.Is(err, os.ErrDeadlineExceeded) {
				return s.ctx.Err() == nil
			}
			return true
		}

		resp := new(dns.Msg)
		if err := resp.Unpack(buf[:n]); err != nil || resp.Id != msg.Id {
			continue
		}

		addrs, ttl := answerAddrs(resp, s.target)
		if len(addrs) == 0 {
			continue
		}
		for i := range addrs {
			if addrs[i].IP.IsLinkLocalUnicast() && addrs[i].IP.To4() == nil {
				addrs[i].Zone = src.Zone
			}
		}
		return s.yieldAll(addrs, ttl, yield)
	}
}

// preferIPv4 returns addrs with IPv6 first and IPv4 last, keeping the
// relative order within each family
func preferIPv4(addrs []net.IPAddr) []net.IPAddr {
	out := make([]net.IPAddr, 0, len(addrs))
	for _, a := range addrs {
		if a.IP.To4() == nil {
			out = append(out, a)
		}
	}
	for _, a := range addrs {
		if a.IP.To4() != nil {
			out = append(out, a)
		}
	}
	return out
}

func answerAddrs(resp *dns.Msg, target string) ([]net.IPAddr, uint32) {
	var (
		addrs []net.IPAddr
		ttl   uint32
	)
	want := hostKey(target)

	records := make([]dns.RR, 0, len(resp.Answer)+len(resp.Extra))
	records = append(records, resp.Answer...)
	records = append(records, resp.Extra...)

	for _, rr := range records {
		if strings.ToLower(rr.Header().Name) != want {
			continue
		}
		switch rr := rr.(type) {
		case *dns.A:
			addrs = append(addrs, net.IPAddr{IP: rr.A})
			ttl = rr.Hdr.Ttl
		case *dns.AAAA:
			addrs = append(addrs, net.IPAddr{IP: rr.AAAA})
			ttl = rr.Hdr.Ttl
		}
	}

	return addrs, ttl
}
