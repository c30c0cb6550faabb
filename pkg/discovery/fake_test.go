// ABOUTME: In-memory Transport used by discovery tests
// ABOUTME: Serves scripted replies and counts Stop calls per session
package discovery

import (
	"fmt"
	"iter"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/samuelkadolph/ultimaker-go/pkg/txtrecord"
	"github.com/stretchr/testify/require"
)

type fakeSession[T any] struct {
	name    string
	replies []T
	mu      sync.Mutex
	stops   int
}

func (s *fakeSession[T]) Each(timeout time.Duration) iter.Seq[T] {
	return func(yield func(T) bool) {
		for _, r := range s.replies {
			if !yield(r) {
				return
			}
		}
	}
}

func (s *fakeSession[T]) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func (s *fakeSession[T]) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

type stoppable interface {
	stopCount() int
}

type fakeTransport struct {
	browse   []BrowseReply
	resolves map[string][]ResolveReply // by browse full name
	addrs    map[string][]AddrInfo     // by target

	browseErr  error
	resolveErr map[string]error
	addrErr    map[string]error

	sessions map[string]stoppable
	opened   []string
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		resolves:   make(map[string][]ResolveReply),
		addrs:      make(map[string][]AddrInfo),
		resolveErr: make(map[string]error),
		addrErr:    make(map[string]error),
		sessions:   make(map[string]stoppable),
	}
}

func (f *fakeTransport) Browse(serviceType string) (Session[BrowseReply], error) {
	if f.browseErr != nil {
		return nil, f.browseErr
	}
	return open(f, "browse:"+serviceType, f.browse), nil
}

func (f *fakeTransport) Resolve(reply BrowseReply) (Session[ResolveReply], error) {
	if err := f.resolveErr[reply.FullName()]; err != nil {
		return nil, err
	}
	return open(f, "resolve:"+reply.FullName(), f.resolves[reply.FullName()]), nil
}

func (f *fakeTransport) GetAddrInfo(target string, iface int) (Session[AddrInfo], error) {
	if err := f.addrErr[target]; err != nil {
		return nil, err
	}
	return open(f, "addr:"+target, f.addrs[target]), nil
}

func open[T any](f *fakeTransport, name string, replies []T) *fakeSession[T] {
	s := &fakeSession[T]{name: name, replies: replies}
	f.sessions[name] = s
	f.opened = append(f.opened, name)
	return s
}

// requireStoppedOnce asserts every session opened was stopped exactly once
func (f *fakeTransport) requireStoppedOnce(t *testing.T) {
	t.Helper()
	for name, s := range f.sessions {
		require.Equalf(t, 1, s.stopCount(), "session %s stop count", name)
	}
}

type printerOpts struct {
	ip              string
	serial          string
	name            string
	firmwareVersion string
	machine         string
}

// addPrinter scripts a printer the way firmware 3.5 announces itself: two
// partial resolve replies with the more-coming flag, then the full record
func (f *fakeTransport) addPrinter(t *testing.T, opts printerOpts) BrowseReply {
	t.Helper()

	if opts.serial == "" {
		opts.serial = fmt.Sprintf("deadbeef%04d", len(f.browse)+1)
	}
	if opts.ip == "" {
		opts.ip = fmt.Sprintf("192.168.0.%d", 100+len(f.browse))
	}
	if opts.name == "" {
		opts.name = "ultimaker3"
	}
	if opts.firmwareVersion == "" {
		opts.firmwareVersion = "3.5.3.20161221"
	}
	if opts.machine == "" {
		opts.machine = "9511.0"
	}

	hostname := "ultimakersystem-" + opts.serial
	target := hostname + ".local"

	browse := BrowseReply{Flags: FlagAdd, Interface: 2, Name: hostname, Type: ServiceType, Domain: "local."}

	record1 := map[string][]byte{
		"firmware_version": []byte(opts.firmwareVersion),
		"machine":          []byte(opts.machine),
		"name":             []byte(opts.name),
		"type":             []byte("printer"),
	}
	record2 := cloneRecord(record1)
	record2["hotend_serial_1"] = []byte("b397cb6681c0")
	record2["hotend_type_1"] = []byte("BB 0.4")
	record3 := cloneRecord(record2)
	record3["hotend_serial_0"] = []byte("28a7d22effaf")
	record3["hotend_type_0"] = []byte("AA 0.4")

	// Targets on partial replies are bogus so a lookup from them would miss.
	f.resolves[browse.FullName()] = []ResolveReply{
		{Flags: FlagMoreComing, Interface: 2, FullName: browse.FullName(), Target: "moreflags", Port: 80, TextRecord: encode(t, record1)},
		{Flags: FlagMoreComing, Interface: 2, FullName: browse.FullName(), Target: "moreflags", Port: 80, TextRecord: encode(t, record2)},
		{Interface: 2, FullName: browse.FullName(), Target: target, Port: 80, TextRecord: encode(t, record3)},
	}
	f.addrErr["moreflags"] = fmt.Errorf("address lookup from a partial resolve reply")
	f.addrs[target] = []AddrInfo{
		{Interface: 2, Hostname: hostname, Address: net.ParseIP(opts.ip), TTL: 120},
	}

	f.browse = append(f.browse, browse)
	return browse
}

func cloneRecord(in map[string][]byte) map[string][]byte {
	out := make(map[string][]byte, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func encode(t *testing.T, record map[string][]byte) []byte {
	t.Helper()
	raw, err := txtrecord.Encode(record)
	require.NoError(t, err)
	return raw
}
