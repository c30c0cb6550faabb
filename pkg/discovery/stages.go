// ABOUTME: Resolve and address lookup stages of printer discovery
// ABOUTME: Each stage waits for the first reply without the more-coming flag
package discovery

import (
	"fmt"
	"time"
)

type reply interface {
	MoreComing() bool
}

// firstComplete consumes session until a reply without the more-coming flag
// arrives. The session is stopped on every return path.
func firstComplete[T reply](session Session[T], timeout time.Duration) (T, bool) {
	defer session.Stop()

	for r := range session.Each(timeout) {
		if !r.MoreComing() {
			return r, true
		}
	}

	var zero T
	return zero, false
}

// resolve turns a browse reply into its final resolve reply. ok is false
// when no complete reply arrived before the timeout.
func resolve(t Transport, browsed BrowseReply, timeout time.Duration) (ResolveReply, bool, error) {
	session, err := t.Resolve(browsed)
	if err != nil {
		return ResolveReply{}, false, fmt.Errorf("resolve %s: %w", browsed.FullName(), err)
	}

	r, ok := firstComplete(session, timeout)
	return r, ok, nil
}

// lookupAddress finds the address of a resolved target. ok is false when no
// complete reply arrived before the timeout.
func lookupAddress(t Transport, resolved ResolveReply, timeout time.Duration) (AddrInfo, bool, error) {
	session, err := t.GetAddrInfo(resolved.Target, resolved.Interface)
	if err != nil {
		return AddrInfo{}, false, fmt.Errorf("address lookup %s: %w", resolved.Target, err)
	}

	info, ok := firstComplete(session, timeout)
	return info, ok, nil
}
