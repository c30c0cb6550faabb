// ABOUTME: Text record wire format encoder and decoder
// ABOUTME: Converts between length-prefixed TXT payloads and key/value maps
package txtrecord

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// MaxStringLength is the largest single key=value string a TXT record can hold
const MaxStringLength = 255

var (
	// ErrTruncated is returned when a length prefix points past the end of the record
	ErrTruncated = errors.New("txtrecord: truncated record")

	// ErrEmptyKey is returned when encoding a pair with an empty key
	ErrEmptyKey = errors.New("txtrecord: empty key")
)

// Decode parses a raw text record into its key/value pairs.
// Empty strings are skipped, a string without '=' is a key with an empty
// value, and when a key repeats the first occurrence wins.
func Decode(raw []byte) (map[string][]byte, error) {
	fields := make(map[string][]byte)

	for i := 0; i < len(raw); {
		n := int(raw[i])
		i++
		if i+n > len(raw) {
			return nil, fmt.Errorf("%w: string at offset %d wants %d bytes, %d left", ErrTruncated, i-1, n, len(raw)-i)
		}

		entry := raw[i : i+n]
		i += n

		if len(entry) == 0 {
			continue
		}

		key, value := splitEntry(entry)
		if key == "" {
			continue
		}
		if _, seen := fields[key]; seen {
			continue
		}
		fields[key] = value
	}

	return fields, nil
}

// Encode serializes key/value pairs into the TXT wire format. Keys are
// written in sorted order so the output is deterministic.
func Encode(fields map[string][]byte) ([]byte, error) {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var out []byte
	for _, k := range keys {
		if k == "" {
			return nil, ErrEmptyKey
		}
		if strings.ContainsRune(k, '=') {
			return nil, fmt.Errorf("txtrecord: key %q contains '='", k)
		}

		entry := append([]byte(k+"="), fields[k]...)
		if len(entry) > MaxStringLength {
			return nil, fmt.Errorf("txtrecord: entry for key %q is %d bytes, max %d", k, len(entry), MaxStringLength)
		}

		out = append(out, byte(len(entry)))
		out = append(out, entry...)
	}

	return out, nil
}

// FromStrings packs already formatted "key=value" strings, as found in a TXT
// resource record, into the TXT wire format. Strings longer than
// MaxStringLength are truncated.
func FromStrings(entries []string) []byte {
	var out []byte
	for _, e := range entries {
		if len(e) > MaxStringLength {
			e = e[:MaxStringLength]
		}
		out = append(out, byte(len(e)))
		out = append(out, e...)
	}
	return out
}

// ToStrings splits a raw text record into its individual strings without
// interpreting them.
func ToStrings(raw []byte) ([]string, error) {
	var entries []string
	for i := 0; i < len(raw); {
		n := int(raw[i])
		i++
		if i+n > len(raw) {
			return nil, ErrTruncated
		}
		entries = append(entries, string(raw[i:i+n]))
		i += n
	}
	return entries, nil
}

func splitEntry(entry []byte) (string, []byte) {
	for i, b := range entry {
		if b == '=' {
			value := make([]byte, len(entry)-i-1)
			copy(value, entry[i+1:])
			return string(entry[:i]), value
		}
	}
	return string(entry), []byte{}
}
