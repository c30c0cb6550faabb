// ABOUTME: DNS-SD text record codec package
// ABOUTME: Encodes and decodes TXT record payloads carried by service advertisements
// Package txtrecord encodes and decodes DNS-SD text records.
//
// A text record is a sequence of length-prefixed "key=value" strings as
// described by RFC 6763 section 6. Values are kept as raw bytes; callers
// decide how to interpret them.
//
// Example:
//
//	raw, err := txtrecord.Encode(map[string][]byte{"name": []byte("ultimaker3")})
//	fields, err := txtrecord.Decode(raw)
//	fmt.Println(string(fields["name"]))
package txtrecord
