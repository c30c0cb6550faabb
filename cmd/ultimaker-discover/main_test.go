// ABOUTME: Tests for the discovery tool helpers
// ABOUTME: Covers printer table output, version output and log level selection
package main

import (
	"bytes"
	"net"
	"strings"
	"testing"

	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelkadolph/ultimaker-go/internal/version"
	"github.com/samuelkadolph/ultimaker-go/pkg/discovery"
)

func TestWritePrinters(t *testing.T) {
	printer := discovery.NewDiscoveredPrinter(
		discovery.AddrInfo{Hostname: "ultimakersystem-deadbeef0001", Address: net.ParseIP("192.168.2.2")},
		map[string][]byte{
			"name":             []byte("ultimaker3"),
			"machine":          []byte("9511.0"),
			"firmware_version": []byte("3.5.3.20161221"),
		},
	)

	var buf bytes.Buffer
	writePrinters(&buf, []*discovery.DiscoveredPrinter{printer})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "NAME"))
	assert.Equal(t,
		[]string{"ultimaker3", "Ultimaker", "3", "Extended", "9511.0", "192.168.2.2", "ultimakersystem-deadbeef0001", "3.5.3.20161221"},
		strings.Fields(lines[1]))
}

func TestNewLoggerFiltersLevels(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "warn")

	level.Info(logger).Log("msg", "hidden")
	level.Warn(logger).Log("msg", "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "level=warn")
}

func TestVersionString(t *testing.T) {
	v := versionString()

	assert.True(t, strings.HasPrefix(v, version.Product+" "+version.Version))
	assert.Contains(t, v, "("+version.Manufacturer+")")
}
