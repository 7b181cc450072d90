package mcpserver

import (
	"net"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devgate/swagsync/registry"
)

func TestIsBlockedIP(t *testing.T) {
	blocked := []string{
		"127.0.0.1",
		"10.0.0.1",
		"172.16.0.1",
		"192.168.1.1",
		"169.254.1.1",
		"0.0.0.0",
		"::1",
	}
	for _, s := range blocked {
		assert.True(t, isBlockedIP(net.ParseIP(s)), "expected %s to be blocked", s)
	}

	allowed := []string{
		"8.8.8.8",
		"93.184.216.34",
		"2606:4700:4700::1111",
	}
	for _, s := range allowed {
		assert.False(t, isBlockedIP(net.ParseIP(s)), "expected %s to be allowed", s)
	}
}

func TestRegistryHostsPolicy(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "modules.yaml", []byte(`
modules:
  - id: user-service
    name: User Service
    url: http://10.20.0.5:8080/user
`), 0o644))

	policy := registryHosts(registry.New(fsys, "modules.yaml"))
	assert.True(t, policy("10.20.0.5"), "hosts of registered modules are exempt from the IP block")
	assert.False(t, policy("10.20.0.6"))
	assert.False(t, policy("evil.example.com"))
}

func TestRegistryHostsPolicyMissingFile(t *testing.T) {
	policy := registryHosts(registry.New(afero.NewMemMapFs(), "absent.yaml"))
	assert.False(t, policy("10.20.0.5"), "an unreadable registry admits nothing")
}
