package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{name: "all flags", args: []string{"cmd",
			"-a", "127.0.0.1:9090", "-r", "reg", "-t", "traf", "-l", "led", "-u", "udb",
			"-d", "ldap://dir", "-s", "secret", "-k", "k1:9092, k2:9092", "-o", "2s", "-m",
		}, expectPanic: false,
			expected: &Config{
				EndpointAddrHTTP: "127.0.0.1:9090",
				RegistryDSN:      "reg",
				TrafficDSN:       "traf",
				LedgerDSN:        "led",
				UserDBDSN:        "udb",
				LDAPURL:          "ldap://dir",
				SecretKey:        "secret",
				KafkaBrokers:     []string{"k1:9092", "k2:9092"},
				StoreTimeout:     2 * time.Second,
				RunMigrations:    true,
			}},
		{name: "foreign flags are ignored", args: []string{"cmd", "-c", "x.json", "-a", ":1"},
			expected: &Config{EndpointAddrHTTP: ":1"}},
		{name: "bad duration panics", args: []string{"cmd", "-o", "later"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args

			config := &Config{}

			if !tt.expectPanic {
				require.NotPanics(t, func() { parseFlags(config) })
				assert.Empty(t, cmp.Diff(config, tt.expected))
			} else {
				require.Panics(t, func() { parseFlags(config) })
			}
		})
	}
}
