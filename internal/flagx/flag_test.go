package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var serverFlags = []string{"-a", "-r", "-s", "-b"}

func TestFilterArgs(t *testing.T) {
	tests := map[string]struct {
		args []string
		want []string
	}{
		"separate values": {
			args: []string{"-r", "http://127.0.0.1:8545", "-c", "vault.json", "-a", ":3001"},
			want: []string{"-r", "http://127.0.0.1:8545", "-a", ":3001"},
		},
		"inline value does not swallow the next token": {
			args: []string{"-s=pinata", "positional"},
			want: []string{"-s=pinata"},
		},
		"value-less flag before another flag": {
			args: []string{"-b", "-a", ":8080"},
			want: []string{"-b", "-a", ":8080"},
		},
		"trailing flag without value": {
			args: []string{"-a"},
			want: []string{"-a"},
		},
		"repeated flag keeps order": {
			args: []string{"-s", "s3", "-s", "kubo"},
			want: []string{"-s", "s3", "-s", "kubo"},
		},
		"stops at terminator": {
			args: []string{"-a", ":1", "--", "-s", "s3"},
			want: []string{"-a", ":1"},
		},
		"nothing matches": {
			args: []string{"-x", "1", "--y=2", "free"},
			want: []string{},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, serverFlags))
		})
	}
}

func TestConfigFile(t *testing.T) {
	tests := map[string]struct {
		args []string
		env  string
		want string
	}{
		"short flag":         {args: []string{"-c", "/etc/memoire/short.json"}, want: "/etc/memoire/short.json"},
		"long flag inline":   {args: []string{"-config=/srv/long.json", "-a", ":3001"}, want: "/srv/long.json"},
		"double dash inline": {args: []string{"--config=/srv/dd.json"}, want: "/srv/dd.json"},
		"env fallback":       {args: []string{"-a", ":3001"}, env: "/etc/vault.json", want: "/etc/vault.json"},
		"flag beats env":     {args: []string{"-c", "a.json"}, env: "/etc/vault.json", want: "a.json"},
		"neither":            {args: []string{"-x", "1"}, want: ""},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(ConfigFileEnv, tt.env)
			assert.Equal(t, tt.want, configFileFrom(tt.args))
		})
	}
}
