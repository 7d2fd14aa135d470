package flagx

import (
	"os"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	config := []string{"-c", "-config"}

	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-c", "protopass.json", "-a", "http://localhost:7071/api"},
			allowed: config,
			want:    []string{"-c", "protopass.json"},
		},
		{
			name:    "inline value",
			args:    []string{"-config=protopass.json", "-l", "debug"},
			allowed: config,
			want:    []string{"-config=protopass.json"},
		},
		{
			name:    "inline value starting with dash",
			args:    []string{"-config=-odd.json"},
			allowed: config,
			want:    []string{"-config=-odd.json"},
		},
		{
			name:    "order preserved across forms",
			args:    []string{"-config=a.json", "-s", "sqlite", "-c", "b.json"},
			allowed: config,
			want:    []string{"-config=a.json", "-c", "b.json"},
		},
		{
			name:    "nothing allowed present",
			args:    []string{"-s", "memory", "-t=5s", "stray"},
			allowed: config,
			want:    []string{},
		},
		{
			name:    "dangling flag",
			args:    []string{"-l"},
			allowed: []string{"-l"},
			want:    []string{"-l"},
		},
		{
			name:    "next flag is not a value",
			args:    []string{"-c", "-l", "info"},
			allowed: config,
			want:    []string{"-c"},
		},
		{
			name:    "subset of client flags",
			args:    []string{"-a", "https://vault.example/api", "-t", "10s", "-v", "1m", "-s", "sqlite"},
			allowed: []string{"-t", "-v"},
			want:    []string{"-t", "10s", "-v", "1m"},
		},
		{
			name:    "test runner flags dropped",
			args:    []string{"-test.v=true", "-test.run", "TestX", "-d", "/tmp/s.db"},
			allowed: []string{"-d"},
			want:    []string{"-d", "/tmp/s.db"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterArgs(tt.args, tt.allowed)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FilterArgs() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "short", args: []string{"-c", "/etc/protopass/short.json"}, want: "/etc/protopass/short.json"},
		{name: "long inline", args: []string{"-config=/etc/protopass/long.json"}, want: "/etc/protopass/long.json"},
		{name: "mixed with client flags", args: []string{"-l", "debug", "-c", "cfg.json", "-s", "sqlite"}, want: "cfg.json"},
		{name: "absent", args: []string{"-a", "http://localhost/api"}, want: ""},
		{name: "last wins", args: []string{"-c", "1.json", "-config", "2.json"}, want: "2.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = append([]string{"protopass"}, tt.args...)
			assert.Equal(t, tt.want, JsonConfigFlags())
		})
	}
}
