// Package flagx lets the server config layer parse its own subset of os.Args
// without tripping over flags that belong to another source.
package flagx

import (
	"flag"
	"os"
	"slices"
	"strings"
)

// ConfigFileEnv names the environment variable consulted when no -c/-config
// flag is given.
const ConfigFileEnv = "VAULT_CONFIG"

// configFlags are the spellings accepted for the JSON config path.
var configFlags = []string{"-c", "-config", "--config"}

// FilterArgs returns the tokens of args that belong to one of the named
// flags, together with their values. Both "-f value" and "-f=value" are
// recognised. A token starting with "-" is never consumed as a value, and
// everything after a bare "--" is dropped.
func FilterArgs(args []string, names []string) []string {
	out := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		tok := args[i]
		if tok == "--" {
			break
		}
		if !strings.HasPrefix(tok, "-") {
			continue
		}

		name, _, inline := strings.Cut(tok, "=")
		if !slices.Contains(names, name) {
			continue
		}
		out = append(out, tok)

		if !inline && i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			out = append(out, args[i])
		}
	}

	return out
}

// ConfigFile returns the JSON config path given by -c/-config, falling back
// to $VAULT_CONFIG. An empty string means no file should be loaded.
func ConfigFile() string {
	return configFileFrom(os.Args[1:])
}

func configFileFrom(args []string) string {
	var path string

	fs := flag.NewFlagSet("config-file", flag.ContinueOnError)
	fs.SetOutput(discard{})
	fs.StringVar(&path, "config", "", "path to JSON config file")
	fs.StringVar(&path, "c", "", "path to JSON config file (short)")
	_ = fs.Parse(FilterArgs(args, configFlags))

	if path == "" {
		path = os.Getenv(ConfigFileEnv)
	}
	return path
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
