// Package flagx lets several independent FlagSets share one command line.
// Each layer of the server configuration (env file, JSON overlay, short
// flags) picks out only the arguments it owns before parsing.
package flagx

import (
	"flag"
	"os"
	"strings"
)

// FilterArgs keeps the arguments in args whose flag name is listed in
// allowed, in their original order. Both "-f value" and "-f=value" forms are
// recognized; a following token that starts with "-" is never taken as a
// value. Parsing stops at a bare "--".
func FilterArgs(args []string, allowed []string) []string {
	known := make(map[string]bool, len(allowed))
	for _, f := range allowed {
		known[f] = true
	}

	out := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			break
		}

		if name, _, ok := strings.Cut(arg, "="); ok && strings.HasPrefix(arg, "-") {
			if known[name] {
				out = append(out, arg)
			}
			continue
		}

		if !known[arg] {
			continue
		}
		out = append(out, arg)
		if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
			i++
			out = append(out, args[i])
		}
	}
	return out
}

// stringFlag returns the last value given for any of names on the process
// command line, or "" when none is present.
func stringFlag(set string, names ...string) string {
	var value string

	dashed := make([]string, len(names))
	fs := flag.NewFlagSet(set, flag.ContinueOnError)
	fs.SetOutput(nopWriter{})
	for i, n := range names {
		dashed[i] = "-" + n
		fs.StringVar(&value, n, "", set+" file path")
	}
	_ = fs.Parse(FilterArgs(os.Args[1:], dashed))

	return value
}

// JsonConfigFlags returns the JSON config path given via -c or -config.
func JsonConfigFlags() string {
	return stringFlag("json", "c", "config")
}

// EnvFileFlag returns the dotenv file path given via -env.
func EnvFileFlag() string {
	return stringFlag("env", "env")
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }
