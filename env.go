package signoff

import (
	"os"
	"strings"
)

const envPrefix = "${env."

// expandEnv substitutes ${env.NAME} references in a configuration document,
// so secrets such as store.password can stay out of the file. Unset
// variables expand to an empty string; references with a name that is not
// made of letters, digits or '_' are left as written.
func expandEnv(document string) string {
	if !strings.Contains(document, envPrefix) {
		return document
	}
	var out strings.Builder
	rest := document
	for {
		at := strings.Index(rest, envPrefix)
		if at < 0 {
			out.WriteString(rest)
			return out.String()
		}
		out.WriteString(rest[:at])
		rest = rest[at+len(envPrefix):]
		end := strings.IndexByte(rest, '}')
		if end < 0 {
			out.WriteString(envPrefix)
			out.WriteString(rest)
			return out.String()
		}
		name := rest[:end]
		if !isEnvName(name) {
			out.WriteString(envPrefix)
			continue
		}
		out.WriteString(os.Getenv(name))
		rest = rest[end+1:]
	}
}

func isEnvName(name string) bool {
	for _, r := range name {
		switch {
		case r == '_', r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}
