package criteria

import (
	"github.com/viant/signoff/service/dao"
)

// Fields exposes the filterable attributes of an entity.
type Fields func(name string) (string, bool)

// Match reports whether the entity described by fields satisfies every
// parameter. Parameters naming an unknown field are ignored; a value other
// than string or []string never matches.
func Match(fields Fields, parameters []*dao.Parameter) bool {
	for _, parameter := range parameters {
		if parameter == nil {
			continue
		}
		actual, ok := fields(parameter.Name)
		if !ok {
			continue
		}
		if !matchValue(actual, parameter.Value) {
			return false
		}
	}
	return true
}

func matchValue(actual string, expected interface{}) bool {
	switch value := expected.(type) {
	case string:
		return actual == value
	case []string:
		for _, candidate := range value {
			if actual == candidate {
				return true
			}
		}
		return false
	}
	return false
}

// Values extracts the string values a parameter accepts.
func Values(parameter *dao.Parameter) []string {
	switch value := parameter.Value.(type) {
	case string:
		return []string{value}
	case []string:
		return value
	}
	return nil
}
