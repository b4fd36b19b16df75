package dao

// Parameter is a named List filter. Value is either a string or a []string
// (any of).
type Parameter struct {
	Name  string
	Value interface{}
}

// NewParameter creates a filter parameter.
func NewParameter(name string, values ...string) *Parameter {
	if len(values) == 1 {
		return &Parameter{Name: name, Value: values[0]}
	}
	return &Parameter{Name: name, Value: values}
}
