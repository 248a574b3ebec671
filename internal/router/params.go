package router

// Parameters is the ordered mapping from capture name to captured string
// produced by a successful route match. Its lifetime is the same as the
// request it was produced for.
type Parameters []Parameter

// Parameter is one named capture.
type Parameter struct {
	Name  string
	Value string
}

// Get returns the value of the first capture named name, if any.
func (p Parameters) Get(name string) (string, bool) {
	for _, kv := range p {
		if kv.Name == name {
			return kv.Value, true
		}
	}
	return "", false
}
