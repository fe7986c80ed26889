package halyard

// attachProvenance stamps the source file and line onto a freshly constructed
// value. Values that cannot carry provenance (native scalars) pass through
// untouched, as do nodes without a usable start mark (line < 1).
func attachProvenance(v any, file string, line int) any {
	if line < 1 {
		return v
	}
	switch t := v.(type) {
	case *Mapping:
		t.AttachProvenance(file, line)
	case *Sequence:
		t.AttachProvenance(file, line)
	case *String:
		t.AttachProvenance(file, line)
	}
	return v
}
