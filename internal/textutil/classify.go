package textutil

// Script labels the character repertoire of a filename.
type Script string

const (
	// ScriptASCII means the name needs sanitization at most.
	ScriptASCII Script = "ascii"
	// ScriptNonASCII means the name needs translation before it can be used.
	ScriptNonASCII Script = "non_ascii"
)

// Classify reports whether a filename can be used as-is or requires
// translation. It is total over the input: any code point outside printable
// ASCII yields ScriptNonASCII. Control characters also count as non-ASCII
// since they can never appear in a canonical name.
func Classify(name string) Script {
	for _, r := range name {
		if r < 0x20 || r > 0x7e {
			return ScriptNonASCII
		}
	}
	return ScriptASCII
}
