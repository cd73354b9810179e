package lang

import "github.com/smacker/go-tree-sitter/cpp"

// Headers go through the C++ grammar, which accepts nearly all C headers
// and also understands classes and namespaces.
func init() {
	Languages["cpp"] = &Language{
		Name:       "cpp",
		Extensions: []string{".h", ".hh", ".hpp", ".hxx", ".cc", ".cpp", ".cxx"},
		lang:       cpp.GetLanguage(),
	}
}
