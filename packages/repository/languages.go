package repository

import "strings"

// languageMap maps recognized extensions (without the dot) to a language tag.
// An entry whose extension is listed here is read into the corpus.
var languageMap = map[string]string{
	"go":            "go",
	"js":            "javascript",
	"jsx":           "jsx",
	"ts":            "typescript",
	"tsx":           "tsx",
	"py":            "python",
	"java":          "java",
	"cpp":           "cpp",
	"cc":            "cpp",
	"cxx":           "cpp",
	"c":             "c",
	"h":             "c",
	"hpp":           "cpp",
	"cs":            "csharp",
	"html":          "html",
	"htm":           "html",
	"css":           "css",
	"scss":          "scss",
	"sass":          "sass",
	"less":          "less",
	"json":          "json",
	"xml":           "xml",
	"yaml":          "yaml",
	"yml":           "yaml",
	"md":            "markdown",
	"markdown":      "markdown",
	"txt":           "text",
	"sh":            "bash",
	"bash":          "bash",
	"zsh":           "zsh",
	"fish":          "fish",
	"sql":           "sql",
	"rb":            "ruby",
	"php":           "php",
	"rs":            "rust",
	"kt":            "kotlin",
	"swift":         "swift",
	"dart":          "dart",
	"vue":           "vue",
	"svelte":        "svelte",
	"r":             "r",
	"scala":         "scala",
	"clj":           "clojure",
	"hs":            "haskell",
	"elm":           "elm",
	"ex":            "elixir",
	"exs":           "elixir",
	"pl":            "perl",
	"lua":           "lua",
	"vim":           "vim",
	"dockerfile":    "dockerfile",
	"toml":          "toml",
	"ini":           "ini",
	"cfg":           "ini",
	"conf":          "conf",
	"mod":           "go.mod",
	"gitignore":     "",
	"gitattributes": "",
	"editorconfig":  "ini",
	"eslintrc":      "json",
	"prettierrc":    "json",
	"babelrc":       "json",
}

// getLanguage returns the language tag for ext, or "" when unknown.
func getLanguage(ext string) string {
	return languageMap[strings.ToLower(ext)]
}

func defaultExtensions() map[string]struct{} {
	set := make(map[string]struct{}, len(languageMap))
	for ext := range languageMap {
		set[ext] = struct{}{}
	}
	return set
}
