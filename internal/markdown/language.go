package markdown

import "strings"

// languageMap maps Markdown fence info strings to markup code languages.
// "none" means the block is plain text.
var languageMap = map[string]string{
	"js":         "javascript",
	"javascript": "javascript",
	"ts":         "typescript",
	"typescript": "typescript",
	"py":         "python",
	"python":     "python",
	"rb":         "ruby",
	"ruby":       "ruby",
	"sh":         "bash",
	"bash":       "bash",
	"shell":      "bash",
	"zsh":        "bash",
	"json":       "json",
	"xml":        "xml",
	"html":       "html",
	"css":        "css",
	"sql":        "sql",
	"java":       "java",
	"go":         "go",
	"golang":     "go",
	"rust":       "rust",
	"rs":         "rust",
	"c":          "cpp",
	"cpp":        "cpp",
	"c++":        "cpp",
	"yaml":       "yaml",
	"yml":        "yaml",
	"php":        "php",
	"swift":      "swift",
	"kotlin":     "kotlin",
	"kt":         "kotlin",
	"scala":      "scala",
	"r":          "r",
	"perl":       "perl",
	"groovy":     "groovy",
	"powershell": "powershell",
	"ps1":        "powershell",
	"dockerfile": "dockerfile",
	"makefile":   "makefile",
	"markdown":   "none",
	"md":         "none",
	"text":       "none",
	"txt":        "none",
	"plaintext":  "none",
}

// mapLanguage returns the code block language for a fence info string.
// Unknown languages pass through lowercased.
func mapLanguage(info string) string {
	lang := strings.ToLower(strings.TrimSpace(info))
	if mapped, ok := languageMap[lang]; ok {
		lang = mapped
	}
	if lang == "none" {
		return ""
	}
	return lang
}
