package logging

import "context"

const (
	rootModule     = "jiraconv"
	richTextModule = "jiraconv.richtext"
	wikiModule     = "jiraconv.wiki"
	markdownModule = "jiraconv.markdown"
	cliModule      = "jiraconv.cli"
)

// ModuleLogger returns a module-scoped logger, defaulting to a no-op
// implementation when no provider is supplied. The module identifier is
// attached as a structured field.
func ModuleLogger(provider LoggerProvider, module string) Logger {
	if module == "" {
		module = rootModule
	}

	logger := NoOp()
	if provider != nil {
		if provided := provider.GetLogger(module); provided != nil {
			logger = provided
		}
	}

	return WithFields(logger, map[string]any{
		"module": module,
	})
}

// RichTextLogger returns the logger for rich text parsing and rendering.
func RichTextLogger(provider LoggerProvider) Logger {
	return ModuleLogger(provider, richTextModule)
}

// WikiLogger returns the logger for markup parsing and rendering.
func WikiLogger(provider LoggerProvider) Logger {
	return ModuleLogger(provider, wikiModule)
}

// MarkdownLogger returns the logger for Markdown import.
func MarkdownLogger(provider LoggerProvider) Logger {
	return ModuleLogger(provider, markdownModule)
}

// CLILogger returns the logger for the command line tool.
func CLILogger(provider LoggerProvider) Logger {
	return ModuleLogger(provider, cliModule)
}

// StaticProvider hands out the same logger for every module name.
type StaticProvider struct {
	Logger Logger
}

// GetLogger returns the wrapped logger, or a no-op when it is nil.
func (p StaticProvider) GetLogger(string) Logger {
	if p.Logger == nil {
		return NoOp()
	}
	return p.Logger
}

// NoOp returns a logger that drops every entry.
func NoOp() Logger {
	return noopLogger{}
}

type noopLogger struct{}

var _ Logger = noopLogger{}

func (noopLogger) Trace(string, ...any) {}
func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Fatal(string, ...any) {}

func (n noopLogger) WithFields(map[string]any) Logger {
	return n
}

func (n noopLogger) WithContext(context.Context) Logger {
	return n
}
