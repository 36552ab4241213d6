package interfaces

// MarkdownParser converts Markdown into HTML.
type MarkdownParser interface {
	Parse(markdown []byte) ([]byte, error)
	ParseWithOptions(markdown []byte, opts ParseOptions) ([]byte, error)
}

// ParseOptions customises Markdown rendering.
type ParseOptions struct {
	Extensions []string
	Sanitize   bool
	HardWraps  bool
	// SafeMode omits raw HTML embedded in the source.
	SafeMode bool
}
