package service

// Page is a Markdown file after it went through the pipeline.
type Page struct {
	Path string

	// HTML is the sanitized output. It's empty when the file could not be rendered.
	HTML []byte

	// Raw is the unsanitized renderer output, only filled when requested. It is not safe to display.
	Raw []byte

	// Links holds the href and src values found at the sanitized output.
	Links []string
}

// Entry represents the link present at a given file.
type Entry struct {
	Path       string
	Link       string
	Valid      bool
	FailReason func()
}

// EnhancedError is an error that can print the details of the failure.
type EnhancedError interface {
	error
	PrettyPrint()
}
