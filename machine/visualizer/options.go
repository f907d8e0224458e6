package visualizer

// Options configures the diagram output.
type Options struct {
	// ShowEvents labels transition arrows with their event names
	ShowEvents bool

	// ShowGuards appends guard names to transition labels
	ShowGuards bool

	// Direction controls diagram flow: "TD" (top-down) or "LR" (left-right)
	Direction string

	// HighlightPath highlights a specific state path through the diagram
	HighlightPath []string

	// Fenced wraps the diagram in a ```mermaid code fence
	Fenced bool
}

// DefaultOptions returns sensible defaults.
func DefaultOptions() Options {
	return Options{
		ShowEvents: true,
		ShowGuards: true,
		Direction:  "TD",
		Fenced:     true,
	}
}

// WithShowEvents enables or disables event labels.
func (o Options) WithShowEvents(show bool) Options {
	o.ShowEvents = show

	return o
}

// WithShowGuards enables or disables guard names on labels.
func (o Options) WithShowGuards(show bool) Options {
	o.ShowGuards = show

	return o
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithHighlightPath sets states to highlight.
func (o Options) WithHighlightPath(path []string) Options {
	o.HighlightPath = path

	return o
}

// WithFenced controls the surrounding markdown code fence.
func (o Options) WithFenced(fenced bool) Options {
	o.Fenced = fenced

	return o
}
