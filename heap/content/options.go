package content

// Options tunes buffer sizing. None of it is persisted; a tree may be
// reopened with different Options and adapts its buffers as they are touched.
type Options struct {
	// DefaultContentSize is the byte budget of a newly created buffer.
	DefaultContentSize int

	// MaximumMoveFactor bounds, in default buffers, how large a buffer may
	// be before an edit shatters it into default-sized buffers.
	MaximumMoveFactor int
}

// DefaultOptions is used when a nil *Options is passed.
var DefaultOptions = Options{
	DefaultContentSize: 256,
	MaximumMoveFactor:  4,
}

func (o Options) normalized() Options {
	if o.DefaultContentSize <= 0 {
		o.DefaultContentSize = DefaultOptions.DefaultContentSize
	}
	switch {
	case o.MaximumMoveFactor <= 0:
		o.MaximumMoveFactor = DefaultOptions.MaximumMoveFactor
	case o.MaximumMoveFactor < 2:
		o.MaximumMoveFactor = 2
	}
	return o
}
