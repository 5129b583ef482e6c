package preprocess

// Options controls how inbound images are prepared for the remote model.
type Options struct {
	// MaxDimension caps the longer side of the outbound image.
	MaxDimension int

	// JPEGQuality is the re-encode quality (1-100).
	JPEGQuality int

	// MaxSourcePixels rejects payloads whose declared canvas is larger than
	// this before any pixel data is decoded. Zero disables the check.
	MaxSourcePixels int
}

// DefaultOptions returns the options used by the API.
func DefaultOptions() Options {
	return Options{
		MaxDimension:    1024,
		JPEGQuality:     90,
		MaxSourcePixels: 64 * 1024 * 1024,
	}
}

// WithMaxDimension returns options with a different size cap
func (opts Options) WithMaxDimension(maxDimension int) Options {
	opts.MaxDimension = maxDimension
	return opts
}

// WithJPEGQuality returns options with a different JPEG quality
func (opts Options) WithJPEGQuality(quality int) Options {
	opts.JPEGQuality = quality
	return opts
}

func (opts Options) normalized() Options {
	def := DefaultOptions()
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = def.MaxDimension
	}
	if opts.JPEGQuality < 1 || opts.JPEGQuality > 100 {
		opts.JPEGQuality = def.JPEGQuality
	}
	if opts.MaxSourcePixels < 0 {
		opts.MaxSourcePixels = 0
	}
	return opts
}
