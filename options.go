package framegraph

// Option configures a Graph at construction time, following the functional
// options pattern used throughout the wider package family (grounded on
// gogpu-gg/options.go's Option/defaultOptions split).
type Option func(*graphOptions)

type graphOptions struct {
	framesInFlight int
}

func defaultOptions() graphOptions {
	return graphOptions{framesInFlight: 2}
}

// WithFramesInFlight sets how many frames the deferred-destruction queue
// tracks before a resource is considered safe to free (spec §5
// "Shared-resource policy"). Defaults to 2 (double buffering).
func WithFramesInFlight(n int) Option {
	return func(o *graphOptions) {
		if n > 0 {
			o.framesInFlight = n
		}
	}
}
