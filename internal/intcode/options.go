package intcode

// Option configures an Engine under New.
type Option interface{ apply(e *Engine) }

// Options combines any number of options into one; nil options are ignored.
func Options(opts ...Option) Option {
	var all options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil:
		case options:
			all = append(all, impl...)
		default:
			all = append(all, opt)
		}
	}
	if len(all) == 1 {
		return all[0]
	}
	return all
}

// WithInput sets the source for the in instruction; the default is empty.
func WithInput(in Input) Option { return inputOption{in} }

// WithOutput sets the sink for the out instruction; the default is Discard.
func WithOutput(out Output) Option { return outputOption{out} }

// WithName sets the name used in trace logs and errors.
func WithName(name string) Option { return nameOption(name) }

// WithLogf enables trace logging of every executed instruction.
func WithLogf(logfn func(mess string, args ...interface{})) Option { return logfnOption(logfn) }

// WithCapabilities restricts the engine; the default is Complete.
func WithCapabilities(caps Capabilities) Option { return capsOption(caps) }

// WithMemLimit limits sparse memory to the given number of cells.
func WithMemLimit(limit uint64) Option { return memLimitOption(limit) }

// WithPageSize sets the sparse memory page size.
func WithPageSize(size uint64) Option { return pageSizeOption(size) }

type options []Option

type inputOption struct{ Input }
type outputOption struct{ Output }
type nameOption string
type logfnOption func(mess string, args ...interface{})
type capsOption Capabilities
type memLimitOption uint64
type pageSizeOption uint64

func (opts options) apply(e *Engine) {
	for _, opt := range opts {
		opt.apply(e)
	}
}

func (o inputOption) apply(e *Engine)     { e.in = o.Input }
func (o outputOption) apply(e *Engine)    { e.out = o.Output }
func (name nameOption) apply(e *Engine)   { e.name = string(name) }
func (logfn logfnOption) apply(e *Engine) { e.logfn = logfn }
func (caps capsOption) apply(e *Engine)   { e.caps = Capabilities(caps) }
func (lim memLimitOption) apply(e *Engine) {
	e.memLimit = uint64(lim)
}
func (size pageSizeOption) apply(e *Engine) {
	e.pageSize = uint64(size)
}
