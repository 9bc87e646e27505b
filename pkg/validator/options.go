package validator

// Option is a functional option for customizing a Validator.
type Option func(*Validator)

// WithSampling controls whether a sample row is fetched after each successful
// example. Sampling is on by default.
//
// Example:
//
//	v := validator.New(session, validator.WithSampling(false))
func WithSampling(enabled bool) Option {
	return func(v *Validator) {
		v.sample = enabled
	}
}

// WithRunID sets the identifier stamped on reports instead of a random UUID.
func WithRunID(id string) Option {
	return func(v *Validator) {
		if id != "" {
			v.runID = id
		}
	}
}
