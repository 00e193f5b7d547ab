package driven

// ConfigStore is a flat key/value view of docbrain's config file, keyed by
// dotted paths such as "index.top_k" or "document.path". Typed getters
// return the zero value for missing keys or mismatched types.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string

	// GetInt truncates floats, since TOML decoders may widen integers.
	GetInt(key string) int

	// GetFloat accepts integers.
	GetFloat(key string) float64

	GetBool(key string) bool

	// GetStringSlice keeps only the string elements of a mixed array.
	GetStringSlice(key string) []string

	// Set stores a value. File-backed stores write it out immediately.
	Set(key string, value any) error

	Save() error
	Load() error
	Path() string
}
