package agent

import "github.com/engram-oss/engram/internal/memory"

// RememberOption customizes how a memory is stored.
type RememberOption func(*rememberSettings)

type rememberSettings struct {
	tags     []string
	priority string
	kind     string
	extra    map[string]interface{}
}

func newRememberSettings(opts []RememberOption) rememberSettings {
	var s rememberSettings
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// properties renders the settings as a record property map. Reserved keys
// win over extras set via WithProperty.
func (s rememberSettings) properties() map[string]interface{} {
	props := make(map[string]interface{})
	for k, v := range s.extra {
		props[k] = v
	}
	if len(s.tags) > 0 {
		props[memory.PropTags] = s.tags
	}
	if s.priority != "" {
		props[memory.PropPriority] = s.priority
	}
	if s.kind != "" {
		props[memory.PropKind] = s.kind
	}
	if len(props) == 0 {
		return nil
	}
	return props
}

// WithTags appends tags to the memory.
func WithTags(tags ...string) RememberOption {
	return func(s *rememberSettings) {
		s.tags = append(s.tags, tags...)
	}
}

// WithPriority sets the memory's priority: low, normal, high or critical.
func WithPriority(priority string) RememberOption {
	return func(s *rememberSettings) {
		s.priority = priority
	}
}

// WithKind sets the memory's kind: episodic, fact or conversation.
func WithKind(kind string) RememberOption {
	return func(s *rememberSettings) {
		s.kind = kind
	}
}

// WithProperty attaches an arbitrary key to the record's property map.
func WithProperty(key string, value interface{}) RememberOption {
	return func(s *rememberSettings) {
		if s.extra == nil {
			s.extra = make(map[string]interface{})
		}
		s.extra[key] = value
	}
}

// SearchOption customizes a search.
type SearchOption func(*searchSettings)

type searchSettings struct {
	limit int
}

func newSearchSettings(defaultLimit int, opts []SearchOption) searchSettings {
	s := searchSettings{limit: defaultLimit}
	for _, opt := range opts {
		opt(&s)
	}
	if s.limit <= 0 {
		s.limit = defaultLimit
	}
	return s
}

// WithLimit caps the number of search results. Non-positive values fall
// back to the configured default.
func WithLimit(n int) SearchOption {
	return func(s *searchSettings) {
		s.limit = n
	}
}
