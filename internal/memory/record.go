package memory

import "time"

// Reserved property keys written by the remember options.
const (
	PropTags     = "tags"
	PropPriority = "priority"
	PropKind     = "kind"
)

// Priority levels a memory may carry in its property map.
const (
	PriorityLow      = "low"
	PriorityNormal   = "normal"
	PriorityHigh     = "high"
	PriorityCritical = "critical"
)

// Kinds of memory content.
const (
	KindEpisodic     = "episodic"
	KindFact         = "fact"
	KindConversation = "conversation"
)

// Record is one stored memory. Content and CreatedAt are immutable once the
// record is persisted; the property map and access bookkeeping may change.
type Record struct {
	ID           string                 `json:"id"`
	Content      string                 `json:"content"`
	CreatedAt    time.Time              `json:"created_at"`
	LastAccessed time.Time              `json:"last_accessed,omitempty"` // zero if never read back
	AccessCount  int64                  `json:"access_count,omitempty"`
	Properties   map[string]interface{} `json:"properties,omitempty"`
}

// Clone returns a deep copy so callers can never mutate store-held state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	if r.Properties != nil {
		out.Properties = cloneProperties(r.Properties)
	}
	return &out
}

// Tags returns the tag list from the property map, or nil.
// Handles both []string (fresh records) and []interface{} (JSON roundtrip).
func (r *Record) Tags() []string {
	raw, ok := r.Properties[PropTags]
	if !ok {
		return nil
	}
	switch v := raw.(type) {
	case []string:
		out := make([]string, len(v))
		copy(out, v)
		return out
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// HasTag reports whether the record carries the given tag.
func (r *Record) HasTag(tag string) bool {
	for _, t := range r.Tags() {
		if t == tag {
			return true
		}
	}
	return false
}

// Priority returns the record's priority property, defaulting to normal.
func (r *Record) Priority() string {
	if p, ok := r.Properties[PropPriority].(string); ok && p != "" {
		return p
	}
	return PriorityNormal
}

// Kind returns the record's kind property, or "" if untyped.
func (r *Record) Kind() string {
	k, _ := r.Properties[PropKind].(string)
	return k
}

func cloneProperties(props map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(props))
	for k, v := range props {
		switch tv := v.(type) {
		case []string:
			cp := make([]string, len(tv))
			copy(cp, tv)
			out[k] = cp
		case []interface{}:
			cp := make([]interface{}, len(tv))
			copy(cp, tv)
			out[k] = cp
		case map[string]interface{}:
			out[k] = cloneProperties(tv)
		default:
			out[k] = v
		}
	}
	return out
}
