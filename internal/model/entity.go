package model

// Identifier field names recognised on context entities
const (
	FieldEventID          = "EventId"
	FieldFileID           = "FileId"
	FieldChatMessageID    = "ChatMessageId"
	FieldOnlineMeetingID  = "OnlineMeetingId"
	FieldEmailID          = "EmailId"
	FieldChannelMessageID = "ChannelMessageId"
	FieldChatID           = "ChatId"
	FieldMailNickName     = "MailNickName"
	FieldFileLocation     = "FileLocation"
)

// IDFields lists the identifier fields checked on every entity, in lookup order
var IDFields = []string{
	FieldEventID,
	FieldFileID,
	FieldChatMessageID,
	FieldOnlineMeetingID,
	FieldEmailID,
	FieldChannelMessageID,
	FieldChatID,
}

// Entity type tags with special extraction rules
const (
	EntityTypeUser        = "User"
	EntityTypeFile        = "File"
	EntityTypeChatMessage = "ChatMessage"
	EntityTypeUnknown     = "Unknown"

	// GroupFilePath is the type bucket used for FileLocation paths
	GroupFilePath = "FilePath"
)

// EntityInfo records where an identifier was found in a context file
type EntityInfo struct {
	Type        string `json:"type"`
	IDField     string `json:"id_field"`
	Line        int    `json:"line"`
	DisplayName string `json:"display_name,omitempty"` // User entities only
	FileName    string `json:"file_name,omitempty"`    // File entities only
}

// EntityIndex maps identifier values to their entity metadata.
// Iteration follows first-insertion order; a repeated identifier
// overwrites the stored metadata in place (last write wins).
type EntityIndex struct {
	Path       string
	Errors     int // Malformed lines skipped
	Collisions int // Overwrites that changed the stored metadata

	order   []string
	entries map[string]EntityInfo
	types   map[string]*IDSet
	typeSeq []string
}

// NewEntityIndex creates an empty entity index
func NewEntityIndex(path string) *EntityIndex {
	return &EntityIndex{
		Path:    path,
		entries: make(map[string]EntityInfo),
		types:   make(map[string]*IDSet),
	}
}

// Set stores info under id and reports whether different metadata was replaced
func (x *EntityIndex) Set(id string, info EntityInfo) bool {
	prev, exists := x.entries[id]
	if !exists {
		x.order = append(x.order, id)
	}
	x.entries[id] = info

	if exists && prev != info {
		x.Collisions++
		return true
	}
	return false
}

// Group adds id to the bucket for the given type
func (x *EntityIndex) Group(group, id string) {
	set, ok := x.types[group]
	if !ok {
		set = NewIDSet()
		x.types[group] = set
		x.typeSeq = append(x.typeSeq, group)
	}
	set.Add(id)
}

// Get returns the metadata stored for id
func (x *EntityIndex) Get(id string) (EntityInfo, bool) {
	info, ok := x.entries[id]
	return info, ok
}

// Has reports whether id is indexed
func (x *EntityIndex) Has(id string) bool {
	_, ok := x.entries[id]
	return ok
}

// Len returns the number of unique identifiers
func (x *EntityIndex) Len() int {
	return len(x.order)
}

// Keys returns identifiers in first-insertion order
func (x *EntityIndex) Keys() []string {
	return append([]string(nil), x.order...)
}

// Types returns type buckets in first-seen order
func (x *EntityIndex) Types() []string {
	return append([]string(nil), x.typeSeq...)
}

// TypeIDs returns the identifier set for a type bucket (nil if absent)
func (x *EntityIndex) TypeIDs(group string) *IDSet {
	return x.types[group]
}

// TypeCounts returns the number of distinct identifiers per type bucket
func (x *EntityIndex) TypeCounts() map[string]int {
	counts := make(map[string]int, len(x.types))
	for group, set := range x.types {
		counts[group] = set.Len()
	}
	return counts
}

// IDSet is an insertion-ordered set of identifiers
type IDSet struct {
	order []string
	seen  map[string]struct{}
}

// NewIDSet creates an empty set
func NewIDSet() *IDSet {
	return &IDSet{seen: make(map[string]struct{})}
}

// Add inserts id if not already present
func (s *IDSet) Add(id string) {
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.order = append(s.order, id)
}

// Contains reports membership
func (s *IDSet) Contains(id string) bool {
	_, ok := s.seen[id]
	return ok
}

// Len returns the set size
func (s *IDSet) Len() int {
	return len(s.order)
}

// Values returns members in insertion order
func (s *IDSet) Values() []string {
	return append([]string(nil), s.order...)
}
