package domain

// DocumentRecord is one fetched document plus its identity and parent linkage,
// prior to normalisation. Records are built fresh for every fetch or
// notification and never mutated afterwards.
type DocumentRecord struct {
	// Fields are the raw tagged fields of the document.
	Fields map[string]Value

	// ID is the document's native id (the last path segment).
	ID string

	// Ref is the full document path in the source.
	Ref Path

	// Parent is the record this document was fetched under, or nil at the root.
	Parent *DocumentRecord
}

// NewDocumentRecord builds a record from a raw document.
func NewDocumentRecord(raw RawDocument, parent *DocumentRecord) *DocumentRecord {
	fields := raw.Fields
	if fields == nil {
		fields = map[string]Value{}
	}
	return &DocumentRecord{
		Fields: fields,
		ID:     raw.Path.Last(),
		Ref:    raw.Path,
		Parent: parent,
	}
}

// Field returns a raw field value.
func (r *DocumentRecord) Field(name string) (Value, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r.Fields[name]
	return v, ok
}

// RawDocument is a document as emitted by a source.
type RawDocument struct {
	// Path is the full document path; its last segment is the document id.
	Path Path

	// Fields are the tagged document fields.
	Fields map[string]Value
}

// SnapshotShape distinguishes the three fetch outcomes.
type SnapshotShape int

const (
	// SnapshotEmpty means the reference matched nothing.
	SnapshotEmpty SnapshotShape = iota
	// SnapshotMulti is a collection query result.
	SnapshotMulti
	// SnapshotSingle means the reference pointed at exactly one document.
	SnapshotSingle
)

// Snapshot is the result of a fetch or a change notification.
// Notifications carry the full current document set of the watched
// reference, never a delta.
type Snapshot struct {
	Shape     SnapshotShape
	Documents []RawDocument
}

// EmptySnapshot returns a snapshot with no documents.
func EmptySnapshot() Snapshot {
	return Snapshot{Shape: SnapshotEmpty}
}

// MultiSnapshot returns a collection snapshot. An empty slice yields an empty snapshot.
func MultiSnapshot(docs []RawDocument) Snapshot {
	if len(docs) == 0 {
		return EmptySnapshot()
	}
	return Snapshot{Shape: SnapshotMulti, Documents: docs}
}

// SingleSnapshot returns a single-document snapshot.
func SingleSnapshot(doc RawDocument) Snapshot {
	return Snapshot{Shape: SnapshotSingle, Documents: []RawDocument{doc}}
}

// Records wraps every document of the snapshot into a DocumentRecord.
// Single and multi shapes produce identical records for the same document.
func (s Snapshot) Records(parent *DocumentRecord) []*DocumentRecord {
	records := make([]*DocumentRecord, 0, len(s.Documents))
	for _, doc := range s.Documents {
		records = append(records, NewDocumentRecord(doc, parent))
	}
	return records
}
