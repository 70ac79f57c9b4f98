package docstore

// OpKind is the kind of a batched write.
type OpKind int

const (
	OpUpsert OpKind = iota
	OpDelete
)

// Op is one write inside a Batch.
type Op struct {
	Kind   OpKind
	Doc    Doc
	Fields Fields
}

// Batch collects writes to be committed atomically with Writer.Commit.
type Batch struct {
	ops []Op
}

// NewBatch returns an empty batch.
func NewBatch() *Batch { return &Batch{} }

// Upsert queues a merge-or-create of d.
func (b *Batch) Upsert(d Doc, f Fields) *Batch {
	b.ops = append(b.ops, Op{Kind: OpUpsert, Doc: d, Fields: f})
	return b
}

// Delete queues the removal of d.
func (b *Batch) Delete(d Doc) *Batch {
	b.ops = append(b.ops, Op{Kind: OpDelete, Doc: d})
	return b
}

// Ops returns the queued operations in order.
func (b *Batch) Ops() []Op {
	out := make([]Op, len(b.ops))
	copy(out, b.ops)
	return out
}

// Len returns the number of queued operations.
func (b *Batch) Len() int { return len(b.ops) }

// Validate checks every queued address.
func (b *Batch) Validate() error {
	for _, op := range b.ops {
		if !op.Doc.Valid() {
			return ErrBadPath
		}
	}
	return nil
}

// Collections returns the distinct parent collections the batch touches.
func (b *Batch) Collections() []Collection {
	seen := make(map[Collection]bool, len(b.ops))
	var out []Collection
	for _, op := range b.ops {
		p := op.Doc.Parent()
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out
}
