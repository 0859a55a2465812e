// Package session owns per-conversation state: the live artifacts of the
// pipeline and the serialization discipline for turns. Artifacts are
// immutable values swapped in whole, so a failed write can never leave a
// partially updated context behind.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/anhp95/lang/internal/schema"
	"github.com/anhp95/lang/internal/table"
)

// Provenance records where an artifact came from.
type Provenance string

const (
	ProvenanceUpload  Provenance = "upload"
	ProvenanceHarvest Provenance = "harvest"
	// Tool-produced artifacts use the tool name as provenance.
)

// Artifact is one named tabular dataset version. At most one live artifact
// per kind exists in a session; a new one replaces the prior whole.
type Artifact struct {
	Kind       schema.Kind
	Table      *table.Table
	RowCount   int
	Columns    []string
	Revision   int
	Provenance Provenance
	CreatedAt  time.Time
}

// Context is the per-conversation artifact store. All methods are safe for
// concurrent use; the turn mutex (Lock/Unlock) additionally serializes whole
// turns so a session never interleaves orchestration.
type Context struct {
	ID string

	mu           sync.RWMutex
	artifacts    map[schema.Kind]*Artifact
	revisions    map[schema.Kind]int
	lastProduced schema.Kind
	wordlist     []string
	lastActive   time.Time

	turnMu sync.Mutex
}

func newContext(id string) *Context {
	return &Context{
		ID:         id,
		artifacts:  make(map[schema.Kind]*Artifact),
		revisions:  make(map[schema.Kind]int),
		lastActive: time.Now(),
	}
}

// Lock acquires the turn mutex. A turn must hold it from intent parsing
// through context update so enrich-then-use stays consistent.
func (c *Context) Lock() { c.turnMu.Lock() }

// Unlock releases the turn mutex.
func (c *Context) Unlock() { c.turnMu.Unlock() }

// Get returns the live artifact of the given kind, or nil.
func (c *Context) Get(kind schema.Kind) *Artifact {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.artifacts[kind]
}

// Put validates the table against the contract for kind and swaps it in as
// the new live artifact. On validation failure it returns *schema.Error and
// the context is left exactly as before: the write is all-or-nothing.
func (c *Context) Put(kind schema.Kind, t *table.Table, prov Provenance) (*Artifact, error) {
	res := schema.Validate(t, kind)
	if !res.OK {
		return nil, &schema.Error{Kind: kind, Result: res}
	}

	stored := t.Clone()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.revisions[kind]++
	art := &Artifact{
		Kind:       kind,
		Table:      stored,
		RowCount:   stored.RowCount(),
		Columns:    stored.Columns,
		Revision:   c.revisions[kind],
		Provenance: prov,
		CreatedAt:  time.Now(),
	}
	c.artifacts[kind] = art
	c.lastProduced = kind
	c.lastActive = time.Now()
	return art, nil
}

// FirstOf returns the first live artifact walking kinds in order, or nil.
// This is the primitive the enricher's fallback chains are built on.
func (c *Context) FirstOf(kinds ...schema.Kind) *Artifact {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, k := range kinds {
		if a := c.artifacts[k]; a != nil {
			return a
		}
	}
	return nil
}

// HasData reports whether any artifact is live.
func (c *Context) HasData() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.artifacts) > 0
}

// LastProduced returns the kind of the most recently written artifact.
func (c *Context) LastProduced() schema.Kind {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastProduced
}

// SetWordlist stores the proposed wordlist for later harvest enrichment.
func (c *Context) SetWordlist(words []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.wordlist = append([]string(nil), words...)
	c.lastActive = time.Now()
}

// Wordlist returns the stored wordlist, or nil.
func (c *Context) Wordlist() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]string(nil), c.wordlist...)
}

// Touch refreshes the idle timer.
func (c *Context) Touch() {
	c.mu.Lock()
	c.lastActive = time.Now()
	c.mu.Unlock()
}

// Snapshot is the condensed live view handed to the language model.
type Snapshot struct {
	WordlistSize int
	Artifacts    []ArtifactInfo
	LastProduced schema.Kind
}

// ArtifactInfo summarizes one live artifact for prompts and API responses.
type ArtifactInfo struct {
	Kind       schema.Kind `json:"kind"`
	Rows       int         `json:"rows"`
	Columns    int         `json:"columns"`
	Revision   int         `json:"revision"`
	Provenance Provenance  `json:"provenance"`
}

// Snapshot returns the condensed state view, artifacts in pipeline order.
func (c *Context) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snap := Snapshot{WordlistSize: len(c.wordlist), LastProduced: c.lastProduced}
	for _, a := range c.artifacts {
		snap.Artifacts = append(snap.Artifacts, ArtifactInfo{
			Kind:       a.Kind,
			Rows:       a.RowCount,
			Columns:    len(a.Columns),
			Revision:   a.Revision,
			Provenance: a.Provenance,
		})
	}
	order := map[schema.Kind]int{schema.KindRaw: 0, schema.KindNormalized: 1, schema.KindMatrix: 2, schema.KindClustered: 3}
	sort.Slice(snap.Artifacts, func(i, j int) bool {
		return order[snap.Artifacts[i].Kind] < order[snap.Artifacts[j].Kind]
	})
	return snap
}

func (c *Context) idleSince() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastActive
}
