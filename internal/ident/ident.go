// Package ident implements NameHash, the 64-bit identifier handle the rest
// of the interpreter uses instead of raw strings, plus the process-wide
// display-name table used only for diagnostics.
package ident

import (
	"hash/fnv"
	"strings"
)

// NameHash is a 64-bit hash of an identifier paired with a flag recording
// whether the identifier was written with a "this." prefix. Two NameHash
// values compare equal (via ==, since this is a plain comparable struct)
// iff both the hash and the flag match.
type NameHash struct {
	Hash        uint64
	ThisKeyword bool
}

// Hash derives a NameHash from raw identifier text. A "this." prefix is
// stripped before hashing and sets ThisKeyword; the hash itself is computed
// over the stripped text so "this.x" and a bare "x" never collide by
// accident of the prefix bytes.
func Hash(text string) NameHash {
	stripped, this := strings.CutPrefix(text, "this.")
	h := fnv.New64a()
	_, _ = h.Write([]byte(stripped))
	return NameHash{Hash: h.Sum64(), ThisKeyword: this}
}

// Table is the process-wide NameHash -> display-string map, installed only
// for the duration of a validation or printing call. It is never consulted
// during evaluation.
type Table struct {
	names map[NameHash]string
}

// NewTable creates an empty display-name table.
func NewTable() *Table {
	return &Table{names: make(map[NameHash]string)}
}

// Intern hashes text, records its display name, and returns the NameHash.
// Re-interning the same text is idempotent.
func (t *Table) Intern(text string) NameHash {
	h := Hash(text)
	if _, ok := t.names[h]; !ok {
		stripped, _ := strings.CutPrefix(text, "this.")
		t.names[h] = stripped
	}
	return h
}

// Lookup returns the display name for h, or "" if never interned.
func (t *Table) Lookup(h NameHash) string {
	return t.names[h]
}

// Display returns the display name for h, falling back to the placeholder
// "<unknown identifier>" when nothing was interned (should not happen for
// well-formed IR).
func (t *Table) Display(h NameHash) string {
	if name, ok := t.names[h]; ok {
		return name
	}
	return "<unknown identifier>"
}

// installed is the active *Table. Install gives a scoped installation for
// the duration of a call; a deferred restore puts back whatever was
// installed before on every exit path (including a panic unwinding
// through the caller), mirroring the original's NameMapGuard. It is not safe for concurrent use by multiple goroutines;
// the interpreter is single-threaded per §5.
var installed *Table

// Install installs t as the currently active table and returns a function
// that restores the previously installed table. Callers should always
// `defer` the returned restore function:
//
//	restore := ident.Install(t)
//	defer restore()
func Install(t *Table) (restore func()) {
	previous := installed
	installed = t
	return func() { installed = previous }
}

// Active returns the currently installed table, or nil if none is
// installed. Used by diagnostic formatting code that does not have direct
// access to the table that produced the IR it is describing.
func Active() *Table {
	return installed
}
