package checker

// Bindings records which local names refer to rule-listed modules within one
// file. It starts empty for every file; a later import of the same local name
// overwrites the earlier entry.
type Bindings struct {
	names map[string]string
}

// NewBindings returns an empty table.
func NewBindings() *Bindings {
	return &Bindings{names: make(map[string]string)}
}

// Bind records that local refers to module.
func (b *Bindings) Bind(local, module string) {
	b.names[local] = module
}

// Lookup returns the module bound to local.
func (b *Bindings) Lookup(local string) (string, bool) {
	module, ok := b.names[local]

	return module, ok
}

// Len returns the number of bound names.
func (b *Bindings) Len() int {
	return len(b.names)
}

// Reset forgets every binding so the table can serve another file.
func (b *Bindings) Reset() {
	clear(b.names)
}
