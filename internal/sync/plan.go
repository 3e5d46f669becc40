package sync

// Plan represents the operations that bring a directory in line with its
// target names. Operations are applied in field order: renames, creates, deletes.
type Plan struct {
	Rename []RenameOp
	Create []string
	Delete []string

	// Keep lists unmatched local files left in place because pruning is off
	Keep []string
}

// RenameOp moves a local file onto the target name it fuzzy-matches
type RenameOp struct {
	From string // existing local name
	To   string // target name
}

// Len returns the number of filesystem operations in the plan
func (p *Plan) Len() int {
	return len(p.Rename) + len(p.Create) + len(p.Delete)
}

// Empty reports whether applying the plan would change nothing
func (p *Plan) Empty() bool {
	return p.Len() == 0
}
