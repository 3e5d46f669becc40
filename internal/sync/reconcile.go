package sync

import "github.com/schaermu/tokensync/internal/naming"

// Reconcile computes the plan that turns the local file set into the target
// set. It performs no I/O.
//
// Every exact name match is settled before any fuzzy matching starts, so a
// local file that already carries a target name is never renamed. Remaining
// targets are then paired, in target order, with the first remaining local
// file whose fields are the same multiset (see naming.Namer.SameFile).
// Unpaired targets become creates and unpaired local files become deletes.
func Reconcile(targets, locals []string, namer naming.Namer) *Plan {
	plan := &Plan{}

	matchedTargets := make(map[string]bool, len(targets))
	matchedLocals := make(map[string]bool, len(locals))

	present := make(map[string]bool, len(locals))
	for _, name := range locals {
		present[name] = true
	}

	for _, target := range targets {
		if present[target] && !matchedLocals[target] {
			matchedTargets[target] = true
			matchedLocals[target] = true
		}
	}

	// Unmatched locals grouped by field key, each group in local order.
	candidates := make(map[string][]string)
	for _, name := range locals {
		if matchedLocals[name] {
			continue
		}
		key := namer.Key(name)
		candidates[key] = append(candidates[key], name)
	}

	for _, target := range targets {
		if matchedTargets[target] {
			continue
		}
		key := namer.Key(target)
		queue := candidates[key]
		if len(queue) == 0 {
			continue
		}
		local := queue[0]
		candidates[key] = queue[1:]

		matchedTargets[target] = true
		matchedLocals[local] = true
		plan.Rename = append(plan.Rename, RenameOp{From: local, To: target})
	}

	for _, target := range targets {
		if !matchedTargets[target] {
			matchedTargets[target] = true
			plan.Create = append(plan.Create, target)
		}
	}

	for _, name := range locals {
		if !matchedLocals[name] {
			matchedLocals[name] = true
			plan.Delete = append(plan.Delete, name)
		}
	}

	return plan
}
