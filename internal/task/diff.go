package task

// Plan is the set of operations that converges the local and remote stores.
type Plan struct {
	// LocalAdd holds tasks new on the remote side, to be appended locally.
	LocalAdd []Task `json:"localAdd,omitempty"`
	// LocalDelete holds tasks deleted remotely since the base.
	LocalDelete []Task `json:"localDelete,omitempty"`
	// RemoteAdd holds tasks new on the local side, to be created remotely.
	RemoteAdd []Task `json:"remoteAdd,omitempty"`
	// RemoteDelete holds tasks deleted locally since the base.
	RemoteDelete []Task `json:"remoteDelete,omitempty"`
}

// Empty reports whether the plan has no operations.
func (p Plan) Empty() bool {
	return len(p.LocalAdd) == 0 && len(p.LocalDelete) == 0 &&
		len(p.RemoteAdd) == 0 && len(p.RemoteDelete) == 0
}

// Diff computes the three-way plan between the merge base and both sides.
//
// An item present on one side only is ambiguous without history: it was
// either added there or deleted on the other side. The base resolves it.
// If the item is in the base it existed at the last sync, so its absence
// on the other side is a deletion; otherwise it is an addition.
func Diff(base, local, remote []Task) Plan {
	b := Set(base)
	var p Plan

	for _, r := range Set(remote).Minus(local) {
		if b.Contains(r) {
			p.RemoteDelete = append(p.RemoteDelete, r)
		} else {
			p.LocalAdd = append(p.LocalAdd, r)
		}
	}

	for _, c := range Set(local).Minus(remote) {
		if b.Contains(c) {
			p.LocalDelete = append(p.LocalDelete, c)
		} else {
			p.RemoteAdd = append(p.RemoteAdd, c)
		}
	}

	return p
}
