package ledger

// Resolve maps a version address onto an index of a lineage of length n.
// Non-negative versions in [0, n) address directly; negative versions in
// [-n, -1] count back from the end (-1 is the latest). Anything else is out of
// range.
func Resolve(version, n int) (int, bool) {
	if n <= 0 || version < -n || version >= n {
		return 0, false
	}
	if version < 0 {
		return version + n, true
	}
	return version, true
}
