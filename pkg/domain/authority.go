package domain

// AuthorityLevel is the capability a caller holds over a single asset.
type AuthorityLevel int

const (
	// AuthorityNone grants nothing.
	AuthorityNone AuthorityLevel = iota
	// AuthorityOwner is direct ownership.
	AuthorityOwner
	// AuthorityApproved is a per-asset approval granted by the owner.
	AuthorityApproved
	// AuthorityOperator is blanket approval over every asset of the owner.
	AuthorityOperator
)

func (l AuthorityLevel) String() string {
	switch l {
	case AuthorityOwner:
		return "owner"
	case AuthorityApproved:
		return "approved"
	case AuthorityOperator:
		return "operator"
	default:
		return "none"
	}
}

// CanTransfer reports whether the level permits moving the asset.
func (l AuthorityLevel) CanTransfer() bool { return l != AuthorityNone }

// CanApprove reports whether the level permits granting per-asset approval.
// A per-asset approval cannot be re-delegated.
func (l AuthorityLevel) CanApprove() bool {
	return l == AuthorityOwner || l == AuthorityOperator
}

// ResolveAuthority decides the caller's capability over an asset. Ownership
// wins over operator status, which wins over a per-asset approval.
func ResolveAuthority(caller, assetOwner, approved Identity, isOperator bool) AuthorityLevel {
	switch {
	case caller.IsNull():
		return AuthorityNone
	case caller == assetOwner:
		return AuthorityOwner
	case isOperator:
		return AuthorityOperator
	case approved == caller:
		return AuthorityApproved
	default:
		return AuthorityNone
	}
}
