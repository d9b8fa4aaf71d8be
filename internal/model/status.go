package model

// status.go defines the enumerated values used across the service and the
// donation-request state machine. Keeping the transition table here, as
// pure data, lets both the repository layer and the handlers validate
// transitions without touching the database.

// Donation request statuses. The canonical spelling is "canceled"; the
// single-l form is the only one accepted or stored.
const (
	StatusPending    = "pending"
	StatusInProgress = "inprogress"
	StatusDone       = "done"
	StatusCanceled   = "canceled"
)

// User roles. Every account starts as a donor; volunteers and admins are
// promoted by an admin.
const (
	RoleDonor     = "donor"
	RoleVolunteer = "volunteer"
	RoleAdmin     = "admin"
)

// Account statuses. A blocked account keeps read access but is rejected
// on every mutating operation.
const (
	UserActive  = "active"
	UserBlocked = "blocked"
)

// BloodGroups lists the eight valid ABO/Rh values in display order.
var BloodGroups = []string{"A+", "A-", "B+", "B-", "AB+", "AB-", "O+", "O-"}

// ValidBloodGroup reports whether g is one of the eight known groups.
func ValidBloodGroup(g string) bool {
	for _, b := range BloodGroups {
		if g == b {
			return true
		}
	}
	return false
}

// ValidRequestStatus reports whether s is a known donation-request status.
func ValidRequestStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusDone, StatusCanceled:
		return true
	}
	return false
}

// ValidRole reports whether r is a known user role.
func ValidRole(r string) bool {
	switch r {
	case RoleDonor, RoleVolunteer, RoleAdmin:
		return true
	}
	return false
}

// ValidUserStatus reports whether s is a known account status.
func ValidUserStatus(s string) bool {
	return s == UserActive || s == UserBlocked
}

// transitions is the complete edge set of the request state machine.
// done and canceled are terminal and therefore absent as keys.
var transitions = map[string][]string{
	StatusPending:    {StatusInProgress},
	StatusInProgress: {StatusDone, StatusCanceled},
}

// CanTransition reports whether a request may move from one status to
// another. Any edge not listed in the transition table is rejected,
// including self-transitions.
func CanTransition(from, to string) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether a status admits no further transitions.
func Terminal(s string) bool {
	return s == StatusDone || s == StatusCanceled
}
