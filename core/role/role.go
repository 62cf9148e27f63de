// Package role holds the closed set of campus roles.
package role

type Role string

// Roles
const (
	Student   Role = "student"
	Faculty   Role = "faculty"
	Admin     Role = "admin"
	Librarian Role = "librarian"
)

var (
	All = []Role{Student, Faculty, Librarian, Admin}

	priorities = map[Role]int{
		Admin:     30,
		Faculty:   20,
		Librarian: 15,
		Student:   1,
	}

	names = map[Role]string{
		Student:   "Student",
		Faculty:   "Faculty",
		Admin:     "Admin",
		Librarian: "Librarian",
	}
)

// IsValid reports whether r belongs to the closed role set.
// Matching is exact and case-sensitive.
func (r Role) IsValid() bool {
	_, ok := priorities[r]
	return ok
}

// Priority is 0 for roles outside the closed set.
func (r Role) Priority() int {
	return priorities[r]
}

func (r Role) Name() string {
	if n, ok := names[r]; ok {
		return n
	}
	return string(r)
}

func (r Role) String() string { return string(r) }

// In reports whether r is one of allowed.
func (r Role) In(allowed ...Role) bool {
	if !r.IsValid() {
		return false
	}
	for _, a := range allowed {
		if a == r {
			return true
		}
	}
	return false
}

// Parse returns the Role named s and whether it is a known role.
func Parse(s string) (Role, bool) {
	r := Role(s)
	return r, r.IsValid()
}
