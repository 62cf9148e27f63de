package user

import (
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core/role"
)

// DemoPassword is shared by every demo account.
const DemoPassword = "Campus#2024"

// DemoUsers has one account per role.
var DemoUsers = []NewUser{
	{Name: "Demo Student", Email: "student@campus.test", Role: role.Student, Department: "Computer Science"},
	{Name: "Demo Faculty", Email: "faculty@campus.test", Role: role.Faculty, Department: "Computer Science"},
	{Name: "Demo Admin", Email: "admin@campus.test", Role: role.Admin},
	{Name: "Demo Librarian", Email: "librarian@campus.test", Role: role.Librarian},
}

// Seed creates the given users, or the demo users, skipping emails already taken.
func Seed(svc *Service, users ...NewUser) ([]User, error) {
	if len(users) == 0 {
		users = DemoUsers
	}
	created := make([]User, 0, len(users))
	for _, nu := range users {
		nu.Clean()
		if nu.Password == "" {
			nu.Password = DemoPassword
		}
		if _, err := svc.GetByEmail(nu.Email); err == nil {
			continue
		} else if errors.Cause(err) != ErrNotFound {
			return nil, err
		}
		usr, err := svc.Create(nu)
		if err != nil {
			return nil, errors.Wrapf(err, "seeding %s", nu.Email)
		}
		created = append(created, usr)
	}
	return created, nil
}
