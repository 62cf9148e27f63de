package user

import (
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/role"
	"github.com/trezcool/campus/core/session"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Role         role.Role `json:"role"`
	Phone        string    `json:"phone,omitempty"`
	Department   string    `json:"department,omitempty"`
	IsActive     bool      `json:"isActive"`
	PasswordHash []byte    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"` // UTC
	UpdatedAt    time.Time `json:"updatedAt"` // UTC
	LastLogin    time.Time `json:"lastLogin"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u User) IsAdmin() bool { return u.Role == role.Admin }

// Identity is the subset of the user the portal keeps in its session.
func (u User) Identity() session.Identity {
	return session.Identity{ID: u.ID, DisplayName: u.Name, Role: u.Role, Email: u.Email}
}

// Person identifies u in log entries.
func (u User) Person() core.Person {
	return core.Person{ID: u.ID, Username: u.Name, Email: u.Email}
}

// Profile returns the role-specific record shown on the user's dashboard.
func (u User) Profile() session.Profile {
	ref := strings.ToUpper(strings.ReplaceAll(u.ID, "-", ""))
	if len(ref) > 6 {
		ref = ref[:6]
	}
	dept := core.FirstNonEmpty(u.Department, "General Studies")

	switch u.Role {
	case role.Student:
		return session.Profile{
			"studentId":  "STU-" + ref,
			"department": dept,
			"semester":   3,
			"cgpa":       8.2,
			"enrolledAt": u.CreatedAt.Format("2006-01-02"),
		}
	case role.Faculty:
		return session.Profile{
			"employeeId":  "FAC-" + ref,
			"department":  dept,
			"designation": "Assistant Professor",
			"courses":     []string{"CS101", "CS204"},
		}
	case role.Librarian:
		return session.Profile{
			"employeeId": "LIB-" + ref,
			"branch":     "Central Library",
			"shift":      "morning",
		}
	case role.Admin:
		return session.Profile{
			"employeeId":  "ADM-" + ref,
			"office":      "Registrar",
			"permissions": []string{"users", "courses", "fees", "reports"},
		}
	}
	return session.Profile{}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string    `json:"name" validate:"required"`
	Email           string    `json:"email" validate:"required,email"`
	Password        string    `json:"password" validate:"required"`
	PasswordConfirm string    `json:"passwordConfirm" validate:"required,eqfield=Password"`
	Role            role.Role `json:"role" validate:"required,campusrole"`
	Phone           string    `json:"phone" validate:"omitempty,max=20"`
	Department      string    `json:"department" validate:"omitempty,max=100"`
}

func (nu *NewUser) Clean() {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Phone = core.CleanString(nu.Phone)
	nu.Department = core.CleanString(nu.Department)
}

func (nu *NewUser) Validate(svc *Service) error {
	nu.Clean()
	if err := svc.validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(nu.Email)
}
