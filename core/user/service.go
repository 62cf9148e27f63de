package user

import (
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/campus/core"
	"github.com/trezcool/campus/core/role"
)

var (
	// errors
	ErrNotFound           = errors.New("user not found")
	ErrEmailExists        = errors.New("a user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactive           = errors.New("this account is disabled")
	ErrAdminSignup        = errors.New("administrator accounts cannot be self-registered")
)

type (
	Repository interface {
		CheckEmailUniqueness(email string, excludedUsers ...User) error
		CreateUser(user User) (User, error)
		QueryAllUsers() ([]User, error)
		GetUserByID(id string) (User, error)
		GetUserByEmail(email string) (User, error)
		UpdateLastLogin(id string, at time.Time) (User, error)
		DeleteUsersByID(ids ...string) error
	}

	Service struct {
		repo       Repository
		mail       core.EmailService
		validate   *validator.Validate
		translator ut.Translator
	}
)

func NewService(repo Repository, mail core.EmailService, validate *validator.Validate, translator ut.Translator) *Service {
	RegisterValidators(validate, translator)
	return &Service{repo: repo, mail: mail, validate: validate, translator: translator}
}

func (svc *Service) Translator() ut.Translator { return svc.translator }

func (svc *Service) checkUniqueness(email string, exclUsers ...User) error {
	if err := svc.repo.CheckEmailUniqueness(email, exclUsers...); err != nil {
		if errors.Cause(err) == ErrEmailExists {
			return core.NewValidationError(err, core.FieldError{Field: "email", Error: err.Error()})
		}
		return err
	}
	return nil
}

// Create stores nu as an active user. nu must have been validated.
func (svc *Service) Create(nu NewUser) (User, error) {
	now := time.Now().UTC()
	usr := User{
		ID:         uuid.New().String(),
		Name:       nu.Name,
		Email:      nu.Email,
		Role:       nu.Role,
		Phone:      nu.Phone,
		Department: nu.Department,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	return svc.repo.CreateUser(usr)
}

// Register is the self-service sign up: it validates nu, creates the user and
// sends the welcome email.
func (svc *Service) Register(nu NewUser) (User, error) {
	if err := nu.Validate(svc); err != nil {
		return User{}, err
	}
	if nu.Role == role.Admin {
		return User{}, core.NewValidationError(ErrAdminSignup, core.FieldError{Field: "role", Error: ErrAdminSignup.Error()})
	}
	usr, err := svc.Create(nu)
	if err != nil {
		return User{}, err
	}
	if svc.mail != nil {
		svc.mail.SendMessages(svc.welcomeMessage(usr))
	}
	return usr, nil
}

// Authenticate checks email and pwd, and records the login.
func (svc *Service) Authenticate(email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(email)
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return User{}, ErrInvalidCredentials
		}
		return User{}, err
	}
	if err := usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}
	if !usr.IsActive {
		return User{}, ErrInactive
	}
	return svc.repo.UpdateLastLogin(usr.ID, time.Now().UTC())
}

func (svc *Service) QueryAll() ([]User, error) {
	return svc.repo.QueryAllUsers()
}

func (svc *Service) GetByID(id string) (User, error) {
	return svc.repo.GetUserByID(id)
}

func (svc *Service) GetByEmail(email string) (User, error) {
	return svc.repo.GetUserByEmail(core.CleanString(email, true /* lower */))
}

func (svc *Service) Delete(ids ...string) error {
	return svc.repo.DeleteUsersByID(ids...)
}
