package user

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// SecurityGroupListener is told after a company's security group changed, so
// stored chains can be rewritten. The chain service satisfies this; the
// indirection avoids an import cycle.
type SecurityGroupListener interface {
	SecurityGroupChanged(ctx context.Context, company string, oldGroup []string) error
}

// UserService is the admin-facing side of the directory.
type UserService interface {
	CreateUser(ctx context.Context, u *User) error
	// SetSecurityGroup replaces the company's security reviewer group and
	// propagates the change into every stored user chain of the company.
	SetSecurityGroup(ctx context.Context, company string, members []string) error
}

type UserServiceImpl struct {
	Repo     UserRepository
	Listener SecurityGroupListener
}

func NewUserService(repo UserRepository, listener SecurityGroupListener) UserService {
	return &UserServiceImpl{Repo: repo, Listener: listener}
}

func (s *UserServiceImpl) CreateUser(ctx context.Context, u *User) error {
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return errors.New("email invalid")
	}
	existing, err := s.Repo.GetByEmail(ctx, u.Email)
	if err != nil {
		return err
	}
	if existing != nil {
		return errors.New("user already exists")
	}

	if u.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return err
		}
		u.PasswordHash = string(hash)
		u.Password = ""
	}

	u.IsActive = true
	return s.Repo.Create(ctx, u)
}

func (s *UserServiceImpl) SetSecurityGroup(ctx context.Context, company string, members []string) error {
	old, err := s.Repo.ListSecurityByCompany(ctx, company)
	if err != nil {
		return err
	}
	oldGroup := make([]string, 0, len(old))
	for _, m := range old {
		oldGroup = append(oldGroup, m.Email)
	}

	if err := s.Repo.SetSecurityGroup(ctx, company, members); err != nil {
		return err
	}
	return s.Listener.SecurityGroupChanged(ctx, company, oldGroup)
}

// Directory is what the rest of the system needs from the user directory:
// identity resolution and the per-company security reviewer group.
type Directory interface {
	// IsActive reports whether email resolves to an active user.
	IsActive(ctx context.Context, email string) (bool, error)
	// DisplayName returns the user's name, falling back to the mailbox part
	// of the address.
	DisplayName(ctx context.Context, email string) string
	// SecurityReviewers returns the security group of the user's company.
	SecurityReviewers(ctx context.Context, email string) ([]string, error)
	// Department returns the department of the user, "" when unknown.
	Department(ctx context.Context, email string) (string, error)
}

type DirectoryServiceImpl struct {
	Repo UserRepository
}

func NewDirectoryService(repo UserRepository) Directory {
	return &DirectoryServiceImpl{Repo: repo}
}

func (s *DirectoryServiceImpl) IsActive(ctx context.Context, email string) (bool, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		return false, err
	}
	return u != nil && u.IsActive, nil
}

func (s *DirectoryServiceImpl) DisplayName(ctx context.Context, email string) string {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err == nil && u != nil && u.DisplayName != "" {
		// Directory names sometimes carry a parenthesised suffix; the audit
		// system only wants the bare name.
		name := u.DisplayName
		if i := strings.IndexAny(name, "(（"); i > 0 {
			name = name[:i]
		}
		return strings.TrimSpace(name)
	}
	if i := strings.Index(email, "@"); i > 0 {
		return email[:i]
	}
	return email
}

func (s *DirectoryServiceImpl) SecurityReviewers(ctx context.Context, email string) ([]string, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil || u.Company == "" {
		return nil, nil
	}
	members, err := s.Repo.ListSecurityByCompany(ctx, u.Company)
	if err != nil {
		return nil, err
	}
	emails := make([]string, 0, len(members))
	for _, m := range members {
		emails = append(emails, m.Email)
	}
	return emails, nil
}

func (s *DirectoryServiceImpl) Department(ctx context.Context, email string) (string, error) {
	u, err := s.Repo.GetByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if u == nil {
		return "", nil
	}
	return u.Department, nil
}
