package chain

import (
	"context"
	"fmt"
	"strings"

	"go-shareguard/internal/features/user"

	"go.uber.org/zap"
)

type ChainService interface {
	// ReplaceDepartmentChains applies a batch of "dept<->chain" entries and
	// returns the entries that were stored and the ones that were rejected.
	// A rejected entry is never partially stored.
	ReplaceDepartmentChains(ctx context.Context, entries []string) (success []string, failed []string)
	// ReplaceUserChains does the same for "user<->chain" entries. The
	// subject's company security group is appended as a final any-of step.
	ReplaceUserChains(ctx context.Context, entries []string) (success []string, failed []string)
	ReplaceUserChain(ctx context.Context, userEmail, chainText string) (Chain, error)
	GetUserChain(ctx context.Context, userEmail string) (*UserApprovalChain, error)
	DeleteUserChain(ctx context.Context, userEmail string) error
	CountDepartments(ctx context.Context) (int64, error)
	CountUsers(ctx context.Context) (int64, error)

	// ResolveForOwner picks the chain governing a new link: the owner's user
	// chain if present, else the owner's department chain, else empty.
	ResolveForOwner(ctx context.Context, owner string) (Chain, error)
	// IsReviser reports whether identity appears in any stored chain.
	IsReviser(ctx context.Context, identity string) (bool, error)
	// SecurityGroupChanged rewrites every user chain of the company after its
	// security group membership changed.
	SecurityGroupChanged(ctx context.Context, company string, oldGroup []string) error
}

type ChainServiceImpl struct {
	Repo      ChainRepository
	Directory user.Directory
	UserRepo  user.UserRepository
	Logger    *zap.Logger
}

func NewChainService(repo ChainRepository, directory user.Directory, userRepo user.UserRepository, logger *zap.Logger) ChainService {
	return &ChainServiceImpl{
		Repo:      repo,
		Directory: directory,
		UserRepo:  userRepo,
		Logger:    logger,
	}
}

// parseValidated parses the chain text and checks every identity against the
// directory. Unresolvable identities reject the whole entry at write time;
// they are never silently dropped later at evaluation time.
func (s *ChainServiceImpl) parseValidated(ctx context.Context, text string) (Chain, error) {
	parsed, err := Parse(text)
	if err != nil {
		return nil, err
	}
	for _, email := range parsed.Emails() {
		active, err := s.Directory.IsActive(ctx, email)
		if err != nil {
			return nil, err
		}
		if !active {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedChain, email)
		}
	}
	return parsed, nil
}

func splitSubject(entry string) (subject, chainText string, ok bool) {
	parts := strings.SplitN(entry, subjectSeparator, 2)
	if len(parts) != 2 {
		return "", "", false
	}
	subject = strings.TrimSpace(parts[0])
	chainText = strings.TrimSpace(parts[1])
	return subject, chainText, subject != "" && chainText != ""
}

func (s *ChainServiceImpl) ReplaceDepartmentChains(ctx context.Context, entries []string) ([]string, []string) {
	var success, failed []string
	for _, entry := range entries {
		dept, chainText, ok := splitSubject(entry)
		if !ok {
			failed = append(failed, entry)
			continue
		}
		parsed, err := s.parseValidated(ctx, chainText)
		if err != nil {
			s.Logger.Warn("rejecting department chain", zap.String("department", dept), zap.Error(err))
			failed = append(failed, entry)
			continue
		}
		if err := s.Repo.ReplaceDepartmentChain(ctx, dept, parsed); err != nil {
			s.Logger.Error("failed to store department chain", zap.String("department", dept), zap.Error(err))
			failed = append(failed, entry)
			continue
		}
		success = append(success, entry)
	}
	return success, failed
}

func (s *ChainServiceImpl) ReplaceUserChains(ctx context.Context, entries []string) ([]string, []string) {
	var success, failed []string
	for _, entry := range entries {
		userEmail, chainText, ok := splitSubject(entry)
		if !ok {
			failed = append(failed, entry)
			continue
		}
		if _, err := s.ReplaceUserChain(ctx, userEmail, chainText); err != nil {
			s.Logger.Warn("rejecting user chain", zap.String("user", userEmail), zap.Error(err))
			failed = append(failed, entry)
			continue
		}
		success = append(success, entry)
	}
	return success, failed
}

func (s *ChainServiceImpl) ReplaceUserChain(ctx context.Context, userEmail, chainText string) (Chain, error) {
	parsed, err := s.parseValidated(ctx, chainText)
	if err != nil {
		return nil, err
	}

	security, err := s.Directory.SecurityReviewers(ctx, userEmail)
	if err != nil {
		return nil, err
	}
	parsed = parsed.AppendSecurityStep(security)

	if err := s.Repo.ReplaceUserChain(ctx, userEmail, parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

func (s *ChainServiceImpl) GetUserChain(ctx context.Context, userEmail string) (*UserApprovalChain, error) {
	return s.Repo.GetUserChain(ctx, userEmail)
}

func (s *ChainServiceImpl) DeleteUserChain(ctx context.Context, userEmail string) error {
	return s.Repo.DeleteUserChain(ctx, userEmail)
}

func (s *ChainServiceImpl) CountDepartments(ctx context.Context) (int64, error) {
	return s.Repo.CountDepartments(ctx)
}

func (s *ChainServiceImpl) CountUsers(ctx context.Context) (int64, error) {
	return s.Repo.CountUsers(ctx)
}

func (s *ChainServiceImpl) ResolveForOwner(ctx context.Context, owner string) (Chain, error) {
	userChain, err := s.Repo.GetUserChain(ctx, owner)
	if err != nil {
		return nil, err
	}
	if userChain != nil {
		return userChain.Steps, nil
	}

	dept, err := s.Directory.Department(ctx, owner)
	if err != nil {
		return nil, err
	}
	if dept == "" {
		return Chain{}, nil
	}
	deptChain, err := s.Repo.GetDepartmentChain(ctx, dept)
	if err != nil {
		return nil, err
	}
	if deptChain == nil {
		return Chain{}, nil
	}
	return deptChain.Steps, nil
}

func (s *ChainServiceImpl) IsReviser(ctx context.Context, identity string) (bool, error) {
	emails, err := s.Repo.AllEmails(ctx)
	if err != nil {
		return false, err
	}
	identity = strings.ToLower(identity)
	for _, e := range emails {
		if e == identity {
			return true, nil
		}
	}
	return false, nil
}

func (s *ChainServiceImpl) SecurityGroupChanged(ctx context.Context, company string, oldGroup []string) error {
	members, err := s.UserRepo.ListByCompany(ctx, company)
	if err != nil {
		return err
	}

	for _, m := range members {
		stored, err := s.Repo.GetUserChain(ctx, m.Email)
		if err != nil {
			return err
		}
		if stored == nil {
			continue
		}

		updated := stored.Steps.RemoveSecurityStep(oldGroup)

		newGroup, err := s.Directory.SecurityReviewers(ctx, m.Email)
		if err != nil {
			return err
		}
		updated = updated.AppendSecurityStep(newGroup)

		if err := s.Repo.ReplaceUserChain(ctx, m.Email, updated); err != nil {
			return err
		}
	}
	return nil
}
