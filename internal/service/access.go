package service

import (
	"context"

	"github.com/rosterbase/chat/internal/domain"
	"github.com/rosterbase/chat/internal/repository"
)

// ModuleKeyChat is the entitlement key the gate checks before any chat
// operation touches data.
const ModuleKeyChat = "chat"

// AccessService answers allow/deny for (user, module key). Admins
// always pass; everyone else needs a grant on an enabled module.
type AccessService struct {
	accessRepo repository.AccessRepository
}

func NewAccessService(accessRepo repository.AccessRepository) *AccessService {
	return &AccessService{accessRepo: accessRepo}
}

func (s *AccessService) Require(ctx context.Context, id domain.Identity, moduleKey string) error {
	if id.Admin {
		return nil
	}
	has, err := s.accessRepo.HasModule(ctx, id.UserID, moduleKey)
	if err != nil {
		return err
	}
	if !has {
		return ErrModuleDenied
	}
	return nil
}
