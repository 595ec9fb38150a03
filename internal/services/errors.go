package services

import (
	"errors"

	"github.com/n8nhub/community_hub/internal/objectives"
	"github.com/n8nhub/community_hub/internal/repository"
)

var (
	ErrNotFound           = repository.ErrNotFound
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidID          = errors.New("invalid id")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailInUse         = errors.New("email already in use")
	ErrInvalidToken       = errors.New("invalid or expired token")

	ErrChallengeLocked    = errors.New("challenge is locked")
	ErrAlreadyActive      = errors.New("challenge already has an active attempt")
	ErrAlreadyCompleted   = errors.New("challenge already completed")
	ErrNotActive          = errors.New("challenge has no active attempt")
	ErrInfraLocked        = objectives.ErrInfraLocked
	ErrInvalidMedia       = errors.New("invalid media")
	ErrStorageUnavailable = errors.New("storage is not configured")
)
