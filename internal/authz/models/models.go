// Package models holds institute directory types.
package models

import (
	"certflow/internal/content"
	"certflow/pkg/domain"
)

// Institute is one provider in the directory. Profile is nil when its
// metadata could not be resolved; ProfileError says why. AuthorizationError
// is set when the live authorization could not be read, in which case
// Authorized is false.
type Institute struct {
	Identity           domain.Identity
	Authorized         bool
	AuthorizationError string
	MetadataRef        string
	Profile            *content.ProviderProfile
	ProfileError       string
}

// User is one registered identity as the administrator sees it. LoadError
// is set when its record could not be read; Role is empty then.
type User struct {
	Identity    domain.Identity
	Role        domain.Role
	MetadataRef string
	LoadError   string
}
