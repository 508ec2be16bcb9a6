package service

import "github.com/noah-isme/occ-console-api/internal/models"

// Actor is the authenticated caller of a use case.
type Actor struct {
	UserID string
	Email  string
	Name   string
	Role   models.Role
}

// ActorFromProfile builds an actor from a session profile.
func ActorFromProfile(profile *models.UserProfile) Actor {
	if profile == nil {
		return Actor{}
	}
	return Actor{
		UserID: profile.ID,
		Email:  profile.Email,
		Name:   profile.DisplayName(),
		Role:   profile.Role,
	}
}

// Profile returns the actor as a profile for permission checks.
func (a Actor) Profile() *models.UserProfile {
	return &models.UserProfile{ID: a.UserID, Email: a.Email, Name: a.Name, Role: a.Role}
}
