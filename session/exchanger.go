package session

import (
	"context"

	"FreshCart/config"
	"FreshCart/models"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

// Exchanger turns a one-time code from the identity-provider redirect
// into an external session.
type Exchanger interface {
	Exchange(ctx context.Context, code string) (*models.ExternalSession, error)
}

type googleExchanger struct {
	config *oauth2.Config
}

func NewGoogleExchanger(cfg *config.OAuthProvider) Exchanger {
	scopes := cfg.Scopes
	if len(scopes) == 0 {
		scopes = []string{"openid", "email", "profile"}
	}
	return &googleExchanger{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       scopes,
			Endpoint:     google.Endpoint,
		},
	}
}

func (e *googleExchanger) Exchange(ctx context.Context, code string) (*models.ExternalSession, error) {
	token, err := e.config.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}
	sess := &models.ExternalSession{AccessToken: token.AccessToken}
	if idToken, ok := token.Extra("id_token").(string); ok {
		sess.IDToken = idToken
	}
	return sess, nil
}
