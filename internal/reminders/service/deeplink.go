package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// ProfileResolver bridges a CRM contact to its player profile reference in
// the external training app.
type ProfileResolver interface {
	PrimaryProfileRef(ctx context.Context, contactID uuid.UUID) (string, error)
}

const deepLinkCacheSize = 512

// DeepLinkBuilder renders parent-facing deep links from a URL template with
// {profile} and {token} placeholders. Profile lookups go through a
// read-through LRU cache scoped to the process lifetime; the token is a
// short-lived signed claim so the link can't be guessed or replayed forever.
type DeepLinkBuilder struct {
	template string
	secret   []byte
	resolver ProfileResolver
	cache    *lru.Cache[uuid.UUID, string]
	tokenTTL time.Duration
	now      func() time.Time
}

// NewDeepLinkBuilder creates a builder. Returns nil when the template is
// empty, which disables deep links entirely.
func NewDeepLinkBuilder(template, secret string, resolver ProfileResolver) (*DeepLinkBuilder, error) {
	if strings.TrimSpace(template) == "" {
		return nil, nil
	}
	if secret == "" {
		return nil, fmt.Errorf("deep link secret is required when a template is configured")
	}

	cache, err := lru.New[uuid.UUID, string](deepLinkCacheSize)
	if err != nil {
		return nil, fmt.Errorf("deep link cache: %w", err)
	}

	return &DeepLinkBuilder{
		template: template,
		secret:   []byte(secret),
		resolver: resolver,
		cache:    cache,
		tokenTTL: 72 * time.Hour,
		now:      time.Now,
	}, nil
}

// BuildFor renders the deep link for a contact's reminder. Returns an empty
// string when the contact has no linked profile.
func (b *DeepLinkBuilder) BuildFor(ctx context.Context, contactID uuid.UUID, reminderID uuid.UUID) (string, error) {
	if b == nil {
		return "", nil
	}

	profile, err := b.profileFor(ctx, contactID)
	if err != nil {
		return "", err
	}
	if profile == "" {
		return "", nil
	}

	token, err := b.signToken(profile, reminderID)
	if err != nil {
		return "", err
	}

	link := strings.ReplaceAll(b.template, "{profile}", profile)
	link = strings.ReplaceAll(link, "{token}", token)
	return link, nil
}

func (b *DeepLinkBuilder) profileFor(ctx context.Context, contactID uuid.UUID) (string, error) {
	if cached, ok := b.cache.Get(contactID); ok {
		return cached, nil
	}

	profile, err := b.resolver.PrimaryProfileRef(ctx, contactID)
	if err != nil {
		return "", fmt.Errorf("resolve profile: %w", err)
	}
	if profile != "" {
		b.cache.Add(contactID, profile)
	}
	return profile, nil
}

func (b *DeepLinkBuilder) signToken(profile string, reminderID uuid.UUID) (string, error) {
	now := b.now()
	claims := jwt.MapClaims{
		"sub": profile,
		"rid": reminderID.String(),
		"iat": now.Unix(),
		"exp": now.Add(b.tokenTTL).Unix(),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(b.secret)
	if err != nil {
		return "", fmt.Errorf("sign deep link token: %w", err)
	}
	return token, nil
}
