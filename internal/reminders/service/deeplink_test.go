package service

import (
	"context"
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type fakeResolver struct {
	refs  map[uuid.UUID]string
	calls int
}

func (f *fakeResolver) PrimaryProfileRef(_ context.Context, contactID uuid.UUID) (string, error) {
	f.calls++
	return f.refs[contactID], nil
}

const deepLinkTestTemplate = "https://app.example.com/p/{profile}?t={token}"

func TestNewDeepLinkBuilderDisabledWithoutTemplate(t *testing.T) {
	b, err := NewDeepLinkBuilder("", "secret", &fakeResolver{})
	if err != nil {
		t.Fatalf("NewDeepLinkBuilder: %v", err)
	}
	if b != nil {
		t.Fatalf("expected a nil builder when no template is configured")
	}

	// A nil builder is safe to call.
	link, err := b.BuildFor(context.Background(), uuid.New(), uuid.New())
	if err != nil || link != "" {
		t.Fatalf("expected nil builder to return empty link, got %q err=%v", link, err)
	}
}

func TestNewDeepLinkBuilderRequiresSecret(t *testing.T) {
	if _, err := NewDeepLinkBuilder(deepLinkTestTemplate, "", &fakeResolver{}); err == nil {
		t.Fatalf("expected an error when a template is configured without a secret")
	}
}

func TestBuildForRendersSignedLink(t *testing.T) {
	contactID := uuid.New()
	reminderID := uuid.New()
	resolver := &fakeResolver{refs: map[uuid.UUID]string{contactID: "prof-123"}}

	b, err := NewDeepLinkBuilder(deepLinkTestTemplate, "s3cret", resolver)
	if err != nil {
		t.Fatalf("NewDeepLinkBuilder: %v", err)
	}

	link, err := b.BuildFor(context.Background(), contactID, reminderID)
	if err != nil {
		t.Fatalf("BuildFor: %v", err)
	}
	if !strings.HasPrefix(link, "https://app.example.com/p/prof-123?t=") {
		t.Fatalf("expected the profile interpolated, got %q", link)
	}

	rawToken := strings.TrimPrefix(link, "https://app.example.com/p/prof-123?t=")
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(rawToken, claims, func(*jwt.Token) (any, error) {
		return []byte("s3cret"), nil
	})
	if err != nil || !parsed.Valid {
		t.Fatalf("expected a valid signed token, err=%v", err)
	}
	if claims["sub"] != "prof-123" {
		t.Fatalf("expected sub=prof-123, got %v", claims["sub"])
	}
	if claims["rid"] != reminderID.String() {
		t.Fatalf("expected rid=%s, got %v", reminderID, claims["rid"])
	}
}

func TestBuildForCachesProfileLookups(t *testing.T) {
	contactID := uuid.New()
	resolver := &fakeResolver{refs: map[uuid.UUID]string{contactID: "prof-123"}}

	b, err := NewDeepLinkBuilder(deepLinkTestTemplate, "s3cret", resolver)
	if err != nil {
		t.Fatalf("NewDeepLinkBuilder: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := b.BuildFor(context.Background(), contactID, uuid.New()); err != nil {
			t.Fatalf("BuildFor: %v", err)
		}
	}
	if resolver.calls != 1 {
		t.Fatalf("expected one resolver call, got %d", resolver.calls)
	}
}

func TestBuildForEmptyProfileYieldsNoLink(t *testing.T) {
	resolver := &fakeResolver{refs: map[uuid.UUID]string{}}

	b, err := NewDeepLinkBuilder(deepLinkTestTemplate, "s3cret", resolver)
	if err != nil {
		t.Fatalf("NewDeepLinkBuilder: %v", err)
	}

	link, err := b.BuildFor(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("BuildFor: %v", err)
	}
	if link != "" {
		t.Fatalf("expected no link without a profile, got %q", link)
	}
}
