package auth

import (
	"errors"
	"testing"
)

func TestSessionRoundTrip(t *testing.T) {
	svc := NewSessionService("test-secret", 1)
	in := SessionUser{
		GithubID:  "12345",
		Name:      "Ada",
		Email:     "ada@example.com",
		AvatarURL: "https://avatars.example/ada",
		Role:      "admin",
	}

	token, err := svc.Issue(in)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	out, err := svc.Decode(token)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if *out != in {
		t.Fatalf("Decode = %+v, want %+v", *out, in)
	}
}

func TestSessionRejectsTamperedToken(t *testing.T) {
	svc := NewSessionService("test-secret", 1)
	token, err := svc.Issue(SessionUser{GithubID: "1", Role: "participant"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	tampered := token[:len(token)-2] + "xx"
	if _, err := svc.Decode(tampered); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Decode tampered = %v, want ErrInvalidSession", err)
	}
}

func TestSessionRejectsForeignSecret(t *testing.T) {
	issuer := NewSessionService("secret-a", 1)
	verifier := NewSessionService("secret-b", 1)

	token, err := issuer.Issue(SessionUser{GithubID: "1"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Decode(token); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Decode with wrong secret = %v, want ErrInvalidSession", err)
	}
}

func TestSessionRejectsGarbage(t *testing.T) {
	svc := NewSessionService("test-secret", 1)
	if _, err := svc.Decode("not-a-token"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("Decode garbage = %v, want ErrInvalidSession", err)
	}
}
