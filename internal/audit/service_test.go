package audit

import (
	"context"
	"testing"
	"time"
)

func TestService_AppendRequiresSubjectAndType(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.Append(context.Background(), Event{Type: EventSignIn}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Event{UserID: "u"}); err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.Events()) != 0 {
		t.Fatalf("expected no events recorded")
	}
}

func TestService_StampsIDAndTime(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)
	svc.clock = func() time.Time { return time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC) }

	if err := svc.Append(context.Background(), Event{Type: EventSignInFailed, Email: "a@example.com", IPAddress: "1.2.3.4"}); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 1 {
		t.Fatalf("expected 1 event")
	}
	if evs[0].ID == "" {
		t.Fatalf("expected id assigned")
	}
	if evs[0].IPAddress != "1.2.3.4" {
		t.Fatalf("expected ip captured")
	}
	if !evs[0].CreatedAt.Equal(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected created_at from clock, got %s", evs[0].CreatedAt)
	}
}

func TestService_RequiresRepository(t *testing.T) {
	if err := NewService(nil).Append(context.Background(), Event{Type: EventSignOut, UserID: "u"}); err == nil {
		t.Fatalf("expected error")
	}
}
