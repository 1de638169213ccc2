package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/samber/oops"

	"github.com/njprem/fitcity-auth/internal/domain"
	"github.com/njprem/fitcity-auth/internal/repository/memory"
	"github.com/njprem/fitcity-auth/internal/util"
)

type resetFixture struct {
	repo    *memory.UserRepository
	manager *PasswordResetManager
	user    *domain.User
	clock   time.Time
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	repo := memory.NewUserRepo()
	user, err := repo.Create(context.Background(), "Ann", "ann@example.com", "old-hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	f := &resetFixture{repo: repo, user: user, clock: time.Now()}
	f.manager = NewPasswordResetManager(repo, time.Hour)
	f.manager.now = func() time.Time { return f.clock }
	return f
}

func TestPasswordResetIssueStoresOnlyDigest(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	token, expiresAt, err := f.manager.Issue(ctx, f.user)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	if len(token) != util.ResetTokenBytes*2 {
		t.Fatalf("expected 64 hex chars, got %d", len(token))
	}
	if !expiresAt.Equal(f.clock.Add(time.Hour).UTC()) {
		t.Fatalf("expected expiry one hour out, got %v", expiresAt)
	}

	stored, _ := f.repo.FindByEmail(ctx, "ann@example.com")
	if stored.Reset == nil {
		t.Fatal("expected reset token to be stored")
	}
	if stored.Reset.TokenHash == token || strings.Contains(stored.Reset.TokenHash, token) {
		t.Fatal("plaintext token must not be stored")
	}
	if stored.Reset.TokenHash != util.HashResetToken(token) {
		t.Fatal("expected stored digest to match the token")
	}
}

func TestPasswordResetVerifyBeforeAndAfterExpiry(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	token, expiresAt, _ := f.manager.Issue(ctx, f.user)

	user, err := f.manager.Verify(ctx, token)
	if err != nil {
		t.Fatalf("expected token to verify, got %v", err)
	}
	if user.ID != f.user.ID {
		t.Fatalf("expected user %s, got %s", f.user.ID, user.ID)
	}

	f.clock = expiresAt
	if _, err := f.manager.Verify(ctx, token); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected token to be invalid at its expiry instant, got %v", err)
	}

	stored, _ := f.repo.FindByEmail(ctx, "ann@example.com")
	if stored.Reset == nil {
		t.Fatal("verify must not clear the stored token")
	}
}

func TestPasswordResetReissueInvalidatesPrevious(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	first, _, _ := f.manager.Issue(ctx, f.user)
	second, _, err := f.manager.Issue(ctx, f.user)
	if err != nil {
		t.Fatalf("second Issue returned error: %v", err)
	}
	if first == second {
		t.Fatal("expected a new token")
	}
	if _, err := f.manager.Verify(ctx, first); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected first token to be invalidated, got %v", err)
	}
	if _, err := f.manager.Verify(ctx, second); err != nil {
		t.Fatalf("expected second token to verify, got %v", err)
	}
}

func TestPasswordResetConsumeIsSingleUse(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	token, _, _ := f.manager.Issue(ctx, f.user)

	user, err := f.manager.Consume(ctx, token, "new-hash")
	if err != nil {
		t.Fatalf("Consume returned error: %v", err)
	}
	if user.PasswordHash != "new-hash" || user.Reset != nil {
		t.Fatalf("expected password replaced and token cleared, got %+v", user)
	}
	if _, err := f.manager.Consume(ctx, token, "other-hash"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected second consume to fail, got %v", err)
	}

	stored, _ := f.repo.FindByEmail(ctx, "ann@example.com")
	if stored.PasswordHash != "new-hash" {
		t.Fatalf("failed consume must leave the password alone, got %q", stored.PasswordHash)
	}
}

func TestPasswordResetConsumeExpiredMakesNoChange(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	token, expiresAt, _ := f.manager.Issue(ctx, f.user)

	f.clock = expiresAt.Add(time.Second)
	if _, err := f.manager.Consume(ctx, token, "new-hash"); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected ErrResetTokenInvalid, got %v", err)
	}
	stored, _ := f.repo.FindByEmail(ctx, "ann@example.com")
	if stored.PasswordHash != "old-hash" {
		t.Fatalf("expected password unchanged, got %q", stored.PasswordHash)
	}
}

func TestPasswordResetRejectsEmptyToken(t *testing.T) {
	f := newResetFixture(t)
	if _, err := f.manager.Verify(context.Background(), "  "); !errors.Is(err, ErrResetTokenMissing) {
		t.Fatalf("expected ErrResetTokenMissing, got %v", err)
	}
	if _, err := f.manager.Consume(context.Background(), "", "hash"); !errors.Is(err, ErrResetTokenMissing) {
		t.Fatalf("expected ErrResetTokenMissing, got %v", err)
	}
}

func TestPasswordResetRevoke(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()
	token, _, _ := f.manager.Issue(ctx, f.user)

	if err := f.manager.Revoke(ctx, f.user); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if _, err := f.manager.Verify(ctx, token); !errors.Is(err, ErrResetTokenInvalid) {
		t.Fatalf("expected revoked token to be invalid, got %v", err)
	}
	if err := f.manager.Revoke(ctx, f.user); err != nil {
		t.Fatalf("revoking an absent token should be a no-op, got %v", err)
	}
}

func TestPasswordResetStoreFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("db down")

	t.Run("issue keeps previous state on store error", func(t *testing.T) {
		repo := &fakeUserRepo{setResetErr: boom}
		manager := NewPasswordResetManager(repo, 0)
		user := &domain.User{ID: uuid.New(), Email: "ann@example.com"}

		_, _, err := manager.Issue(ctx, user)
		if !errors.Is(err, boom) {
			t.Fatalf("expected wrapped store error, got %v", err)
		}
		if oopsErr, ok := oops.AsOops(err); !ok || oopsErr.Code() != "RESET_ISSUE_FAILED" {
			t.Fatalf("expected RESET_ISSUE_FAILED code, got %v", err)
		}
		if user.Reset != nil {
			t.Fatal("expected user reset state to be restored")
		}
	})

	t.Run("verify surfaces lookup errors", func(t *testing.T) {
		repo := &fakeUserRepo{findByResetErr: boom}
		manager := NewPasswordResetManager(repo, 0)
		_, err := manager.Verify(ctx, "token")
		if !errors.Is(err, boom) || errors.Is(err, ErrResetTokenInvalid) {
			t.Fatalf("expected store error, got %v", err)
		}
	})

	t.Run("consume surfaces update errors", func(t *testing.T) {
		repo := &fakeUserRepo{consumeErr: boom}
		manager := NewPasswordResetManager(repo, 0)
		_, err := manager.Consume(ctx, "token", "hash")
		if !errors.Is(err, boom) {
			t.Fatalf("expected store error, got %v", err)
		}
		if repo.consumeInput.hash != util.HashResetToken("token") {
			t.Fatal("expected lookup by token digest")
		}
	})
}

func TestPasswordResetRevokeSparesNewerToken(t *testing.T) {
	f := newResetFixture(t)
	ctx := context.Background()

	stale := *f.user
	if _, _, err := f.manager.Issue(ctx, &stale); err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}
	newer, _, err := f.manager.Issue(ctx, f.user)
	if err != nil {
		t.Fatalf("Issue returned error: %v", err)
	}

	if err := f.manager.Revoke(ctx, &stale); err != nil {
		t.Fatalf("Revoke returned error: %v", err)
	}
	if _, err := f.manager.Verify(ctx, newer); err != nil {
		t.Fatalf("revoking the older token must keep the newer one, got %v", err)
	}
}
