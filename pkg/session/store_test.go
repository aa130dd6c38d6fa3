package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"polimata/pkg/domain"
)

func exerciseStore(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	if _, ok, err := store.Load(ctx); err != nil || ok {
		t.Fatalf("empty store: ok=%v err=%v", ok, err)
	}
	if tok, err := store.AccessToken(ctx); err != nil || tok != "" {
		t.Fatalf("empty token: %q err=%v", tok, err)
	}
	if err := store.Save(ctx, Credentials{}); err == nil {
		t.Fatal("saving empty credentials should fail")
	}

	user := &domain.User{ID: 9, Email: "ops@polimata.ai"}
	if err := store.Save(ctx, Credentials{AccessToken: "tok-9", User: user}); err != nil {
		t.Fatalf("save: %v", err)
	}
	creds, ok, err := store.Load(ctx)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if creds.AccessToken != "tok-9" || creds.User == nil || creds.User.Email != "ops@polimata.ai" {
		t.Fatalf("unexpected credentials: %+v", creds)
	}
	if tok, _ := store.AccessToken(ctx); tok != "tok-9" {
		t.Fatalf("token = %q", tok)
	}

	if err := store.Discard(ctx); err != nil {
		t.Fatalf("discard: %v", err)
	}
	if _, ok, _ := store.Load(ctx); ok {
		t.Fatal("expected empty store after discard")
	}
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("clear on empty store: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store, err := NewFileStore(path)
	if err != nil {
		t.Fatalf("new file store: %v", err)
	}
	exerciseStore(t, store)
}

func TestFileStorePermissions(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	store, _ := NewFileStore(path)
	if err := store.Save(context.Background(), Credentials{AccessToken: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Fatalf("session file mode = %v, want 0600", perm)
	}
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("seed file: %v", err)
	}
	store, _ := NewFileStore(path)
	if _, _, err := store.Load(context.Background()); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestRedisSession(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedisStore(RedisConfig{Addr: mr.Addr(), Prefix: "test:session", TTL: time.Minute})
	if err != nil {
		t.Fatalf("new redis store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	exerciseStore(t, store.Bind(NewSessionID()))
}

func TestRedisSessionExpires(t *testing.T) {
	mr := miniredis.RunT(t)
	store, _ := NewRedisStore(RedisConfig{Addr: mr.Addr(), TTL: time.Minute})
	t.Cleanup(func() { _ = store.Close() })
	sess := store.Bind("sid-1")
	if err := sess.Save(context.Background(), Credentials{AccessToken: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if !mr.Exists("polimata:session:sid-1") {
		t.Fatal("expected key under default prefix")
	}
	mr.FastForward(2 * time.Minute)
	if _, ok, _ := sess.Load(context.Background()); ok {
		t.Fatal("session should expire with ttl")
	}
}

func TestRedisSessionsAreIsolated(t *testing.T) {
	mr := miniredis.RunT(t)
	store, _ := NewRedisStore(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = store.Close() })
	a, b := store.Bind("a"), store.Bind("b")
	_ = a.Save(context.Background(), Credentials{AccessToken: "tok-a"})
	if _, ok, _ := b.Load(context.Background()); ok {
		t.Fatal("session b must not see session a")
	}
}

func TestRedisSessionStoreFailure(t *testing.T) {
	mr := miniredis.RunT(t)
	store, _ := NewRedisStore(RedisConfig{Addr: mr.Addr()})
	t.Cleanup(func() { _ = store.Close() })
	sess := store.Bind("down")
	if err := sess.Save(context.Background(), Credentials{AccessToken: "tok"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	mr.SetError("LOADING redis is loading the dataset in memory")
	if _, ok, err := sess.Load(context.Background()); !errors.Is(err, ErrStoreUnavailable) || ok {
		t.Fatalf("load while down: ok=%v err=%v", ok, err)
	}
	if err := sess.Save(context.Background(), Credentials{AccessToken: "tok-2"}); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("save while down: %v", err)
	}

	mr.SetError("")
	creds, ok, err := sess.Load(context.Background())
	if err != nil || !ok || creds.AccessToken != "tok" {
		t.Fatalf("load after recovery: creds=%+v ok=%v err=%v", creds, ok, err)
	}
}

func TestNewRedisStoreRequiresAddr(t *testing.T) {
	if _, err := NewRedisStore(RedisConfig{}); err == nil {
		t.Fatal("expected error for empty addr")
	}
}
