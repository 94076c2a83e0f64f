package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"p2p-ramp.backend/internal/config"
	"p2p-ramp.backend/internal/domain/entities"
)

type fakeProvisioner struct {
	err  error
	got  entities.UserRole
	user *entities.User
}

func (f *fakeProvisioner) ProvisionUser(_ context.Context, email, _ string, role entities.UserRole) (*entities.User, error) {
	f.got = role
	if f.err != nil {
		return nil, f.err
	}
	if f.user != nil {
		return f.user, nil
	}
	return &entities.User{ID: uuid.New(), Email: email, Role: role}, nil
}

type countingCloser struct{ closed int }

func (c *countingCloser) Close() error {
	c.closed++
	return nil
}

func stubDeps(p accountProvisioner, closer io.Closer, out io.Writer) adminCreateDeps {
	return adminCreateDeps{
		loadEnv: func() error { return errors.New("no env") },
		loadCfg: func() *config.Config { return &config.Config{} },
		prepare: func(*config.Config) (accountProvisioner, io.Closer, error) {
			return p, closer, nil
		},
		out: out,
	}
}

func TestMain_ExitsWhenFlagsMissing(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_ADMIN_CREATE") == "1" {
		os.Args = []string{"admin-create", "-email", "root@example.com"}
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMain_ExitsWhenFlagsMissing")
	cmd.Env = append(os.Environ(), "GO_WANT_HELPER_ADMIN_CREATE=1")
	if err := cmd.Run(); err == nil {
		t.Fatal("expected helper process to fail without password")
	}
}

func TestMain_ExitsOnDBFailure(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_ADMIN_CREATE") == "2" {
		os.Args = []string{"admin-create", "-email", "root@example.com", "-password", "Sup3rSecret!"}
		main()
		return
	}

	cmd := exec.Command(os.Args[0], "-test.run=TestMain_ExitsOnDBFailure")
	cmd.Env = append(os.Environ(),
		"GO_WANT_HELPER_ADMIN_CREATE=2",
		"DB_DRIVER=postgres",
		"DB_HOST=127.0.0.1",
		"DB_PORT=1",
		"DB_USER=postgres",
		"DB_PASSWORD=postgres",
		"DB_NAME=p2pramp",
		"DB_SSLMODE=disable",
	)
	if err := cmd.Run(); err == nil {
		t.Fatal("expected helper process to fail on DB connection")
	}
}

func TestRunAdminCreate_Branches(t *testing.T) {
	t.Run("flag parse error", func(t *testing.T) {
		err := runAdminCreate([]string{"-unknown-flag"}, stubDeps(&fakeProvisioner{}, nil, io.Discard))
		if err == nil {
			t.Fatal("expected parse error")
		}
	})

	t.Run("missing email", func(t *testing.T) {
		err := runAdminCreate([]string{"-password", "x"}, stubDeps(&fakeProvisioner{}, nil, io.Discard))
		if err == nil || !strings.Contains(err.Error(), "required") {
			t.Fatalf("expected required error, got %v", err)
		}
	})

	t.Run("prepare error", func(t *testing.T) {
		deps := stubDeps(nil, nil, io.Discard)
		deps.prepare = func(*config.Config) (accountProvisioner, io.Closer, error) {
			return nil, nil, errors.New("db failed")
		}
		err := runAdminCreate([]string{"-email", "a@b.c", "-password", "x"}, deps)
		if err == nil || !strings.Contains(err.Error(), "db failed") {
			t.Fatalf("expected prepare error, got %v", err)
		}
	})

	t.Run("provision error closes", func(t *testing.T) {
		closer := &countingCloser{}
		err := runAdminCreate([]string{"-email", "a@b.c", "-password", "x"},
			stubDeps(&fakeProvisioner{err: errors.New("boom")}, closer, io.Discard))
		if err == nil || !strings.Contains(err.Error(), "failed creating admin") {
			t.Fatalf("expected provision error, got %v", err)
		}
		if closer.closed != 1 {
			t.Fatalf("expected closer to run once, got %d", closer.closed)
		}
	})

	t.Run("success output", func(t *testing.T) {
		var out bytes.Buffer
		p := &fakeProvisioner{}
		err := runAdminCreate([]string{"-email", "root@example.com", "-password", "x"}, stubDeps(p, nil, &out))
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if p.got != entities.UserRoleAdmin {
			t.Fatalf("expected admin role, got %s", p.got)
		}
		if !strings.Contains(out.String(), "Created admin account") ||
			!strings.Contains(out.String(), "email=root@example.com") {
			t.Fatalf("unexpected output: %s", out.String())
		}
	})
}

func TestRunAdminCreate_SQLite(t *testing.T) {
	cfg := &config.Config{
		Server:   config.ServerConfig{Env: "test"},
		Database: config.DatabaseConfig{Driver: "sqlite", SQLitePath: filepath.Join(t.TempDir(), "admin.db")},
		JWT:      config.JWTConfig{Secret: "secret", Expiry: time.Hour},
		Exchange: config.ExchangeConfig{OneOpenPerCurrency: true},
	}

	var out bytes.Buffer
	deps := defaultAdminCreateDeps()
	deps.loadEnv = func() error { return nil }
	deps.loadCfg = func() *config.Config { return cfg }
	deps.out = &out

	args := []string{"-email", "Root@Example.com", "-password", "Sup3rSecret!"}
	if err := runAdminCreate(args, deps); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !strings.Contains(out.String(), "email=root@example.com") {
		t.Fatalf("unexpected output: %s", out.String())
	}

	if err := runAdminCreate(args, deps); err == nil {
		t.Fatal("expected duplicate email to fail")
	}
}
