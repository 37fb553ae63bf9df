package server

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/codifyr/internal/logging"
	"github.com/dmitrijs2005/codifyr/internal/server/config"
)

func swapOpenDB(t *testing.T, fn func(context.Context, string) (*sql.DB, error)) {
	t.Helper()
	orig := openDB
	openDB = fn
	t.Cleanup(func() { openDB = orig })
}

func TestNewApp_DBError(t *testing.T) {
	swapOpenDB(t, func(context.Context, string) (*sql.DB, error) { return nil, errors.New("refused") })

	_, err := NewApp(context.Background(), &config.Config{LogLevel: "error"})
	if err == nil || !strings.Contains(err.Error(), "db init error") {
		t.Fatalf("want db init error, got %v", err)
	}
}

func TestNewApp_MigrationErrorClosesDB(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	mock.MatchExpectationsInOrder(false)
	mock.ExpectClose()
	swapOpenDB(t, func(context.Context, string) (*sql.DB, error) { return db, nil })

	_, err = NewApp(context.Background(), &config.Config{LogLevel: "error"})
	if err == nil || !strings.Contains(err.Error(), "migrations error") {
		t.Fatalf("want migrations error, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("db not closed: %v", err)
	}
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	app := &App{
		config: &config.Config{EndpointAddrGRPC: "127.0.0.1:0", SecretKey: "k"},
		logger: logging.Nop(),
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

func TestRun_BadAddressStops(t *testing.T) {
	app := &App{
		config: &config.Config{EndpointAddrGRPC: "127.0.0.1:99999", SecretKey: "k"},
		logger: logging.Nop(),
	}

	done := make(chan struct{})
	go func() {
		app.Run(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after listen failure")
	}
}
