package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/roach88/brainplus/internal/store"
)

// openDatabase opens an existing run database. Read commands must not
// create an empty database by accident, so a missing file is an error.
func openDatabase(path string) (*store.Store, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, NewExitError(ExitCommandError, fmt.Sprintf("database not found: %s", path))
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}
	return st, nil
}

func closeDatabase(st *store.Store) {
	if err := st.Close(); err != nil {
		slog.Error("error closing database", "error", err)
	}
}

// notFound maps sql.ErrNoRows to a command error naming what is missing.
func notFound(what, id string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return NewExitError(ExitCommandError, fmt.Sprintf("%s not found: %s", what, id))
	}
	return WrapExitError(ExitCommandError, fmt.Sprintf("failed to read %s", what), err)
}
