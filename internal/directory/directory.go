// Package directory is a database-backed contact resolver: a name learned
// through the awaiting_contact flow (or seeded via the CLI) maps to the
// most recently seen address for it.
package directory

import (
	"context"
	"database/sql"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/schedflow/schedflow/pkg/gcal"
)

type Directory struct {
	db *sqlx.DB
}

var _ gcal.ContactResolver = (*Directory)(nil)

func New(db *sqlx.DB) *Directory {
	return &Directory{db: db}
}

// Resolve maps a name to the most recently seen matching address. Input
// that already is an address passes through unchanged.
func (d *Directory) Resolve(ctx context.Context, nameOrEmail string) (string, error) {
	q := strings.TrimSpace(nameOrEmail)
	if strings.Contains(q, "@") {
		return q, nil
	}

	var email string
	err := d.db.GetContext(ctx, &email, `
		SELECT email FROM contacts
		WHERE LOWER(name) = LOWER($1)
		ORDER BY last_seen DESC, id DESC
		LIMIT 1`,
		q)
	if errors.Is(err, sql.ErrNoRows) {
		return "", gcal.ErrContactNotFound
	}
	if err != nil {
		return "", &gcal.TransportError{Op: "directory.resolve", Transient: true, Err: err}
	}
	return email, nil
}

// Remember records a name→address association. Entries are append-only;
// Resolve picks the newest, so re-remembering a name updates what it
// resolves to.
func (d *Directory) Remember(ctx context.Context, name, email string) error {
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO contacts (name, email) VALUES ($1, $2)`,
		strings.TrimSpace(name), strings.TrimSpace(email))
	if err != nil {
		return errors.Wrapf(err, "remember contact %q", name)
	}
	return nil
}
