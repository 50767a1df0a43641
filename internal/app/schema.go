package app

import (
	"context"
	"fmt"
)

// Schema is applied at startup. Statements are idempotent so restarts are
// safe without a migration tool.
//
// The exclusion constraint on reservations is the commit-time backstop for
// the booking race: even if two requests pass the advisory conflict check
// concurrently, at most one overlapping non-cancelled reservation per room
// can commit. Handlers map exclusion violations to the same 409 payload as
// the advisory check.
const schemaDDL = `
CREATE EXTENSION IF NOT EXISTS btree_gist;

CREATE TABLE IF NOT EXISTS users (
    id            uuid PRIMARY KEY,
    email         text NOT NULL UNIQUE,
    name          text NOT NULL,
    password_hash text NOT NULL,
    created_at    timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS organisations (
    id            uuid PRIMARY KEY,
    name          text NOT NULL,
    contact_email text NOT NULL DEFAULT '',
    created_at    timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS memberships (
    user_id         uuid NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    organisation_id uuid NOT NULL REFERENCES organisations(id) ON DELETE CASCADE,
    role            text NOT NULL DEFAULT 'member',
    PRIMARY KEY (user_id, organisation_id)
);

CREATE TABLE IF NOT EXISTS properties (
    id              uuid PRIMARY KEY,
    organisation_id uuid NOT NULL REFERENCES organisations(id) ON DELETE CASCADE,
    name            text NOT NULL,
    address         text NOT NULL DEFAULT '',
    timezone        text NOT NULL DEFAULT 'UTC',
    created_at      timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS rooms (
    id              uuid PRIMARY KEY,
    property_id     uuid NOT NULL REFERENCES properties(id) ON DELETE CASCADE,
    name            text NOT NULL,
    capacity        int NOT NULL DEFAULT 1,
    price_per_night numeric(10,2) NOT NULL DEFAULT 0,
    pricing_type    text NOT NULL DEFAULT 'night'
                    CHECK (pricing_type IN ('hour','day','night')),
    created_at      timestamptz NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS equipment (
    id       uuid PRIMARY KEY,
    room_id  uuid NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    name     text NOT NULL,
    quantity int NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS reservations (
    id              uuid PRIMARY KEY,
    room_id         uuid NOT NULL REFERENCES rooms(id) ON DELETE CASCADE,
    guest_name      text NOT NULL,
    guest_email     text NOT NULL DEFAULT '',
    start_date      date NOT NULL,
    end_date        date NOT NULL,
    start_time      text NOT NULL DEFAULT '',
    duration        int NOT NULL DEFAULT 0,
    status          text NOT NULL
                    CHECK (status IN ('PENDING','CONFIRMED','CANCELLED','COMPLETED')),
    total_price     numeric(10,2) NOT NULL DEFAULT 0,
    notes           text NOT NULL DEFAULT '',
    source          text NOT NULL DEFAULT 'internal',
    effective_start timestamptz NOT NULL,
    effective_end   timestamptz NOT NULL,
    created_at      timestamptz NOT NULL DEFAULT now(),
    updated_at      timestamptz NOT NULL DEFAULT now(),
    CHECK (effective_start < effective_end),
    CONSTRAINT reservations_no_overlap EXCLUDE USING gist (
        room_id WITH =,
        tstzrange(effective_start, effective_end) WITH &&
    ) WHERE (status <> 'CANCELLED')
);

CREATE INDEX IF NOT EXISTS reservations_room_span_idx
    ON reservations (room_id, effective_start, effective_end);

CREATE TABLE IF NOT EXISTS integrations (
    id              uuid PRIMARY KEY,
    organisation_id uuid NOT NULL REFERENCES organisations(id) ON DELETE CASCADE,
    provider        text NOT NULL,
    calendar_id     text NOT NULL DEFAULT 'primary',
    token_json      text NOT NULL,
    created_at      timestamptz NOT NULL DEFAULT now(),
    updated_at      timestamptz NOT NULL DEFAULT now(),
    UNIQUE (organisation_id, provider)
);

CREATE TABLE IF NOT EXISTS external_events (
    id              uuid PRIMARY KEY,
    organisation_id uuid NOT NULL REFERENCES organisations(id) ON DELETE CASCADE,
    provider        text NOT NULL,
    event_id        text NOT NULL,
    summary         text NOT NULL DEFAULT '',
    location        text NOT NULL DEFAULT '',
    start_at        timestamptz NOT NULL,
    end_at          timestamptz NOT NULL,
    status          text NOT NULL DEFAULT '',
    UNIQUE (organisation_id, provider, event_id)
);

CREATE TABLE IF NOT EXISTS user_preferences (
    user_id          uuid PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
    last_property_id uuid REFERENCES properties(id) ON DELETE SET NULL
);
`

func (a *App) Migrate(ctx context.Context) error {
	if _, err := a.DB.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
