package shared

import (
	"testing"
)

func TestMigrationRunner(t *testing.T) {
	t.Run("loadMigrations", func(t *testing.T) {
		migrations, err := loadMigrations()
		if err != nil {
			t.Fatalf("failed to load migrations: %v", err)
		}

		if len(migrations) != 2 {
			t.Fatalf("expected 2 migrations, got %d", len(migrations))
		}

		if migrations[0].Name != "create_plays" || migrations[1].Name != "add_album_columns" {
			t.Errorf("unexpected migration names: %s, %s", migrations[0].Name, migrations[1].Name)
		}

		for i := 1; i < len(migrations); i++ {
			if migrations[i].Version <= migrations[i-1].Version {
				t.Errorf("migrations not sorted: version %d comes after %d", migrations[i].Version, migrations[i-1].Version)
			}
		}
	})

	t.Run("RunMigrations And Rollback", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}

		version, applied, err := SchemaVersion(db)
		if err != nil {
			t.Fatalf("failed to read schema version: %v", err)
		}
		if version != 1 || applied != 2 {
			t.Errorf("expected version 1 with 2 applied, got version %d with %d applied", version, applied)
		}

		if _, err := db.Exec("SELECT album_id, album_name, context_uri FROM plays LIMIT 1"); err != nil {
			t.Errorf("plays table should have album columns after migrations: %v", err)
		}
		if _, err := db.Exec("SELECT playlist_id, name, url FROM playlists LIMIT 1"); err != nil {
			t.Errorf("playlists table should exist after migrations: %v", err)
		}

		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		if _, err := db.Exec("SELECT album_id FROM plays LIMIT 1"); err == nil {
			t.Error("expected album_id to be dropped after rollback")
		}
		if _, err := db.Exec("SELECT track_id FROM plays LIMIT 1"); err != nil {
			t.Errorf("plays table should survive rolling back the album migration: %v", err)
		}
	})

	t.Run("Idempotent Migrations", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations first time: %v", err)
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations second time: %v", err)
		}

		_, applied, err := SchemaVersion(db)
		if err != nil {
			t.Fatalf("failed to query schema_migrations: %v", err)
		}

		migrations, _ := loadMigrations()
		if applied != len(migrations) {
			t.Errorf("expected %d migrations to be applied, got %d", len(migrations), applied)
		}
	})

	t.Run("Adopts Existing Database", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		legacy := []string{
			`CREATE TABLE plays (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				played_at TEXT NOT NULL,
				played_at_unix INTEGER NOT NULL,
				track_id TEXT NOT NULL,
				track_name TEXT NOT NULL,
				artist_name TEXT NOT NULL,
				album_id TEXT,
				album_name TEXT,
				context_type TEXT,
				context_uri TEXT,
				UNIQUE(played_at, track_id)
			)`,
			`INSERT INTO plays (played_at, played_at_unix, track_id, track_name, artist_name, album_id)
			 VALUES ('2024-01-01T00:00:00.000Z', 1704067200, 't1', 'Song', 'Artist', 'a1')`,
		}
		for _, stmt := range legacy {
			if _, err := db.Exec(stmt); err != nil {
				t.Fatalf("failed to seed legacy schema: %v", err)
			}
		}

		if err := RunMigrations(db); err != nil {
			t.Fatalf("migrations should adopt a legacy database: %v", err)
		}

		var albumID string
		if err := db.QueryRow("SELECT album_id FROM plays WHERE track_id = 't1'").Scan(&albumID); err != nil {
			t.Fatalf("legacy row lost: %v", err)
		}
		if albumID != "a1" {
			t.Errorf("expected album_id a1, got %s", albumID)
		}
	})
	t.Run("MigrationStatuses", func(t *testing.T) {
		db, err := NewDatabase(":memory:")
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		defer db.Close()

		if err := RunMigrations(db); err != nil {
			t.Fatalf("failed to run migrations: %v", err)
		}
		if err := RollbackMigration(db); err != nil {
			t.Fatalf("failed to rollback migration: %v", err)
		}

		statuses, err := MigrationStatuses(db)
		if err != nil {
			t.Fatalf("failed to list migrations: %v", err)
		}
		if len(statuses) != 2 {
			t.Fatalf("expected 2 statuses, got %d", len(statuses))
		}
		if !statuses[0].Applied() {
			t.Error("expected 0000 to stay applied")
		}
		if statuses[1].Applied() {
			t.Error("expected 0001 to be rolled back")
		}
	})
}

func TestSplitStatements(t *testing.T) {
	tests := []struct {
		name   string
		script string
		want   []string
	}{
		{name: "empty", script: "", want: nil},
		{name: "comments only", script: "-- nothing; here\n", want: nil},
		{
			name:   "comment with semicolon",
			script: "-- one; two\nCREATE TABLE a (id INTEGER);\nDROP TABLE b; -- trailing\n",
			want:   []string{"CREATE TABLE a (id INTEGER)", "DROP TABLE b"},
		},
		{name: "no trailing semicolon", script: "SELECT 1", want: []string{"SELECT 1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := splitStatements(tt.script)
			if len(got) != len(tt.want) {
				t.Fatalf("expected %q, got %q", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("statement %d: expected %q, got %q", i, tt.want[i], got[i])
				}
			}
		})
	}
}
