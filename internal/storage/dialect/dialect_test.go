package dialect

import (
	"testing"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name        string
		dialectType DialectType
		wantName    string
		wantErr     bool
	}{
		{"sqlite", SQLite, "sqlite", false},
		{"postgres", Postgres, "postgres", false},
		{"mysql", DialectType("mysql"), "", true},
		{"unknown", DialectType("unknown"), "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := New(tt.dialectType)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err == nil && d.Name() != tt.wantName {
				t.Errorf("Name() = %v, want %v", d.Name(), tt.wantName)
			}
		})
	}
}

func TestFromDriverName(t *testing.T) {
	tests := []struct {
		driverName string
		wantName   string
		wantDriver string
		wantErr    bool
	}{
		{"sqlite", "sqlite", "sqlite", false},
		{"sqlite3", "sqlite", "sqlite", false},
		{"postgres", "postgres", "pgx", false},
		{"PostgreSQL", "postgres", "pgx", false},
		{"pgx", "postgres", "pgx", false},
		{"memory", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.driverName, func(t *testing.T) {
			d, err := FromDriverName(tt.driverName)
			if (err != nil) != tt.wantErr {
				t.Errorf("FromDriverName() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if err != nil {
				return
			}
			if d.Name() != tt.wantName {
				t.Errorf("Name() = %v, want %v", d.Name(), tt.wantName)
			}
			if d.DriverName() != tt.wantDriver {
				t.Errorf("DriverName() = %v, want %v", d.DriverName(), tt.wantDriver)
			}
		})
	}
}

func TestSQLiteDialect_Rebind(t *testing.T) {
	d := &sqliteDialect{}
	query := "SELECT * FROM trips WHERE collection = ? AND id = ?"
	got := d.Rebind(query)
	if got != query {
		t.Errorf("Rebind() = %v, want %v", got, query)
	}
}

func TestPostgresDialect_Rebind(t *testing.T) {
	d := &postgresDialect{}
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT * FROM trips WHERE id = ?", "SELECT * FROM trips WHERE id = $1"},
		{"SELECT * FROM trips WHERE collection = ? AND id = ?", "SELECT * FROM trips WHERE collection = $1 AND id = $2"},
		{"INSERT INTO trips VALUES (?, ?, ?)", "INSERT INTO trips VALUES ($1, $2, $3)"},
		{"SELECT * FROM trips", "SELECT * FROM trips"},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got := d.Rebind(tt.query)
			if got != tt.want {
				t.Errorf("Rebind() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSQLiteDialect_UpsertClause(t *testing.T) {
	d := &sqliteDialect{}

	got := d.UpsertClause([]string{"id"}, nil)
	want := "ON CONFLICT(id) DO NOTHING"
	if got != want {
		t.Errorf("UpsertClause() = %v, want %v", got, want)
	}

	got = d.UpsertClause([]string{"collection", "id"}, []string{"document", "position"})
	want = "ON CONFLICT(collection, id) DO UPDATE SET document=excluded.document, position=excluded.position"
	if got != want {
		t.Errorf("UpsertClause() = %v, want %v", got, want)
	}
}

func TestPostgresDialect_UpsertClause(t *testing.T) {
	d := &postgresDialect{}

	got := d.UpsertClause([]string{"id"}, nil)
	want := "ON CONFLICT (id) DO NOTHING"
	if got != want {
		t.Errorf("UpsertClause() = %v, want %v", got, want)
	}

	got = d.UpsertClause([]string{"collection", "id"}, []string{"document", "position"})
	want = "ON CONFLICT (collection, id) DO UPDATE SET document = EXCLUDED.document, position = EXCLUDED.position"
	if got != want {
		t.Errorf("UpsertClause() = %v, want %v", got, want)
	}
}

func TestDialect_Pool(t *testing.T) {
	if got := (&sqliteDialect{}).MaxOpenConns(); got != 1 {
		t.Errorf("sqlite MaxOpenConns() = %d, want 1", got)
	}
	if got := (&postgresDialect{}).MaxOpenConns(); got != 0 {
		t.Errorf("postgres MaxOpenConns() = %d, want 0", got)
	}
	if len((&sqliteDialect{}).PragmaStatements()) == 0 {
		t.Error("sqlite should run pragmas")
	}
	if (&postgresDialect{}).PragmaStatements() != nil {
		t.Error("postgres should not run pragmas")
	}
}
