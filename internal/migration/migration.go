package migration

import (
	"database/sql"
	"embed"

	migrate "github.com/rubenv/sql-migrate"
)

//go:embed sql/*.sql
var sqlFiles embed.FS

const dialect = "postgres"

var source = migrate.EmbedFileSystemMigrationSource{
	FileSystem: sqlFiles,
	Root:       "sql",
}

// Up applies every pending migration and returns how many ran.
func Up(db *sql.DB) (int, error) {
	return migrate.Exec(db, dialect, source, migrate.Up)
}

// Down rolls back at most max migrations. Zero means all of them.
func Down(db *sql.DB, max int) (int, error) {
	return migrate.ExecMax(db, dialect, source, migrate.Down, max)
}

// Pending lists migration ids that Up would apply.
func Pending(db *sql.DB) ([]string, error) {
	planned, _, err := migrate.PlanMigration(db, dialect, source, migrate.Up, 0)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(planned))
	for _, p := range planned {
		ids = append(ids, p.Id)
	}
	return ids, nil
}
