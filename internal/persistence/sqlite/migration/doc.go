// Package migration applies versioned schema changes to a SQLite database.
//
// Migrations are plain SQL files named {version}_{description}.sql and are
// read from an fs.FS, usually an embed.FS compiled into the binary. Applied
// versions are tracked in the schema_migrations table so every file runs at
// most once, inside its own transaction.
//
// Example usage:
//
//	scanner := migration.NewFileScanner(schemaFS)
//	executor := migration.NewSQLiteExecutor(db)
//	manager := migration.NewMigrationManager(scanner, executor, "schema", logger)
//	if err := manager.RunMigrations(ctx); err != nil {
//		return err
//	}
package migration
