package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/cardfolio/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

func InitDB(databasePath string) {
	db, err := sql.Open("sqlite", databasePath)
	if err != nil {
		stdlog.Fatalf("failed to open database at %s: %v", databasePath, err)
	}

	DB = db

	if logger.L != nil {
		logger.L.Info("Checking database migrations", "databasePath", databasePath)
	} else {
		stdlog.Println("Checking database migrations for:", databasePath)
	}
	migrateImportJobsTable()

	createTableStatement := `
	CREATE TABLE IF NOT EXISTS credit_cards (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		name TEXT NOT NULL,
		last_four_digits TEXT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS invoices (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		card_id INTEGER NOT NULL,
		invoice_month TEXT NOT NULL,
		due_date TEXT,
		total_amount TEXT NOT NULL DEFAULT '0',
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(card_id) REFERENCES credit_cards(id),
		UNIQUE(card_id, invoice_month)
	);

	CREATE TABLE IF NOT EXISTS invoice_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		invoice_id INTEGER NOT NULL,
		description TEXT NOT NULL,
		amount TEXT NOT NULL,
		purchase_date TEXT,
		installment_number INTEGER NOT NULL DEFAULT 0,
		installment_total INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		FOREIGN KEY(invoice_id) REFERENCES invoices(id)
	);

	CREATE TABLE IF NOT EXISTS import_jobs (
		id TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		card_id INTEGER NOT NULL,
		source TEXT NOT NULL,
		original_file_name TEXT NOT NULL,
		stored_file_path TEXT NOT NULL,
		status TEXT NOT NULL,
		error_message TEXT,
		parsed_metadata TEXT,
		total_amount TEXT,
		due_date TEXT,
		bank_name TEXT,
		card_last_four_digits TEXT,
		invoice_id INTEGER,
		submitted_at TIMESTAMP NOT NULL,
		processed_at TIMESTAMP,
		FOREIGN KEY(card_id) REFERENCES credit_cards(id),
		FOREIGN KEY(invoice_id) REFERENCES invoices(id)
	);

	CREATE INDEX IF NOT EXISTS idx_import_jobs_user ON import_jobs(user_id, submitted_at);
	CREATE INDEX IF NOT EXISTS idx_invoice_items_invoice ON invoice_items(invoice_id);
	`

	_, err = DB.Exec(createTableStatement)
	if err != nil {
		if logger.L != nil {
			logger.L.Error("failed to create tables", "error", err)
		}
		stdlog.Fatalf("failed to create tables: %v", err)
	}
	if logger.L != nil {
		logger.L.Info("Database tables ensured/created.")
	} else {
		stdlog.Println("Database tables ensured/created.")
	}
}

// migrateImportJobsTable adds columns introduced after the first
// schema version to existing import_jobs tables.
func migrateImportJobsTable() {
	var tableName string
	err := DB.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='import_jobs'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return // table will be created with the full schema
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'import_jobs' table", "error", err)
		}
		return
	}

	rows, err := DB.Query("PRAGMA table_info(import_jobs)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'import_jobs'", "error", err)
		}
		return
	}
	defer rows.Close()

	columnExists := make(map[string]bool)
	for rows.Next() {
		var cid, pk int
		var name, dataType string
		var notnullVal int
		var dfltValue interface{}
		if err := rows.Scan(&cid, &name, &dataType, &notnullVal, &dfltValue, &pk); err != nil {
			if logger.L != nil {
				logger.L.Error("Error scanning column info for 'import_jobs'", "error", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'import_jobs'", "error", err)
		}
		return
	}

	addColumn := func(name, definition string) {
		if columnExists[name] {
			return
		}
		if _, err := DB.Exec("ALTER TABLE import_jobs ADD COLUMN " + name + " " + definition); err != nil {
			logger.L.Error("Error adding column to 'import_jobs' table", "column", name, "error", err)
		} else {
			logger.L.Info("Added column to 'import_jobs' table", "column", name)
		}
	}

	addColumn("invoice_id", "INTEGER")
	addColumn("bank_name", "TEXT")
	addColumn("card_last_four_digits", "TEXT")
}
