package database

import (
	"database/sql"
	stdlog "log"

	"github.com/username/finanzas/backend/src/logger"
	_ "modernc.org/sqlite"
)

var DB *sql.DB

const createTableStatement = `
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL UNIQUE,
	password TEXT NOT NULL,
	email TEXT NOT NULL UNIQUE,
	auth_provider TEXT DEFAULT 'local',
	is_email_verified BOOLEAN DEFAULT FALSE,
	email_verification_token TEXT,
	email_verification_token_expires_at TIMESTAMP,
	password_reset_token TEXT,
	password_reset_token_expires_at TIMESTAMP,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS sessions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id INTEGER NOT NULL,
	token TEXT NOT NULL,
	refresh_token TEXT NOT NULL,
	user_agent TEXT,
	client_ip TEXT,
	is_blocked BOOLEAN DEFAULT FALSE,
	expires_at TIMESTAMP,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY(user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS accounts (
	id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	balance TEXT NOT NULL DEFAULT '0',
	is_active BOOLEAN DEFAULT TRUE,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY(user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS categories (
	id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	description TEXT,
	type TEXT NOT NULL,
	is_active BOOLEAN DEFAULT TRUE,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY(user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS transactions (
	id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL,
	type TEXT NOT NULL,
	amount TEXT NOT NULL,
	date TIMESTAMP NOT NULL,
	description TEXT,
	category_id TEXT NOT NULL,
	from_account_id TEXT,
	to_account_id TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY(user_id) REFERENCES users(id),
	FOREIGN KEY(category_id) REFERENCES categories(id),
	FOREIGN KEY(from_account_id) REFERENCES accounts(id),
	FOREIGN KEY(to_account_id) REFERENCES accounts(id)
);

CREATE TABLE IF NOT EXISTS cards (
	id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL,
	name TEXT NOT NULL,
	bank TEXT NOT NULL,
	credit_limit TEXT NOT NULL DEFAULT '0',
	last_four_digits TEXT NOT NULL,
	color TEXT NOT NULL,
	closing_day INTEGER NOT NULL,
	due_day INTEGER NOT NULL,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY(user_id) REFERENCES users(id)
);

CREATE TABLE IF NOT EXISTS card_expenses (
	id TEXT PRIMARY KEY,
	card_id TEXT NOT NULL,
	description TEXT NOT NULL,
	installment_amount TEXT NOT NULL,
	installments INTEGER NOT NULL,
	total_amount TEXT NOT NULL DEFAULT '0',
	is_recurring BOOLEAN DEFAULT FALSE,
	currency TEXT NOT NULL DEFAULT 'ARS',
	first_payment_date TIMESTAMP NOT NULL,
	closing_date TIMESTAMP NOT NULL,
	due_date TIMESTAMP NOT NULL,
	is_paid BOOLEAN DEFAULT FALSE,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY(card_id) REFERENCES cards(id)
);

CREATE TABLE IF NOT EXISTS fixed_expenses (
	id TEXT PRIMARY KEY,
	user_id INTEGER NOT NULL,
	category_id TEXT NOT NULL,
	description TEXT NOT NULL,
	amount TEXT NOT NULL,
	due_date TIMESTAMP NOT NULL,
	is_active BOOLEAN DEFAULT TRUE,
	last_payment_date TIMESTAMP,
	previous_expense_id TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
	FOREIGN KEY(user_id) REFERENCES users(id),
	FOREIGN KEY(category_id) REFERENCES categories(id)
);
`

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
	migrateCardExpensesTable(db)

	if err := CreateTables(db); err != nil {
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

// CreateTables ensures the full schema exists. Exposed so service tests can
// run against throwaway in-memory databases.
func CreateTables(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		return err
	}
	_, err := db.Exec(createTableStatement)
	return err
}

// Older databases predate the currency column on card_expenses.
func migrateCardExpensesTable(db *sql.DB) {
	var tableName string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='card_expenses'").Scan(&tableName)
	if err != nil {
		if err == sql.ErrNoRows {
			return
		}
		if logger.L != nil {
			logger.L.Error("Error checking for 'card_expenses' table", "error", err)
		} else {
			stdlog.Printf("Error checking for 'card_expenses' table: %v", err)
		}
		return
	}

	rows, err := db.Query("PRAGMA table_info(card_expenses)")
	if err != nil {
		if logger.L != nil {
			logger.L.Error("Error querying table schema for 'card_expenses'", "error", err)
		} else {
			stdlog.Printf("Error querying table schema for 'card_expenses': %v", err)
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
				logger.L.Error("Error scanning column info for 'card_expenses'", "error", err)
			} else {
				stdlog.Printf("Error scanning column info for 'card_expenses': %v", err)
			}
			return
		}
		columnExists[name] = true
	}
	if err = rows.Err(); err != nil {
		if logger.L != nil {
			logger.L.Error("Error iterating over column info for 'card_expenses'", "error", err)
		} else {
			stdlog.Printf("Error iterating over column info for 'card_expenses': %v", err)
		}
		return
	}

	if _, ok := columnExists["currency"]; !ok {
		if _, err := db.Exec("ALTER TABLE card_expenses ADD COLUMN currency TEXT NOT NULL DEFAULT 'ARS'"); err != nil {
			if logger.L != nil {
				logger.L.Error("Error adding 'currency' column to 'card_expenses' table", "error", err)
			} else {
				stdlog.Printf("Error adding 'currency' column to 'card_expenses' table: %v", err)
			}
		} else if logger.L != nil {
			logger.L.Info("Added 'currency' column to 'card_expenses' table")
		}
	}
}
