package db

import (
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

var database *sql.DB

// InitDB opens the SQLite database and creates the training log table
func InitDB(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	conn, err := sql.Open("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return err
	}

	query := `
    CREATE TABLE IF NOT EXISTS training_log (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        model_name VARCHAR(50) NOT NULL,
        model_path TEXT NOT NULL,
        rmse REAL,
        mae REAL,
        r2 REAL,
        accuracy REAL,
        precision REAL,
        recall REAL,
        train_rows INTEGER,
        test_rows INTEGER,
        trained_at DATETIME NOT NULL
    );
    `
	if _, err := conn.Exec(query); err != nil {
		conn.Close()
		return err
	}
	database = conn
	return nil
}

func Close() error {
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

type TrainingLog struct {
	ModelName string    `json:"model_name"`
	ModelPath string    `json:"model_path"`
	RMSE      float64   `json:"rmse"`
	MAE       float64   `json:"mae"`
	R2        float64   `json:"r2"`
	Accuracy  float64   `json:"accuracy"`
	Precision float64   `json:"precision"`
	Recall    float64   `json:"recall"`
	TrainRows int       `json:"train_rows"`
	TestRows  int       `json:"test_rows"`
	TrainedAt time.Time `json:"trained_at"`
}

func SaveTrainingLog(entry TrainingLog) error {
	if database == nil {
		return errors.New("database not initialized")
	}
	if entry.TrainedAt.IsZero() {
		entry.TrainedAt = time.Now().UTC()
	}
	_, err := database.Exec(`
        INSERT INTO training_log (
            model_name, model_path, rmse, mae, r2, accuracy, precision, recall,
            train_rows, test_rows, trained_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
    `,
		entry.ModelName,
		entry.ModelPath,
		entry.RMSE,
		entry.MAE,
		entry.R2,
		entry.Accuracy,
		entry.Precision,
		entry.Recall,
		entry.TrainRows,
		entry.TestRows,
		entry.TrainedAt,
	)
	return err
}

// LoadTrainingLog returns the most recent runs first
func LoadTrainingLog(limit int) ([]TrainingLog, error) {
	if database == nil {
		return nil, errors.New("database not initialized")
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.Query(`
        SELECT model_name, model_path, rmse, mae, r2, accuracy, precision, recall,
               train_rows, test_rows, trained_at
        FROM training_log
        ORDER BY trained_at DESC, id DESC
        LIMIT ?
    `, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	logs := make([]TrainingLog, 0)
	for rows.Next() {
		var log TrainingLog
		if err := rows.Scan(&log.ModelName, &log.ModelPath, &log.RMSE, &log.MAE, &log.R2,
			&log.Accuracy, &log.Precision, &log.Recall, &log.TrainRows, &log.TestRows, &log.TrainedAt); err != nil {
			return nil, err
		}
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
