package database

import (
	"database/sql"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"adsb_speech/internal/models"
)

type AircraftRepository interface {
	InsertBatch(aircraft []*models.Aircraft) error
	IsTablePopulated() (bool, error)
	LoadFromMultipleCSV(csvPaths []string, batchSize int) error
	FindByICAO(icao string) (*models.Aircraft, error)
	TypeCodeByICAO(icao string) (string, bool, error)
}

type aircraftRepository struct {
	db *sql.DB
}

func NewAircraftRepository(db *sql.DB) AircraftRepository {
	return &aircraftRepository{db: db}
}

// InsertBatch inserts one or more aircraft records in a single transaction
func (r *aircraftRepository) InsertBatch(aircraft []*models.Aircraft) error {
	if len(aircraft) == 0 {
		return nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT OR REPLACE INTO aircraft (
		icao24, registration, manufacturerIcao, manufacturerName, model,
		typecode, operator, operatorIcao, owner, built
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, ac := range aircraft {
		if _, err := stmt.Exec(
			strings.ToUpper(ac.ICAO24), ac.Registration, ac.ManufacturerICAO,
			ac.ManufacturerName, ac.Model, ac.TypeCode, ac.Operator,
			ac.OperatorICAO, ac.Owner, ac.Built,
		); err != nil {
			return fmt.Errorf("failed to insert aircraft: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *aircraftRepository) IsTablePopulated() (bool, error) {
	var ignored int
	err := r.db.QueryRow("SELECT 1 FROM aircraft LIMIT 1").Scan(&ignored)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check aircraft table: %w", err)
	}
	return true, nil
}

// FindByICAO returns the registry row for an ICAO address, or nil when the
// airframe is not registered
func (r *aircraftRepository) FindByICAO(icao string) (*models.Aircraft, error) {
	var ac models.Aircraft
	var fields [9]sql.NullString
	err := r.db.QueryRow(`SELECT icao24, registration, manufacturerIcao,
		manufacturerName, model, typecode, operator, operatorIcao, owner, built
		FROM aircraft WHERE icao24 = ?`, strings.ToUpper(icao)).Scan(
		&ac.ICAO24, &fields[0], &fields[1], &fields[2], &fields[3],
		&fields[4], &fields[5], &fields[6], &fields[7], &fields[8],
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up aircraft %s: %w", icao, err)
	}

	ac.Registration = fields[0].String
	ac.ManufacturerICAO = fields[1].String
	ac.ManufacturerName = fields[2].String
	ac.Model = fields[3].String
	ac.TypeCode = fields[4].String
	ac.Operator = fields[5].String
	ac.OperatorICAO = fields[6].String
	ac.Owner = fields[7].String
	ac.Built = fields[8].String
	return &ac, nil
}

// TypeCodeByICAO returns the spoken airframe label for an ICAO address
func (r *aircraftRepository) TypeCodeByICAO(icao string) (string, bool, error) {
	ac, err := r.FindByICAO(icao)
	if err != nil || ac == nil {
		return "", false, err
	}
	label := ac.Label()
	return label, label != "", nil
}

// LoadFromMultipleCSV loads aircraft data from one or more CSV files. The
// published database is split into parts; the header of the first file
// defines the column layout for all of them.
func (r *aircraftRepository) LoadFromMultipleCSV(csvPaths []string, batchSize int) error {
	var headerMap map[string]int
	var expectedFields int
	batch := make([]*models.Aircraft, 0, batchSize)
	loaded := 0

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		if err := r.InsertBatch(batch); err != nil {
			return fmt.Errorf("failed to insert batch: %w", err)
		}
		loaded += len(batch)
		batch = batch[:0]
		return nil
	}

	for fileIdx, csvPath := range csvPaths {
		if err := func() error {
			file, err := os.Open(csvPath)
			if err != nil {
				return fmt.Errorf("failed to open CSV file %s: %w", csvPath, err)
			}
			defer file.Close()

			reader := csv.NewReader(file)
			reader.LazyQuotes = true
			reader.FieldsPerRecord = -1

			header, err := reader.Read()
			if err != nil {
				return fmt.Errorf("failed to read CSV header from %s: %w", csvPath, err)
			}

			if fileIdx == 0 {
				expectedFields = len(header)
				headerMap = make(map[string]int)
				for i, h := range header {
					headerMap[strings.Trim(strings.TrimSpace(h), "'\"")] = i
				}
			}

			for {
				record, err := reader.Read()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return fmt.Errorf("failed to read CSV record from %s: %w", csvPath, err)
				}
				if len(record) != expectedFields {
					continue
				}

				ac := &models.Aircraft{
					ICAO24:           getField(record, headerMap, "icao24"),
					Registration:     getField(record, headerMap, "registration"),
					ManufacturerICAO: getField(record, headerMap, "manufacturerIcao"),
					ManufacturerName: getField(record, headerMap, "manufacturerName"),
					Model:            getField(record, headerMap, "model"),
					TypeCode:         getField(record, headerMap, "typecode"),
					Operator:         getField(record, headerMap, "operator"),
					OperatorICAO:     getField(record, headerMap, "operatorIcao"),
					Owner:            getField(record, headerMap, "owner"),
					Built:            getField(record, headerMap, "built"),
				}
				if ac.ICAO24 == "" {
					continue
				}

				batch = append(batch, ac)
				if len(batch) >= batchSize {
					if err := flush(); err != nil {
						return err
					}
				}
			}
		}(); err != nil {
			return err
		}
	}

	if err := flush(); err != nil {
		return err
	}
	slog.Info("Loaded aircraft registry", "files", len(csvPaths), "aircraft", loaded)
	return nil
}

// getField retrieves a field from a CSV record by header name
func getField(record []string, headerMap map[string]int, fieldName string) string {
	if idx, ok := headerMap[fieldName]; ok && idx < len(record) {
		return strings.Trim(strings.TrimSpace(record[idx]), "'\"")
	}
	return ""
}
