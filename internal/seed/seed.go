package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/kaan/schoolhub/internal/db"
	"github.com/kaan/schoolhub/internal/pkg/logger"
)

type seedFaculty struct {
	name  string
	color string
}

type seedStudent struct {
	name        string
	age         int
	facultyName string
}

var defaultFaculties = []seedFaculty{
	{name: "Gryffindor", color: "red"},
	{name: "Slytherin", color: "green"},
	{name: "Ravenclaw", color: "blue"},
	{name: "Hufflepuff", color: "yellow"},
}

var defaultStudents = []seedStudent{
	{name: "Harry Potter", age: 12, facultyName: "Gryffindor"},
	{name: "Hermione Granger", age: 12, facultyName: "Gryffindor"},
	{name: "Draco Malfoy", age: 12, facultyName: "Slytherin"},
	{name: "Luna Lovegood", age: 11, facultyName: "Ravenclaw"},
}

// CreateDefaultData inserts the default faculties and students if they are
// not present yet. It runs in a single transaction so a partially seeded
// database is never left behind.
func CreateDefaultData(ctx context.Context, database *db.PostgresDB) error {
	logger.Info().Msg("Checking/Creating default data (Faculties/Students)...")

	err := database.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		facultyIDs := make(map[string]int64, len(defaultFaculties))

		for _, f := range defaultFaculties {
			// Upsert-by-name keeps the seed idempotent across runs.
			var id int64
			err := tx.QueryRow(ctx, `
				INSERT INTO faculties (name, color)
				VALUES ($1, $2)
				ON CONFLICT ON CONSTRAINT uq_faculties_name DO UPDATE SET color = EXCLUDED.color
				RETURNING id
			`, f.name, f.color).Scan(&id)
			if err != nil {
				return fmt.Errorf("failed to seed faculty %s: %w", f.name, err)
			}
			facultyIDs[f.name] = id
		}

		for _, s := range defaultStudents {
			facultyID, ok := facultyIDs[s.facultyName]
			if !ok {
				return fmt.Errorf("seed student %s references unknown faculty %s", s.name, s.facultyName)
			}

			// Students have no natural unique key, so guard on name.
			_, err := tx.Exec(ctx, `
				INSERT INTO students (name, age, faculty_id)
				SELECT $1, $2, $3
				WHERE NOT EXISTS (SELECT 1 FROM students WHERE name = $1)
			`, s.name, s.age, facultyID)
			if err != nil {
				return fmt.Errorf("failed to seed student %s: %w", s.name, err)
			}
		}

		return nil
	})

	if err != nil {
		logger.Error().Err(err).Msg("Seeding default data failed")
		return err
	}

	logger.Info().Msg("Default data is in place")
	return nil
}
