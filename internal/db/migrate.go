package db

import (
	"context"
	_ "embed"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// pre_automigrate creates the content schema; post_automigrate adds the
// lookup indexes gorm tags cannot express.
//
//go:embed sql/pre_automigrate.sql
var preAutoMigrateSQL string

//go:embed sql/post_automigrate.sql
var postAutoMigrateSQL string

type migrationStep struct {
	name string
	run  func(ctx context.Context, p *Pool) error
}

func migrationSteps() []migrationStep {
	return []migrationStep{
		{name: "schema", run: sqlStep(preAutoMigrateSQL)},
		{name: "models", run: func(ctx context.Context, p *Pool) error {
			return p.gdb.WithContext(ctx).AutoMigrate(autoMigrateModels()...)
		}},
		{name: "indexes", run: sqlStep(postAutoMigrateSQL)},
	}
}

func (p *Pool) autoMigrate(ctx context.Context, log zerolog.Logger) error {
	if p == nil || p.gdb == nil {
		return fmt.Errorf("database pool is not initialized")
	}

	for _, step := range migrationSteps() {
		started := time.Now()
		if err := step.run(ctx, p); err != nil {
			return fmt.Errorf("migration step %s: %w", step.name, err)
		}
		log.Debug().Str("step", step.name).Dur("elapsed", time.Since(started)).Msg("migration step applied")
	}
	return nil
}

func sqlStep(sqlText string) func(ctx context.Context, p *Pool) error {
	trimmed := strings.TrimSpace(sqlText)
	return func(ctx context.Context, p *Pool) error {
		if trimmed == "" {
			return nil
		}
		return p.gdb.WithContext(ctx).Exec(trimmed).Error
	}
}
