package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/nixflix/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the embedded config template to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	path := r.configPath
	if path == "" {
		path = "config.toml"
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", path)
	r.writePlain("✓ Config written to %s\n", path)
	r.writePlainln("Next steps:")
	r.writePlain("1. Fill in [credentials.nixplay] and [credentials.flickr] api_key/api_secret\n")
	r.writePlain("2. Run 'nixflix auth flickr' to authorize private albums\n")
	r.writePlain("3. Run 'nixflix setup database' to enable the run journal\n")
	return nil
}

// SetupDatabase initializes the run journal and runs migrations.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	if r.config.Database.Path == "" {
		return fmt.Errorf("%w: database path is empty", shared.ErrInvalidConfig)
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)

	db, err := shared.OpenJournal(r.config.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Run journal ready at %s\n", r.config.Database.Path)
	return nil
}
