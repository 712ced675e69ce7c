// Copyright 2025
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package cmd

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/gosimple/slug"
	"github.com/jackc/pgx/v5"
	"github.com/pelletier/go-toml/v2"
	"github.com/penny-vault/pvearnings/db"
	"github.com/penny-vault/pvearnings/healthcheck"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type contactConfig struct {
	Name  string `toml:"name"`
	Email string `toml:"email"`
}

type dbConfig struct {
	URL string `toml:"url"`
}

type healthchecksConfig struct {
	APIKey  string `toml:"apikey,omitempty"`
	CheckID string `toml:"check_id,omitempty"`
}

type cliConfig struct {
	Contact      contactConfig      `toml:"contact"`
	DB           dbConfig           `toml:"db"`
	Healthchecks healthchecksConfig `toml:"healthchecks"`
}

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Gather contact and database configuration and setup schema",
	Run: func(cmd *cobra.Command, args []string) {
		config := &cliConfig{}

		form := huh.NewForm(
			// EDGAR requires a descriptive user agent with contact details
			huh.NewGroup(
				huh.NewInput().
					Title("What is your name (or company name)?").
					Description("Sent to the SEC in the user agent of every EDGAR request").
					Value(&config.Contact.Name),

				huh.NewInput().
					Title("What is your contact email address?").
					Value(&config.Contact.Email),
			),

			// Get details about the database
			huh.NewGroup(
				huh.NewInput().
					Title("Provide the DSN for connecting to your PostgreSQL database (postgres://[user[:password]@][netloc][:port][/dbname][?param1=value1&...])").
					Value(&config.DB.URL).
					Validate(func(dsn string) error {
						_, err := pgx.ParseConfig(dsn)
						return err
					}),
			),

			// Optional healthchecks.io monitoring of refresh runs
			huh.NewGroup(
				huh.NewInput().
					Title("healthchecks.io API key (leave blank to skip monitoring)").
					Value(&config.Healthchecks.APIKey),
			),
		)

		err := form.Run()
		if err != nil {
			log.Fatal().Err(err).Msg("error gathering settings")
		}

		log.Info().Msg("creating database tables")

		// run migration
		dbURL := strings.Replace(config.DB.URL, "postgres://", "pgx5://", -1)
		err = db.Migrate(dbURL)
		if err != nil {
			log.Fatal().Err(err).Msg("error running database migration")
		}

		log.Info().Msg("database tables created")

		// register a healthchecks.io check for the refresh schedule
		if config.Healthchecks.APIKey != "" {
			viper.Set("healthchecks.apikey", config.Healthchecks.APIKey)

			checkID, err := healthcheck.Create("pvearnings refresh",
				slug.Make("pvearnings refresh"), []string{"earnings"}, "30 6 * * 1-5")
			if err != nil {
				log.Fatal().Err(err).Msg("creating healthcheck failed")
			}

			config.Healthchecks.CheckID = checkID
			log.Info().Str("CheckID", checkID).Msg("healthcheck created")
		}

		// save settings to config file
		home, err := os.UserHomeDir()
		if err != nil {
			log.Fatal().Err(err).Msg("could not determine user home directory")
		}

		configFN := filepath.Join(home, ".pvearnings.toml")
		log.Info().Str("ConfigFile", configFN).Msg("Saving settings to config file")
		configData, err := toml.Marshal(config)
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal configuration data")
		}

		err = os.WriteFile(configFN, configData, 0644)
		if err != nil {
			log.Fatal().Err(err).Str("FileName", configFN).Msg("could not save configuration to file")
		}

		log.Info().Msg("Your earnings library has been initialized")
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	// Here you will define your flags and configuration settings.

	// Cobra supports Persistent Flags which will work for this command
	// and all subcommands, e.g.:
	// initCmd.PersistentFlags().String("foo", "", "A help for foo")

	// Cobra supports local flags which will only run when this command
	// is called directly, e.g.:
	// initCmd.Flags().BoolP("toggle", "t", false, "Help message for toggle")
}
