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

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "pvearnings",
	Short: "pvearnings maintains a database of upcoming earnings announcements",
	Long: `pvearnings builds and maintains a small database of upcoming earnings
announcements for a tracked list of companies. For each ticker it combines
data from several sources:

	* [Yahoo Finance](https://finance.yahoo.com) - announcement dates,
	  analyst consensus estimates, and year-ago comparisons
	* [EarningsWhispers](https://www.earningswhispers.com) - release times
	* [Nasdaq](https://www.nasdaq.com) - market timing
	* [Benzinga](https://www.benzinga.com) - release times
	* SEC EDGAR company facts - reported quarterly results

The sites frequently disagree with each other. pvearnings reconciles their
values with fixed per-field precedence rules and keeps exactly one estimate
row per company, so downstream tools always see the latest announced date.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.pvearnings.toml)")
	rootCmd.PersistentFlags().String("db-url", "", "database connection string")
	if err := viper.BindPFlag("db.url", rootCmd.PersistentFlags().Lookup("db-url")); err != nil {
		log.Panic().Err(err).Msg("BindPFlag for db-url failed")
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		// Find home directory.
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		// Search config in home directory with name ".pvearnings" (without extension).
		viper.AddConfigPath(home)
		viper.SetConfigType("toml")
		viper.SetConfigName(".pvearnings")
	}

	viper.SetDefault("playwright.headless", true)
	viper.SetDefault("refresh.navigation_timeout", 30)
	viper.SetDefault("refresh.ticker_delay", 4)
	viper.SetDefault("refresh.ticker_timeout", 120)

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err == nil {
		log.Info().Str("ConfigFN", viper.ConfigFileUsed()).Msg("Using config file")
	}
}
