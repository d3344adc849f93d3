package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "swiftbase",
	Short: "A single-binary MongoDB-style backend over SQLite",
	Long: `SwiftBase is a single-binary backend platform that provides:

  - HTTP/WebSocket API over an embedded SQLite database
  - MongoDB-style document queries lowered to SQLite's JSON1 extension
  - JWT-based user and admin authentication
  - Realtime subscriptions pushed over WebSocket
  - A file metadata/storage service with pluggable backends

Start the server:
  swiftbase serve`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./swiftbase.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("swiftbase")
	}

	viper.SetEnvPrefix("SWIFTBASE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil && verbose {
		log.Debug().Str("file", viper.ConfigFileUsed()).Msg("using config file")
	}
}

func setupLogging() {
	output := zerolog.ConsoleWriter{Out: os.Stderr}

	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}
