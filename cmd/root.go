package cmd

import (
	"fmt"
	"os"

	"github.com/pyneda/trailscan/lib"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string
var debugLogging bool
var prettyLogs bool

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "trailscan",
	Short: "A mass HTTP request-smuggling scanner",
	Long: `trailscan probes a list of target URLs with a battery of malformed or
semantically suspect HTTP exchanges (trailers, Transfer-Encoding/
Content-Length interactions, chunked framing, Upgrade/Expect headers) and
reports those whose responses diverge from a benign baseline in ways that
suggest a desync, smuggling, or gateway-timeout condition between an
intermediate proxy and an origin server.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen
// once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.trailscan.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugLogging, "debug", false, "use debug level logging")
	rootCmd.PersistentFlags().BoolVar(&prettyLogs, "pretty", true, "use pretty logging instead of JSON")

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if prettyLogs {
			viper.Set("logging.console.format", "pretty")
		} else {
			viper.Set("logging.console.format", "json")
		}
		lib.ZeroConsoleAndFileLog()
		if debugLogging {
			zerolog.SetGlobalLevel(zerolog.DebugLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
		return nil
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(home)
		viper.SetConfigName(".trailscan")
	}

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}
