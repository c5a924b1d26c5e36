////////////////////////////////////////////////////////////////////////////////
// Copyright © 2022 xx foundation                                             //
//                                                                            //
// Use of this source code is governed by a license that can be found in the  //
// LICENSE file.                                                              //
////////////////////////////////////////////////////////////////////////////////

// Package cmd initializes the CLI and config parsers as well as the logger.
package cmd

import (
	"fmt"
	"os"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	jww "github.com/spf13/jwalterweatherman"
	"github.com/spf13/viper"
	"gitlab.com/elixxir/aggregator/cmd/conf"
	"gitlab.com/elixxir/aggregator/collection"
	"gitlab.com/elixxir/aggregator/internal"
	"gitlab.com/xx_network/primitives/id"
)

var cfgFile string
var verbose bool
var validConfig bool
var showVer bool
var caller string

// rootCmd represents the base command when called without any sub-commands
var rootCmd = &cobra.Command{
	Use:   "aggregator",
	Short: "Runs the confidential aggregation service",
	Long: `The aggregator folds homomorphically encrypted submissions into
per-room vote totals and pooled group scores without ever seeing a plaintext.
Run without a sub-command it connects its storage and event channel and waits
for SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if showVer {
			printVersion()
			return
		}

		instance := newInstance()
		jww.INFO.Printf("Started %s", instance)

		ReceiveSignal(func() {
			jww.INFO.Printf("Running %s", instance)
		}, syscall.SIGUSR1)

		<-ReceiveExitSignal()
		if err := instance.Shutdown(); err != nil {
			jww.ERROR.Printf("Failed to shut down cleanly: %+v", err)
		}
		jww.INFO.Printf("Aggregator stopped")
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately.  This is called by main.main(). It only needs to
// happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		jww.ERROR.Printf("Aggregator exiting with error: %s", err.Error())
		os.Exit(1)
	}
	jww.INFO.Printf("Aggregator exiting without error...")
}

// init is the initialization function for Cobra which defines commands
// and flags.
func init() {
	// NOTE: The point of init() is to be declarative.  There
	// is one init in each sub command. Do not put variable
	// declarations here, and ensure all the Flags are of the *P
	// variety, unless there's a very good reason not to have them
	// as local params to sub command."
	cobra.OnInitialize(initConfig, initLog)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "", "",
		"config file (default is $HOME/.elixxir/aggregator.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Verbose mode for debugging")
	rootCmd.PersistentFlags().StringVarP(&caller, "caller", "c", "",
		"Identity making the call, base64 id or name (default is the owner)")
	rootCmd.Flags().BoolVarP(&showVer, "version", "V", false,
		"Show the aggregator version information.")

	err := viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup(
		"verbose"))
	handleBindingError(err, "verbose")
}

func handleBindingError(err error, flag string) {
	if err != nil {
		jww.FATAL.Panicf("Error on binding flag \"%s\":%+v", flag, err)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	//Use default config location if none is passed
	if cfgFile == "" {
		// Find home directory.
		home, err := homedir.Dir()
		if err != nil {
			jww.ERROR.Println(err)
			os.Exit(1)
		}

		cfgFile = home + "/.elixxir/aggregator.yaml"
	}

	validConfig = true
	if _, err := os.Stat(cfgFile); err != nil {
		jww.DEBUG.Printf("Invalid config file (%s): %s", cfgFile,
			err.Error())
		validConfig = false
		return
	}

	viper.SetConfigFile(cfgFile)

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		jww.ERROR.Printf("Unable to read config file (%s): %s", cfgFile,
			err.Error())
		validConfig = false
	}
}

// initLog initializes logging thresholds and the log path.
func initLog() {
	// If verbose flag set then log more info for debugging
	if viper.GetBool("verbose") {
		jww.SetLogThreshold(jww.LevelDebug)
		jww.SetStdoutThreshold(jww.LevelDebug)
	} else {
		jww.SetLogThreshold(jww.LevelInfo)
		jww.SetStdoutThreshold(jww.LevelWarn)
	}

	if viper.Get("paths.log") != nil {
		// Create log file, overwrites if existing
		logPath := viper.GetString("paths.log")
		logFile, err := os.Create(logPath)
		if err != nil {
			fmt.Printf("Invalid or missing log path %s, "+
				"default path used.\n", logPath)
		} else {
			jww.SetLogOutput(logFile)
		}
	}
}

// newInstance builds the aggregator described by the config file
func newInstance() *internal.Instance {
	if !validConfig {
		jww.FATAL.Panicf("Invalid Config File %s", cfgFile)
	}

	params, err := conf.NewParams(viper.GetViper())
	if err != nil {
		jww.FATAL.Panicf("Failed to parse params: %+v", err)
	}
	def, err := params.ConvertToDefinition()
	if err != nil {
		jww.FATAL.Panicf("Failed to build definition: %+v", err)
	}
	instance, err := internal.CreateInstance(def)
	if err != nil {
		jww.FATAL.Panicf("Failed to start aggregator: %+v", err)
	}
	return instance
}

// getCaller returns the identity given with --caller, or the owner
func getCaller(instance *internal.Instance) (*id.ID, error) {
	if caller == "" {
		return instance.GetDefinition().Owner, nil
	}
	return collection.ParseID(caller, id.User)
}

// classify prefixes a refusal with its kind so scripts can tell them apart
func classify(err error) error {
	if err == nil {
		return nil
	}
	return errors.WithMessagef(err, "%s error", collection.KindOf(err))
}
