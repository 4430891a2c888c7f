//
// Copyright (c) 2026 Markku Rossi
//
// All rights reserved.
//

package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/markkurossi/obliv/dataset"
	"github.com/markkurossi/obliv/dealer"
	"github.com/markkurossi/obliv/env"
	"github.com/markkurossi/obliv/gmw"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	logLevel string
	verbose  bool
)

func main() {
	command := &cobra.Command{
		Use:           "oblivious",
		Short:         "Oblivious algorithms over secret-shared data",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	command.PersistentFlags().StringVar(&logLevel, "log", "info",
		"log level (trace, debug, info, warn, error)")
	command.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"print engine counters and timing")

	addDealerCmd(command)
	addPartyCmd(command)
	addLocalCmd(command)

	if err := command.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "oblivious: %v\n", err)
		os.Exit(1)
	}
}

func newLogger() (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(logLevel)
	if err != nil {
		return zerolog.Nop(), err
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out: os.Stderr,
	}).Level(level).With().Timestamp().Logger(), nil
}

func loadConfig(path string) (*env.Config, error) {
	config, err := env.Load(path)
	if err != nil {
		return nil, err
	}
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	config.Logger = &logger
	return config, nil
}

func appNames() string {
	var names []string
	for name := range applications {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}

func lookupApp(name string) (Application, error) {
	app, ok := applications[name]
	if !ok {
		return nil, fmt.Errorf("unknown application '%s', expected one of: %s",
			name, appNames())
	}
	return app, nil
}

// addDealerCmd runs the commodity server.
func addDealerCmd(command *cobra.Command) {
	var configFile string

	dealerCmd := &cobra.Command{
		Use:   "dealer",
		Short: "Run the trusted dealer",
		Long:  "Run the trusted dealer that provides multiplication triples to all parties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			config, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			d, err := dealer.Listen(context.Background(), config)
			if err != nil {
				return err
			}
			err = d.Serve()
			if cerr := d.Close(); err == nil {
				err = cerr
			}
			return err
		},
	}
	dealerCmd.Flags().StringVarP(&configFile, "config", "c", "",
		"configuration file")
	dealerCmd.MarkFlagRequired("config")

	command.AddCommand(dealerCmd)
}

// addPartyCmd runs one computing party.
func addPartyCmd(command *cobra.Command) {
	var configFile string
	var id int
	var appName string
	var inputFile string
	var opts Options

	partyCmd := &cobra.Command{
		Use:   "party",
		Short: "Run a computing party",
		Long:  "Run one computing party connected to the dealer and to all other parties",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := lookupApp(appName)
			if err != nil {
				return err
			}
			config, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			var input []uint32
			if len(inputFile) > 0 {
				input, err = dataset.ReadFile(inputFile)
				if err != nil {
					return err
				}
			}
			e, err := gmw.Connect(context.Background(), config, id)
			if err != nil {
				return err
			}
			result, err := app(e, config, input, opts)
			if err != nil {
				e.Abort()
				return err
			}
			if err := e.Finish(); err != nil {
				return err
			}
			result.Print(os.Stdout)
			if verbose {
				printEngine(e)
			}
			return nil
		},
	}
	partyCmd.Flags().StringVarP(&configFile, "config", "c", "",
		"configuration file")
	partyCmd.Flags().IntVarP(&id, "id", "i", 0, "party ID")
	partyCmd.Flags().StringVarP(&appName, "app", "a", "stats",
		fmt.Sprintf("application (%s)", appNames()))
	partyCmd.Flags().StringVar(&inputFile, "input", "", "input dataset file")
	partyCmd.Flags().StringVar(&opts.Divider, "divider", "",
		"Bristol division circuit for the mean")
	partyCmd.MarkFlagRequired("config")

	command.AddCommand(partyCmd)
}

// addLocalCmd runs all parties and the dealer in one process.
func addLocalCmd(command *cobra.Command) {
	var numParties int
	var appName string
	var inputFiles []string
	var config env.Config
	var opts Options

	localCmd := &cobra.Command{
		Use:   "local",
		Short: "Run all parties in one process",
		Long:  "Run the dealer and all parties in one process connected with in-memory pipes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := lookupApp(appName)
			if err != nil {
				return err
			}
			if len(inputFiles) > numParties {
				return fmt.Errorf("%d input files for %d parties",
					len(inputFiles), numParties)
			}
			inputs := make([][]uint32, numParties)
			config.Datasets = make([]int, numParties)
			for id, file := range inputFiles {
				inputs[id], err = dataset.ReadFile(file)
				if err != nil {
					return err
				}
				config.Datasets[id] = len(inputs[id])
			}
			if err := config.Validate(); err != nil {
				return err
			}
			logger, err := newLogger()
			if err != nil {
				return err
			}
			config.Logger = &logger

			var m sync.Mutex
			var result *Result
			var engine *gmw.Engine
			err = gmw.Simulate(&config, numParties, func(e *gmw.Engine) error {
				r, err := app(e, &config, inputs[e.ID()], opts)
				if err != nil {
					return err
				}
				if e.ID() == 0 {
					m.Lock()
					result = r
					engine = e
					m.Unlock()
				}
				return nil
			})
			if err != nil {
				return err
			}
			result.Print(os.Stdout)
			if verbose {
				printEngine(engine)
			}
			return nil
		},
	}
	localCmd.Flags().IntVarP(&numParties, "parties", "n", 2,
		"number of parties")
	localCmd.Flags().StringVarP(&appName, "app", "a", "stats",
		fmt.Sprintf("application (%s)", appNames()))
	localCmd.Flags().StringSliceVar(&inputFiles, "input", nil,
		"input dataset files, one per party")
	localCmd.Flags().IntVarP(&config.Width, "width", "w", env.DefaultWidth,
		"value bit width")
	localCmd.Flags().Uint64Var(&config.Grid.Low, "low", 0,
		"lowest auction price")
	localCmd.Flags().Uint64Var(&config.Grid.Step, "step", 1,
		"auction price step")
	localCmd.Flags().IntVar(&config.Grid.Size, "grid", 0,
		"number of auction prices")
	localCmd.Flags().StringVar(&opts.Divider, "divider", "",
		"Bristol division circuit for the mean")

	command.AddCommand(localCmd)
}

func printEngine(e *gmw.Engine) {
	fmt.Println()
	e.Stats().Print(os.Stdout)
	fmt.Println()
	e.Timing().Print(os.Stdout, e.IOStats())
}
