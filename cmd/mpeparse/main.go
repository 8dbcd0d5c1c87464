// Package main is the entry point for the mpeparse CLI
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/james-see/mpeparse/pkg/api"
	"github.com/james-see/mpeparse/pkg/converter"
	"github.com/james-see/mpeparse/pkg/live"
	"github.com/james-see/mpeparse/pkg/mpe"
	"github.com/james-see/mpeparse/pkg/tui"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	outputFile string
	jsonOutput bool
	verbose    bool
	portName   string
	channels   []uint
	serverPort int
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "mpeparse",
	Short: "Decode MIDI into MPE note-expression events",
	Long: `mpeparse decodes short MIDI messages into MPE note-expression events:
note on/off, pitch bend in semitones, pressure, slide (CC 74) and
generic controllers.

Examples:
  mpeparse decode 913C64 "E2 00 40" B34A7F
  mpeparse file song.mid -o song.json
  mpeparse render song.json -o song.mid
  mpeparse listen --port "MPE Controller" --channel 1 --channel 2
  mpeparse tui
  mpeparse serve --port 8080`,
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if verbose {
			logrus.SetLevel(logrus.DebugLevel)
		}
	},
}

var decodeCmd = &cobra.Command{
	Use:   "decode <hex>...",
	Short: "Decode hex-encoded MIDI messages",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDecode,
}

var fileCmd = &cobra.Command{
	Use:   "file <input.mid>",
	Short: "Decode a MIDI file to a JSON event timeline",
	Args:  cobra.ExactArgs(1),
	RunE:  runFile,
}

var renderCmd = &cobra.Command{
	Use:   "render <events.json>",
	Short: "Render a JSON event timeline to a MIDI file",
	Args:  cobra.ExactArgs(1),
	RunE:  runRender,
}

var convertCmd = &cobra.Command{
	Use:   "convert <input>",
	Short: "Auto-detect and convert between formats",
	Long:  `Automatically detects input format and converts to the output format based on file extension.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runConvert,
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI input ports",
	RunE:  runPorts,
}

var listenCmd = &cobra.Command{
	Use:   "listen",
	Short: "Decode events from a MIDI input port",
	RunE:  runListen,
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive terminal UI",
	RunE:  runTUI,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the API server",
	RunE:  runServe,
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")

	decodeCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print events as JSON")

	fileCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .json file path")

	renderCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output .mid file path")

	convertCmd.Flags().StringVarP(&outputFile, "output", "o", "", "Output file path (required)")
	_ = convertCmd.MarkFlagRequired("output")

	listenCmd.Flags().StringVarP(&portName, "port", "p", "", "Input port name (default: first port)")
	listenCmd.Flags().UintSliceVarP(&channels, "channel", "c", nil, "Only show these channels (0-15)")
	listenCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print events as JSON")

	serveCmd.Flags().IntVarP(&serverPort, "port", "p", 8080, "Server port")

	rootCmd.AddCommand(decodeCmd)
	rootCmd.AddCommand(fileCmd)
	rootCmd.AddCommand(renderCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(portsCmd)
	rootCmd.AddCommand(listenCmd)
	rootCmd.AddCommand(tuiCmd)
	rootCmd.AddCommand(serveCmd)
}

func getOutputPath(input, defaultExt string) string {
	if outputFile != "" {
		return outputFile
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + defaultExt
}

func printEvent(e mpe.Event) error {
	if !jsonOutput {
		fmt.Println(e)
		return nil
	}
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func runDecode(cmd *cobra.Command, args []string) error {
	for _, arg := range args {
		m, err := api.ParseHexMessage(arg)
		if err != nil {
			return err
		}
		e, ok := mpe.Parse(m)
		if !ok {
			logrus.Debugf("%v: no expression event", m)
			continue
		}
		if err := printEvent(e); err != nil {
			return err
		}
	}
	return nil
}

func runFile(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, ".json")

	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	result, err := converter.New().MIDIToEvents(data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, result, 0644); err != nil {
		return err
	}

	fmt.Printf("Decoded %s -> %s\n", input, output)
	return nil
}

func runRender(cmd *cobra.Command, args []string) error {
	input := args[0]
	output := getOutputPath(input, ".mid")

	data, err := os.ReadFile(input)
	if err != nil {
		return err
	}

	result, err := converter.New().EventsToMIDI(data)
	if err != nil {
		return err
	}

	if err := os.WriteFile(output, result, 0644); err != nil {
		return err
	}

	fmt.Printf("Rendered %s -> %s\n", input, output)
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]

	fmt.Printf("Converting %s -> %s\n", input, outputFile)
	if err := converter.New().ConvertFile(input, outputFile); err != nil {
		return err
	}
	fmt.Println("Conversion complete!")
	return nil
}

func runPorts(cmd *cobra.Command, args []string) error {
	defer gomidi.CloseDriver()

	ports := live.ListPorts()
	if len(ports) == 0 {
		fmt.Println("No MIDI input ports found")
		return nil
	}
	for i, p := range ports {
		fmt.Printf("  %d: %s\n", i, p)
	}
	return nil
}

func runListen(cmd *cobra.Command, args []string) error {
	defer gomidi.CloseDriver()

	name := portName
	if name == "" {
		ports := live.ListPorts()
		if len(ports) == 0 {
			return fmt.Errorf("no MIDI input ports found")
		}
		name = ports[0]
	}

	var opts []live.SubscriptionFilter
	if len(channels) > 0 {
		chs := make([]uint8, 0, len(channels))
		for _, c := range channels {
			if c > 15 {
				return fmt.Errorf("invalid channel %d (want 0-15)", c)
			}
			chs = append(chs, uint8(c))
		}
		opts = append(opts, live.WithChannels(chs...))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	d := live.Listen(ctx, live.PortListener(name))
	events := d.Subscribe(opts...)
	logrus.Infof("listening on %q, ctrl+c to stop", name)

	for e := range events {
		if err := printEvent(e); err != nil {
			return err
		}
	}
	if n := d.Dropped(); n > 0 {
		logrus.Warnf("dropped %d events", n)
	}
	return d.Err()
}

func runTUI(cmd *cobra.Command, args []string) error {
	defer gomidi.CloseDriver()
	return tui.Run()
}

func runServe(cmd *cobra.Command, args []string) error {
	fmt.Printf("Starting API server on port %d...\n", serverPort)
	return api.StartServer(serverPort)
}
