package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mkarlsen/qrvid"
	"github.com/mkarlsen/qrvid/internal/bench"
	"github.com/mkarlsen/qrvid/internal/logging"
	"github.com/mkarlsen/qrvid/internal/reporter"
	"github.com/mkarlsen/qrvid/internal/util"
)

// codecFlags holds the flags shared by encode, decode, and roundtrip.
type codecFlags struct {
	level     string
	chunkSize int
	fps       int
	parallel  bool
	workers   int
	identity  bool
	boxSize   int
	border    int
	verbose   bool
	logDir    string
	noLog     bool
}

func (f *codecFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.level, "level", "M", "Error correction level: L, M, Q, or H")
	fs.IntVar(&f.chunkSize, "chunk-size", 0, "Bytes per symbol; 0 means the level capacity")
	fs.IntVar(&f.fps, "fps", 24, "Container frame rate")
	fs.BoolVar(&f.parallel, "parallel", false, "Encode and decode frames on a worker pool")
	fs.IntVar(&f.workers, "workers", 0, "Worker count; 0 means the logical core count")
	fs.BoolVar(&f.identity, "identity", false, "Skip base64 and feed raw bytes to the symbol encoder")
	fs.IntVar(&f.boxSize, "box-size", 10, "Pixels per QR module")
	fs.IntVar(&f.border, "border", 4, "Quiet zone: 0 disables it, any positive value draws a 4-module border")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "Enable verbose output")
	fs.StringVar(&f.logDir, "log-dir", "", "Log directory (defaults to $XDG_STATE_HOME/qrvid/logs, or ~/.local/state/qrvid/logs)")
	fs.BoolVar(&f.noLog, "no-log", false, "Disable log file creation")
}

func (f *codecFlags) codec() (*qrvid.Codec, error) {
	level, err := qrvid.ParseLevel(f.level)
	if err != nil {
		return nil, err
	}

	opts := []qrvid.Option{
		qrvid.WithErrorCorrection(level),
		qrvid.WithFramesPerSecond(f.fps),
		qrvid.WithBoxSize(f.boxSize),
		qrvid.WithBorder(f.border),
		qrvid.WithReporter(reporter.NewTerminalReporter(f.verbose)),
	}
	if f.chunkSize > 0 {
		opts = append(opts, qrvid.WithChunkSize(f.chunkSize))
	}
	if f.parallel {
		opts = append(opts, qrvid.WithParallelism(f.workers))
	}
	if f.identity {
		opts = append(opts, qrvid.WithIdentitySerializer())
	}
	if f.verbose {
		opts = append(opts, qrvid.WithVerbose())
	}

	return qrvid.New(opts...)
}

func (f *codecFlags) logger() (*logging.Logger, error) {
	logDir := f.logDir
	if logDir == "" {
		logDir = logging.DefaultLogDir()
	}
	return logging.Setup(logDir, f.verbose, f.noLog)
}

func newEncodeCmd() *cobra.Command {
	var flags codecFlags
	var inputPath, outputPath string

	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode a file into a QR video",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" || outputPath == "" {
				return fmt.Errorf("both --input and --output are required")
			}

			log, err := flags.logger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Close() }()

			codec, err := flags.codec()
			if err != nil {
				return err
			}

			payload, err := util.ReadBinaryFile(inputPath)
			if err != nil {
				return err
			}

			log.Info("Encoding %s (%s) to %s", inputPath, util.FormatBytes(uint64(len(payload))), outputPath)
			start := time.Now()
			if err := codec.EncodeFile(cmd.Context(), payload, outputPath); err != nil {
				log.Error("Encode failed: %v", err)
				return err
			}
			log.Info("Encode finished in %s", util.FormatDuration(time.Since(start).Seconds()))

			fmt.Printf("Encoded %s into %s\n", util.FormatBytes(uint64(len(payload))), outputPath)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input file to encode")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output video path")
	return cmd
}

func newDecodeCmd() *cobra.Command {
	var flags codecFlags
	var inputPath, outputPath string

	cmd := &cobra.Command{
		Use:   "decode",
		Short: "Decode a QR video back into a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" || outputPath == "" {
				return fmt.Errorf("both --input and --output are required")
			}

			log, err := flags.logger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Close() }()

			codec, err := flags.codec()
			if err != nil {
				return err
			}

			log.Info("Decoding %s to %s", inputPath, outputPath)
			start := time.Now()
			payload, err := codec.DecodeFile(cmd.Context(), inputPath)
			if err != nil {
				log.Error("Decode failed: %v", err)
				return err
			}
			log.Info("Decode finished in %s", util.FormatDuration(time.Since(start).Seconds()))

			if err := util.WriteBinaryFile(outputPath, payload); err != nil {
				return err
			}
			fmt.Printf("Decoded %s into %s\n", util.FormatBytes(uint64(len(payload))), outputPath)
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input video path")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file for the decoded payload")
	return cmd
}

func newRoundtripCmd() *cobra.Command {
	var flags codecFlags
	var inputPath, videoPath string
	var mock bool

	cmd := &cobra.Command{
		Use:   "roundtrip",
		Short: "Encode a file to a video, decode it back, and validate",
		RunE: func(cmd *cobra.Command, args []string) error {
			if inputPath == "" {
				return fmt.Errorf("--input is required")
			}
			if videoPath == "" && !mock {
				return fmt.Errorf("--video is required unless --mock is set")
			}

			log, err := flags.logger()
			if err != nil {
				return err
			}
			defer func() { _ = log.Close() }()

			codec, err := flags.codec()
			if err != nil {
				return err
			}

			payload, err := util.ReadBinaryFile(inputPath)
			if err != nil {
				return err
			}

			res, err := codec.Roundtrip(cmd.Context(), payload, videoPath, mock)
			if err != nil {
				log.Error("Roundtrip failed: %v", err)
				return err
			}

			total := res.EncodeDuration + res.DecodeDuration
			log.Info("Roundtrip of %d bytes over %d frames in %s", len(payload), res.FrameCount, total)

			rep := reporter.NewTerminalReporter(flags.verbose)
			rep.RunComplete(reporter.RunSummary{
				Operation:    "Roundtrip",
				PayloadBytes: uint64(len(payload)),
				FrameCount:   res.FrameCount,
				Duration:     total,
				Throughput:   util.FormatThroughput(uint64(len(payload)), total.Seconds()),
				Validation:   "passed",
			})
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVarP(&inputPath, "input", "i", "", "Input file to round-trip")
	cmd.Flags().StringVar(&videoPath, "video", "", "Container path for the intermediate video")
	cmd.Flags().BoolVar(&mock, "mock", false, "Skip the container and pass frames through memory")
	return cmd
}

func newBenchCmd() *cobra.Command {
	var scenarioPath, outputPath, workDir string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Run the benchmark scenario sweep and write CSV results",
		RunE: func(cmd *cobra.Command, args []string) error {
			scenarios := bench.DefaultScenarios()
			if scenarioPath != "" {
				var err error
				scenarios, err = bench.LoadScenarios(scenarioPath)
				if err != nil {
					return err
				}
			}

			runner := &bench.Runner{
				WorkDir:  workDir,
				Reporter: reporter.NewTerminalReporter(verbose),
			}

			results, err := runner.Run(cmd.Context(), scenarios)
			if err != nil {
				return err
			}

			out := os.Stdout
			if outputPath != "" {
				f, err := os.Create(outputPath)
				if err != nil {
					return err
				}
				defer func() { _ = f.Close() }()
				out = f
			}
			if err := bench.WriteCSV(out, results); err != nil {
				return err
			}
			if outputPath != "" {
				fmt.Printf("Wrote %d results to %s\n", len(results), outputPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&scenarioPath, "scenarios", "s", "", "Scenario JSON file (defaults to the built-in sweep)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "CSV output path (defaults to stdout)")
	cmd.Flags().StringVar(&workDir, "work-dir", "", "Directory for intermediate videos")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	return cmd
}
