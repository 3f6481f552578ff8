package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"beatcannon/internal/analysis"
	"beatcannon/internal/catalog"
	"beatcannon/internal/config"
	"beatcannon/internal/ffmpeg"
	"beatcannon/internal/logging"
	"beatcannon/internal/montage"
	"beatcannon/pkg/util"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "beatcannon",
	Short: "beatcannon - beat-synced montage generator",
	Long:  "Analyzes a music track into beat-aligned segments, then fills each segment with a random center-cropped clip from a source library.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.Init(verbose)

		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		cmd.SetContext(config.WithConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./beatcannon.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(assembleCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [audio file]",
	Short: "Analyze a track into a beat-aligned segment plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		audioPath := args[0]

		if !util.FileExists(audioPath) {
			return fmt.Errorf("file '%s' not found", audioPath)
		}

		exec, err := ffmpeg.New(log.Logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath, cfg.FFmpeg.Threads)
		if err != nil {
			return err
		}

		analyzer := analysis.NewAnalyzer(log.Logger, exec, cfg.Analyze.SampleRate, analysis.FeatureConfig{
			FrameSize: cfg.Analyze.FrameSize,
			HopSize:   cfg.Analyze.HopSize,
		})

		result, err := analyzer.Analyze(cmd.Context(), audioPath)
		if err != nil {
			return fmt.Errorf("error analyzing audio: %w", err)
		}

		jsonPath, err := analysis.Save(result, audioPath)
		if err != nil {
			return err
		}

		fmt.Printf("Analysis complete! Results saved to: %s\n", jsonPath)
		fmt.Printf("Detected tempo: %.1f BPM\n", result.Tempo)
		fmt.Printf("Total beats: %d\n", result.TotalBeats)
		fmt.Printf("Generated segments: %d\n", len(result.Segments))
		fmt.Printf("Average energy level: %.2f\n", result.AverageEnergy)
		return nil
	},
}

var (
	sourceFolders string
	outputPath    string
	outputWidth   int
	outputHeight  int
	audioPath     string
	extensions    string
	workDirFlag   string
	workers       int
	seed          int64
)

var assembleCmd = &cobra.Command{
	Use:   "assemble [segment plan]",
	Short: "Assemble the montage video from a segment plan",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromContext(cmd.Context())
		ctx := cmd.Context()

		plan, err := analysis.Load(args[0])
		if err != nil {
			return err
		}

		log.Info().
			Str("source", plan.FileName).
			Float64("tempo", plan.Tempo).
			Int("segments", len(plan.Segments)).
			Msg("segment plan loaded")

		if outputWidth <= 0 {
			outputWidth = cfg.Assemble.Width
		}
		if outputHeight <= 0 {
			outputHeight = cfg.Assemble.Height
		}

		extList := cfg.Assemble.Extensions
		if extensions != "" {
			extList = strings.Split(extensions, ",")
		}

		sources, err := catalog.Find(log.Logger, strings.Split(sourceFolders, ","), extList)
		if err != nil {
			return err
		}

		exec, err := ffmpeg.New(log.Logger, cfg.FFmpeg.BinaryPath, cfg.FFmpeg.ProbePath, cfg.FFmpeg.Threads)
		if err != nil {
			return err
		}

		workdir, err := montage.NewWorkdir(log.Logger, workDirFlag)
		if err != nil {
			return err
		}
		defer workdir.Release()

		settings := encoderSettings(cfg)
		extractor := montage.NewExtractor(log.Logger, exec, sources, workdir, montage.ExtractorConfig{
			Width:      outputWidth,
			Height:     outputHeight,
			MaxRetries: cfg.Extract.MaxRetries,
			Timeout:    time.Duration(cfg.Extract.TimeoutSeconds) * time.Second,
			Settings:   settings,
		})
		assembler := montage.NewAssembler(log.Logger, exec, extractor, workdir, settings)

		bar := progressbar.Default(int64(len(plan.Segments)), "extracting segments")
		final, err := assembler.Run(ctx, plan, montage.Options{
			OutputPath: outputPath,
			AudioPath:  audioPath,
			Workers:    workersOrDefault(cfg),
			Seed:       seed,
			OnSegment: func(montage.ExtractionResult) {
				_ = bar.Add(1)
			},
		})
		_ = bar.Finish()
		if err != nil {
			return err
		}

		fmt.Println(final)
		return nil
	},
}

func workersOrDefault(cfg *config.Config) int {
	if workers > 0 {
		return workers
	}
	return cfg.Assemble.Workers
}

func encoderSettings(cfg *config.Config) ffmpeg.EncoderSettings {
	return ffmpeg.EncoderSettings{
		VideoCodec:     cfg.Encode.VideoCodec,
		Preset:         cfg.Encode.Preset,
		CRF:            cfg.Encode.CRF,
		PixelFormat:    cfg.Encode.PixelFormat,
		ColorSpace:     cfg.Encode.ColorSpace,
		TrackTimescale: cfg.Encode.TrackTimescale,
		AudioCodec:     cfg.Encode.AudioCodec,
		AudioBitrate:   cfg.Encode.AudioBitrate,
	}
}

func init() {
	assembleCmd.Flags().StringVarP(&sourceFolders, "sources", "s", "", "comma-separated source video folders (required)")
	assembleCmd.Flags().StringVarP(&outputPath, "output", "o", "", "output video path (required)")
	assembleCmd.Flags().IntVar(&outputWidth, "width", 0, "output width (default 1920)")
	assembleCmd.Flags().IntVar(&outputHeight, "height", 0, "output height (default 1080)")
	assembleCmd.Flags().StringVar(&audioPath, "audio", "", "audio file to use as soundtrack")
	assembleCmd.Flags().StringVar(&extensions, "extensions", "", "comma-separated video extensions (default mp4,mov,mkv,avi)")
	assembleCmd.Flags().StringVar(&workDirFlag, "work-dir", "", "custom working directory (kept after the run)")
	assembleCmd.Flags().IntVar(&workers, "workers", 0, "concurrent segment extractions")
	assembleCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 = time-based)")

	_ = assembleCmd.MarkFlagRequired("sources")
	_ = assembleCmd.MarkFlagRequired("output")
}
