package main

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/leadme-speech/fatigue-pipeline/analysis"
	"github.com/leadme-speech/fatigue-pipeline/audio"
	"github.com/leadme-speech/fatigue-pipeline/clients"
	cfg "github.com/leadme-speech/fatigue-pipeline/config"
	"github.com/leadme-speech/fatigue-pipeline/vad"
)

var (
	flagConfig      string
	flagAudio       string
	flagSegments    int
	flagMinDuration float64
	flagOut         string
	flagSTTURL      string
)

func main() {
	root := &cobra.Command{
		Use:   "fatigue-pipeline",
		Short: "Segmented speech-rate decline analysis for vocal fatigue detection",
	}
	root.PersistentFlags().StringVarP(&flagConfig, "config", "c", "", "path to config.yaml")

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Analyze one recording for speech-rate decline",
		RunE:  runAnalyze,
	}
	analyzeCmd.Flags().StringVarP(&flagAudio, "audio", "a", "", "path to WAV recording (required)")
	analyzeCmd.Flags().IntVarP(&flagSegments, "segments", "n", 0, "segment count (overrides config)")
	analyzeCmd.Flags().Float64Var(&flagMinDuration, "min-duration", 0, "minimum duration in seconds (overrides config)")
	analyzeCmd.Flags().StringVarP(&flagOut, "out", "o", "", "output directory (overrides config)")
	analyzeCmd.Flags().StringVar(&flagSTTURL, "stt-url", "", "transcription service base URL (overrides config)")
	_ = analyzeCmd.MarkFlagRequired("audio")

	configCmd := &cobra.Command{Use: "config", Short: "Configuration helpers"}
	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write the default config.yaml to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := cfg.Default().YAML()
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(out)
			return err
		},
	})

	root.AddCommand(analyzeCmd, configCmd)
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	conf, err := cfg.Load(flagConfig)
	if err != nil {
		return err
	}
	if flagSegments > 0 {
		conf.Analysis.Segments = flagSegments
	}
	if flagMinDuration > 0 {
		conf.Analysis.MinDurationSeconds = flagMinDuration
	}
	if flagOut != "" {
		conf.Paths.Outputs = flagOut
	}
	if flagSTTURL != "" {
		conf.Services.STT.URL = flagSTTURL
	}

	log := newLogger(conf.Pipeline.LogLvl)

	sig, err := audio.DecodeFile(flagAudio)
	if err != nil {
		return err
	}

	var transcriber clients.Transcriber
	if conf.Services.STT.URL != "" {
		transcriber = clients.NewHTTP(conf.Services.STT.URL)
	} else {
		log.Warn("no transcription service configured, using duration-based syllable estimates")
	}

	a := &analysis.Analyzer{
		Segmenter: &analysis.Segmenter{
			Detector:           vad.NewEnergyDetector(conf.Analysis.SilenceThresholdDB),
			Transcriber:        transcriber,
			Log:                log,
			SyllablesPerSecond: conf.Analysis.SyllablesPerSecond,
			MinVoicedPercent:   conf.Analysis.MinVoicedPercent,
			Concurrency:        conf.Analysis.Concurrency,
		},
		Fitter: &analysis.Fitter{
			Log:           log,
			MinPoints:     conf.Analysis.MinValidSegments,
			MaxIterations: conf.Analysis.MaxFitIterations,
		},
		Log:                log,
		SegmentCount:       conf.Analysis.Segments,
		MinDurationSeconds: conf.Analysis.MinDurationSeconds,
	}

	res, err := a.Analyze(cmd.Context(), sig)
	if err != nil {
		return err
	}

	sid, resultPath, _, err := analysis.Persist(conf.Paths.Outputs, flagAudio, res)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{"session": sid, "path": resultPath}).Info("result written")

	fmt.Fprintf(cmd.OutOrStdout(), "status: %s\n", res.Status)
	if res.Indicators != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "average SPM: %.1f\ninterpretation: %s\n",
			res.Indicators.AverageSPM, res.Indicators.Interpretation)
	}
	return nil
}

func newLogger(level string) *logrus.Logger {
	log := logrus.New()
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	log.SetLevel(lvl)
	return log
}
