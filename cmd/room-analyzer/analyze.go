package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tarunsinghofficial/visionbackend/internal/utils"
)

var outDir string

func init() {
	analyzeCmd.Flags().StringVarP(&outDir, "out", "o", "out", "output directory")
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image|dir>",
	Short: "Analyze a room photo or every photo in a directory",
	Long: `Analyze room photos and write, for each input, <name>_annotated.jpg with
the detected objects boxed and <name>_analysis.json with the full result.

Examples:
  # Analyze one photo
  room-analyzer analyze living.jpg

  # Analyze a directory into ./reports
  room-analyzer analyze photos/ -o reports`,
	Args: cobra.ExactArgs(1),
	RunE: runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	in := args[0]

	var inputs []string
	switch {
	case utils.DirExists(in):
		files, err := utils.ListImageFiles(in)
		if err != nil {
			return fmt.Errorf("failed to list images in %s: %w", in, err)
		}
		if len(files) == 0 {
			return fmt.Errorf("no images found in %s", in)
		}
		inputs = files
	case utils.FileExists(in):
		inputs = []string{in}
	default:
		return fmt.Errorf("input %s does not exist", in)
	}

	a, _, logger, err := newAnalyzer()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer a.Close()

	failed := 0
	for _, path := range inputs {
		out, err := a.ProcessImageFile(cmd.Context(), path, outDir)
		if err != nil {
			failed++
			logger.Error("analysis failed", zap.String("file", path), zap.Error(err))
			continue
		}

		cmd.Printf("%s: %s, %s style, score %.1f, %d objects, %d recommendations (%s)\n",
			filepath.Base(path),
			out.Analysis.RoomType,
			out.Analysis.StyleDetected,
			out.Analysis.ImprovementScore,
			len(out.DetectedObjects),
			len(out.Recommendations),
			out.Outcome.Source,
		)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d images failed", failed, len(inputs))
	}
	return nil
}
