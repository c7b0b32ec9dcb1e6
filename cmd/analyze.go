package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/document"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/logger"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/matcher"
	"github.com/kulkarni-aish-northeastern/resume-job-description-matcher/internal/render"
)

const (
	PromptFromFile = "Load from file"
	PromptPaste    = "Type or paste text"

	outputJSON = "json"
	outputText = "text"

	defaultMaxFileBytes = 10 << 20
)

var errFileTooLarge = errors.New("file too large")

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Compare a resume with a job description and print the report",
	Example: `  matcher analyze --resume cv.pdf --jd-text "Looking for Go and Kubernetes"
  matcher analyze --resume cv.docx --jd jd.txt --output text`,
	Run: func(cmd *cobra.Command, _ []string) {
		analyze(cmd)
	},
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().String("resume", "", "resume file (.pdf, .docx or .txt)")
	analyzeCmd.Flags().String("resume-text", "", "resume as plain text")
	analyzeCmd.Flags().String("jd", "", "job description file (.pdf, .docx or .txt)")
	analyzeCmd.Flags().String("jd-text", "", "job description as plain text")
	analyzeCmd.Flags().StringP("output", "o", outputJSON, "output format: json or text")
	analyzeCmd.Flags().BoolP("interactive", "i", false, "prompt for inputs that were not given")
	analyzeCmd.Flags().Int64("max-bytes", defaultMaxFileBytes, "maximum size of an input file")

	analyzeCmd.MarkFlagsMutuallyExclusive("resume", "resume-text")
	analyzeCmd.MarkFlagsMutuallyExclusive("jd", "jd-text")
}

func analyze(cmd *cobra.Command) {
	ctx := context.Background()

	logger, err := logger.New(logger.Options{JSON: viper.GetBool("json"), Debug: viper.GetBool("debug"), Command: cmd.Name()})
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	output, _ := cmd.Flags().GetString("output")
	if output != outputJSON && output != outputText {
		logger.Fatal("unsupported output format", zap.String("output", output))
	}
	interactive, _ := cmd.Flags().GetBool("interactive")
	maxBytes, _ := cmd.Flags().GetInt64("max-bytes")

	resume, err := resolveInput(cmd, "resume", "Resume", interactive, maxBytes)
	if err != nil {
		logger.Fatal("reading the resume", zap.Error(err))
	}
	jd, err := resolveInput(cmd, "jd", "Job description", interactive, maxBytes)
	if err != nil {
		logger.Fatal("reading the job description", zap.Error(err))
	}

	analyzer, release, err := newAnalyzer(ctx, config, false, logger)
	if err != nil {
		logger.Fatal("building the analyzer", zap.Error(err))
	}
	defer release()

	report, err := analyzer.Analyze(ctx, resume, jd)
	if err != nil {
		logger.Fatal("analysis failed", zap.Error(err))
	}

	switch output {
	case outputText:
		fmt.Fprint(os.Stdout, render.Text(report, analyzer.Recognizer()))
	default:
		if err := render.JSON(os.Stdout, report); err != nil {
			logger.Fatal("writing the report", zap.Error(err))
		}
	}
}

// resolveInput reads --<flag> or --<flag>-text. When neither is set and
// interactive is on, the user is prompted.
func resolveInput(cmd *cobra.Command, flag, label string, interactive bool, maxBytes int64) (matcher.Input, error) {
	path, _ := cmd.Flags().GetString(flag)
	if strings.TrimSpace(path) != "" {
		return fileInput(path, maxBytes)
	}

	if cmd.Flags().Changed(flag + "-text") {
		text, _ := cmd.Flags().GetString(flag + "-text")
		return matcher.TextInput(text), nil
	}

	if !interactive {
		return matcher.Input{}, fmt.Errorf("%w: pass --%s or --%s-text", matcher.ErrMissingInput, flag, flag)
	}

	return promptInput(label, maxBytes)
}

func promptInput(label string, maxBytes int64) (matcher.Input, error) {
	source := promptui.Select{
		Label: label,
		Items: []string{PromptFromFile, PromptPaste},
	}

	_, choice, err := source.Run()
	if err != nil {
		return matcher.Input{}, err
	}

	if choice == PromptFromFile {
		pathPrompt := promptui.Prompt{
			Label:    label + " file",
			Validate: validateDocumentPath,
		}
		path, err := pathPrompt.Run()
		if err != nil {
			return matcher.Input{}, err
		}
		return fileInput(path, maxBytes)
	}

	textPrompt := promptui.Prompt{
		Label: label + " text",
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("text is empty")
			}
			return nil
		},
	}
	text, err := textPrompt.Run()
	if err != nil {
		return matcher.Input{}, err
	}
	return matcher.TextInput(text), nil
}

func validateDocumentPath(path string) error {
	path = strings.TrimSpace(path)
	if _, err := document.FormatFromFilename(path); err != nil {
		return err
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory", path)
	}
	return nil
}

func fileInput(path string, maxBytes int64) (matcher.Input, error) {
	path = strings.TrimSpace(path)

	// Reject unknown extensions before touching the file.
	if _, err := document.FormatFromFilename(path); err != nil {
		return matcher.Input{}, err
	}

	info, err := os.Stat(path)
	if err != nil {
		return matcher.Input{}, err
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		return matcher.Input{}, fmt.Errorf("%w: %s is %d bytes, limit is %d", errFileTooLarge, path, info.Size(), maxBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return matcher.Input{}, err
	}

	doc, err := document.New(filepath.Base(path), data)
	if err != nil {
		return matcher.Input{}, err
	}
	return matcher.DocumentInput(doc), nil
}
