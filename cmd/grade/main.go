package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/assignment-verifier/constants"
	"github.com/joseph-ayodele/assignment-verifier/internal/auth"
	"github.com/joseph-ayodele/assignment-verifier/internal/common"
	"github.com/joseph-ayodele/assignment-verifier/internal/extract"
	"github.com/joseph-ayodele/assignment-verifier/internal/llm/provider"
	"github.com/joseph-ayodele/assignment-verifier/internal/pipeline"
	"github.com/joseph-ayodele/assignment-verifier/internal/report"
	repo "github.com/joseph-ayodele/assignment-verifier/internal/repository"
	"github.com/joseph-ayodele/assignment-verifier/internal/session"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type fileList []string

func (f *fileList) String() string { return strings.Join(*f, ",") }

func (f *fileList) Set(v string) error {
	*f = append(*f, v)
	return nil
}

func main() {
	var supporting fileList
	var (
		inmem        = flag.Bool("inmem", false, "record the submission in an in-memory SQLite database")
		name         = flag.String("name", "", "student name (required)")
		institution  = flag.String("institution", "", "institution")
		question     = flag.String("question", "", "assignment question text")
		questionFile = flag.String("question-file", "", "assignment question file (pdf, docx, txt)")
		final        = flag.String("final", "", "final output file (ipynb, py, pdf) (required)")
		outDir       = flag.String("out", ".", "directory for the PDF report")
		asJSON       = flag.Bool("json", false, "print the result as JSON")
		hashPassword = flag.String("hash-password", "", "print the bcrypt hash for a trainer password and exit")
	)
	flag.Var(&supporting, "supporting", "supporting document (repeatable)")
	flag.Parse()

	if *hashPassword != "" {
		if err := printPasswordHash(os.Stdout, *hashPassword); err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if *name == "" || *final == "" || (*question == "" && *questionFile == "") {
		printError("Error: --name, --final and one of --question/--question-file are required\n")
		flag.Usage()
		os.Exit(2)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: loading config: %v\n", err)
		os.Exit(2)
	}
	if *inmem {
		cfg.Database.DSN = ":memory:"
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	req := pipeline.Request{
		Session: &session.Session{
			ID:          uuid.NewString(),
			StudentName: *name,
			Institution: *institution,
			CreatedAt:   time.Now(),
		},
		QuestionText: *question,
	}
	if *questionFile != "" {
		u, err := loadUpload(*questionFile)
		if err != nil {
			printError("Error: %v\n", err)
			os.Exit(1)
		}
		req.QuestionFile = &u
	}
	fu, err := loadUpload(*final)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	req.FinalOutput = &fu
	for _, p := range supporting {
		u, err := loadUpload(p)
		if err != nil {
			logger.Warn("grade.supporting.unreadable", "path", p, "error", err)
			continue
		}
		req.Supporting = append(req.Supporting, u)
	}

	db, err := repo.Open(ctx, repo.Config{
		DSN:             cfg.Database.DSN,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		DialTimeout:     cfg.Database.DialTimeout,
	}, logger)
	if err != nil {
		printError("Error: opening database: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close(db, logger)

	scorer, err := provider.NewScorer(cfg, logger)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(2)
	}
	reports := report.NewBuilder(report.Branding{
		ProductName:  cfg.Report.ProductName,
		TrainerName:  cfg.Report.TrainerName,
		TrainerRole:  cfg.Report.TrainerRole,
		ContactEmail: cfg.Report.ContactEmail,
		Website:      cfg.Report.Website,
		LinkedIn:     cfg.Report.LinkedIn,
		Instagram:    cfg.Report.Instagram,
	}, logger)
	processor := pipeline.NewProcessor(logger, pipeline.Config{
		MaxUploadBytes: cfg.Server.MaxUploadBytes,
		ZeroFallback:   cfg.Scoring.ZeroFallback,
	}, extract.NewExtractor(logger), scorer, repo.NewSubmissionRepository(db, logger), reports)

	out, err := processor.Evaluate(ctx, req)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	reportPath := filepath.Join(*outDir, out.ReportName)
	if err := reports.WriteFile(out.ReportInput, reportPath); err != nil {
		printError("Error: writing report: %v\n", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(map[string]any{
			"submission":   out.Submission,
			"report_path":  reportPath,
			"code_signals": out.CodeSignals,
			"warnings":     out.Warnings,
		})
		return
	}
	fmt.Printf("Student:  %s\n", out.Submission.StudentName)
	fmt.Printf("Score:    %.1f / 10\n", out.Submission.Score)
	fmt.Printf("Result:   %s\n", out.Submission.EvaluationResult)
	fmt.Printf("Report:   %s\n", reportPath)
	for _, w := range out.Warnings {
		fmt.Printf("Warning:  %s\n", w)
	}
}

func loadUpload(path string) (extract.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return extract.Upload{}, fmt.Errorf("reading %s: %w", path, err)
	}
	name := filepath.Base(path)
	return extract.Upload{Name: name, ContentType: contentTypeFor(name), Data: data}, nil
}

func contentTypeFor(name string) string {
	switch constants.ExtOf(name) {
	case "pdf":
		return constants.MimePDF
	case "docx":
		return constants.MimeDOCX
	case "doc":
		return constants.MimeDOC
	case "txt":
		return constants.MimeText
	case "csv":
		return constants.MimeCSV
	case "xlsx":
		return constants.MimeXLSX
	case "png":
		return constants.MimePNG
	case "jpg", "jpeg":
		return constants.MimeJPEG
	case "py":
		return constants.MimePython
	case "ipynb":
		return constants.MimeNotebook
	default:
		return constants.MimeOctet
	}
}

// printPasswordHash writes the bcrypt hash used for TRAINER_PASSWORD_HASH.
func printPasswordHash(w io.Writer, password string) error {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, hash)
	return err
}
