package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/assignment-verifier/constants"
	"github.com/joseph-ayodele/assignment-verifier/internal/common"
	"github.com/joseph-ayodele/assignment-verifier/internal/extract"
)

type materials struct {
	Question       string
	Supporting     string
	SupportingDocs int
	FinalOutput    string
	Signals        *extract.CodeSignals
	Warnings       []string
}

// gather validates the request and turns every upload into text.
func (p *Processor) gather(ctx context.Context, req Request, log *slog.Logger) (materials, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.extract")
	defer span.End()

	var m materials

	v := common.NewValidator()
	v.Field("student_name", req.Session.StudentName, common.Required)
	if err := common.ValidateAndReturnError(v); err != nil {
		return m, err
	}

	question, err := p.question(ctx, req)
	if err != nil {
		return m, err
	}
	m.Question = question

	if req.FinalOutput == nil || req.FinalOutput.Size() == 0 {
		return m, common.ValidationFailed(common.CodeValidation, "please upload your final output")
	}
	if err := p.checkUpload(constants.SlotFinalOutput, *req.FinalOutput); err != nil {
		return m, err
	}
	final, err := p.Extractor.Extract(ctx, *req.FinalOutput)
	if err != nil {
		return m, common.ValidationFailed(common.CodeExtraction, fmt.Sprintf("could not read final output %q: %v", req.FinalOutput.Name, err))
	}
	sig, isCode, err := extract.InspectCode(*req.FinalOutput)
	switch {
	case err != nil:
		log.Warn("pipeline.extract.code_inspect_failed", "name", req.FinalOutput.Name, "error", err)
		m.Warnings = append(m.Warnings, fmt.Sprintf("final output %s could not be analysed: %v", req.FinalOutput.Name, err))
	case isCode:
		m.Signals = &sig
		if final == "" {
			final = sig.Source
		}
	}
	m.FinalOutput = final

	var b strings.Builder
	for _, doc := range req.Supporting {
		if err := p.checkUpload(constants.SlotSupporting, doc); err != nil {
			log.Warn("pipeline.extract.supporting_skipped", "name", doc.Name, "reason", err)
			m.Warnings = append(m.Warnings, fmt.Sprintf("supporting document %s skipped: %s", doc.Name, messageOf(err)))
			continue
		}
		text, err := p.Extractor.Extract(ctx, doc)
		if err != nil {
			log.Warn("pipeline.extract.supporting_unreadable", "name", doc.Name, "error", err)
			m.Warnings = append(m.Warnings, fmt.Sprintf("supporting document %s could not be read", doc.Name))
			continue
		}
		b.WriteString(text)
		b.WriteString("\n\n")
		m.SupportingDocs++
	}
	m.Supporting = b.String()
	return m, nil
}

func (p *Processor) question(ctx context.Context, req Request) (string, error) {
	if strings.TrimSpace(req.QuestionText) != "" {
		return req.QuestionText, nil
	}
	if req.QuestionFile == nil || req.QuestionFile.Size() == 0 {
		return "", common.ValidationFailed(common.CodeValidation, "please provide the assignment question")
	}
	if err := p.checkUpload(constants.SlotQuestion, *req.QuestionFile); err != nil {
		return "", err
	}
	text, err := p.Extractor.Extract(ctx, *req.QuestionFile)
	if err != nil {
		return "", common.ValidationFailed(common.CodeExtraction, fmt.Sprintf("could not read question file %q: %v", req.QuestionFile.Name, err))
	}
	if strings.TrimSpace(text) == "" {
		return "", common.ValidationFailed(common.CodeValidation, "the question file contains no readable text")
	}
	return text, nil
}

// checkUpload enforces the size cap and the slot's extension/MIME allow-list.
func (p *Processor) checkUpload(slot constants.Slot, u extract.Upload) error {
	if u.Size() > p.Cfg.MaxUploadBytes {
		return common.ValidationFailed(common.CodeUploadRejected,
			fmt.Sprintf("%s is too large (%d bytes, limit %d)", u.Name, u.Size(), p.Cfg.MaxUploadBytes))
	}
	rule, ok := constants.RuleFor(slot)
	if !ok || !rule.Allows(u.Name, u.ContentType) {
		return common.ValidationFailed(common.CodeUploadRejected,
			fmt.Sprintf("%s has a file type not accepted for %s (%s)", u.Name, slot, u.ContentType))
	}
	return nil
}

func messageOf(err error) string {
	var ae *common.AppError
	if errors.As(err, &ae) {
		return ae.Message
	}
	return err.Error()
}
