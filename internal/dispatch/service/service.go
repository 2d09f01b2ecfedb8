package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/corvusHold/postal/internal/dispatch/domain"
	"github.com/corvusHold/postal/internal/dispatch/engine"
	"github.com/corvusHold/postal/internal/dispatch/extractor"
	eventsdomain "github.com/corvusHold/postal/internal/events/domain"
	senderdomain "github.com/corvusHold/postal/internal/senderconfig/domain"
)

// ErrInvalidRecipient rejects a malformed single-send address.
var ErrInvalidRecipient = errors.New("invalid recipient email")

type service struct {
	eng        *engine.Engine
	repo       domain.Repository
	senders    senderdomain.Service
	tpls       domain.Templates
	pub        eventsdomain.Publisher
	clean      domain.Cleaner
	pacing     time.Duration
	batchSize  int
	batchDelay time.Duration
}

func New(eng *engine.Engine, repo domain.Repository, senders senderdomain.Service, tpls domain.Templates, pub eventsdomain.Publisher, clean domain.Cleaner, pacing time.Duration, batchSize int, batchDelay time.Duration) domain.Service {
	if batchSize < 1 {
		batchSize = 1
	}
	return &service{
		eng:        eng,
		repo:       repo,
		senders:    senders,
		tpls:       tpls,
		pub:        pub,
		clean:      clean,
		pacing:     pacing,
		batchSize:  batchSize,
		batchDelay: batchDelay,
	}
}

// applyTemplate fills empty subject/message from a stored template and
// records the usage.
func (s *service) applyTemplate(ctx context.Context, userID uuid.UUID, templateID *uuid.UUID, subject, message string) (string, string, error) {
	if templateID == nil || s.tpls == nil {
		return subject, message, nil
	}
	tsub, tmsg, err := s.tpls.Use(ctx, userID, *templateID)
	if err != nil {
		return "", "", err
	}
	if subject == "" {
		subject = tsub
	}
	if message == "" {
		message = tmsg
	}
	return subject, message, nil
}

func (s *service) SendSingle(ctx context.Context, userID uuid.UUID, in domain.SingleInput) (domain.RunResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.To))
	if !extractor.ValidEmail(email) {
		s.clean.Remove(artifactPaths(in.Attachments)...)
		return domain.RunResult{}, fmt.Errorf("%w: %s", ErrInvalidRecipient, in.To)
	}
	cfg, configID, err := s.senders.Resolve(ctx, userID)
	if err != nil {
		s.clean.Remove(artifactPaths(in.Attachments)...)
		return domain.RunResult{}, err
	}
	subject, message, err := s.applyTemplate(ctx, userID, in.TemplateID, in.Subject, in.Message)
	if err != nil {
		s.clean.Remove(artifactPaths(in.Attachments)...)
		return domain.RunResult{}, err
	}

	res, err := s.eng.Run(ctx, engine.RunInput{
		UserID:      userID,
		ConfigID:    configID,
		Config:      cfg,
		Recipients:  []domain.RecipientRecord{{Email: email, Name: in.Name}},
		Subject:     subject,
		Message:     message,
		Attachments: in.Attachments,
		IsBulk:      false,
	})
	if err != nil {
		return domain.RunResult{}, err
	}
	s.publishOutcome(ctx, userID, res, false)
	return res, nil
}

func (s *service) SendBulkFile(ctx context.Context, userID uuid.UUID, in domain.BulkFileInput) (domain.BulkSummary, error) {
	recipients, err := extractor.FromFile(in.File)
	if err != nil {
		// extraction failed before any transport was built; artifacts
		// are cleaned immediately
		paths := append(artifactPaths(in.Attachments), in.File.Path)
		s.clean.Remove(paths...)
		return domain.BulkSummary{}, err
	}
	return s.runBulk(ctx, userID, recipients, &in.File, in.Subject, in.Message, in.Attachments, in.TemplateID, in.Batched)
}

func (s *service) SendBulkText(ctx context.Context, userID uuid.UUID, in domain.BulkTextInput) (domain.BulkSummary, error) {
	recipients := extractor.FromText(in.Text)
	if len(recipients) == 0 {
		s.clean.Remove(artifactPaths(in.Attachments)...)
		return domain.BulkSummary{}, domain.ErrNoRecipients
	}
	return s.runBulk(ctx, userID, recipients, nil, in.Subject, in.Message, in.Attachments, in.TemplateID, in.Batched)
}

func (s *service) runBulk(ctx context.Context, userID uuid.UUID, recipients []domain.RecipientRecord, file *domain.Artifact, subject, message string, attachments []domain.Artifact, templateID *uuid.UUID, batched bool) (domain.BulkSummary, error) {
	cleanAll := func() {
		paths := artifactPaths(attachments)
		if file != nil {
			paths = append(paths, file.Path)
		}
		s.clean.Remove(paths...)
	}

	cfg, configID, err := s.senders.Resolve(ctx, userID)
	if err != nil {
		cleanAll()
		return domain.BulkSummary{}, err
	}
	subject, message, err = s.applyTemplate(ctx, userID, templateID, subject, message)
	if err != nil {
		cleanAll()
		return domain.BulkSummary{}, err
	}

	runIn := engine.RunInput{
		UserID:        userID,
		ConfigID:      configID,
		Config:        cfg,
		Recipients:    recipients,
		Subject:       subject,
		Message:       message,
		Attachments:   attachments,
		RecipientFile: file,
		IsBulk:        true,
	}
	var res domain.RunResult
	if batched {
		res, err = s.eng.RunBatched(ctx, runIn)
	} else {
		res, err = s.eng.Run(ctx, runIn)
	}
	if err != nil {
		return domain.BulkSummary{}, err
	}
	s.publishOutcome(ctx, userID, res, true)

	return domain.BulkSummary{
		Total:         res.Total,
		Successful:    res.Successful,
		Failed:        res.Failed,
		EstimatedTime: s.estimate(res.Total, batched),
		Errors:        res.Errors,
		LogID:         res.LogID,
	}, nil
}

// estimate mirrors the wall-clock duration quoted to the caller, never
// less than one minute. Sequential runs pace per recipient; batched
// runs are dominated by the inter-batch delay.
func (s *service) estimate(total int, batched bool) string {
	var dur time.Duration
	if batched {
		batches := (total + s.batchSize - 1) / s.batchSize
		dur = time.Duration(batches) * s.batchDelay
	} else {
		dur = time.Duration(total) * s.pacing
	}
	mins := int((dur + time.Minute - 1) / time.Minute)
	if mins < 1 {
		mins = 1
	}
	return fmt.Sprintf("%d minutes", mins)
}

func (s *service) publishOutcome(ctx context.Context, userID uuid.UUID, res domain.RunResult, bulk bool) {
	evType := "email.sent"
	if res.Successful == 0 {
		evType = "email.failed"
	}
	_ = s.pub.Publish(ctx, eventsdomain.Event{
		Type:       evType,
		UserID:     userID,
		TargetType: "delivery_log",
		TargetID:   res.LogID.String(),
		Meta: map[string]string{
			"total":      fmt.Sprintf("%d", res.Total),
			"successful": fmt.Sprintf("%d", res.Successful),
			"failed":     fmt.Sprintf("%d", res.Failed),
			"bulk":       fmt.Sprintf("%t", bulk),
		},
		Time: time.Now().UTC(),
	})
}

func (s *service) Logs(ctx context.Context, userID uuid.UUID, page, pageSize int) (domain.LogPage, error) {
	if pageSize <= 0 || pageSize > 100 {
		pageSize = 20
	}
	if page <= 0 {
		page = 1
	}
	limit := int32(pageSize)
	offset := int32((page - 1) * pageSize)

	items, total, err := s.repo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return domain.LogPage{}, err
	}
	totalPages := int(total) / pageSize
	if int(total)%pageSize != 0 {
		totalPages++
	}
	return domain.LogPage{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}

func (s *service) GetLog(ctx context.Context, userID, id uuid.UUID) (*domain.DeliveryLog, error) {
	return s.repo.GetByID(ctx, userID, id)
}

func artifactPaths(atts []domain.Artifact) []string {
	paths := make([]string, 0, len(atts))
	for _, a := range atts {
		paths = append(paths, a.Path)
	}
	return paths
}
