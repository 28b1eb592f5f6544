package repository

import (
	"context"
	"errors"

	"ecovision-etl/internal/domain/entity"
	"ecovision-etl/internal/domain/repository"
	"ecovision-etl/pkg/logger"
	"ecovision-etl/templates"
)

// LogNotifier writes the rendered alert to the application log
type LogNotifier struct {
	logger logger.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(logger logger.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// NotifyFailure logs the alert
func (n *LogNotifier) NotifyFailure(ctx context.Context, record *entity.ExecutionRecord) error {
	msg, err := templates.RenderFailureAlert(record)
	if err != nil {
		return err
	}
	n.logger.Error("Failure alert", "executionID", record.ExecutionID, "alert", msg)
	return nil
}

// MultiNotifier fans an alert out to every sink, continuing past failures
type MultiNotifier struct {
	sinks []repository.Notifier
}

// NewMultiNotifier combines notifiers; nil entries are skipped
func NewMultiNotifier(sinks ...repository.Notifier) *MultiNotifier {
	m := &MultiNotifier{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// NotifyFailure calls every sink and joins their errors
func (m *MultiNotifier) NotifyFailure(ctx context.Context, record *entity.ExecutionRecord) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.NotifyFailure(ctx, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
