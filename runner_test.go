package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/LilVoxy/cargo_pipeline/config"
	"github.com/LilVoxy/cargo_pipeline/models"
	"github.com/LilVoxy/cargo_pipeline/storage"
	"github.com/LilVoxy/cargo_pipeline/utils"
)

// journalStub — журнал запусков в памяти для тестов прогона
type journalStub struct {
	failureMessage string
}

func (j *journalStub) CreateLogEntry(runID string, startTime time.Time) (int, error) {
	return 1, nil
}

func (j *journalStub) UpdateLogEntrySuccess(id int, endTime time.Time, rowsExtracted, rowsCleaned, rowsEnriched, summaryGroups int, artifact string) error {
	return nil
}

func (j *journalStub) UpdateLogEntryFailure(id int, endTime time.Time, errorMessage string) error {
	j.failureMessage = errorMessage
	return nil
}

func (j *journalStub) GetLastSuccessfulRun() (*models.PipelineRunLog, error) {
	return nil, nil
}

func (j *journalStub) GetLastFailedRun() (*models.PipelineRunLog, error) {
	return nil, nil
}

func (j *journalStub) GetCurrentRun() (*models.PipelineRunLog, error) {
	return nil, nil
}

func (j *journalStub) GetRunStats(days int) ([]models.PipelineRunLog, error) {
	return nil, nil
}

func TestExecuteSilverFailureKeepsPercentInLog(t *testing.T) {
	var buf bytes.Buffer
	journal := &journalStub{}

	cfg := config.GetConfig()
	cfg.Storage.Backend = "local"
	cfg.Storage.LocalRoot = t.TempDir()
	cfg.Storage.InputObject = "manifest%41_2024.csv"

	runner := &PipelineRunner{
		config:     cfg,
		store:      storage.NewLocalStore(cfg.Storage.LocalRoot),
		logger:     utils.NewWriterLogger(&buf, false),
		runLogRepo: journal,
		progress:   models.NopProgress{},
	}

	if _, err := runner.ExecuteSilver(context.Background()); err == nil {
		t.Fatal("ожидалась ошибка при отсутствующем входном объекте")
	}

	// Знак процента во внешнем тексте доходит до лога и журнала
	// без искажений
	if !strings.Contains(buf.String(), "manifest%41_2024.csv") {
		t.Errorf("имя объекта искажено в логе: %q", buf.String())
	}
	if strings.Contains(buf.String(), "%!") {
		t.Errorf("текст ошибки истолкован как формат: %q", buf.String())
	}
	if !strings.Contains(journal.failureMessage, "manifest%41_2024.csv") {
		t.Errorf("имя объекта искажено в журнале: %q", journal.failureMessage)
	}
}
