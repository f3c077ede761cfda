package catalogcmd

import (
	"context"
	"errors"
	"testing"

	command "github.com/goliatone/go-command"

	"github.com/goliatone/go-jszoo/internal/commands"
	"github.com/goliatone/go-jszoo/internal/commands/fixtures"
	"github.com/goliatone/go-jszoo/internal/generator"
	"github.com/goliatone/go-jszoo/internal/logging"
)

func TestRegisterCatalogCommandsHandlerOptionsApplied(t *testing.T) {
	service := &stubGeneratorService{}
	updateApplied := false
	previewApplied := false

	_, err := RegisterCatalogCommands(nil, service, nil, enabledGates(),
		WithUpdateHandlerOptions(func(h *commands.Handler[UpdateCatalogCommand]) {
			updateApplied = true
		}),
		WithPreviewHandlerOptions(func(h *commands.Handler[PreviewDocumentCommand]) {
			previewApplied = true
		}),
	)
	if err != nil {
		t.Fatalf("register catalog commands: %v", err)
	}
	if !updateApplied {
		t.Fatal("expected update handler options applied")
	}
	if !previewApplied {
		t.Fatal("expected preview handler options applied")
	}
}

func TestRegisterCatalogCommandsRegistersHandlers(t *testing.T) {
	reg := fixtures.NewRecordingRegistry()
	service := &stubGeneratorService{}

	set, err := RegisterCatalogCommands(reg, service, nil, enabledGates())
	if err != nil {
		t.Fatalf("register catalog commands: %v", err)
	}
	if set == nil || set.Update == nil || set.Format == nil || set.Check == nil || set.Preview == nil {
		t.Fatalf("expected all handlers built, got %#v", set)
	}
	if len(reg.Handlers) != 4 {
		t.Fatalf("expected four handlers registered, got %d", len(reg.Handlers))
	}
	if reg.Handlers[0] != set.Update {
		t.Fatalf("expected update handler registered first, got %#v", reg.Handlers[0])
	}
	if reg.Handlers[3] != set.Preview {
		t.Fatalf("expected preview handler registered last, got %#v", reg.Handlers[3])
	}
}

func TestRegisterCatalogCommandsRegistryError(t *testing.T) {
	reg := fixtures.NewRecordingRegistry()
	reg.Err = errors.New("registry closed")

	if _, err := RegisterCatalogCommands(reg, &stubGeneratorService{}, nil, enabledGates()); !errors.Is(err, reg.Err) {
		t.Fatalf("expected registry error, got %v", err)
	}
}

func TestRegisterCatalogCommandsNilServiceError(t *testing.T) {
	if _, err := RegisterCatalogCommands(nil, nil, nil, FeatureGates{}); err == nil {
		t.Fatal("expected error when service nil")
	}
}

func TestRegisterCatalogCommandsObserver(t *testing.T) {
	service := &stubGeneratorService{updateResult: &generator.UpdateResult{RunID: "run-7"}}
	var runID string
	set, err := RegisterCatalogCommands(nil, service, nil, enabledGates(), WithUpdateObserver(func(result *generator.UpdateResult) {
		runID = result.RunID
	}))
	if err != nil {
		t.Fatalf("register catalog commands: %v", err)
	}
	if err := set.Update.Execute(context.Background(), UpdateCatalogCommand{}); err != nil {
		t.Fatalf("execute update: %v", err)
	}
	if runID != "run-7" {
		t.Fatalf("expected observer to see run-7, got %q", runID)
	}
}

func TestRegisterUpdateCronRegistersHandler(t *testing.T) {
	service := &stubGeneratorService{}
	handler := NewUpdateCatalogHandler(service, logging.NoOp(), enabledGates(), nil)
	recorder := fixtures.NewCronRecorder()

	cfg := command.HandlerConfig{Expression: "@daily"}
	msg := UpdateCatalogCommand{GitHub: true}

	if err := RegisterUpdateCron(recorder.Registrar(), handler, cfg, msg); err != nil {
		t.Fatalf("register update cron: %v", err)
	}
	if len(recorder.Registrations) != 1 {
		t.Fatalf("expected one cron registration, got %d", len(recorder.Registrations))
	}
	reg := recorder.Registrations[0]
	if reg.Config.Expression != cfg.Expression {
		t.Fatalf("expected cron expression %q, got %q", cfg.Expression, reg.Config.Expression)
	}
	if reg.Handler == nil {
		t.Fatal("expected cron handler function recorded")
	}
	if err := reg.Handler(); err != nil {
		t.Fatalf("executing cron handler: %v", err)
	}
	if len(service.updateCalls) != 1 || !service.updateCalls[0].GitHub {
		t.Fatalf("expected github update executed, got %+v", service.updateCalls)
	}
}

func TestRegisterUpdateCronNoOpWhenRegistrarNil(t *testing.T) {
	service := &stubGeneratorService{}
	handler := NewUpdateCatalogHandler(service, logging.NoOp(), enabledGates(), nil)
	if err := RegisterUpdateCron(nil, handler, command.HandlerConfig{}, UpdateCatalogCommand{}); err != nil {
		t.Fatalf("expected nil error when registrar nil, got %v", err)
	}
	if len(service.updateCalls) != 0 {
		t.Fatalf("expected no update calls, got %d", len(service.updateCalls))
	}
}

func TestRegisterUpdateCronNoOpWhenHandlerNil(t *testing.T) {
	recorder := fixtures.NewCronRecorder()
	if err := RegisterUpdateCron(recorder.Registrar(), nil, command.HandlerConfig{}, UpdateCatalogCommand{}); err != nil {
		t.Fatalf("expected nil error when handler nil, got %v", err)
	}
	if len(recorder.Registrations) != 0 {
		t.Fatalf("expected no registrations when handler nil, got %d", len(recorder.Registrations))
	}
}
