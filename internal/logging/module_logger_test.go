package logging

import (
	"context"
	"maps"
	"testing"

	"github.com/goliatone/go-jszoo/pkg/interfaces"
)

type recordingLogger struct {
	fields   []map[string]any
	contexts []context.Context
}

func (r *recordingLogger) Trace(string, ...any) {}
func (r *recordingLogger) Debug(string, ...any) {}
func (r *recordingLogger) Info(string, ...any)  {}
func (r *recordingLogger) Warn(string, ...any)  {}
func (r *recordingLogger) Error(string, ...any) {}
func (r *recordingLogger) Fatal(string, ...any) {}

func (r *recordingLogger) WithFields(fields map[string]any) interfaces.Logger {
	r.fields = append(r.fields, maps.Clone(fields))
	return r
}

func (r *recordingLogger) WithContext(ctx context.Context) interfaces.Logger {
	r.contexts = append(r.contexts, ctx)
	return r
}

type stubProvider struct {
	requested []string
	logger    interfaces.Logger
}

func (s *stubProvider) GetLogger(name string) interfaces.Logger {
	s.requested = append(s.requested, name)
	return s.logger
}

func TestModuleLoggerFallsBackToNoOp(t *testing.T) {
	logger := ModuleLogger(nil, "jszoo.test")
	if _, ok := logger.(noopLogger); !ok {
		t.Fatalf("expected noopLogger fallback, got %T", logger)
	}
	logger = logger.WithContext(context.Background())
	logger.Debug("noop")
}

func TestModuleLoggerUsesProviderAndAnnotatesFields(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = CatalogLogger(provider)

	if len(provider.requested) != 1 || provider.requested[0] != catalogModule {
		t.Fatalf("expected module %s, got %v", catalogModule, provider.requested)
	}
	if len(rec.fields) != 1 || rec.fields[0]["module"] != catalogModule {
		t.Fatalf("expected module field %s, got %v", catalogModule, rec.fields)
	}
}

func TestModuleLoggerDefaultsToRootModule(t *testing.T) {
	rec := &recordingLogger{}
	provider := &stubProvider{logger: rec}

	_ = ModuleLogger(provider, "")

	if provider.requested[0] != rootModule {
		t.Fatalf("expected default module %s, got %v", rootModule, provider.requested)
	}
}

func TestNamespaceHelpers(t *testing.T) {
	cases := map[string]func(interfaces.LoggerProvider) interfaces.Logger{
		rootModule:        RootLogger,
		metadataModule:    MetadataLogger,
		renderModule:      RenderLogger,
		conformanceModule: ConformanceLogger,
		repometaModule:    RepoMetaLogger,
		exportModule:      ExportLogger,
	}
	for module, fn := range cases {
		provider := &stubProvider{logger: &recordingLogger{}}
		_ = fn(provider)
		if len(provider.requested) != 1 || provider.requested[0] != module {
			t.Fatalf("expected %s request, got %v", module, provider.requested)
		}
	}
}

func TestWithDocumentContextSkipsEmptyValues(t *testing.T) {
	rec := &recordingLogger{}
	_ = WithDocumentContext(rec, " engines/v8.md ", "", "format")

	if len(rec.fields) != 1 {
		t.Fatalf("expected a single WithFields call, got %d", len(rec.fields))
	}
	got := rec.fields[0]
	if got[fieldDocumentPath] != "engines/v8.md" || got[fieldAction] != "format" {
		t.Fatalf("unexpected fields %v", got)
	}
	if _, ok := got[fieldCatalogKind]; ok {
		t.Fatal("expected empty kind to be skipped")
	}
}

func TestContextFieldsMerge(t *testing.T) {
	ctx := ContextWithFields(context.Background(), map[string]any{"run_id": "a"})
	ctx = ContextWithFields(ctx, map[string]any{"kind": "engine"})

	fields := ContextFields(ctx)
	if fields["run_id"] != "a" || fields["kind"] != "engine" {
		t.Fatalf("unexpected merged fields %v", fields)
	}
	fields["run_id"] = "mutated"
	if ContextFields(ctx)["run_id"] != "a" {
		t.Fatal("expected ContextFields to return a copy")
	}
}
