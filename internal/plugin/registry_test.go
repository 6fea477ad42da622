package plugin

import (
	"context"
	"errors"
	"testing"

	"github.com/seedstats/seedstats/internal/metric"
	"github.com/seedstats/seedstats/internal/testutil"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// fakePlugin is a configurable Plugin test double that records
// lifecycle calls.
type fakePlugin struct {
	name        string
	initErr     error
	validateErr error
	startErr    error
	calls       *[]string
	collects    bool
}

func newFakePlugin(name string, calls *[]string) *fakePlugin {
	return &fakePlugin{name: name, calls: calls}
}

func (p *fakePlugin) record(call string) {
	if p.calls != nil {
		*p.calls = append(*p.calls, p.name+"."+call)
	}
}

func (p *fakePlugin) Name() string    { return p.name }
func (p *fakePlugin) Version() string { return "0.0.1" }

func (p *fakePlugin) Init(config *viper.Viper, logger *zap.Logger) error {
	p.record("init")
	return p.initErr
}

func (p *fakePlugin) Start(ctx context.Context) error {
	p.record("start")
	return p.startErr
}

func (p *fakePlugin) Stop() error {
	p.record("stop")
	return nil
}

var _ Plugin = (*fakePlugin)(nil)

// fakeCollectorPlugin additionally implements Collector.
type fakeCollectorPlugin struct {
	fakePlugin
}

func (p *fakeCollectorPlugin) Collect(ctx context.Context) ([]metric.Sample, error) {
	return nil, nil
}

var _ Collector = (*fakeCollectorPlugin)(nil)

func enabledConfig(names ...string) *viper.Viper {
	v := viper.New()
	for _, n := range names {
		v.Set("plugins."+n+".enabled", true)
	}
	return v
}

func TestRegistryRejectsDuplicateNames(t *testing.T) {
	r := NewRegistry(testutil.Logger())
	if err := r.Register(newFakePlugin("a", nil)); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if err := r.Register(newFakePlugin("a", nil)); err == nil {
		t.Error("Register() accepted a duplicate plugin name")
	}
}

func TestInitAllSkipsDisabledPlugins(t *testing.T) {
	var calls []string
	r := NewRegistry(testutil.Logger())
	_ = r.Register(newFakePlugin("on", &calls))
	_ = r.Register(newFakePlugin("off", &calls))

	if err := r.InitAll(enabledConfig("on")); err != nil {
		t.Fatalf("InitAll() error = %v", err)
	}

	if len(calls) != 1 || calls[0] != "on.init" {
		t.Errorf("init calls = %v, want [on.init]", calls)
	}
	if _, ok := r.Get("off"); ok {
		t.Error("disabled plugin still registered after InitAll")
	}
	if got := len(r.All()); got != 1 {
		t.Errorf("All() returned %d plugins, want 1", got)
	}
}

func TestInitAllPropagatesInitError(t *testing.T) {
	r := NewRegistry(testutil.Logger())
	p := newFakePlugin("bad", nil)
	p.initErr = errors.New("missing credential")
	_ = r.Register(p)

	if err := r.InitAll(enabledConfig("bad")); err == nil {
		t.Error("InitAll() swallowed an init error")
	}
}

func TestInitAllRunsValidators(t *testing.T) {
	r := NewRegistry(testutil.Logger())
	p := &fakeValidatingPlugin{fakePlugin: fakePlugin{name: "v"}}
	p.validateErr = errors.New("timeout must be positive")
	_ = r.Register(p)

	if err := r.InitAll(enabledConfig("v")); err == nil {
		t.Error("InitAll() ignored a failing validator")
	}
}

type fakeValidatingPlugin struct {
	fakePlugin
}

func (p *fakeValidatingPlugin) ValidateConfig() error { return p.validateErr }

var _ Validator = (*fakeValidatingPlugin)(nil)

func TestStopAllRunsInReverseOrder(t *testing.T) {
	var calls []string
	r := NewRegistry(testutil.Logger())
	_ = r.Register(newFakePlugin("first", &calls))
	_ = r.Register(newFakePlugin("second", &calls))
	if err := r.InitAll(enabledConfig("first", "second")); err != nil {
		t.Fatalf("InitAll() error = %v", err)
	}
	if err := r.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll() error = %v", err)
	}

	calls = calls[:0]
	r.StopAll()
	want := []string{"second.stop", "first.stop"}
	if len(calls) != len(want) {
		t.Fatalf("stop calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Fatalf("stop calls = %v, want %v", calls, want)
		}
	}
}

func TestCollectorsFiltersByCapability(t *testing.T) {
	r := NewRegistry(testutil.Logger())
	_ = r.Register(newFakePlugin("plain", nil))
	_ = r.Register(&fakeCollectorPlugin{fakePlugin: fakePlugin{name: "collecting"}})

	collectors := r.Collectors()
	if len(collectors) != 1 {
		t.Fatalf("Collectors() returned %d plugins, want 1", len(collectors))
	}
	if collectors[0].Name() != "collecting" {
		t.Errorf("Collectors()[0] = %q, want %q", collectors[0].Name(), "collecting")
	}
}
