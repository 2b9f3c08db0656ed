package animation_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/p-n-ai/playground/internal/animation"
)

// stubProber answers probes from a fixed table. Names listed in gates block
// until their channel is closed or the context ends.
type stubProber struct {
	mu     sync.Mutex
	found  map[string]bool
	gates  map[string]chan struct{}
	probed []string
}

func (p *stubProber) Probe(ctx context.Context, name string) (string, error) {
	p.mu.Lock()
	p.probed = append(p.probed, name)
	gate := p.gates[name]
	ok := p.found[name]
	p.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if !ok {
		return "", animation.ErrAssetNotFound
	}
	return "/static/animations/" + name + ".json", nil
}

func (p *stubProber) calls() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string{}, p.probed...)
}

func TestFallbackTable_Resolve(t *testing.T) {
	table := animation.DefaultFallbacks()

	tests := []struct {
		id     string
		want   string
		wantOK bool
	}{
		{"periodic_table", "bulb_glow", true},
		{"dna_double_helix", "bulb_glow", true},
		{"momentum_collision", "wire_spark", true},
		{"energy", "bulb_glow", true},
		{"gravity", "wire_spark", true},
		{"solar_system", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			got, ok := table.Resolve(tt.id)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.id, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestHost_MountPrimary(t *testing.T) {
	prober := &stubProber{found: map[string]bool{"solar_system": true}}
	host := animation.NewHost(prober, nil)
	slot := animation.NewSlot()

	res := host.Mount(context.Background(), slot, "solar_system")

	if !res.Loaded || res.Fallback || res.Asset.Name != "solar_system" {
		t.Errorf("Mount() = %+v, want primary solar_system", res)
	}
	if got, ok := slot.Current(); !ok || got.Name != "solar_system" {
		t.Errorf("Current() = (%+v, %v)", got, ok)
	}
}

func TestHost_MountFallback(t *testing.T) {
	prober := &stubProber{found: map[string]bool{"bulb_glow": true}}
	host := animation.NewHost(prober, nil)
	slot := animation.NewSlot()

	res := host.Mount(context.Background(), slot, "periodic_table")

	if !res.Loaded || !res.Fallback {
		t.Fatalf("Mount() = %+v, want loaded fallback", res)
	}
	if res.Asset.Name != "bulb_glow" || res.Asset.Requested != "periodic_table" {
		t.Errorf("Asset = %+v, want bulb_glow for periodic_table", res.Asset)
	}
	if got := prober.calls(); len(got) != 2 || got[0] != "periodic_table" || got[1] != "bulb_glow" {
		t.Errorf("probe order = %v, want [periodic_table bulb_glow]", got)
	}
}

func TestHost_MountUnresolvedLeavesSlotEmpty(t *testing.T) {
	prober := &stubProber{found: map[string]bool{}}
	host := animation.NewHost(prober, nil)
	slot := animation.NewSlot()

	res := host.Mount(context.Background(), slot, "galaxy")

	if res.Loaded {
		t.Errorf("Mount() = %+v, want not loaded", res)
	}
	if _, ok := slot.Current(); ok {
		t.Error("slot holds an asset after a failed mount")
	}
}

func TestHost_MountFailedFallbackLeavesSlotEmpty(t *testing.T) {
	prober := &stubProber{found: map[string]bool{}}
	host := animation.NewHost(prober, nil)
	slot := animation.NewSlot()

	res := host.Mount(context.Background(), slot, "gravity")

	if res.Loaded {
		t.Errorf("Mount() = %+v, want not loaded", res)
	}
	if got := prober.calls(); len(got) != 2 {
		t.Errorf("probes = %v, want primary and fallback", got)
	}
	if _, ok := slot.Current(); ok {
		t.Error("slot holds an asset after a failed fallback")
	}
}

func TestHost_MountEmptyID(t *testing.T) {
	prober := &stubProber{found: map[string]bool{"solar_system": true}}
	host := animation.NewHost(prober, nil)
	slot := animation.NewSlot()
	host.Mount(context.Background(), slot, "solar_system")

	res := host.Mount(context.Background(), slot, "")

	if res.Loaded {
		t.Errorf("Mount(\"\") = %+v, want not loaded", res)
	}
	if _, ok := slot.Current(); ok {
		t.Error("Mount(\"\") should clear the slot")
	}
	if got := prober.calls(); len(got) != 1 {
		t.Errorf("probes = %v, empty id must not probe", got)
	}
}

func TestHost_StaleProbeIsDropped(t *testing.T) {
	gate := make(chan struct{})
	prober := &stubProber{
		found: map[string]bool{"stars": true, "galaxy": true},
		gates: map[string]chan struct{}{"stars": gate},
	}
	host := animation.NewHost(prober, nil)
	slot := animation.NewSlot()

	done := make(chan animation.MountResult, 1)
	go func() { done <- host.Mount(context.Background(), slot, "stars") }()

	waitFor(t, func() bool { return len(prober.calls()) == 1 })

	// The learner moves on before the first probe answers.
	res := host.Mount(context.Background(), slot, "galaxy")
	if !res.Loaded {
		t.Fatalf("second Mount() = %+v, want loaded", res)
	}
	close(gate)

	stale := <-done
	if stale.Loaded || !stale.Stale {
		t.Errorf("first Mount() = %+v, want stale", stale)
	}
	if got, _ := slot.Current(); got.Name != "galaxy" {
		t.Errorf("Current() = %+v, want galaxy", got)
	}
}

func TestSlot_UnmountCancelsPendingProbe(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	prober := &stubProber{
		found: map[string]bool{"stars": true},
		gates: map[string]chan struct{}{"stars": gate},
	}
	host := animation.NewHost(prober, nil)
	slot := animation.NewSlot()

	done := make(chan animation.MountResult, 1)
	go func() { done <- host.Mount(context.Background(), slot, "stars") }()
	waitFor(t, func() bool { return len(prober.calls()) == 1 })

	slot.Unmount()

	select {
	case res := <-done:
		if !res.Stale {
			t.Errorf("Mount() = %+v, want stale", res)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Unmount did not cancel the pending probe")
	}
	if _, ok := slot.Current(); ok {
		t.Error("slot holds an asset after Unmount")
	}
}

func TestHTTPProber(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			t.Errorf("method = %s, want HEAD", r.Method)
		}
		switch r.URL.Path {
		case "/static/animations/bulb_glow.json":
			w.WriteHeader(http.StatusOK)
		case "/static/animations/broken.json":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	prober := animation.NewHTTPProber(srv.URL, srv.Client())

	loc, err := prober.Probe(context.Background(), "bulb_glow")
	if err != nil {
		t.Fatalf("Probe(bulb_glow) error = %v", err)
	}
	if loc != srv.URL+"/static/animations/bulb_glow.json" {
		t.Errorf("location = %q", loc)
	}

	if _, err := prober.Probe(context.Background(), "periodic_table"); !errors.Is(err, animation.ErrAssetNotFound) {
		t.Errorf("Probe(periodic_table) error = %v, want ErrAssetNotFound", err)
	}

	_, err = prober.Probe(context.Background(), "broken")
	if err == nil || errors.Is(err, animation.ErrAssetNotFound) {
		t.Errorf("Probe(broken) error = %v, want a non-404 failure", err)
	}
}

func TestDirProber(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "wire_spark.json"), []byte(`{"v":"5.7"}`), 0o644)
	os.Mkdir(filepath.Join(dir, "folder.json"), 0o755)

	prober := animation.NewDirProber(dir)

	tests := []struct {
		name    string
		wantErr bool
	}{
		{"wire_spark", false},
		{"bulb_glow", true},
		{"folder", true},
		{"../etc/passwd", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := prober.Probe(context.Background(), tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("Probe(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
		})
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(time.Millisecond)
	}
}
