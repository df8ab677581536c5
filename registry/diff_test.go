package registry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestDiffManifestsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	oldUUID := submit(t, env, "plotter", "mpremote>=1.20.0\nnumpy>=1.22.0\n")
	newUUID := submit(t, env, "plotter", "numpy>=1.24.0\npyperclip>=1.8.2\n")

	w := postJSON(t, env, "/diff", "", map[string]string{
		"old_uuid": oldUUID,
		"new_uuid": newUUID,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("diff = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Equal bool `json:"equal"`
		Diff  struct {
			Added   []struct{ Name string } `json:"added"`
			Removed []struct{ Name string } `json:"removed"`
			Changed []struct{ Name string } `json:"changed"`
		} `json:"diff"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Equal {
		t.Error("equal = true, want false")
	}
	if len(resp.Diff.Added) != 1 || len(resp.Diff.Removed) != 1 || len(resp.Diff.Changed) != 1 {
		t.Errorf("diff = %+v, want one of each", resp.Diff)
	}
}

func TestDiffManifestsBadRequest(t *testing.T) {
	env := newTestEnv(t)
	uuid := submit(t, env, "plotter", "numpy>=1.22.0\n")

	tests := []struct {
		name string
		body map[string]string
		want int
	}{
		{"missing new side", map[string]string{"old_uuid": uuid}, http.StatusBadRequest},
		{"both uuid and content", map[string]string{
			"old_uuid": uuid, "old_content": "numpy>=1.0\n", "new_uuid": uuid,
		}, http.StatusBadRequest},
		{"unknown uuid", map[string]string{"old_uuid": uuid, "new_uuid": "nope"}, http.StatusNotFound},
		{"unparsable inline", map[string]string{"old_uuid": uuid, "new_content": "!!!\n"}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(t, env, "/diff", "", tt.body)
			if w.Code != tt.want {
				t.Errorf("diff = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestAuditManifestEndpoint(t *testing.T) {
	env := newTestEnv(t)
	uuid := submit(t, env, "plotter", "numpy>=1.22.0\npyserial>=3.5\n")

	w := postJSON(t, env, "/audit", "", map[string]interface{}{
		"uuid": uuid,
		"installed": map[string]string{
			"numpy": "1.24.1",
		},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("audit = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		OK     bool `json:"ok"`
		Report struct {
			Missing   []struct{ Name string } `json:"missing"`
			Satisfied int                     `json:"satisfied"`
		} `json:"report"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.OK {
		t.Error("ok = true, want false (pyserial missing)")
	}
	if resp.Report.Satisfied != 1 || len(resp.Report.Missing) != 1 {
		t.Errorf("report = %+v", resp.Report)
	}
}

func TestRecentWithoutRedis(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest("GET", "/recent", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("recent without redis = %d, want 503", w.Code)
	}
}

func TestStatsEndpoint(t *testing.T) {
	env := newTestEnv(t)
	submit(t, env, "plotter", "numpy>=1.22.0\n")
	submit(t, env, "gantry", "pyserial>=3.5\n")

	req := httptest.NewRequest("GET", "/admin/stats", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("stats = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Manifests int64 `json:"manifests"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Manifests != 2 {
		t.Errorf("manifests = %d, want 2", resp.Manifests)
	}
}
