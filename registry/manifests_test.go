package registry

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func postJSON(t *testing.T, env *testEnv, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest("POST", path, bytes.NewBuffer(payload))
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	return w
}

func submit(t *testing.T, env *testEnv, project, content string) string {
	t.Helper()
	w := postJSON(t, env, "/manifests", env.token(t, "tester"), map[string]string{
		"project": project,
		"content": content,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("submit = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		UUID string `json:"uuid"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	return resp.UUID
}

func TestSubmitManifest(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name    string
		project string
		content string
		want    int
	}{
		{"plotter manifest", "plotter", "mpremote>=1.20.0\nnumpy>=1.22.0\npyserial>=3.5\n", http.StatusCreated},
		{"comments ok", "plotter", "# deps\nnumpy>=1.22.0  # math\n", http.StatusCreated},
		{"bad line", "plotter", "numpy>>1.0\n", http.StatusBadRequest},
		{"duplicate package", "plotter", "numpy>=1.0\nnumpy>=1.1\n", http.StatusBadRequest},
		{"missing project", "", "numpy>=1.0\n", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body := map[string]string{"content": tt.content}
			if tt.project != "" {
				body["project"] = tt.project
			}
			w := postJSON(t, env, "/manifests", env.token(t, "tester"), body)
			if w.Code != tt.want {
				t.Errorf("submit = %d, want %d (body %s)", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestSubmitManifestUnauthorized(t *testing.T) {
	env := newTestEnv(t)
	w := postJSON(t, env, "/manifests", "", map[string]string{"project": "p", "content": "numpy>=1.0\n"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("submit without token = %d, want 401", w.Code)
	}
}

func TestGetManifest(t *testing.T) {
	env := newTestEnv(t)
	uuid := submit(t, env, "plotter", "numpy>=1.22.0\npyserial>=3.5\n")

	req := httptest.NewRequest("GET", "/manifests/"+uuid, nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("get = %d, body %s", w.Code, w.Body.String())
	}

	var resp struct {
		Manifest struct {
			Project      string `json:"project"`
			Count        int    `json:"count"`
			Requirements []struct {
				Name    string `json:"name"`
				Op      string `json:"op"`
				Version string `json:"version"`
			} `json:"requirements"`
		} `json:"manifest"`
		Canonical string `json:"canonical"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Manifest.Project != "plotter" || resp.Manifest.Count != 2 {
		t.Errorf("manifest = %+v", resp.Manifest)
	}
	if len(resp.Manifest.Requirements) != 2 {
		t.Fatalf("requirements = %+v, want 2", resp.Manifest.Requirements)
	}
	if resp.Canonical != "numpy>=1.22.0\npyserial>=3.5\n" {
		t.Errorf("canonical = %q", resp.Canonical)
	}

	req = httptest.NewRequest("GET", "/manifests/no-such-uuid", nil)
	w = httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	if w.Code != http.StatusNotFound {
		t.Errorf("get missing = %d, want 404", w.Code)
	}
}

func TestListManifests(t *testing.T) {
	env := newTestEnv(t)
	submit(t, env, "plotter", "numpy>=1.22.0\n")
	submit(t, env, "plotter", "numpy>=1.24.0\n")
	submit(t, env, "gantry", "pyserial>=3.5\n")

	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"all", "/manifests", 3},
		{"by project", "/manifests?project=plotter", 2},
		{"no match", "/manifests?project=nothing", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", tt.query, nil)
			w := httptest.NewRecorder()
			env.Router.ServeHTTP(w, req)
			if w.Code != http.StatusOK {
				t.Fatalf("list = %d, body %s", w.Code, w.Body.String())
			}
			var resp struct {
				Manifests []json.RawMessage `json:"manifests"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode response: %v", err)
			}
			if len(resp.Manifests) != tt.want {
				t.Errorf("manifests = %d, want %d", len(resp.Manifests), tt.want)
			}
		})
	}
}

func TestPackageProjects(t *testing.T) {
	env := newTestEnv(t)
	submit(t, env, "plotter", "numpy>=1.22.0\n")
	submit(t, env, "gantry", "NumPy>=1.24.0\npyserial>=3.5\n")

	req := httptest.NewRequest("GET", "/packages/numpy/projects", nil)
	w := httptest.NewRecorder()
	env.Router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("packages = %d, body %s", w.Code, w.Body.String())
	}
	var resp struct {
		Package  string   `json:"package"`
		Projects []string `json:"projects"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Package != "numpy" || len(resp.Projects) != 2 {
		t.Errorf("response = %+v, want both projects", resp)
	}
}

func TestAPIKeyLoginFlow(t *testing.T) {
	env := newTestEnv(t)

	w := postJSON(t, env, "/admin/api_keys", "", map[string]string{"service_id": "plotter-ci"})
	if w.Code != http.StatusCreated {
		t.Fatalf("issue key = %d, body %s", w.Code, w.Body.String())
	}
	var issued struct {
		APIKey string `json:"api_key"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &issued); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	w = postJSON(t, env, "/login", "", map[string]string{"service_id": "plotter-ci", "api_key": issued.APIKey})
	if w.Code != http.StatusOK {
		t.Fatalf("login = %d, body %s", w.Code, w.Body.String())
	}
	var login struct {
		Authorization string `json:"authorization"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	w = postJSON(t, env, "/manifests", login.Authorization, map[string]string{
		"project": "plotter",
		"content": "numpy>=1.22.0\n",
	})
	if w.Code != http.StatusCreated {
		t.Errorf("submit with issued token = %d, body %s", w.Code, w.Body.String())
	}

	w = postJSON(t, env, "/login", "", map[string]string{"service_id": "plotter-ci", "api_key": "wrong"})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("login with wrong key = %d, want 401", w.Code)
	}
}
