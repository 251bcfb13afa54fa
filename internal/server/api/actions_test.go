package api

import (
	"net/http"
	"testing"
)

func TestActionHandler_Workflow(t *testing.T) {
	s := setupTestStore(t)
	h := NewActionHandler(s, fakePlugins{"shell": true})

	rec := do(t, h, http.MethodPost, "/api/actions", `{
		"shape": "five_fingers",
		"plugin_name": "shell",
		"action_name": "run",
		"config": {"command": "echo open"}
	}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST status = %d: %s", rec.Code, rec.Body.String())
	}
	var created actionResponse
	decode(t, rec, &created)
	if created.ID == "" || created.Shape != "five_fingers" || !created.Enabled {
		t.Errorf("created = %+v", created)
	}
	if string(created.Config) != `{"command": "echo open"}` && string(created.Config) != `{"command":"echo open"}` {
		t.Errorf("config = %s", created.Config)
	}

	// Filter by shape
	rec = do(t, h, http.MethodGet, "/api/actions?shape=five_fingers", nil)
	var listed listActionsResponse
	decode(t, rec, &listed)
	if len(listed.Actions) != 1 {
		t.Errorf("filtered list = %+v", listed.Actions)
	}
	rec = do(t, h, http.MethodGet, "/api/actions?shape=closed_fist", nil)
	decode(t, rec, &listed)
	if len(listed.Actions) != 0 {
		t.Errorf("closed_fist list = %+v", listed.Actions)
	}

	// Disable and rebind
	rec = do(t, h, http.MethodPut, "/api/actions/"+created.ID, `{"enabled": false, "shape": "closed_fist"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("PUT status = %d", rec.Code)
	}
	var updated actionResponse
	decode(t, rec, &updated)
	if updated.Enabled || updated.Shape != "closed_fist" || updated.PluginName != "shell" {
		t.Errorf("updated = %+v", updated)
	}

	rec = do(t, h, http.MethodGet, "/api/actions", nil)
	decode(t, rec, &listed)
	if len(listed.Actions) != 1 {
		t.Errorf("list = %+v", listed.Actions)
	}

	// Disabled bindings still show up in a filtered list.
	rec = do(t, h, http.MethodGet, "/api/actions?shape=closed_fist", nil)
	decode(t, rec, &listed)
	if len(listed.Actions) != 1 || listed.Actions[0].Enabled {
		t.Errorf("closed_fist list after disable = %+v", listed.Actions)
	}

	if rec := do(t, h, http.MethodDelete, "/api/actions/"+created.ID, nil); rec.Code != http.StatusNoContent {
		t.Errorf("DELETE status = %d, want 204", rec.Code)
	}
	if rec := do(t, h, http.MethodGet, "/api/actions/"+created.ID, nil); rec.Code != http.StatusNotFound {
		t.Errorf("GET after delete status = %d, want 404", rec.Code)
	}
}

func TestActionHandler_CreateValidation(t *testing.T) {
	h := NewActionHandler(setupTestStore(t), fakePlugins{"shell": true})

	tests := []struct {
		name string
		body string
	}{
		{"missing shape", `{"plugin_name": "shell", "action_name": "run"}`},
		{"unknown shape", `{"shape": "unknown", "plugin_name": "shell", "action_name": "run"}`},
		{"bad shape", `{"shape": "three_fingers", "plugin_name": "shell", "action_name": "run"}`},
		{"missing plugin", `{"shape": "two_fingers", "action_name": "run"}`},
		{"missing action", `{"shape": "two_fingers", "plugin_name": "shell"}`},
		{"uninstalled plugin", `{"shape": "two_fingers", "plugin_name": "ghost", "action_name": "run"}`},
		{"invalid json", `not json`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := do(t, h, http.MethodPost, "/api/actions", tt.body); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestActionHandler_NoPluginCheck(t *testing.T) {
	h := NewActionHandler(setupTestStore(t), nil)

	rec := do(t, h, http.MethodPost, "/api/actions", `{"shape": "two_fingers", "plugin_name": "any", "action_name": "x", "enabled": false}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	var created actionResponse
	decode(t, rec, &created)
	if created.Enabled {
		t.Error("enabled=false should be honoured")
	}
	if string(created.Config) != "{}" {
		t.Errorf("config = %s, want {}", created.Config)
	}
}

func TestActionHandler_NotFound(t *testing.T) {
	h := NewActionHandler(setupTestStore(t), nil)

	if rec := do(t, h, http.MethodGet, "/api/actions/missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("GET status = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodPut, "/api/actions/missing", `{}`); rec.Code != http.StatusNotFound {
		t.Errorf("PUT status = %d, want 404", rec.Code)
	}
	if rec := do(t, h, http.MethodDelete, "/api/actions/missing", nil); rec.Code != http.StatusNotFound {
		t.Errorf("DELETE status = %d, want 404", rec.Code)
	}
}
