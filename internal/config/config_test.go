package config

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
)

const testProject = "/project"

func writeConfig(t *testing.T, fs afero.Fs, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, Path(testProject), []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"project_type", cfg.ProjectType, "standard"},
		{"plan_review_enabled", cfg.PlanReviewEnabled, true},
		{"plan_review_min_actions", cfg.PlanReviewMinActions, 20},
		{"pre_compaction_sync_enabled", cfg.PreCompactionSyncEnabled, true},
		{"pre_compaction_sync_threshold", cfg.PreCompactionSyncThreshold, 150000},
		{"auto_compact_off", cfg.AutoCompactOff, false},
		{"stop_hook_min_actions", cfg.StopHookMinActions, 10},
		{"code_review_enabled", cfg.CodeReviewEnabled, true},
		{"pebble_enabled", cfg.PebbleEnabled, false},
		{"docs_researcher_write_required", cfg.DocsResearcherWriteRequired, true},
		{"pebble_scaffolder_enabled", cfg.PebbleScaffolderEnabled, true},
		{"workspace_max_lines", cfg.WorkspaceMaxLines, 1000},
		{"log_level", cfg.LogLevel, "info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}

	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default() should validate, got %v", errs)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load(afero.NewMemMapFs(), testProject)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_File(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, `
project_type: production
plan_review_enabled: false
plan_review_min_actions: 5
pre_compaction_sync_threshold: 1000
auto_compact_off: true
stop_hook_min_actions: 0
pebble_enabled: "true"
log_level: debug
`)

	cfg, err := Load(fs, testProject)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.ProjectType != "production" {
		t.Errorf("ProjectType = %q", cfg.ProjectType)
	}
	if cfg.PlanReviewEnabled {
		t.Error("PlanReviewEnabled should be false")
	}
	if cfg.PlanReviewMinActions != 5 {
		t.Errorf("PlanReviewMinActions = %d, want 5", cfg.PlanReviewMinActions)
	}
	if cfg.PreCompactionSyncThreshold != 1000 {
		t.Errorf("PreCompactionSyncThreshold = %d, want 1000", cfg.PreCompactionSyncThreshold)
	}
	if !cfg.AutoCompactOff {
		t.Error("AutoCompactOff should be true")
	}
	if cfg.StopHookMinActions != 0 {
		t.Errorf("StopHookMinActions = %d, want 0", cfg.StopHookMinActions)
	}
	if !cfg.PebbleEnabled {
		t.Error("quoted boolean should be accepted")
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q", cfg.LogLevel)
	}
	if !cfg.CodeReviewEnabled {
		t.Error("unset field should keep its default")
	}
}

func TestLoad_PerFieldFallback(t *testing.T) {
	tests := []struct {
		name    string
		content string
		field   string
		check   func(*Config) bool
	}{
		{
			name:    "non-integer threshold",
			content: "pre_compaction_sync_threshold: lots\nplan_review_min_actions: 3\n",
			field:   KeyPreCompactionSyncThreshold,
			check: func(c *Config) bool {
				return c.PreCompactionSyncThreshold == 150000 && c.PlanReviewMinActions == 3
			},
		},
		{
			name:    "non-boolean flag",
			content: "plan_review_enabled: maybe\nauto_compact_off: true\n",
			field:   KeyPlanReviewEnabled,
			check: func(c *Config) bool {
				return c.PlanReviewEnabled && c.AutoCompactOff
			},
		},
		{
			name:    "unknown project type",
			content: "project_type: enterprise\nstop_hook_min_actions: 4\n",
			field:   KeyProjectType,
			check: func(c *Config) bool {
				return c.ProjectType == "standard" && c.StopHookMinActions == 4
			},
		},
		{
			name:    "negative threshold",
			content: "stop_hook_min_actions: -1\n",
			field:   KeyStopHookMinActions,
			check: func(c *Config) bool {
				return c.StopHookMinActions == 10
			},
		},
		{
			name:    "bad log level",
			content: "log_level: chatty\n",
			field:   KeyLogLevel,
			check: func(c *Config) bool {
				return c.LogLevel == "info"
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeConfig(t, fs, tt.content)

			cfg, err := Load(fs, testProject)
			if err == nil {
				t.Fatal("expected validation errors")
			}
			errs, ok := err.(ValidationErrors)
			if !ok {
				t.Fatalf("error type = %T, want ValidationErrors", err)
			}
			found := false
			for _, e := range errs {
				if e.Field == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("no error for field %s in %v", tt.field, errs)
			}
			if !tt.check(cfg) {
				t.Errorf("unexpected config after fallback: %+v", cfg)
			}
		})
	}
}

func TestLoad_UnparseableFile(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "project_type: [unterminated\n")

	cfg, err := Load(fs, testProject)
	if err == nil || !strings.Contains(err.Error(), "config.yaml") {
		t.Errorf("expected config.yaml error, got %v", err)
	}
	if *cfg != *Default() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoad_MalformedLineKeepsOtherFields(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "plan_review_min_actions: 5\n"+
		"stop_hook_min_actions: 3\n"+
		"pre_compaction_sync_threshold: [oops\n"+
		"# comment: ignored\n"+
		"pebble_enabled: true # trailing comment\n")

	cfg, err := Load(fs, testProject)
	if err == nil {
		t.Fatal("expected an error for the malformed line")
	}
	if !strings.Contains(err.Error(), KeyPreCompactionSyncThreshold) {
		t.Errorf("error should name the malformed key, got %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{KeyPlanReviewMinActions, cfg.PlanReviewMinActions, 5},
		{KeyStopHookMinActions, cfg.StopHookMinActions, 3},
		{KeyPebbleEnabled, cfg.PebbleEnabled, true},
		{KeyPreCompactionSyncThreshold, cfg.PreCompactionSyncThreshold, 150000},
		{KeyLogLevel, cfg.LogLevel, "info"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoad_MalformedFileEnvStillWins(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "stop_hook_min_actions: 3\nproject_type: [oops\n")
	t.Setenv("MERIDIAN_STOP_HOOK_MIN_ACTIONS", "8")

	cfg, _ := Load(fs, testProject)
	if cfg.StopHookMinActions != 8 {
		t.Errorf("StopHookMinActions = %d, want 8 from env", cfg.StopHookMinActions)
	}
}

func TestLoad_EnvOverride(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "stop_hook_min_actions: 4\n")
	t.Setenv("MERIDIAN_STOP_HOOK_MIN_ACTIONS", "7")
	t.Setenv("MERIDIAN_PEBBLE_ENABLED", "true")

	cfg := Get(fs, testProject)
	if cfg.StopHookMinActions != 7 {
		t.Errorf("StopHookMinActions = %d, want 7 from env", cfg.StopHookMinActions)
	}
	if !cfg.PebbleEnabled {
		t.Error("PebbleEnabled should come from env")
	}
}

func TestValidationErrors_Error(t *testing.T) {
	single := ValidationErrors{{Field: "a", Value: 1, Message: "bad"}}
	if single.Error() != "a: bad (got: 1)" {
		t.Errorf("single Error() = %q", single.Error())
	}

	multi := ValidationErrors{
		{Field: "a", Value: 1, Message: "bad"},
		{Field: "b", Value: "x", Message: "worse"},
	}
	if !strings.HasPrefix(multi.Error(), "2 validation errors:") {
		t.Errorf("multi Error() = %q", multi.Error())
	}
	if (ValidationErrors{}).Error() != "" {
		t.Error("empty ValidationErrors should render empty")
	}
}

func TestExistsAndPath(t *testing.T) {
	fs := afero.NewMemMapFs()
	if Exists(fs, testProject) {
		t.Error("Exists() = true before write")
	}
	writeConfig(t, fs, "project_type: standard\n")
	if !Exists(fs, testProject) {
		t.Error("Exists() = false after write")
	}
	if Path(testProject) != "/project/.meridian/config.yaml" {
		t.Errorf("Path() = %q", Path(testProject))
	}
}
