// Package config loads the per-project meridian configuration from
// .meridian/config.yaml with MERIDIAN_* environment overrides.
//
// Every field is read on its own. A field that is missing, cannot be
// coerced to its type, or fails validation keeps its default while the
// rest of the file still applies.
package config

import (
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config keys as they appear in config.yaml.
const (
	KeyProjectType                = "project_type"
	KeyPlanReviewEnabled          = "plan_review_enabled"
	KeyPlanReviewMinActions       = "plan_review_min_actions"
	KeyPreCompactionSyncEnabled   = "pre_compaction_sync_enabled"
	KeyPreCompactionSyncThreshold = "pre_compaction_sync_threshold"
	KeyAutoCompactOff             = "auto_compact_off"
	KeyStopHookMinActions         = "stop_hook_min_actions"
	KeyCodeReviewEnabled          = "code_review_enabled"
	KeyPebbleEnabled              = "pebble_enabled"
	KeyDocsResearcherWriteReq     = "docs_researcher_write_required"
	KeyPebbleScaffolderEnabled    = "pebble_scaffolder_enabled"
	KeyWorkspaceMaxLines          = "workspace_max_lines"
	KeyLogLevel                   = "log_level"
	KeyLogMaxSizeMB               = "log_max_size_mb"
	KeyLogMaxBackups              = "log_max_backups"
)

// EnvPrefix is prepended to upper-cased keys for environment overrides,
// e.g. MERIDIAN_PLAN_REVIEW_ENABLED.
const EnvPrefix = "MERIDIAN"

// Config is the read-only session configuration.
type Config struct {
	// ProjectType selects review addons. One of hackathon, standard, production.
	ProjectType string `mapstructure:"project_type" yaml:"project_type"`

	PlanReviewEnabled    bool `mapstructure:"plan_review_enabled" yaml:"plan_review_enabled"`
	PlanReviewMinActions int  `mapstructure:"plan_review_min_actions" yaml:"plan_review_min_actions"`

	PreCompactionSyncEnabled   bool `mapstructure:"pre_compaction_sync_enabled" yaml:"pre_compaction_sync_enabled"`
	PreCompactionSyncThreshold int  `mapstructure:"pre_compaction_sync_threshold" yaml:"pre_compaction_sync_threshold"`
	// AutoCompactOff means the host will not compact on its own; the
	// pre-compaction gate asks for a restart instead.
	AutoCompactOff bool `mapstructure:"auto_compact_off" yaml:"auto_compact_off"`

	// StopHookMinActions is the action count below which a stop is let
	// through without the checklist. 0 always shows it.
	StopHookMinActions int  `mapstructure:"stop_hook_min_actions" yaml:"stop_hook_min_actions"`
	CodeReviewEnabled  bool `mapstructure:"code_review_enabled" yaml:"code_review_enabled"`

	PebbleEnabled               bool `mapstructure:"pebble_enabled" yaml:"pebble_enabled"`
	DocsResearcherWriteRequired bool `mapstructure:"docs_researcher_write_required" yaml:"docs_researcher_write_required"`
	PebbleScaffolderEnabled     bool `mapstructure:"pebble_scaffolder_enabled" yaml:"pebble_scaffolder_enabled"`
	WorkspaceMaxLines           int  `mapstructure:"workspace_max_lines" yaml:"workspace_max_lines"`

	LogLevel      string `mapstructure:"log_level" yaml:"log_level"`
	LogMaxSizeMB  int    `mapstructure:"log_max_size_mb" yaml:"log_max_size_mb"`
	LogMaxBackups int    `mapstructure:"log_max_backups" yaml:"log_max_backups"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		ProjectType:                 "standard",
		PlanReviewEnabled:           true,
		PlanReviewMinActions:        20,
		PreCompactionSyncEnabled:    true,
		PreCompactionSyncThreshold:  150000,
		AutoCompactOff:              false,
		StopHookMinActions:          10,
		CodeReviewEnabled:           true,
		PebbleEnabled:               false,
		DocsResearcherWriteRequired: true,
		PebbleScaffolderEnabled:     true,
		WorkspaceMaxLines:           1000,
		LogLevel:                    "info",
		LogMaxSizeMB:                5,
		LogMaxBackups:               2,
	}
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyProjectType, d.ProjectType)
	v.SetDefault(KeyPlanReviewEnabled, d.PlanReviewEnabled)
	v.SetDefault(KeyPlanReviewMinActions, d.PlanReviewMinActions)
	v.SetDefault(KeyPreCompactionSyncEnabled, d.PreCompactionSyncEnabled)
	v.SetDefault(KeyPreCompactionSyncThreshold, d.PreCompactionSyncThreshold)
	v.SetDefault(KeyAutoCompactOff, d.AutoCompactOff)
	v.SetDefault(KeyStopHookMinActions, d.StopHookMinActions)
	v.SetDefault(KeyCodeReviewEnabled, d.CodeReviewEnabled)
	v.SetDefault(KeyPebbleEnabled, d.PebbleEnabled)
	v.SetDefault(KeyDocsResearcherWriteReq, d.DocsResearcherWriteRequired)
	v.SetDefault(KeyPebbleScaffolderEnabled, d.PebbleScaffolderEnabled)
	v.SetDefault(KeyWorkspaceMaxLines, d.WorkspaceMaxLines)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyLogMaxSizeMB, d.LogMaxSizeMB)
	v.SetDefault(KeyLogMaxBackups, d.LogMaxBackups)
}

// Path returns the config file location for a project.
func Path(projectDir string) string {
	return filepath.Join(projectDir, ".meridian", "config.yaml")
}

// NewViper returns a viper instance bound to the project's config file and
// the MERIDIAN_ environment. The file is not read yet.
func NewViper(fs afero.Fs, projectDir string) *viper.Viper {
	v := viper.New()
	v.SetFs(fs)
	v.SetConfigFile(Path(projectDir))
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load reads the project config. The returned Config is always usable:
// every problem is reported in the error (a ValidationErrors) and the
// affected field keeps its default.
func Load(fs afero.Fs, projectDir string) (*Config, error) {
	v := NewViper(fs, projectDir)

	var errs []ValidationError
	if Exists(fs, projectDir) {
		if err := v.ReadInConfig(); err != nil {
			errs = append(errs, ValidationError{
				Field:   "config.yaml",
				Value:   Path(projectDir),
				Message: "not valid YAML, reading keys one line at a time: " + err.Error(),
			})
			errs = append(errs, readLines(fs, projectDir, v)...)
		}
	}

	r := fieldReader{v: v}
	d := Default()
	cfg := &Config{
		ProjectType:                 r.str(KeyProjectType, d.ProjectType),
		PlanReviewEnabled:           r.boolean(KeyPlanReviewEnabled, d.PlanReviewEnabled),
		PlanReviewMinActions:        r.integer(KeyPlanReviewMinActions, d.PlanReviewMinActions),
		PreCompactionSyncEnabled:    r.boolean(KeyPreCompactionSyncEnabled, d.PreCompactionSyncEnabled),
		PreCompactionSyncThreshold:  r.integer(KeyPreCompactionSyncThreshold, d.PreCompactionSyncThreshold),
		AutoCompactOff:              r.boolean(KeyAutoCompactOff, d.AutoCompactOff),
		StopHookMinActions:          r.integer(KeyStopHookMinActions, d.StopHookMinActions),
		CodeReviewEnabled:           r.boolean(KeyCodeReviewEnabled, d.CodeReviewEnabled),
		PebbleEnabled:               r.boolean(KeyPebbleEnabled, d.PebbleEnabled),
		DocsResearcherWriteRequired: r.boolean(KeyDocsResearcherWriteReq, d.DocsResearcherWriteRequired),
		PebbleScaffolderEnabled:     r.boolean(KeyPebbleScaffolderEnabled, d.PebbleScaffolderEnabled),
		WorkspaceMaxLines:           r.integer(KeyWorkspaceMaxLines, d.WorkspaceMaxLines),
		LogLevel:                    r.str(KeyLogLevel, d.LogLevel),
		LogMaxSizeMB:                r.integer(KeyLogMaxSizeMB, d.LogMaxSizeMB),
		LogMaxBackups:               r.integer(KeyLogMaxBackups, d.LogMaxBackups),
	}
	errs = append(errs, r.errs...)

	invalid := cfg.Validate()
	for _, e := range invalid {
		cfg.resetField(e.Field)
	}
	errs = append(errs, invalid...)

	if len(errs) > 0 {
		return cfg, ValidationErrors(errs)
	}
	return cfg, nil
}

// readLines salvages a config file that does not parse as a whole. Each
// top-level "key: value" line is decoded on its own and registered as a
// default, so environment overrides still win. Lines that fail to decode
// are reported and skipped.
func readLines(fs afero.Fs, projectDir string, v *viper.Viper) []ValidationError {
	data, err := afero.ReadFile(fs, Path(projectDir))
	if err != nil {
		return []ValidationError{{Field: "config.yaml", Value: Path(projectDir), Message: "unreadable, using defaults: " + err.Error()}}
	}

	var errs []ValidationError
	for _, line := range strings.Split(string(data), "\n") {
		if line == "" || line[0] == ' ' || line[0] == '\t' || line[0] == '#' || line[0] == '-' {
			continue
		}
		key, raw, ok := strings.Cut(line, ":")
		key, raw = strings.TrimSpace(key), strings.TrimSpace(raw)
		if !ok || key == "" || raw == "" {
			continue
		}

		var val any
		if err := yaml.Unmarshal([]byte(raw), &val); err != nil {
			errs = append(errs, ValidationError{Field: key, Value: raw, Message: "unparseable, using default"})
			continue
		}
		v.SetDefault(key, val)
	}
	return errs
}

// Get loads the project config and discards any problems.
func Get(fs afero.Fs, projectDir string) *Config {
	cfg, _ := Load(fs, projectDir)
	return cfg
}

// LoadOS is Load against the real filesystem.
func LoadOS(projectDir string) (*Config, error) {
	return Load(afero.NewOsFs(), projectDir)
}

// fieldReader coerces one key at a time, remembering failures.
type fieldReader struct {
	v    *viper.Viper
	errs []ValidationError
}

func (r *fieldReader) raw(key string) (any, bool) {
	val := r.v.Get(key)
	return val, val != nil
}

func (r *fieldReader) integer(key string, def int) int {
	val, ok := r.raw(key)
	if !ok {
		return def
	}
	n, err := cast.ToIntE(val)
	if err != nil {
		r.errs = append(r.errs, ValidationError{Field: key, Value: val, Message: "must be an integer"})
		return def
	}
	return n
}

func (r *fieldReader) boolean(key string, def bool) bool {
	val, ok := r.raw(key)
	if !ok {
		return def
	}
	b, err := cast.ToBoolE(val)
	if err != nil {
		r.errs = append(r.errs, ValidationError{Field: key, Value: val, Message: "must be true or false"})
		return def
	}
	return b
}

func (r *fieldReader) str(key string, def string) string {
	val, ok := r.raw(key)
	if !ok {
		return def
	}
	s, err := cast.ToStringE(val)
	if err != nil {
		r.errs = append(r.errs, ValidationError{Field: key, Value: val, Message: "must be a string"})
		return def
	}
	return s
}

// Exists reports whether the project has a config file.
func Exists(fs afero.Fs, projectDir string) bool {
	ok, err := afero.Exists(fs, Path(projectDir))
	return err == nil && ok
}
