package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report yaml keys in validation errors.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Config represents the complete configuration for resource SDK generation
type Config struct {
	Spec string `yaml:"spec" validate:"required"`
	Name string `yaml:"name"`
	// StrictFormats maps unknown string formats to the string type instead of the
	// integer fallback.
	StrictFormats bool     `yaml:"strictFormats"`
	Clients       []Client `yaml:"clients" validate:"dive"`
}

// Client represents configuration for a single client SDK
type Client struct {
	Type        string `yaml:"type" validate:"required,oneof=go python typescript"`
	OutDir      string `yaml:"outDir" validate:"required"`
	PackageName string `yaml:"packageName" validate:"required"`
	ModuleName  string `yaml:"moduleName"`
	Name        string `yaml:"name" validate:"required"`
	// IncludeResources and ExcludeResources are regular expressions matched against
	// resource ids.
	IncludeResources []string `yaml:"includeResources"`
	ExcludeResources []string `yaml:"excludeResources"`
	// FlattenNestedParams overrides the backend's nested parameter mode when set.
	FlattenNestedParams *bool `yaml:"flattenNestedParams"`
	// BlankIndex is the default composite-array policy: "error" or "empty".
	BlankIndex      string                     `yaml:"blankIndex" validate:"omitempty,oneof=error empty"`
	ResourceOptions map[string]ResourceOptions `yaml:"resourceOptions" validate:"dive"`
	// PreCommand is an optional command to run before generation starts, in Docker
	// Compose array format: ["goimports", "-w", "."]. It runs in the output directory.
	PreCommand []string `yaml:"preCommand"`
	// PostCommand is an optional command to run after generation completes.
	PostCommand []string `yaml:"postCommand"`
	// DefaultBaseURL is used when no base URL is provided when creating a client
	DefaultBaseURL string `yaml:"defaultBaseURL" validate:"omitempty,url"`
	// ExcludeFiles is a list of file paths (relative to outDir) that should not be generated
	// Example: ["README.md", "services/"]
	ExcludeFiles []string `yaml:"exclude"`
}

// ResourceOptions overrides client options for one resource.
type ResourceOptions struct {
	BlankIndex string `yaml:"blankIndex" validate:"omitempty,oneof=error empty"`
}

// GetPreCommand returns the pre-generation command to execute.
func (c *Client) GetPreCommand() []string {
	return c.PreCommand
}

// GetPostCommand returns the post-generation command to execute.
func (c *Client) GetPostCommand() []string {
	return c.PostCommand
}

// ShouldExcludeFile checks if a file path should be excluded based on the ExcludeFiles list.
// relPath is slash-separated and relative to OutDir.
func (c *Client) ShouldExcludeFile(relPath string) bool {
	if len(c.ExcludeFiles) == 0 {
		return false
	}
	relPath = filepath.ToSlash(filepath.Clean(relPath))
	if relPath == "." {
		relPath = ""
	}

	for _, pattern := range c.ExcludeFiles {
		normalized := strings.TrimSuffix(filepath.ToSlash(pattern), "/")
		if relPath == normalized {
			return true
		}
		// "services/" excludes everything below services
		if normalized != "" && strings.HasPrefix(relPath, normalized+"/") {
			return true
		}
	}
	return false
}

// Validate checks the struct-level constraints of a configuration.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "Config.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s: failed %s", field, fe.Tag()))
		}
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// Load loads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a YAML configuration, absolutizing local paths.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.absolutize()
	return &cfg, nil
}

func (c *Config) absolutize() {
	for i := range c.Clients {
		cl := &c.Clients[i]
		if !filepath.IsAbs(cl.OutDir) {
			abs, _ := filepath.Abs(cl.OutDir)
			cl.OutDir = abs
		}
	}
	// Do not absolutize when spec is an HTTP(S) URL
	if IsURL(c.Spec) {
		return
	}
	if !filepath.IsAbs(c.Spec) {
		abs, _ := filepath.Abs(c.Spec)
		c.Spec = abs
	}
}

// IsURL reports whether s is an http(s) URL.
func IsURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https")
}
