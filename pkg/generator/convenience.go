package generator

import (
	"context"
	"path/filepath"

	"github.com/blimu-dev/resourcegen/pkg/config"
	"github.com/blimu-dev/resourcegen/pkg/openapi"
)

// GenerateSDK is a convenience function for generating SDKs with minimal configuration
func GenerateSDK(ctx context.Context, opts GenerateSDKOptions) error {
	service := NewService()

	genOpts := GenerateOptions{
		ConfigPath:   opts.ConfigPath,
		SingleClient: opts.SingleClient,
		Fallback: FallbackOptions{
			Spec:             opts.Spec,
			Type:             opts.Type,
			OutDir:           opts.OutDir,
			PackageName:      opts.PackageName,
			ModuleName:       opts.ModuleName,
			Name:             opts.Name,
			IncludeResources: opts.IncludeResources,
			ExcludeResources: opts.ExcludeResources,
			StrictFormats:    opts.StrictFormats,
		},
	}

	return service.Generate(ctx, genOpts)
}

// GenerateSDKOptions contains options for the convenience GenerateSDK function
type GenerateSDKOptions struct {
	// ConfigPath is the path to the configuration file (optional)
	ConfigPath string

	// SingleClient generates only the named client from config (optional)
	SingleClient string

	// Fallback options when no config file is provided
	Spec             string   // OpenAPI spec file or URL
	Type             string   // Generator type: go, python or typescript
	OutDir           string   // Output directory
	PackageName      string   // Package name for the generated SDK
	ModuleName       string   // Module or npm package name (optional)
	Name             string   // Client type name
	IncludeResources []string // Regex patterns for resources to include
	ExcludeResources []string // Regex patterns for resources to exclude
	StrictFormats    bool     // Fail on unknown integer formats
}

// GenerateGoSDK is a convenience function specifically for Go SDK generation
func GenerateGoSDK(ctx context.Context, spec, outDir, moduleName, clientName string) error {
	// Ensure absolute path for outDir
	absOutDir, err := filepath.Abs(outDir)
	if err != nil {
		return err
	}

	return GenerateSDK(ctx, GenerateSDKOptions{
		Spec:        spec,
		Type:        "go",
		OutDir:      absOutDir,
		PackageName: moduleName,
		ModuleName:  moduleName,
		Name:        clientName,
	})
}

// GenerateFromConfig is a convenience function for generating from a config file
func GenerateFromConfig(ctx context.Context, configPath string, singleClient ...string) error {
	service := NewService()
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	onlyClient := ""
	if len(singleClient) > 0 {
		onlyClient = singleClient[0]
	}

	return service.GenerateFromConfig(ctx, cfg, onlyClient)
}

// ValidateSpec validates an OpenAPI specification
func ValidateSpec(specPath string) error {
	return openapi.ValidateDocument(specPath)
}
