// Package resourcegen generates resource-oriented client SDKs from OpenAPI
// specifications annotated with resource extensions (x-cb-resource-id and friends).
//
// Each resource becomes a model, a service with one method per operation, typed
// parameter builders and response types. Go, Python and TypeScript are supported.
//
// Quick Start:
//
//	import "github.com/blimu-dev/resourcegen"
//
//	err := resourcegen.GenerateGoSDK(ctx,
//		"./openapi.yaml",
//		"./billing-go",
//		"github.com/acme/billing-go",
//		"BillingClient",
//	)
//
// For more advanced usage, see the generator package.
package resourcegen

import (
	"context"

	"github.com/blimu-dev/resourcegen/pkg/generator"
)

// GenerateGoSDK generates a Go SDK with minimal configuration.
//
// Parameters:
//   - spec: Path to OpenAPI specification file or HTTP(S) URL
//   - outDir: Output directory for the generated SDK
//   - moduleName: Go module path of the generated SDK
//   - clientName: Name of the client type
func GenerateGoSDK(ctx context.Context, spec, outDir, moduleName, clientName string) error {
	return generator.GenerateGoSDK(ctx, spec, outDir, moduleName, clientName)
}

// GenerateSDK generates an SDK with full configuration options.
//
// Example:
//
//	err := resourcegen.GenerateSDK(ctx, resourcegen.GenerateSDKOptions{
//		Spec:             "./openapi.yaml",
//		Type:             "python",
//		OutDir:           "./billing-py",
//		PackageName:      "billing",
//		Name:             "BillingClient",
//		IncludeResources: []string{"^customer", "^invoice"},
//		ExcludeResources: []string{"internal"},
//	})
func GenerateSDK(ctx context.Context, opts GenerateSDKOptions) error {
	return generator.GenerateSDK(ctx, opts)
}

// GenerateFromConfig generates SDKs from a YAML configuration file.
// Optionally, you can specify a single client name to generate only that client.
//
// Example:
//
//	// Generate all clients from config
//	err := resourcegen.GenerateFromConfig(ctx, "./resourcegen.yaml")
//
//	// Generate only a specific client
//	err := resourcegen.GenerateFromConfig(ctx, "./resourcegen.yaml", "BillingClient")
func GenerateFromConfig(ctx context.Context, configPath string, singleClient ...string) error {
	return generator.GenerateFromConfig(ctx, configPath, singleClient...)
}

// ValidateSpec validates an OpenAPI specification file.
func ValidateSpec(specPath string) error {
	return generator.ValidateSpec(specPath)
}

// GenerateSDKOptions contains options for SDK generation
type GenerateSDKOptions = generator.GenerateSDKOptions
