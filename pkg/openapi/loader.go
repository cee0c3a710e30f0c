package openapi

import (
	"context"
	"fmt"
	"net/url"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/blimu-dev/resourcegen/pkg/spec"
)

// LoadDocument loads an OpenAPI document from a local file path or an HTTP(S) URL
func LoadDocument(input string) (*openapi3.T, error) {
	loader := &openapi3.Loader{IsExternalRefsAllowed: true}
	return LoadDocumentWithLoader(loader, input)
}

// LoadDocumentWithLoader loads an OpenAPI document using a custom loader
func LoadDocumentWithLoader(loader *openapi3.Loader, input string) (*openapi3.T, error) {
	if u, err := url.Parse(input); err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return loader.LoadFromURI(u)
	}
	return loader.LoadFromFile(input)
}

// LoadData loads an OpenAPI document from memory. External references are not followed.
func LoadData(data []byte) (*openapi3.T, error) {
	return openapi3.NewLoader().LoadFromData(data)
}

// ValidateDocument validates an OpenAPI document
func ValidateDocument(input string) error {
	loader := &openapi3.Loader{IsExternalRefsAllowed: true}
	doc, err := LoadDocumentWithLoader(loader, input)
	if err != nil {
		return err
	}
	return Validate(loader.Context, doc)
}

// Validate checks a loaded document.
func Validate(ctx context.Context, doc *openapi3.T) error {
	if ctx == nil {
		ctx = context.Background()
	}
	return doc.Validate(ctx)
}

// LoadSpec loads input and converts it to the normalized resource description.
func LoadSpec(input string) (*spec.Spec, error) {
	doc, err := LoadDocument(input)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", input, err)
	}
	s, err := spec.FromOpenAPI(doc)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", input, err)
	}
	return s, nil
}
