package handlers

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
)

//go:embed schemas/*.json
var schemaFS embed.FS

// Request body schemas.
const (
	SchemaCreatePaymentIntent = "create_payment_intent"
	SchemaProcessWallet       = "process_gcash_payment"
	SchemaConfirmPayment      = "confirm_payment"
	SchemaCredentials         = "credentials"
	SchemaOrderStatus         = "order_status"
)

// BodyValidator checks request bodies against the embedded JSON schemas and
// reports every violation at once.
type BodyValidator struct {
	schemas map[string]*gojsonschema.Schema
}

// NewBodyValidator compiles the embedded schemas.
func NewBodyValidator() (*BodyValidator, error) {
	entries, err := fs.ReadDir(schemaFS, "schemas")
	if err != nil {
		return nil, err
	}
	v := &BodyValidator{schemas: make(map[string]*gojsonschema.Schema, len(entries))}
	for _, entry := range entries {
		data, err := schemaFS.ReadFile(path.Join("schemas", entry.Name()))
		if err != nil {
			return nil, err
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, fmt.Errorf("compile schema %s: %w", entry.Name(), err)
		}
		v.schemas[strings.TrimSuffix(entry.Name(), ".json")] = schema
	}
	return v, nil
}

// Validate returns a ValidationError when body is not valid JSON or breaks the schema.
func (v *BodyValidator) Validate(name string, body []byte) error {
	schema, ok := v.schemas[name]
	if !ok {
		return fmt.Errorf("unknown schema %q", name)
	}
	result, err := schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return domainErrors.NewValidationError("malformed JSON body")
	}
	if result.Valid() {
		return nil
	}
	verr := domainErrors.NewValidationError("invalid request body")
	for _, desc := range result.Errors() {
		field := strings.TrimPrefix(strings.TrimPrefix(desc.Field(), "(root)"), ".")
		if field == "" {
			field = "body"
		}
		verr.Add(field, desc.Description())
	}
	return verr
}
