package schema

import (
	_ "embed"
	"errors"

	"github.com/xeipuuv/gojsonschema"
)

type SchemaType int

const (
	// SchemaTypeEnvelope describes requests sent to workers
	SchemaTypeEnvelope SchemaType = iota

	// SchemaTypeReply describes replies received from workers
	SchemaTypeReply
)

func (t SchemaType) String() string {
	switch t {
	case SchemaTypeEnvelope:
		return "envelope"
	case SchemaTypeReply:
		return "reply"
	default:
		return "unknown"
	}
}

var ErrSchemaNotFound = errors.New("schema not found")

type Schema struct {
	schemas map[SchemaType]*gojsonschema.Schema
}

func (s *Schema) Get(schemaType SchemaType) (*gojsonschema.Schema, error) {
	schema, ok := s.schemas[schemaType]
	if !ok {
		return nil, ErrSchemaNotFound
	}

	return schema, nil
}

// Validate validates raw JSON against the schema of the given type.
func (s *Schema) Validate(schemaType SchemaType, data []byte) (*gojsonschema.Result, error) {
	schema, err := s.Get(schemaType)
	if err != nil {
		return nil, err
	}

	return schema.Validate(gojsonschema.NewBytesLoader(data))
}

// ValidateValue validates a Go value against the schema of the given type.
func (s *Schema) ValidateValue(schemaType SchemaType, data any) (*gojsonschema.Result, error) {
	schema, err := s.Get(schemaType)
	if err != nil {
		return nil, err
	}

	return schema.Validate(gojsonschema.NewGoLoader(data))
}

//go:embed envelope.json
var envelope []byte

//go:embed reply.json
var reply []byte

func New() (*Schema, error) {
	envelopeSchema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(envelope))
	if err != nil {
		return nil, err
	}

	replySchema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(reply))
	if err != nil {
		return nil, err
	}

	return &Schema{
		schemas: map[SchemaType]*gojsonschema.Schema{
			SchemaTypeEnvelope: envelopeSchema,
			SchemaTypeReply:    replySchema,
		},
	}, nil
}
