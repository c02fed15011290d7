package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aretw0/relay/pkg/registry"
	"github.com/aretw0/relay/pkg/schema"
	"github.com/getkin/kin-openapi/openapi3"
)

// OpenAPI handles GET /openapi.json.
func (s *Server) OpenAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := BuildDocument(s.Registry, s.title, s.version)
	if err != nil {
		s.logger.Error("openapi: build failed", "error", err)
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

// BuildDocument describes every container operation of reg as an OpenAPI
// 3 path, with the operation's parameter schema as request body.
func BuildDocument(reg *registry.Registry, title, version string) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: "3.0.3",
		Info:    &openapi3.Info{Title: title, Version: version},
		Paths:   openapi3.NewPaths(),
	}

	for _, u := range reg.Units() {
		switch u.Kind {
		case registry.KindContainer:
			c := u.Container
			doc.Tags = append(doc.Tags, &openapi3.Tag{Name: c.Name(), Description: c.Description()})
			for _, op := range c.Operations() {
				params, err := toSchema(schema.ParameterSchema(op.InputSchema()))
				if err != nil {
					return nil, fmt.Errorf("%s: %w", c.FunctionName(op), err)
				}
				path := fmt.Sprintf("/containers/%s/operations/%s", c.Slug(), op.Slug())
				doc.Paths.Set(path, &openapi3.PathItem{
					Post: operation(c.FunctionName(op), c.Name(), op.Name(), op.Description(), invokeBody(params)),
				})
			}
		case registry.KindOperation:
			op := u.Operation
			params, err := toSchema(schema.ParameterSchema(op.InputSchema()))
			if err != nil {
				return nil, fmt.Errorf("%s: %w", op.Slug(), err)
			}
			doc.Paths.Set("/functions/"+op.Slug(), &openapi3.PathItem{
				Post: operation(op.Slug(), "", op.Name(), op.Description(), params),
			})
		}
	}
	return doc, nil
}

func operation(id, tag, summary, description string, body *openapi3.Schema) *openapi3.Operation {
	op := &openapi3.Operation{
		OperationID: id,
		Summary:     summary,
		Description: description,
		RequestBody: &openapi3.RequestBodyRef{
			Value: openapi3.NewRequestBody().WithJSONSchema(body),
		},
		Responses: openapi3.NewResponses(
			openapi3.WithStatus(http.StatusOK, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().WithDescription("Operation result").WithJSONSchema(resultSchema()),
			}),
			openapi3.WithStatus(http.StatusBadRequest, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().WithDescription("Invalid input").WithJSONSchema(errorSchema()),
			}),
			openapi3.WithStatus(http.StatusNotFound, &openapi3.ResponseRef{
				Value: openapi3.NewResponse().WithDescription("Unknown operation").WithJSONSchema(errorSchema()),
			}),
		),
	}
	if tag != "" {
		op.Tags = []string{tag}
	}
	return op
}

func invokeBody(input *openapi3.Schema) *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("input", input).
		WithProperty("context", openapi3.NewObjectSchema())
}

func resultSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().WithPropertyRef("result", &openapi3.SchemaRef{Value: &openapi3.Schema{}})
}

func errorSchema() *openapi3.Schema {
	return openapi3.NewObjectSchema().
		WithProperty("error", openapi3.NewStringSchema()).
		WithPropertyRef("details", &openapi3.SchemaRef{Value: &openapi3.Schema{}}).
		WithRequired([]string{"error"})
}

// toSchema converts a JSON-Schema document into its OpenAPI form.
func toSchema(doc map[string]any) (*openapi3.Schema, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	s := openapi3.NewSchema()
	if err := s.UnmarshalJSON(raw); err != nil {
		return nil, err
	}
	return s, nil
}
