// Package openapi generates the OpenAPI 3.1 document for the public API.
// The document is static: the route surface is fixed, so it is built once
// at startup and served as-is.
package openapi

import (
	"fmt"

	"github.com/getkin/kin-openapi/openapi3"
)

// Generate builds the OpenAPI document for the API served at baseURL.
func Generate(baseURL, version string) *openapi3.T {
	doc := &openapi3.T{
		OpenAPI: "3.1.0",
		Info: &openapi3.Info{
			Title:       "KMBUI backend API",
			Description: "REST API to KMBUI's backend: API key issuance workflow and content endpoints.",
			Version:     version,
		},
		Servers: openapi3.Servers{
			{URL: baseURL},
		},
	}

	components := openapi3.NewComponents()
	components.Schemas = openapi3.Schemas{}
	components.SecuritySchemes = openapi3.SecuritySchemes{}
	doc.Components = &components

	doc.Components.SecuritySchemes["basicAuth"] = &openapi3.SecuritySchemeRef{
		Value: &openapi3.SecurityScheme{
			Type:   "http",
			Scheme: "basic",
		},
	}

	doc.Components.Schemas["ErrorResponse"] = objectSchema(map[string]*openapi3.SchemaRef{
		"error": objectSchema(map[string]*openapi3.SchemaRef{
			"code":    typed("integer"),
			"message": typed("string"),
			"fields":  typed("object"),
		}),
	})

	doc.Paths = openapi3.NewPaths()
	addMetadataPath(doc)
	addKeyRequestPaths(doc)
	addKeyClaimPath(doc)
	addContentPaths(doc)

	return doc
}

func addMetadataPath(doc *openapi3.T) {
	doc.Paths.Set("/", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "getMetadata",
			Summary:     "API metadata",
			Tags:        []string{"General"},
			Responses: jsonResponses(map[int]*openapi3.SchemaRef{
				200: objectSchema(map[string]*openapi3.SchemaRef{
					"name":       typed("string"),
					"apiVersion": typed("string"),
				}),
			}),
		},
	})
}

func addKeyRequestPaths(doc *openapi3.T) {
	pendingItem := objectSchema(map[string]*openapi3.SchemaRef{
		"id":                 typed("integer"),
		"requesterName":      typed("string"),
		"requestDescription": typed("string"),
		"receipt":            typed("string"),
		"createdAt":          typedFormat("string", "date-time"),
	})

	doc.Paths.Set("/key-requests", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "createKeyRequest",
			Summary:     "Submit a new API key request",
			Description: "Returns a receipt. This is the only time the receipt is shown; it is required to claim the key later.",
			Tags:        []string{"API keys"},
			RequestBody: jsonBody(objectSchema(map[string]*openapi3.SchemaRef{
				"requesterName":      typed("string"),
				"requestDescription": typed("string"),
				"password":           typed("string"),
			}), "requesterName", "requestDescription", "password"),
			Responses: withErrors(jsonResponses(map[int]*openapi3.SchemaRef{
				201: objectSchema(map[string]*openapi3.SchemaRef{"receipt": typed("string")}),
			}), 422),
		},
		Get: &openapi3.Operation{
			OperationID: "listPendingKeyRequests",
			Summary:     "List pending key requests",
			Tags:        []string{"API keys"},
			Security:    basicSecurity(),
			Responses: withErrors(jsonResponses(map[int]*openapi3.SchemaRef{
				200: arraySchema(pendingItem),
			}), 401, 500),
		},
	})

	doc.Paths.Set("/key-requests/{id}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{
			{Value: &openapi3.Parameter{
				Name: "id", In: "path", Required: true,
				Schema: typed("integer"),
			}},
		},
		Patch: &openapi3.Operation{
			OperationID: "decideKeyRequest",
			Summary:     "Approve or deny a pending key request",
			Tags:        []string{"API keys"},
			Security:    basicSecurity(),
			RequestBody: jsonBody(objectSchema(map[string]*openapi3.SchemaRef{
				"username": typed("string"),
				"approved": typed("boolean"),
			}), "approved"),
			Responses: withErrors(textResponses(map[int]string{
				200: "Confirmation of the decision",
			}), 401, 404),
		},
	})
}

func addKeyClaimPath(doc *openapi3.T) {
	doc.Paths.Set("/key-claims", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "claimKey",
			Summary:     "Claim an issued key with receipt and password",
			Description: "Returns the key if one was issued, or a plain-text notice when the request was denied or is still pending. Claims are repeatable.",
			Tags:        []string{"API keys"},
			RequestBody: jsonBody(objectSchema(map[string]*openapi3.SchemaRef{
				"receipt":  typed("string"),
				"password": typed("string"),
			}), "receipt", "password"),
			Responses: withErrors(jsonResponses(map[int]*openapi3.SchemaRef{
				200: objectSchema(map[string]*openapi3.SchemaRef{"key": typed("string")}),
			}), 401, 404, 422, 500),
		},
	})
}

func addContentPaths(doc *openapi3.T) {
	articleSchema := objectSchema(map[string]*openapi3.SchemaRef{
		"id":        typed("integer"),
		"title":     typed("string"),
		"subtitle":  typed("string"),
		"theme":     typed("string"),
		"writer":    typed("string"),
		"content":   typed("string"),
		"createdAt": typedFormat("string", "date-time"),
	})
	magazineSchema := objectSchema(map[string]*openapi3.SchemaRef{
		"id":           typed("integer"),
		"title":        typed("string"),
		"description":  typed("string"),
		"thumbnailUrl": typed("string"),
		"contentUrl":   typed("string"),
		"createdAt":    typedFormat("string", "date-time"),
	})

	doc.Paths.Set("/article", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listArticles",
			Summary:     "List articles",
			Tags:        []string{"Content"},
			Responses:   jsonResponses(map[int]*openapi3.SchemaRef{200: arraySchema(articleSchema)}),
		},
	})
	doc.Paths.Set("/article/{id}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{
			{Value: &openapi3.Parameter{Name: "id", In: "path", Required: true, Schema: typed("integer")}},
		},
		Get: &openapi3.Operation{
			OperationID: "getArticle",
			Summary:     "Get one article",
			Tags:        []string{"Content"},
			Responses:   withErrors(jsonResponses(map[int]*openapi3.SchemaRef{200: articleSchema}), 404),
		},
	})
	doc.Paths.Set("/make-article", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "createArticle",
			Summary:     "Publish an article",
			Tags:        []string{"Content"},
			RequestBody: jsonBody(objectSchema(map[string]*openapi3.SchemaRef{
				"title":    typed("string"),
				"subtitle": typed("string"),
				"theme":    typed("string"),
				"writer":   typed("string"),
				"content":  typed("string"),
			}), "title", "subtitle", "theme", "writer", "content"),
			Responses: withErrors(jsonResponses(map[int]*openapi3.SchemaRef{201: articleSchema}), 422),
		},
	})

	doc.Paths.Set("/magazine", &openapi3.PathItem{
		Get: &openapi3.Operation{
			OperationID: "listMagazines",
			Summary:     "List magazine issues",
			Tags:        []string{"Content"},
			Responses:   jsonResponses(map[int]*openapi3.SchemaRef{200: arraySchema(magazineSchema)}),
		},
	})
	doc.Paths.Set("/magazine/{id}", &openapi3.PathItem{
		Parameters: openapi3.Parameters{
			{Value: &openapi3.Parameter{Name: "id", In: "path", Required: true, Schema: typed("integer")}},
		},
		Get: &openapi3.Operation{
			OperationID: "getMagazine",
			Summary:     "Get one magazine issue",
			Tags:        []string{"Content"},
			Responses:   withErrors(jsonResponses(map[int]*openapi3.SchemaRef{200: magazineSchema}), 404),
		},
	})
	doc.Paths.Set("/make-magazine", &openapi3.PathItem{
		Post: &openapi3.Operation{
			OperationID: "createMagazine",
			Summary:     "Publish a magazine issue",
			Tags:        []string{"Content"},
			RequestBody: jsonBody(objectSchema(map[string]*openapi3.SchemaRef{
				"title":        typed("string"),
				"description":  typed("string"),
				"thumbnailUrl": typed("string"),
				"contentUrl":   typed("string"),
			}), "title", "description", "thumbnailUrl", "contentUrl"),
			Responses: withErrors(jsonResponses(map[int]*openapi3.SchemaRef{201: magazineSchema}), 422),
		},
	})
}

// --- schema construction helpers ---

func typed(t string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{t}}}
}

func typedFormat(t, format string) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{Type: &openapi3.Types{t}, Format: format}}
}

func objectSchema(props map[string]*openapi3.SchemaRef) *openapi3.SchemaRef {
	schemas := openapi3.Schemas{}
	for name, ref := range props {
		schemas[name] = ref
	}
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:       &openapi3.Types{"object"},
		Properties: schemas,
	}}
}

func arraySchema(item *openapi3.SchemaRef) *openapi3.SchemaRef {
	return &openapi3.SchemaRef{Value: &openapi3.Schema{
		Type:  &openapi3.Types{"array"},
		Items: item,
	}}
}

func jsonBody(schema *openapi3.SchemaRef, required ...string) *openapi3.RequestBodyRef {
	schema.Value.Required = required
	return &openapi3.RequestBodyRef{
		Value: openapi3.NewRequestBody().
			WithRequired(true).
			WithJSONSchemaRef(schema),
	}
}

func jsonResponses(byStatus map[int]*openapi3.SchemaRef) *openapi3.Responses {
	responses := openapi3.NewResponses()
	for status, schema := range byStatus {
		desc := fmt.Sprintf("HTTP %d", status)
		responses.Set(fmt.Sprintf("%d", status), &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription(desc).
				WithJSONSchemaRef(schema),
		})
	}
	return responses
}

func textResponses(byStatus map[int]string) *openapi3.Responses {
	responses := openapi3.NewResponses()
	for status, desc := range byStatus {
		responses.Set(fmt.Sprintf("%d", status), &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription(desc).
				WithContent(openapi3.NewContentWithSchemaRef(typed("string"), []string{"text/plain"})),
		})
	}
	return responses
}

// withErrors adds error responses referencing the shared ErrorResponse
// schema.
func withErrors(responses *openapi3.Responses, statuses ...int) *openapi3.Responses {
	ref := &openapi3.SchemaRef{Ref: "#/components/schemas/ErrorResponse"}
	for _, status := range statuses {
		desc := fmt.Sprintf("HTTP %d", status)
		responses.Set(fmt.Sprintf("%d", status), &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription(desc).
				WithJSONSchemaRef(ref),
		})
	}
	return responses
}

func basicSecurity() *openapi3.SecurityRequirements {
	reqs := openapi3.NewSecurityRequirements().
		With(openapi3.NewSecurityRequirement().Authenticate("basicAuth"))
	return reqs
}
