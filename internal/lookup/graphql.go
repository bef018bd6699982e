package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/formatter"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/rpattn/recordsearch/internal/domain"
)

// graphQLFields maps entity types to the single-record query field of the records API.
var graphQLFields = map[domain.EntityType]string{
	domain.EntityTypePeople:              "person",
	domain.EntityTypeOrganizations:       "organization",
	domain.EntityTypePositions:           "position",
	domain.EntityTypeLocations:           "location",
	domain.EntityTypeTasks:               "task",
	domain.EntityTypeReports:             "report",
	domain.EntityTypeEvents:              "event",
	domain.EntityTypeAuthorizationGroups: "authorizationGroup",
}

// GraphQL resolves references against a remote GraphQL records API that exposes
// `<type>(uuid: String!)` queries.
type GraphQL struct {
	endpoint string
	client   *http.Client
	header   http.Header
}

// NewGraphQL creates a GraphQL lookup. client may be nil.
func NewGraphQL(endpoint string, client *http.Client, header http.Header) *GraphQL {
	if client == nil {
		client = http.DefaultClient
	}
	return &GraphQL{endpoint: endpoint, client: client, header: header.Clone()}
}

type graphQLRequest struct {
	Query     string         `json:"query"`
	Variables map[string]any `json:"variables,omitempty"`
}

type graphQLResponse struct {
	Data   map[string]json.RawMessage `json:"data"`
	Errors gqlerror.List              `json:"errors"`
}

// Lookup implements domain.EntityLookup.
func (g *GraphQL) Lookup(ctx context.Context, entityType domain.EntityType, id string, fields []string) (*domain.EntityStub, error) {
	field, ok := graphQLFields[entityType]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownEntityType, entityType)
	}

	body, err := json.Marshal(graphQLRequest{
		Query:     BuildLookupQuery(field, fields),
		Variables: map[string]any{"uuid": id},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode lookup request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build lookup request: %w", err)
	}
	for k, values := range g.header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call records API: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read lookup response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("records API returned %d: %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}

	var out graphQLResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return nil, fmt.Errorf("failed to decode lookup response: %w", err)
	}

	raw := out.Data[field]
	if len(raw) == 0 || string(raw) == "null" {
		if len(out.Errors) > 0 && !notFoundErrors(out.Errors) {
			return nil, fmt.Errorf("records API error: %w", out.Errors)
		}
		return nil, fmt.Errorf("%s %s: %w", entityType, id, domain.ErrNotFound)
	}

	var stub domain.EntityStub
	if err := json.Unmarshal(raw, &stub); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", field, err)
	}
	stub.Type = entityType
	return stub.Project(fields), nil
}

// BuildLookupQuery renders the single-record lookup document for a query field.
func BuildLookupQuery(field string, fields []string) string {
	selection := ast.SelectionSet{&ast.Field{Name: "uuid", Alias: "uuid"}}
	for _, f := range fields {
		if f == "uuid" || f == "" {
			continue
		}
		selection = append(selection, &ast.Field{Name: f, Alias: f})
	}

	doc := &ast.QueryDocument{
		Operations: ast.OperationList{
			{
				Operation: ast.Query,
				Name:      "lookup" + strings.ToUpper(field[:1]) + field[1:],
				VariableDefinitions: ast.VariableDefinitionList{
					{Variable: "uuid", Type: ast.NonNullNamedType("String", nil)},
				},
				SelectionSet: ast.SelectionSet{
					&ast.Field{
						Name:  field,
						Alias: field,
						Arguments: ast.ArgumentList{
							{Name: "uuid", Value: &ast.Value{Kind: ast.Variable, Raw: "uuid"}},
						},
						SelectionSet: selection,
					},
				},
			},
		},
	}

	var buf bytes.Buffer
	formatter.NewFormatter(&buf).FormatQueryDocument(doc)
	return buf.String()
}

func notFoundErrors(errs gqlerror.List) bool {
	for _, e := range errs {
		if !strings.Contains(strings.ToLower(e.Message), "not found") {
			return false
		}
	}
	return true
}
