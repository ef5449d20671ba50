package api

import (
	"net/http"

	"github.com/JaimeStill/accord/internal/config"
	"github.com/JaimeStill/accord/pkg/openapi"
)

// NewSpec describes the API module's routes.
func NewSpec(cfg *config.Config) *openapi.Spec {
	spec := openapi.NewSpec(&cfg.API.OpenAPI, cfg.Version)
	spec.AddServer(cfg.API.BasePath)
	spec.Components.AddSchemas(schemas)
	if cfg.Auth.Enabled {
		spec.RequireBearer("OIDC access token issued by " + cfg.Auth.IssuerURL)
	}

	sessionID := openapi.PathParam("id", "", "Session identifier")
	documentID := openapi.PathParam("id", "uuid", "Document identifier")
	pageParams := []*openapi.Parameter{
		openapi.QueryParam("page", "integer", "Page number (1-indexed)"),
		openapi.QueryParam("page_size", "integer", "Results per page"),
		openapi.QueryParam("search", "string", "Filename substring"),
		openapi.QueryParam("sort", "string", "Sort fields, - prefix for descending"),
	}

	spec.Add(http.MethodPost, "/sessions", &openapi.Operation{
		Summary:     "Start a review session",
		Description: "Uploads a document, scores its risk, and suspends the session awaiting approval.",
		Tags:        []string{"sessions"},
		RequestBody: &openapi.RequestBody{
			Required: true,
			Content: map[string]*openapi.MediaType{
				"multipart/form-data": {Schema: &openapi.Schema{
					Type:     "object",
					Required: []string{"file"},
					Properties: map[string]*openapi.Schema{
						"file":       {Type: "string", Format: "binary"},
						"session_id": {Type: "string", Description: "Optional caller-chosen session id"},
					},
				}},
			},
		},
		Responses: openapi.Errors(map[int]*openapi.Response{
			http.StatusCreated: openapi.ResponseJSON("Session suspended awaiting approval", "StartResult"),
		}, openapi.BadRequest, openapi.Unauthorized, openapi.Conflict, openapi.PayloadTooLarge, openapi.Unsupported, openapi.BadGateway),
	})

	spec.Add(http.MethodGet, "/sessions/active", &openapi.Operation{
		Summary:     "List live sessions",
		Description: "Sessions still held in memory, including those waiting for input, most recently updated first.",
		Tags:        []string{"sessions"},
		Parameters: []*openapi.Parameter{
			openapi.QueryParam("user_id", "string", "Owner, honored for auditors only"),
		},
		Responses: openapi.Errors(map[int]*openapi.Response{
			http.StatusOK: openapi.ResponseJSON("Live sessions", "SessionList"),
		}, openapi.Unauthorized),
	})

	spec.Add(http.MethodGet, "/sessions", &openapi.Operation{
		Summary: "List archived session outcomes",
		Tags:    []string{"sessions"},
		Parameters: append(pageParams,
			openapi.QueryParam("terminal_status", "string", "SUCCESS, REJECTED, FAILED or EXPIRED"),
			openapi.QueryParam("risk_label", "string", "Risk label"),
			openapi.QueryParam("user_id", "string", "Owner, honored for auditors only"),
		),
		Responses: openapi.Errors(map[int]*openapi.Response{
			http.StatusOK: openapi.ResponseJSON("Page of outcomes", "OutcomePage"),
		}, openapi.Unauthorized),
	})

	spec.Add(http.MethodGet, "/sessions/{id}", &openapi.Operation{
		Summary:    "Get session state",
		Tags:       []string{"sessions"},
		Parameters: []*openapi.Parameter{sessionID},
		Responses: openapi.Errors(map[int]*openapi.Response{
			http.StatusOK: openapi.ResponseJSON("Session state", "SessionState"),
		}, openapi.Unauthorized, openapi.Forbidden, openapi.NotFound),
	})

	spec.Add(http.MethodPost, "/sessions/{id}/input", &openapi.Operation{
		Summary:     "Resume a suspended session",
		Tags:        []string{"sessions"},
		Parameters:  []*openapi.Parameter{sessionID},
		RequestBody: openapi.RequestBodyJSON("ResumeRequest", true),
		Responses: openapi.Errors(map[int]*openapi.Response{
			http.StatusOK: openapi.ResponseJSON("Session after the input was applied", "ResumeResult"),
		}, openapi.BadRequest, openapi.Unauthorized, openapi.Forbidden, openapi.NotFound, openapi.Conflict),
	})

	spec.Add(http.MethodGet, "/sessions/{id}/summary", &openapi.Operation{
		Summary:    "Summarize the session document in plain English",
		Tags:       []string{"advice"},
		Parameters: []*openapi.Parameter{sessionID},
		Responses: openapi.Errors(map[int]*openapi.Response{
			http.StatusOK: openapi.ResponseJSON("Summary", "SummaryResult"),
		}, openapi.Unauthorized, openapi.Forbidden, openapi.NotFound, openapi.Unprocessable, openapi.BadGateway, openapi.Unavailable),
	})

	spec.Add(http.MethodPost, "/sessions/{id}/suggestions", &openapi.Operation{
		Summary:     "Draft or rebalance a clause",
		Tags:        []string{"advice"},
		Parameters:  []*openapi.Parameter{sessionID},
		RequestBody: openapi.RequestBodyJSON("SuggestionRequest", true),
		Responses: openapi.Errors(map[int]*openapi.Response{
			http.StatusOK: openapi.ResponseJSON("Suggested clause text", "SuggestionResult"),
		}, openapi.BadRequest, openapi.Unauthorized, openapi.Forbidden, openapi.NotFound, openapi.BadGateway, openapi.Unavailable),
	})

	spec.Add(http.MethodPost, "/sessions/{id}/questions", &openapi.Operation{
		Summary:     "Ask a question answered from the session document",
		Tags:        []string{"advice"},
		Parameters:  []*openapi.Parameter{sessionID},
		RequestBody: openapi.RequestBodyJSON("QuestionRequest", true),
		Responses: openapi.Errors(map[int]*openapi.Response{
			http.StatusOK: openapi.ResponseJSON("Answer", "AnswerResult"),
		}, openapi.BadRequest, openapi.Unauthorized, openapi.Forbidden, openapi.NotFound, openapi.Unprocessable, openapi.BadGateway, openapi.Unavailable),
	})

	spec.Add(http.MethodGet, "/documents", &openapi.Operation{
		Summary:    "List the caller's documents",
		Tags:       []string{"documents"},
		Parameters: pageParams,
		Responses: openapi.Errors(map[int]*openapi.Response{
			http.StatusOK: openapi.ResponseJSON("Page of documents", "DocumentPage"),
		}, openapi.Unauthorized),
	})

	spec.Add(http.MethodPost, "/documents/search", &openapi.Operation{
		Summary:     "Search the caller's documents",
		Tags:        []string{"documents"},
		RequestBody: openapi.RequestBodyJSON("PageRequest", false),
		Responses: openapi.Errors(map[int]*openapi.Response{
			http.StatusOK: openapi.ResponseJSON("Page of documents", "DocumentPage"),
		}, openapi.BadRequest, openapi.Unauthorized),
	})

	spec.Add(http.MethodGet, "/documents/{id}", &openapi.Operation{
		Summary:    "Get document metadata",
		Tags:       []string{"documents"},
		Parameters: []*openapi.Parameter{documentID},
		Responses: openapi.Errors(map[int]*openapi.Response{
			http.StatusOK: openapi.ResponseJSON("Document", "Document"),
		}, openapi.BadRequest, openapi.Unauthorized, openapi.Forbidden, openapi.NotFound),
	})

	spec.Add(http.MethodGet, "/documents/{id}/download", &openapi.Operation{
		Summary:    "Download document content",
		Tags:       []string{"documents"},
		Parameters: []*openapi.Parameter{documentID},
		Responses: openapi.Errors(map[int]*openapi.Response{
			http.StatusOK: {
				Description: "Document bytes",
				Content: map[string]*openapi.MediaType{
					"application/octet-stream": {Schema: &openapi.Schema{Type: "string", Format: "binary"}},
				},
			},
		}, openapi.BadRequest, openapi.Unauthorized, openapi.Forbidden, openapi.NotFound),
	})

	return spec
}

func page(item string) *openapi.Schema {
	return &openapi.Schema{
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"data":        {Type: "array", Items: openapi.SchemaRef(item)},
			"total":       {Type: "integer"},
			"page":        {Type: "integer"},
			"page_size":   {Type: "integer"},
			"total_pages": {Type: "integer"},
		},
	}
}

var (
	str       = &openapi.Schema{Type: "string"}
	integer   = &openapi.Schema{Type: "integer"}
	boolean   = &openapi.Schema{Type: "boolean"}
	timestamp = &openapi.Schema{Type: "string", Format: "date-time"}
	inputKind = &openapi.Schema{Type: "string", Enum: []any{"", "approval", "meeting_date"}}
	terminal  = &openapi.Schema{Type: "string", Enum: []any{"", "SUCCESS", "REJECTED", "FAILED", "EXPIRED"}}
)

var schemas = map[string]*openapi.Schema{
	"RiskReport": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"score":           integer,
			"label":           {Type: "string", Enum: []any{"LOW", "MEDIUM", "HIGH", "UNKNOWN"}},
			"confidence":      integer,
			"components":      {Type: "object"},
			"document_type":   str,
			"summary":         str,
			"recommendations": {Type: "array", Items: str},
			"keywords":        {Type: "array", Items: &openapi.Schema{Type: "object"}},
			"patterns":        {Type: "object"},
			"structure":       {Type: "object"},
			"metadata":        {Type: "object"},
			"error":           str,
			"version":         str,
		},
	},
	"StartResult": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"session_id":         str,
			"document_id":        {Type: "string", Format: "uuid"},
			"waiting_for_input":  boolean,
			"pending_input_kind": inputKind,
			"risk_report":        openapi.SchemaRef("RiskReport"),
			"clause_review":      {Type: "object"},
			"message":            str,
		},
	},
	"ResumeRequest": {
		Type:     "object",
		Required: []string{"kind"},
		Properties: map[string]*openapi.Schema{
			"kind":               {Type: "string", Enum: []any{"approval", "meeting_date"}},
			"approved":           {Type: "boolean", Description: "Required when kind is approval"},
			"meeting_date":       {Type: "string", Description: "Free-form date; unparsable values fall back to 24 hours from now"},
			"notification_email": {Type: "string", Format: "email"},
		},
	},
	"ResumeResult": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"session_id":         str,
			"stage":              str,
			"waiting_for_input":  boolean,
			"pending_input_kind": inputKind,
			"terminal_status":    terminal,
			"signing_record":     {Type: "object"},
			"scheduling_record":  {Type: "object"},
			"error":              str,
			"message":            str,
		},
	},
	"SessionState": {
		Type:        "object",
		Description: "Full session state including the risk report and any signing or scheduling records",
		Properties: map[string]*openapi.Schema{
			"session_id":         str,
			"user_id":            str,
			"stage":              str,
			"waiting_for_input":  boolean,
			"pending_input_kind": inputKind,
			"terminal_status":    terminal,
			"risk_report":        openapi.SchemaRef("RiskReport"),
		},
	},
	"Outcome": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"session_id":      str,
			"user_id":         str,
			"document_id":     {Type: "string", Format: "uuid"},
			"filename":        str,
			"stage":           str,
			"terminal_status": terminal,
			"risk_label":      str,
			"risk_score":      integer,
			"approved":        boolean,
			"signature_id":    str,
			"meeting_id":      str,
			"meeting_date":    str,
			"error":           str,
			"started_at":      timestamp,
			"completed_at":    timestamp,
		},
	},
	"Document": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"id":           {Type: "string", Format: "uuid"},
			"session_id":   str,
			"user_id":      str,
			"filename":     str,
			"content_type": str,
			"size_bytes":   integer,
			"page_count":   integer,
			"checksum":     str,
			"storage_key":  str,
			"uploaded_at":  timestamp,
		},
	},
	"SessionSummary": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"session_id":         str,
			"user_id":            str,
			"document_id":        {Type: "string", Format: "uuid"},
			"filename":           str,
			"stage":              str,
			"waiting_for_input":  boolean,
			"pending_input_kind": inputKind,
			"terminal_status":    terminal,
			"risk_label":         str,
			"risk_score":         integer,
			"created_at":         timestamp,
			"updated_at":         timestamp,
		},
	},
	"SessionList": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"sessions": {Type: "array", Items: openapi.SchemaRef("SessionSummary")},
			"total":    integer,
		},
	},
	"SummaryResult": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"session_id": str,
			"summary":    str,
		},
	},
	"SuggestionRequest": {
		Type:     "object",
		Required: []string{"clause_name"},
		Properties: map[string]*openapi.Schema{
			"clause_name": str,
			"risky_text":  {Type: "string", Description: "Existing clause text to rebalance; omit to draft a missing clause"},
		},
	},
	"SuggestionResult": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"session_id":  str,
			"clause_name": str,
			"risky_text":  str,
			"suggestion":  str,
		},
	},
	"QuestionRequest": {
		Type:       "object",
		Required:   []string{"question"},
		Properties: map[string]*openapi.Schema{"question": str},
	},
	"AnswerResult": {
		Type: "object",
		Properties: map[string]*openapi.Schema{
			"session_id": str,
			"question":   str,
			"answer":     str,
		},
	},
	"OutcomePage":  page("Outcome"),
	"DocumentPage": page("Document"),
}
