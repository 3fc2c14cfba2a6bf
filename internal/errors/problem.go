package errors

import (
	"encoding/json"
	"maps"
	"net/http"

	"github.com/go-chi/render"
)

// ProblemContentType is the media type of every error body
const ProblemContentType = "application/problem+json"

// ProblemDetails is an RFC 7807 error body. Extensions are flattened next
// to the standard members and can never shadow them.
type ProblemDetails struct {
	Type     string
	Title    string
	Status   int
	Detail   string
	Instance string

	Extensions map[string]any
}

func NewProblemDetails(status int, problemType, title, detail, instance string) *ProblemDetails {
	return &ProblemDetails{
		Type:       problemType,
		Title:      title,
		Status:     status,
		Detail:     detail,
		Instance:   instance,
		Extensions: map[string]any{},
	}
}

// WithExtension sets one extension member and returns pd for chaining
func (pd *ProblemDetails) WithExtension(key string, value any) *ProblemDetails {
	if pd.Extensions == nil {
		pd.Extensions = map[string]any{}
	}
	pd.Extensions[key] = value
	return pd
}

// Write sends pd with its status as application/problem+json. render.JSON
// would replace the media type, so the body is encoded here.
func (pd *ProblemDetails) Write(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, pd.Status)
	w.Header().Set("Content-Type", ProblemContentType)
	w.WriteHeader(pd.Status)
	return json.NewEncoder(w).Encode(pd)
}

func (pd *ProblemDetails) MarshalJSON() ([]byte, error) {
	body := maps.Clone(pd.Extensions)
	if body == nil {
		body = map[string]any{}
	}
	body["type"], body["title"], body["status"] = pd.Type, pd.Title, pd.Status

	for key, value := range map[string]string{"detail": pd.Detail, "instance": pd.Instance} {
		if value == "" {
			delete(body, key)
			continue
		}
		body[key] = value
	}
	return json.Marshal(body)
}
