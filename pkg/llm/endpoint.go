package llm

// EndpointKind selects which endpoint of a backend to call.
type EndpointKind string

const (
	EndpointChat   EndpointKind = "chat"
	EndpointModels EndpointKind = "models"
)

// Endpoint is a fully resolved backend URL plus the headers it needs.
type Endpoint struct {
	URL     string
	Headers map[string]string
}
