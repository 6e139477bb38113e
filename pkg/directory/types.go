package directory

// Raw wire types for Access Directory Service responses.
//
// The directory's payloads are inconsistently shaped: page identity may be
// flat or nested under "page", children may arrive under two different
// field names, and an action's endpoint may be a bare string, a structured
// object, or both. These types capture every variant verbatim; resolution
// of the variants is the normalizer's job (pkg/normalize), driven by an
// explicit field-precedence table rather than ad hoc inspection.

// RawPageIdentity is the nested identity block some page payloads use.
type RawPageIdentity struct {
	ID    any    `json:"id,omitempty"`
	Key   string `json:"key,omitempty"`
	Label string `json:"label,omitempty"`
	Route string `json:"route,omitempty"`
}

// RawEndpointDetails is the structured endpoint descriptor.
type RawEndpointDetails struct {
	Service string `json:"service,omitempty"`
	Version string `json:"version,omitempty"`
	Method  string `json:"method,omitempty"`
	Path    string `json:"path,omitempty"`
}

// RawAction is a page action as delivered by the directory. Endpoint and
// Details may both be present; Details win field-by-field.
type RawAction struct {
	Label    string              `json:"label,omitempty"`
	Action   string              `json:"action,omitempty"`
	Endpoint string              `json:"endpoint,omitempty"`
	Details  *RawEndpointDetails `json:"endpoint_details,omitempty"`
	Page     *RawPageIdentity    `json:"page,omitempty"`
}

// RawPage is one page in the UI access matrix. Identity fields appear
// either top-level or nested under Page (nested wins). Children appear
// under either Children or Pages (first non-empty wins).
type RawPage struct {
	ID        any              `json:"id,omitempty"`
	Key       string           `json:"key,omitempty"`
	Label     string           `json:"label,omitempty"`
	Route     string           `json:"route,omitempty"`
	Requested bool             `json:"is_requested,omitempty"`
	Page      *RawPageIdentity `json:"page,omitempty"`
	Actions   []RawAction      `json:"actions,omitempty"`
	Children  []RawPage        `json:"children,omitempty"`
	Pages     []RawPage        `json:"pages,omitempty"`
}

// RawPageMatrix is the full UI-page access matrix response.
type RawPageMatrix struct {
	Pages []RawPage `json:"pages"`
}

// RawEndpoint is an endpoint grant inside a policy.
type RawEndpoint struct {
	Service     string      `json:"service,omitempty"`
	Version     string      `json:"version,omitempty"`
	Method      string      `json:"method,omitempty"`
	Path        string      `json:"path,omitempty"`
	Description string      `json:"description,omitempty"`
	PageActions []RawAction `json:"page_actions,omitempty"`
}

// RawPolicy is a policy grant inside a role.
type RawPolicy struct {
	Name        string        `json:"name,omitempty"`
	Description string        `json:"description,omitempty"`
	Endpoints   []RawEndpoint `json:"endpoints,omitempty"`
}

// RawRole is a role assignment in a user access matrix.
type RawRole struct {
	Name        string      `json:"name,omitempty"`
	Description string      `json:"description,omitempty"`
	Policies    []RawPolicy `json:"policies,omitempty"`
}

// RawUserMatrix is the per-user access matrix response.
type RawUserMatrix struct {
	ID       any       `json:"id,omitempty"`
	Username string    `json:"username,omitempty"`
	FullName string    `json:"full_name,omitempty"`
	Email    string    `json:"email,omitempty"`
	Roles    []RawRole `json:"roles,omitempty"`
}

// RawUser is one entry of the directory user list.
type RawUser struct {
	ID       any    `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
	FullName string `json:"full_name,omitempty"`
	Email    string `json:"email,omitempty"`
}
