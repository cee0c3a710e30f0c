// Package ir holds the language-agnostic artifact descriptions handed to template
// renderers. Every name in it is already resolved for one target language.
package ir

// Kind identifies the artifact an Output carries.
type Kind string

const (
	KindModel   Kind = "model"
	KindService Kind = "service"
	KindEnums   Kind = "enums"
	KindFilters Kind = "filters"
	KindClient  Kind = "client"
)

// Output is one artifact and where it goes, relative to the client's output directory.
type Output struct {
	Dir      string    `json:"dir"`
	File     string    `json:"file"`
	Artifact *Artifact `json:"artifact"`
}

// Artifact is the unit of rendering. Exactly one of the payload pointers is set,
// matching Kind.
type Artifact struct {
	Kind     Kind   `json:"kind"`
	Name     string `json:"name"`
	Resource string `json:"resource,omitempty"`
	// Imports lists other artifact modules this one references, sorted.
	Imports []string `json:"imports,omitempty"`

	Model   *Model   `json:"model,omitempty"`
	Service *Service `json:"service,omitempty"`
	Enums   []*Enum  `json:"enums,omitempty"`
	Filters *Filters `json:"filters,omitempty"`
	Client  *Client  `json:"client,omitempty"`
}

// Model is a resource model or a nested sub-model.
type Model struct {
	Name        string   `json:"name"`
	WireName    string   `json:"wireName,omitempty"`
	Description string   `json:"description,omitempty"`
	Deprecated  bool     `json:"deprecated,omitempty"`
	Fields      []*Field `json:"fields,omitempty"`
	Enums       []*Enum  `json:"enums,omitempty"`
	SubModels   []*Model `json:"subModels,omitempty"`

	CustomFields  *FieldBag `json:"customFields,omitempty"`
	ConsentFields *FieldBag `json:"consentFields,omitempty"`
}

// Field is one typed member of a model or response.
type Field struct {
	Name       string `json:"name"`
	WireName   string `json:"wireName"`
	Type       string `json:"type"`
	Base       string `json:"base"`
	Shape      string `json:"shape"`
	Container  string `json:"container,omitempty"`
	Nullable   bool   `json:"nullable,omitempty"`
	Required   bool   `json:"required,omitempty"`
	Deprecated bool   `json:"deprecated,omitempty"`
	Ref        string `json:"ref,omitempty"`
}

// Enum is an enumeration artifact. Values always end with the unknown sentinel.
type Enum struct {
	Name string `json:"name"`
	// TypeName is the qualified reference other artifacts use.
	TypeName string      `json:"typeName"`
	Owner    string      `json:"owner,omitempty"`
	Global   bool        `json:"global,omitempty"`
	Values   []EnumValue `json:"values"`
}

// EnumValue is one constant of an enum.
type EnumValue struct {
	Name       string `json:"name"`
	API        string `json:"api"`
	Deprecated bool   `json:"deprecated,omitempty"`
	Unknown    bool   `json:"unknown,omitempty"`
}

// FieldBag describes the members of a custom (cf_) or consent (cs_) field map.
type FieldBag struct {
	Prefix    string `json:"prefix"`
	Field     string `json:"field"`
	ValueType string `json:"valueType"`
	MapType   string `json:"mapType"`
	// BulkSetter validates every key before committing any of them.
	BulkSetter string `json:"bulkSetter"`
	Setter     string `json:"setter"`
	Getter     string `json:"getter"`
	// BoolGetter is only set for consent fields.
	BoolGetter string `json:"boolGetter,omitempty"`
	// Extractor is only set on response models.
	Extractor string `json:"extractor,omitempty"`
}

// Service groups the methods of one resource together with their params and responses.
type Service struct {
	Name      string      `json:"name"`
	Resource  string      `json:"resource"`
	Model     string      `json:"model,omitempty"`
	Methods   []*Method   `json:"methods"`
	Params    []*Params   `json:"params,omitempty"`
	Responses []*Response `json:"responses,omitempty"`
}

// Transport selects the client call variant a method uses.
type Transport string

const (
	TransportDefault   Transport = "default"
	TransportSubDomain Transport = "subdomain"
)

// Method is one generated service member.
type Method struct {
	Name string `json:"name"`
	// Operation is the operation method name from the API description.
	Operation string `json:"operation"`
	// PathName is the name derived from the path tail.
	PathName   string       `json:"pathName"`
	HTTPMethod string       `json:"httpMethod"`
	Path       string       `json:"path"`
	PathParams []*PathParam `json:"pathParams,omitempty"`
	Summary    string       `json:"summary,omitempty"`

	Params         string       `json:"params,omitempty"`
	ParamsRequired bool         `json:"paramsRequired,omitempty"`
	Response       string       `json:"response,omitempty"`
	ResponseKind   ResponseKind `json:"responseKind"`

	Transport Transport `json:"transport"`
	// SubDomain is the constant of the shared sub-domain enum.
	SubDomain     string `json:"subDomain,omitempty"`
	SubDomainType string `json:"subDomainType,omitempty"`
	Batch     *Batch `json:"batch,omitempty"`

	Idempotent bool `json:"idempotent,omitempty"`
	JSONInput  bool `json:"jsonInput,omitempty"`
	Deprecated bool `json:"deprecated,omitempty"`
}

// PathParam is a positional method parameter taken from a {token} path segment.
type PathParam struct {
	Name     string `json:"name"`
	WireName string `json:"wireName"`
	Type     string `json:"type"`
}

// Batch marks a batch wrapper delegating to the non-batch operation's types.
type Batch struct {
	// Path is the de-batched path.
	Path     string `json:"path"`
	PathID   string `json:"pathId"`
	Delegate string `json:"delegate,omitempty"`
	Params   string `json:"params,omitempty"`
	Response string `json:"response,omitempty"`
}

// SetterKind classifies params builder members.
type SetterKind string

const (
	SetterValue   SetterKind = "value"
	SetterIndexed SetterKind = "indexed"
	SetterNested  SetterKind = "nested"
	SetterFilter  SetterKind = "filter"
	SetterSort    SetterKind = "sort"
)

// Params is an operation's input builder.
type Params struct {
	Name      string     `json:"name"`
	Operation string     `json:"operation"`
	Setters   []*Setter  `json:"setters,omitempty"`
	Builders  []*Builder `json:"builders,omitempty"`
	// BlankIndex is the composite-array policy: "error" or "empty".
	BlankIndex string `json:"blankIndex"`
	JSON       bool   `json:"json,omitempty"`

	CustomFields  *FieldBag `json:"customFields,omitempty"`
	ConsentFields *FieldBag `json:"consentFields,omitempty"`
}

// Builder is a nested params builder. Indexed builders take an element index on
// every setter.
type Builder struct {
	Name     string `json:"name"`
	WireName string `json:"wireName"`
	// Key is the form key of the nested object, e.g. "billing_address".
	Key     string    `json:"key"`
	Indexed bool      `json:"indexed,omitempty"`
	Setters []*Setter `json:"setters"`

	// Bag members store fields under Key, e.g. "billing_address[cf_gst]".
	CustomFields  *FieldBag `json:"customFields,omitempty"`
	ConsentFields *FieldBag `json:"consentFields,omitempty"`
}

// Setter is one params builder member.
type Setter struct {
	Name     string     `json:"name"`
	WireName string     `json:"wireName"`
	// Key is the full form key, e.g. "billing_address[city]".
	Key        string     `json:"key"`
	Kind       SetterKind `json:"kind"`
	Type       string     `json:"type,omitempty"`
	Base       string     `json:"base,omitempty"`
	List       bool       `json:"list,omitempty"`
	Shape      string     `json:"shape,omitempty"`
	Target     string     `json:"target,omitempty"`
	Required   bool       `json:"required,omitempty"`
	Deprecated bool       `json:"deprecated,omitempty"`
}

// Filters is the shared file of filter and sort artifacts.
type Filters struct {
	Filters []*Filter `json:"filters,omitempty"`
	Sorts   []*Sort   `json:"sorts,omitempty"`
}

// Arity is how many operands a filter operator takes.
type Arity string

const (
	AritySingle Arity = "single"
	ArityList   Arity = "list"
	ArityPair   Arity = "pair"
	ArityFlag   Arity = "flag"
)

// Filter is a generic filter artifact returning control to its parent builder.
type Filter struct {
	Name      string          `json:"name"`
	ValueType string          `json:"valueType"`
	Value     string          `json:"value"`
	Values    []string        `json:"values,omitempty"`
	Methods   []*FilterMethod `json:"methods"`
}

// FilterMethod is one operator method of a filter.
type FilterMethod struct {
	Name     string `json:"name"`
	Operator string `json:"operator"`
	Arity    Arity  `json:"arity"`
	Type     string `json:"type"`
}

// Sort is a sort-builder artifact.
type Sort struct {
	Name   string       `json:"name"`
	Fields []*SortField `json:"fields"`
}

// SortField is one accessor of a sort builder.
type SortField struct {
	Name string `json:"name"`
	API  string `json:"api"`
}

// ResponseKind classifies operation responses.
type ResponseKind string

const (
	ResponseSimple    ResponseKind = "simple"
	ResponsePaginated ResponseKind = "paginated"
	ResponseEmpty     ResponseKind = "empty"
)

// Response is an operation's response artifact.
type Response struct {
	Name      string       `json:"name"`
	Kind      ResponseKind `json:"kind"`
	Fields    []*Field     `json:"fields,omitempty"`
	SubModels []*Model     `json:"subModels,omitempty"`
	Enums     []*Enum      `json:"enums,omitempty"`
	// Item is the element model of a paginated list.
	Item   *Model `json:"item,omitempty"`
	Cursor string `json:"cursor,omitempty"`
	// Fallback records which fallback produced the fields: "properties", "required" or "empty".
	Fallback string `json:"fallback,omitempty"`
}

// Client is the entry-point artifact listing every service.
type Client struct {
	Name       string        `json:"name"`
	Services   []*ServiceRef `json:"services"`
	SubDomains *Enum         `json:"subDomains,omitempty"`
}

// ServiceRef is a client accessor for one service.
type ServiceRef struct {
	Name     string `json:"name"`
	Accessor string `json:"accessor"`
	Resource string `json:"resource"`
	Module   string `json:"module"`
}
