package transmute

// Test-only exports for internal functions.
var (
	TypeToSchema  = typeToSchema
	JSONFieldName = jsonFieldName
	TagOptions    = tagOptions
	TagContains   = tagContains
	JoinPath      = joinPath
	PointerToPath = pointerToPath
	StripNulls    = stripNulls
	ToSwaggerPath = toSwaggerPath
)
