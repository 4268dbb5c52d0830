// Package transmute wraps ordinary Go functions with the metadata web
// frameworks need to expose them as HTTP operations: parameter names and
// types, HTTP methods, where each argument is read from, and the errors the
// function may report back to callers. From that metadata it generates
// Swagger 2.0 documentation and converts request and response bodies
// through pluggable serializers.
//
// Functions are wrapped once, usually at package level:
//
//	var getCard = transmute.MustWrap(GetCard,
//	    transmute.WithParams("id"),
//	    transmute.WithPaths("/cards/{id}"),
//	    transmute.WithDescription("Fetch a card."),
//	    transmute.WithErrors(ErrNotFound),
//	)
//
// Go keeps no parameter names at run time, so WithParams names them; a
// leading context.Context is supplied by the caller and is not a parameter.
//
// Arguments are placed by explicit hints (WithQuery, WithBody, WithHeader,
// WithPath) first, then by path placeholders, then by method: query for GET
// only functions and body otherwise.
//
// A Context bundles the object serializer and the content-type serializers:
//
//	op, err := getCard.SwaggerOperation(transmute.DefaultContext)
//
// Framework adapters turn a request into arguments with ExtractArgs and
// render results with ProcessResult, or do both with Invoke:
//
//	res, err := transmute.DefaultContext.Invoke(ctx, getCard, "/cards/{id}", transmute.HTTPRequest(r))
//
// A Registry maps function values back to their descriptors, and
// (*Registry).Spec assembles a document for every registered function.
package transmute
