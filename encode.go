package transmute

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// ContentTypeSerializer converts plain data to and from a wire format.
type ContentTypeSerializer interface {
	// ContentType is the canonical MIME type, used in documentation.
	ContentType() string
	// CanHandle reports whether the serializer accepts the media type.
	CanHandle(mediaType string) bool
	Dump(data any) ([]byte, error)
	Load(raw []byte) (any, error)
}

// ValuesLoader is implemented by serializers whose wire format is a set of
// string key/value pairs. Such bodies are bound per argument like query
// parameters instead of going through Serializer.Load.
type ValuesLoader interface {
	LoadValues(raw []byte) (url.Values, error)
}

// JSONSerializer handles application/json.
type JSONSerializer struct{}

// ContentType implements ContentTypeSerializer.
func (JSONSerializer) ContentType() string { return "application/json" }

// CanHandle implements ContentTypeSerializer.
func (JSONSerializer) CanHandle(mediaType string) bool {
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// Dump implements ContentTypeSerializer.
func (JSONSerializer) Dump(data any) ([]byte, error) {
	return json.Marshal(data)
}

// Load implements ContentTypeSerializer. An empty body loads as nil.
// Numbers load as json.Number so integers keep their full precision.
func (JSONSerializer) Load(raw []byte) (any, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	return decodeJSON(raw)
}

func decodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var data any
	if err := dec.Decode(&data); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("invalid character after top-level value")
	}
	return data, nil
}

// YAMLSerializer handles application/yaml and its common aliases.
type YAMLSerializer struct{}

// ContentType implements ContentTypeSerializer.
func (YAMLSerializer) ContentType() string { return "application/yaml" }

// CanHandle implements ContentTypeSerializer.
func (YAMLSerializer) CanHandle(mediaType string) bool {
	switch mediaType {
	case "application/yaml", "application/x-yaml", "text/yaml", "text/x-yaml":
		return true
	default:
		return false
	}
}

// Dump implements ContentTypeSerializer.
func (YAMLSerializer) Dump(data any) ([]byte, error) {
	return yaml.Marshal(data)
}

// Load implements ContentTypeSerializer. An empty body loads as nil.
func (YAMLSerializer) Load(raw []byte) (any, error) {
	var data any
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, err
	}
	return data, nil
}

// FormSerializer handles application/x-www-form-urlencoded.
type FormSerializer struct{}

// ContentType implements ContentTypeSerializer.
func (FormSerializer) ContentType() string { return "application/x-www-form-urlencoded" }

// CanHandle implements ContentTypeSerializer.
func (FormSerializer) CanHandle(mediaType string) bool {
	return mediaType == "application/x-www-form-urlencoded"
}

// Dump implements ContentTypeSerializer. Only flat objects are encodable;
// list members repeat the key.
func (FormSerializer) Dump(data any) ([]byte, error) {
	m, ok := data.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("form: cannot encode %T", data)
	}
	values := make(url.Values, len(m))
	for k, v := range m {
		if items, ok := v.([]any); ok {
			for _, item := range items {
				values.Add(k, formValue(item))
			}
			continue
		}
		values.Set(k, formValue(v))
	}
	return []byte(values.Encode()), nil
}

// Load implements ContentTypeSerializer. Single values load as strings,
// repeated keys as lists of strings.
func (f FormSerializer) Load(raw []byte) (any, error) {
	values, err := f.LoadValues(raw)
	if err != nil {
		return nil, err
	}
	data := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			data[k] = vs[0]
			continue
		}
		items := make([]any, len(vs))
		for i, v := range vs {
			items[i] = v
		}
		data[k] = items
	}
	return data, nil
}

// LoadValues implements ValuesLoader.
func (FormSerializer) LoadValues(raw []byte) (url.Values, error) {
	return url.ParseQuery(string(raw))
}

func formValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

// ContentTypeSerializerSet selects a ContentTypeSerializer by media type.
// The first serializer is the default.
type ContentTypeSerializerSet struct {
	serializers []ContentTypeSerializer
}

// NewContentTypeSerializerSet builds a set in the given order. It panics
// when called without serializers.
func NewContentTypeSerializerSet(serializers ...ContentTypeSerializer) *ContentTypeSerializerSet {
	if len(serializers) == 0 {
		panic("transmute: content-type serializer set needs at least one serializer")
	}
	return &ContentTypeSerializerSet{serializers: serializers}
}

// Default returns the first serializer.
func (cs *ContentTypeSerializerSet) Default() ContentTypeSerializer {
	return cs.serializers[0]
}

// Keys returns the canonical content types in registration order.
func (cs *ContentTypeSerializerSet) Keys() []string {
	keys := make([]string, len(cs.serializers))
	for i, s := range cs.serializers {
		keys[i] = s.ContentType()
	}
	return keys
}

// For returns the serializer for a Content-Type header value. An empty
// value selects the default.
func (cs *ContentTypeSerializerSet) For(contentType string) (ContentTypeSerializer, error) {
	if contentType == "" {
		return cs.Default(), nil
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrNoSerializer, contentType, err)
	}

	for _, s := range cs.serializers {
		if s.CanHandle(mediaType) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrNoSerializer, contentType)
}

// Negotiate picks a serializer for an Accept header value. Empty and */*
// select the default. Returns false if an explicit Accept has no match.
func (cs *ContentTypeSerializerSet) Negotiate(accept string) (ContentTypeSerializer, bool) {
	if accept == "" {
		return cs.Default(), true
	}

	type candidate struct {
		serializer ContentTypeSerializer
		quality    float64
	}

	var candidates []candidate
	for part := range strings.SplitSeq(accept, ",") {
		mediaType, params, err := mime.ParseMediaType(strings.TrimSpace(part))
		if err != nil {
			continue
		}

		q := 1.0
		if qs, ok := params["q"]; ok {
			if parsed, err := strconv.ParseFloat(qs, 64); err == nil {
				q = parsed
			}
		}
		if q <= 0 {
			continue
		}

		if mediaType == "*/*" {
			candidates = append(candidates, candidate{cs.Default(), q})
			continue
		}

		for _, s := range cs.serializers {
			if s.CanHandle(mediaType) {
				candidates = append(candidates, candidate{s, q})
				break
			}
		}
	}

	if len(candidates) == 0 {
		return nil, false
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].quality > candidates[j].quality
	})
	return candidates[0].serializer, true
}
