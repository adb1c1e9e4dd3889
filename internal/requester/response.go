package requester

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"io"
	"mime"
	"strings"

	"github.com/brizzai/mcp-openapi-hub/internal/logger"
	"go.uber.org/zap"
)

// classifyResponse decodes body according to its content type. JSON becomes
// the decoded value, XML a nested map, anything else a string. An empty body
// is nil.
func classifyResponse(contentType string, body []byte) any {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	_, subtype, _ := strings.Cut(mediaType, "/")

	switch {
	case strings.Contains(mediaType, "json"):
		var v any
		if err := json.Unmarshal(body, &v); err != nil {
			logger.Debug("Response declared as JSON is not valid JSON", zap.Error(err))
			return string(body)
		}
		return v
	case strings.Contains(subtype, "xml"):
		v, err := decodeXML(body)
		if err != nil {
			logger.Debug("Response declared as XML is not valid XML", zap.Error(err))
			return string(body)
		}
		return v
	default:
		return string(body)
	}
}

// decodeXML converts an XML document into {root: value}. Attributes are keyed
// "@name", repeated child elements become lists, and text next to child
// elements is kept under "#text".
func decodeXML(data []byte) (map[string]any, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, errors.New("no root element")
			}
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			value, err := decodeElement(dec, start)
			if err != nil {
				return nil, err
			}
			return map[string]any{start.Name.Local: value}, nil
		}
	}
}

func decodeElement(dec *xml.Decoder, start xml.StartElement) (any, error) {
	fields := make(map[string]any)
	for _, attr := range start.Attr {
		fields["@"+attr.Name.Local] = attr.Value
	}

	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			child, err := decodeElement(dec, t)
			if err != nil {
				return nil, err
			}
			addField(fields, t.Name.Local, child)
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			content := strings.TrimSpace(text.String())
			if len(fields) == 0 {
				return content, nil
			}
			if content != "" {
				fields["#text"] = content
			}
			return fields, nil
		}
	}
}

func addField(fields map[string]any, name string, value any) {
	existing, ok := fields[name]
	if !ok {
		fields[name] = value
		return
	}
	if list, isList := existing.([]any); isList {
		fields[name] = append(list, value)
		return
	}
	fields[name] = []any{existing, value}
}
