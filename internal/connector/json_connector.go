package connector

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"portfolio_preview/internal/app/port"
	"portfolio_preview/internal/app/service"
	"portfolio_preview/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ConnectorJSON is the stable identifier of the JSON adapter.
const ConnectorJSON = "json_v1"

// containerKeys are object keys probed, in order, when the payload is not a
// bare array.
var containerKeys = []string{"positions", "holdings", "assets", "rows", "items", "data", "portfolio", "tokens"}

// JSONConnector parses JSON exports into raw positions. Accepts either a
// bare array of position objects or an object wrapping such an array under
// a well-known key.
type JSONConnector struct {
	pipe   pipeline
	logger port.Logger
}

// NewJSONConnector creates the JSON adapter.
func NewJSONConnector(enrich *service.EnrichService, filter *service.FilterService, assemble *service.AssembleService, debug bool, logger port.Logger) *JSONConnector {
	return &JSONConnector{
		pipe:   pipeline{enrich: enrich, filter: filter, assemble: assemble, debug: debug},
		logger: logger,
	}
}

// ID implements port.Connector.
func (c *JSONConnector) ID() string { return ConnectorJSON }

// Preview implements port.Connector.
func (c *JSONConnector) Preview(ctx context.Context, req entity.PreviewRequest) entity.PreviewResult {
	text := strings.TrimSpace(req.JSONText)
	if text == "" {
		return entity.Failed(entity.ErrEmptyInput, "json_text is empty")
	}

	rows, err := extractRows(text)
	if err != nil {
		return entity.Failed(entity.ErrMalformedJSON, err.Error())
	}
	if len(rows) == 0 {
		return entity.Failed(entity.ErrEmptyInput, "json_text contains no positions")
	}

	var positions []entity.RawPosition
	for _, row := range rows {
		pos, ok := objectToPosition(row)
		if !ok {
			continue
		}
		positions = append(positions, pos)
	}
	if len(positions) == 0 {
		return entity.Failed(entity.ErrEmptyInput, "no parsable positions found in json_text")
	}

	c.logger.Debug("JSON adapter extracted positions", "rows", len(rows), "positions", len(positions))
	return c.pipe.finish(ctx, positions, nil)
}

// extractRows locates the array of position objects in the payload.
func extractRows(text string) ([]map[string]any, error) {
	if strings.HasPrefix(text, "[") {
		var rows []map[string]any
		if err := json.UnmarshalFromString(text, &rows); err != nil {
			return nil, fmt.Errorf("failed to parse JSON array: %w", err)
		}
		return rows, nil
	}

	var wrapper map[string]any
	if err := json.UnmarshalFromString(text, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to parse JSON object: %w", err)
	}
	for _, key := range containerKeys {
		raw, ok := lookupKeyFold(wrapper, key)
		if !ok {
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			continue
		}
		rows := make([]map[string]any, 0, len(list))
		for _, item := range list {
			if obj, ok := item.(map[string]any); ok {
				rows = append(rows, obj)
			}
		}
		return rows, nil
	}
	return nil, fmt.Errorf("no positions array found under any of: %s", strings.Join(containerKeys, ", "))
}

// lookupKeyFold finds a key case-insensitively.
func lookupKeyFold(obj map[string]any, key string) (any, bool) {
	if v, ok := obj[key]; ok {
		return v, true
	}
	for k, v := range obj {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}
	return nil, false
}

// objectToPosition resolves object keys through the shared alias table and
// builds a raw position. Objects without a symbol are rejected.
func objectToPosition(obj map[string]any) (entity.RawPosition, bool) {
	fields := make(map[string]string)
	for key, value := range obj {
		field := resolveAlias(key)
		if field == "" {
			continue
		}
		if _, taken := fields[field]; taken {
			continue
		}
		fields[field] = coerceString(value)
	}
	return fieldsToPosition(fields, "json")
}

// coerceString renders a JSON scalar as the string form parseNumber and the
// text fields expect.
func coerceString(value any) string {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}
