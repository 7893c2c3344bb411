package connector

import (
	"context"
	"encoding/csv"
	"fmt"
	"strings"

	"portfolio_preview/internal/app/port"
	"portfolio_preview/internal/app/service"
	"portfolio_preview/internal/domain/entity"
)

// ConnectorCSV is the stable identifier of the CSV adapter.
const ConnectorCSV = "csv_v1"

// CSVConnector parses delimited text exports into raw positions. Headers
// are resolved through the shared alias table; headerless input falls back
// to positional symbol,name,quantity,price columns.
type CSVConnector struct {
	pipe   pipeline
	logger port.Logger
}

// NewCSVConnector creates the CSV adapter.
func NewCSVConnector(enrich *service.EnrichService, filter *service.FilterService, assemble *service.AssembleService, debug bool, logger port.Logger) *CSVConnector {
	return &CSVConnector{
		pipe:   pipeline{enrich: enrich, filter: filter, assemble: assemble, debug: debug},
		logger: logger,
	}
}

// ID implements port.Connector.
func (c *CSVConnector) ID() string { return ConnectorCSV }

// Preview implements port.Connector.
func (c *CSVConnector) Preview(ctx context.Context, req entity.PreviewRequest) entity.PreviewResult {
	text := strings.TrimSpace(req.CSVText)
	if text == "" {
		return entity.Failed(entity.ErrEmptyInput, "csv_text is empty")
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return entity.Failed(entity.ErrEmptyInput, fmt.Sprintf("failed to parse CSV: %v", err))
	}
	if len(records) == 0 {
		return entity.Failed(entity.ErrEmptyInput, "csv_text contains no rows")
	}

	columns, hasHeader := resolveHeader(records[0])
	rows := records
	if hasHeader {
		rows = records[1:]
	}

	var positions []entity.RawPosition
	for _, row := range rows {
		pos, ok := rowToPosition(row, columns)
		if !ok {
			continue
		}
		positions = append(positions, pos)
	}
	if len(positions) == 0 {
		return entity.Failed(entity.ErrEmptyInput, "no parsable positions found in csv_text")
	}

	c.logger.Debug("CSV adapter extracted positions", "rows", len(rows), "positions", len(positions))
	return c.pipe.finish(ctx, positions, nil)
}

// positionalColumns is the assumed layout for headerless CSV input.
var positionalColumns = []string{fieldSymbol, fieldName, fieldQuantity, fieldPrice, fieldValue}

// resolveHeader maps column index to canonical field. The first record is a
// header only when at least one cell matches a known alias and no cell
// parses as a number.
func resolveHeader(first []string) (map[int]string, bool) {
	matched := 0
	numeric := false
	columns := make(map[int]string, len(first))
	for i, cell := range first {
		if field := resolveAlias(cell); field != "" {
			columns[i] = field
			matched++
		}
		if cell != "" && parseNumber(cell) != 0 {
			numeric = true
		}
	}
	if matched > 0 && !numeric {
		return columns, true
	}

	columns = make(map[int]string, len(positionalColumns))
	for i, field := range positionalColumns {
		columns[i] = field
	}
	return columns, false
}

// rowToPosition builds a raw position from one CSV row. Rows without a
// symbol are rejected.
func rowToPosition(row []string, columns map[int]string) (entity.RawPosition, bool) {
	fields := make(map[string]string)
	for i, cell := range row {
		if field, ok := columns[i]; ok {
			fields[field] = strings.TrimSpace(cell)
		}
	}
	return fieldsToPosition(fields, "csv")
}

// fieldsToPosition converts resolved canonical fields to a raw position.
// Shared with the JSON adapter.
func fieldsToPosition(fields map[string]string, source string) (entity.RawPosition, bool) {
	symbol := fields[fieldSymbol]
	if symbol == "" {
		return entity.RawPosition{}, false
	}

	pos := entity.RawPosition{
		Symbol:   symbol,
		Name:     fields[fieldName],
		Quantity: parseNumber(fields[fieldQuantity]),
		PriceUSD: parseNumber(fields[fieldPrice]),
		ValueUSD: parseNumber(fields[fieldValue]),
		Currency: fields[fieldCurrency],
		Role:     fields[fieldRole],
		Meta:     map[string]any{entity.MetaSource: source},
	}
	if pos.Currency == "" {
		pos.Currency = "USD"
	}
	// Derive missing value from quantity and price.
	if pos.ValueUSD <= 0 && pos.Quantity > 0 && pos.PriceUSD > 0 {
		pos.ValueUSD = pos.Quantity * pos.PriceUSD
	}
	if risk := fields[fieldRisk]; risk != "" {
		pos.Meta[fieldRisk] = risk
	}
	if chain := fields[fieldChain]; chain != "" {
		pos.Meta[entity.MetaChain] = strings.ToLower(chain)
	}
	if contract := fields[fieldContract]; contract != "" {
		pos.Meta[entity.MetaContractAddress] = strings.ToLower(contract)
	}
	return pos, true
}
