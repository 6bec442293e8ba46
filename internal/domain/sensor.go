package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// SensorWidth is the number of readings in one SensorRow.
const SensorWidth = 4

const sensorDataKey = "sensor_data"

// SensorRow is one reading, positionally
// [Voltage, Temperature, DeltaWaterLevel, MotorStatus].
type SensorRow [SensorWidth]float64

// PredictionRequest is the inbound payload for POST /predict.
//
// SensorData keeps the raw JSON so that an absent key and a present but
// malformed value produce different errors.
type PredictionRequest struct {
	SensorData json.RawMessage `json:"sensor_data"`
}

// UnmarshalJSON matches the sensor_data key exactly. encoding/json would
// otherwise accept "Sensor_Data" and similar spellings.
func (r *PredictionRequest) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	r.SensorData = fields[sensorDataKey]
	return nil
}

// PredictionResponse carries one label per input row, in input order.
type PredictionResponse struct {
	Predictions []string `json:"predictions"`
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DecodePredictionRequest reads a single JSON object from r. Anything that is
// not a JSON object carrying sensor_data yields ErrMissingSensorData, except
// a body cut off by a size limit, which is a *PredictionError.
func DecodePredictionRequest(r io.Reader) (*PredictionRequest, error) {
	if r == nil {
		return nil, ErrMissingSensorData
	}

	dec := json.NewDecoder(r)
	var req PredictionRequest
	if err := dec.Decode(&req); err != nil {
		return nil, decodeError(err)
	}
	// Trailing data after the object makes the body invalid JSON.
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, decodeError(err)
	}
	if len(req.SensorData) == 0 {
		return nil, ErrMissingSensorData
	}
	return &req, nil
}

func decodeError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return NewPredictionError(err)
	}
	return ErrMissingSensorData
}

// Rows validates sensor_data as a rectangular two-dimensional array with
// SensorWidth columns and converts it to SensorRows.
//
// Shape problems (not an array of arrays, ragged rows, wrong width, nested
// values, zero rows) return ErrInvalidShape. Cells that are well placed but
// not numbers return a *PredictionError, since the shape itself was valid.
func (r *PredictionRequest) Rows() ([]SensorRow, error) {
	if len(r.SensorData) == 0 {
		return nil, ErrMissingSensorData
	}

	cells, err := splitMatrix(r.SensorData)
	if err != nil {
		return nil, err
	}

	rows := make([]SensorRow, len(cells))
	for i, row := range cells {
		for j, cell := range row {
			v, err := parseCell(cell)
			if err != nil {
				return nil, NewPredictionError(fmt.Errorf("row %d, column %d: %w", i, j, err))
			}
			rows[i][j] = v
		}
	}
	return rows, nil
}

// splitMatrix checks the whole structure before any cell is converted, so a
// shape error always wins over a bad value.
func splitMatrix(raw json.RawMessage) ([][]json.RawMessage, error) {
	if !isArray(raw) {
		return nil, ErrInvalidShape
	}

	var outer []json.RawMessage
	if err := json.Unmarshal(raw, &outer); err != nil {
		return nil, ErrInvalidShape
	}
	if len(outer) == 0 {
		return nil, ErrInvalidShape
	}

	matrix := make([][]json.RawMessage, len(outer))
	for i, rawRow := range outer {
		if !isArray(rawRow) {
			return nil, ErrInvalidShape
		}
		var row []json.RawMessage
		if err := json.Unmarshal(rawRow, &row); err != nil {
			return nil, ErrInvalidShape
		}
		if len(row) != SensorWidth {
			return nil, ErrInvalidShape
		}
		for _, cell := range row {
			if isArray(cell) || isObject(cell) {
				return nil, ErrInvalidShape
			}
		}
		matrix[i] = row
	}
	return matrix, nil
}

func parseCell(cell json.RawMessage) (float64, error) {
	cell = bytes.TrimSpace(cell)
	if len(cell) == 0 {
		return 0, errors.New("empty value")
	}

	switch cell[0] {
	case '"':
		var s string
		if err := json.Unmarshal(cell, &s); err != nil {
			return 0, fmt.Errorf("invalid string value: %w", err)
		}
		return 0, fmt.Errorf("could not convert string to float: %q", s)
	case 't', 'f':
		return 0, fmt.Errorf("could not convert boolean to float: %s", cell)
	case 'n':
		return 0, errors.New("could not convert null to float")
	}

	var v float64
	if err := json.Unmarshal(cell, &v); err != nil {
		return 0, fmt.Errorf("could not convert %s to float: %w", cell, err)
	}
	return v, nil
}

func isArray(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '['
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}
