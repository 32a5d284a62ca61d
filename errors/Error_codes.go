package errors

import "strconv"

// ERR is the application error code carried by every *Error.
type ERR int32

//nolint:revive,stylecheck // names mirror the wire codes
const (
	ERR_UNKNOWN             ERR = 0
	ERR_INVALID_ARGUMENT    ERR = 1
	ERR_INVALID_PARAM       ERR = 2
	ERR_THRESHOLD_EXCEEDED  ERR = 3
	ERR_NOT_FOUND           ERR = 4
	ERR_PROCESSING          ERR = 5
	ERR_CONFIGURATION       ERR = 6
	ERR_CONTEXT             ERR = 7
	ERR_CONTEXT_CANCELED    ERR = 8
	ERR_ERROR               ERR = 9
	ERR_BLOCK_NOT_FOUND     ERR = 10
	ERR_BLOCK_INVALID       ERR = 11
	ERR_BLOCK_EXISTS        ERR = 12
	ERR_BLOCK_ERROR         ERR = 13
	ERR_SERVICE_UNAVAILABLE ERR = 20
	ERR_SERVICE_NOT_STARTED ERR = 21
	ERR_SERVICE_ERROR       ERR = 22
	ERR_STORAGE_UNAVAILABLE ERR = 30
	ERR_STORAGE_NOT_STARTED ERR = 31
	ERR_STORAGE_ERROR       ERR = 32
	ERR_BLOB_NOT_FOUND      ERR = 33
	ERR_BLOB_EXISTS         ERR = 34
	ERR_STATE_ERROR         ERR = 35
)

var ERR_name = map[int32]string{
	0:  "UNKNOWN",
	1:  "INVALID_ARGUMENT",
	2:  "INVALID_PARAM",
	3:  "THRESHOLD_EXCEEDED",
	4:  "NOT_FOUND",
	5:  "PROCESSING",
	6:  "CONFIGURATION",
	7:  "CONTEXT",
	8:  "CONTEXT_CANCELED",
	9:  "ERROR",
	10: "BLOCK_NOT_FOUND",
	11: "BLOCK_INVALID",
	12: "BLOCK_EXISTS",
	13: "BLOCK_ERROR",
	20: "SERVICE_UNAVAILABLE",
	21: "SERVICE_NOT_STARTED",
	22: "SERVICE_ERROR",
	30: "STORAGE_UNAVAILABLE",
	31: "STORAGE_NOT_STARTED",
	32: "STORAGE_ERROR",
	33: "BLOB_NOT_FOUND",
	34: "BLOB_EXISTS",
	35: "STATE_ERROR",
}

var ERR_value = func() map[string]int32 {
	m := make(map[string]int32, len(ERR_name))
	for k, v := range ERR_name {
		m[v] = k
	}

	return m
}()

// Enum returns the name of the code, or the numeric value for codes outside the table.
func (x ERR) Enum() string {
	if name, ok := ERR_name[int32(x)]; ok {
		return name
	}

	return "ERR(" + strconv.Itoa(int(x)) + ")"
}

func (x ERR) String() string {
	return x.Enum()
}
