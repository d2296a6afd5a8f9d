package dto

import (
	"bytes"
	"encoding/json"
	"strconv"

	errors "github.com/Laisky/errors/v2"
)

// FlexibleID is an entry id that browsers send either as a JSON number
// or as a numeric string. It normalizes both at the boundary so the
// services only ever see uint64 ids.
type FlexibleID uint64

// UnmarshalJSON accepts 5 and "5" interchangeably.
func (f *FlexibleID) UnmarshalJSON(data []byte) error {
	raw := string(bytes.Trim(data, `"`))
	if raw == "" || raw == "null" {
		return errors.New("entry id must not be empty")
	}

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return errors.Wrapf(err, "parse entry id `%s`", raw)
	}

	*f = FlexibleID(id)
	return nil
}

// MarshalJSON writes the id as a JSON number.
func (f FlexibleID) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint64(f))
}

// Uint64 returns the normalized id.
func (f FlexibleID) Uint64() uint64 {
	return uint64(f)
}

// UnwrapIDs converts a boundary id list into plain uint64 ids.
func UnwrapIDs(ids []FlexibleID) []uint64 {
	out := make([]uint64, 0, len(ids))
	for _, id := range ids {
		out = append(out, id.Uint64())
	}
	return out
}
