package common

import (
	"encoding/json"
)

// ConvertInterfaceToInterface copies from into to through a JSON round trip.
// A nil source leaves to untouched.
func ConvertInterfaceToInterface(from any, to any) error {
	if from == nil {
		return nil
	}

	data, err := json.Marshal(from)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, to)
}
