package cart

import "encoding/json"

// snapshot is the persisted representation of the cart. Extra fields in a
// stored snapshot are ignored on load.
type snapshot struct {
	Items []Line `json:"items"`
}

func encodeSnapshot(state State) (string, error) {
	raw, err := json.Marshal(snapshot{Items: state.Items})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeSnapshot(raw string) (State, error) {
	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return State{}, err
	}
	return State{Items: snap.Items}, nil
}
