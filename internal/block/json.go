package block

import (
	"encoding/json"
	"fmt"
)

// blockWire is Block's on-the-wire shape: settings serializes as a plain
// JSON object alongside block_type rather than Go's default interface
// encoding (which would lose the concrete type on the way back in).
type blockWire struct {
	ID       string          `json:"id"`
	Type     Type            `json:"block_type"`
	Label    string          `json:"label,omitempty"`
	Disabled bool            `json:"disabled,omitempty"`
	SafeMode bool            `json:"safe_mode,omitempty"`
	Settings json.RawMessage `json:"settings"`
}

// MarshalJSON writes Block with its Settings payload inlined as a plain
// object tagged by block_type — the "internally-tagged settings
// discriminator matching block_type" persistence format.
func (b Block) MarshalJSON() ([]byte, error) {
	settingsJSON, err := json.Marshal(b.Settings)
	if err != nil {
		return nil, fmt.Errorf("block %s: encoding settings: %w", b.ID, err)
	}
	return json.Marshal(blockWire{
		ID:       b.ID,
		Type:     b.Type,
		Label:    b.Label,
		Disabled: b.Disabled,
		SafeMode: b.SafeMode,
		Settings: settingsJSON,
	})
}

// UnmarshalJSON reconstructs a Block, resolving Settings to the concrete
// type block_type names via NewSettings. An unrecognized block_type fails
// with a structured error citing the tag and block id, per the
// persistence format's "unknown tags fail the load" rule.
func (b *Block) UnmarshalJSON(data []byte) error {
	var wire blockWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("block: decoding envelope: %w", err)
	}

	settings, err := NewSettings(wire.Type)
	if err != nil {
		return fmt.Errorf("block %s: %w", wire.ID, err)
	}
	if len(wire.Settings) > 0 {
		if err := json.Unmarshal(wire.Settings, settings); err != nil {
			return fmt.Errorf("block %s (%s): decoding settings: %w", wire.ID, wire.Type, err)
		}
	}

	b.ID = wire.ID
	b.Type = wire.Type
	b.Label = wire.Label
	b.Disabled = wire.Disabled
	b.SafeMode = wire.SafeMode
	b.Settings = settings
	return nil
}
