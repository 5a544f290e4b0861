package scene

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/distantsignal/distantsignal/internal/apperr"
)

// Reserved top-level keys of a script document. Every other top-level key
// whose value is an instruction list is a template.
const (
	keyTitle    = "title"
	keyStates   = "states"
	keyBlocks   = "blocks"
	keySettings = "settings"
)

// Instruction is one raw drawing instruction as it appears in the script.
// It stays untyped only inside the compiler; the compiled graph is made of
// typed nodes.
type Instruction map[string]any

// Settings is the free-form settings sub-object of a script.
type Settings map[string]any

// InitialState returns the state name to activate when a script is accepted
// while no state is active yet.
func (s Settings) InitialState() string {
	if v, ok := s["initial_state"].(string); ok {
		return v
	}
	return ""
}

// namedList is one entry of the "states" object, in document order.
type namedList struct {
	name         string
	instructions []Instruction
}

// blockLists is one entry of the "blocks" object, in document order.
type blockLists struct {
	name     string
	active   []Instruction
	inactive []Instruction
}

// document is the parsed but not yet compiled script.
type document struct {
	title    []Instruction
	states   []namedList
	blocks   []blockLists
	settings Settings

	// lists holds every top-level instruction list by key (templates, and
	// also title itself), for template resolution.
	lists map[string][]Instruction
}

// parseDocument decodes the script JSON, preserving the document order of
// the states and blocks objects.
func parseDocument(text string) (*document, error) {
	raw := map[string]json.RawMessage{}
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrMalformedDocument, err)
	}

	doc := &document{lists: map[string][]Instruction{}}

	for key, val := range raw {
		switch key {
		case keyStates, keyBlocks:
			// Decoded below, in document order.
		case keySettings:
			if err := json.Unmarshal(val, &doc.settings); err != nil {
				return nil, fmt.Errorf("%w: settings: %v", apperr.ErrMalformedDocument, err)
			}
		default:
			var insts []Instruction
			if err := json.Unmarshal(val, &insts); err != nil {
				// Not an instruction list. Only an error if something
				// references it as a template, which is caught there.
				continue
			}
			doc.lists[key] = insts
			if key == keyTitle {
				doc.title = insts
			}
		}
	}

	if rawStates, ok := raw[keyStates]; ok {
		names, err := objectKeys(rawStates)
		if err != nil {
			return nil, fmt.Errorf("%w: states: %v", apperr.ErrMalformedDocument, err)
		}
		byName := map[string][]Instruction{}
		if err := json.Unmarshal(rawStates, &byName); err != nil {
			return nil, fmt.Errorf("%w: states: %v", apperr.ErrMalformedDocument, err)
		}
		for _, name := range names {
			doc.states = append(doc.states, namedList{name: name, instructions: byName[name]})
		}
	}

	if rawBlocks, ok := raw[keyBlocks]; ok {
		names, err := objectKeys(rawBlocks)
		if err != nil {
			return nil, fmt.Errorf("%w: blocks: %v", apperr.ErrMalformedDocument, err)
		}
		byName := map[string]struct {
			Active   []Instruction `json:"active"`
			Inactive []Instruction `json:"inactive"`
		}{}
		if err := json.Unmarshal(rawBlocks, &byName); err != nil {
			return nil, fmt.Errorf("%w: blocks: %v", apperr.ErrMalformedDocument, err)
		}
		for _, name := range names {
			b := byName[name]
			doc.blocks = append(doc.blocks, blockLists{name: name, active: b.Active, inactive: b.Inactive})
		}
	}

	return doc, nil
}

// objectKeys returns the keys of a JSON object in the order they appear in
// the document. encoding/json maps do not preserve order, and paint order is
// defined by document order.
func objectKeys(raw json.RawMessage) ([]string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := t.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("expected an object, got %v", t)
	}
	var keys []string
	for dec.More() {
		kt, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := kt.(string)
		if !ok {
			return nil, fmt.Errorf("expected an object key, got %v", kt)
		}
		keys = append(keys, key)
		if err := skipValue(dec); err != nil {
			return nil, err
		}
	}
	return keys, nil
}

// skipValue consumes one JSON value from dec, descending into objects and
// arrays.
func skipValue(dec *json.Decoder) error {
	t, err := dec.Token()
	if err != nil {
		return err
	}
	d, ok := t.(json.Delim)
	if !ok || (d != '{' && d != '[') {
		return nil
	}
	for dec.More() {
		if d == '{' {
			if _, err := dec.Token(); err != nil { // key
				return err
			}
		}
		if err := skipValue(dec); err != nil {
			return err
		}
	}
	_, err = dec.Token() // closing delimiter
	return err
}
