package doctree

import (
	"encoding/json"
	"fmt"

	jsonpatch "github.com/evanphx/json-patch/v5"
)

// PatchError reports the first operation in a batch that could not be
// applied. Index is -1 when the operation list itself failed to decode.
type PatchError struct {
	Index int
	Op    string
	Path  string
	Err   error
}

func (e *PatchError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("decode patch: %v", e.Err)
	}
	return fmt.Sprintf("patch operation %d (%s %s): %v", e.Index, e.Op, e.Path, e.Err)
}

func (e *PatchError) Unwrap() error {
	return e.Err
}

// Apply applies an ordered RFC 6902 operation list (a JSON array of
// add/remove/replace/move/copy/test operations) to doc and returns the
// patched tree. Operations run strictly in sequence; the first failure
// aborts the whole batch with a *PatchError carrying the operation's index
// and path, and no partial result is observable. doc itself is never
// mutated.
func Apply(doc any, operations []byte) (any, error) {
	patch, err := jsonpatch.DecodePatch(operations)
	if err != nil {
		return nil, &PatchError{Index: -1, Err: err}
	}

	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}

	for i, op := range patch {
		next, err := (jsonpatch.Patch{op}).Apply(encoded)
		if err != nil {
			path, pathErr := op.Path()
			if pathErr != nil {
				path = ""
			}
			return nil, &PatchError{Index: i, Op: op.Kind(), Path: path, Err: err}
		}
		encoded = next
	}

	var out any
	if err := json.Unmarshal(encoded, &out); err != nil {
		return nil, fmt.Errorf("decode patched document: %w", err)
	}
	return out, nil
}
